package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealtime-backend/pkg/enums"
)

// MealPlan is one meal slot on a calendar day for a user.
type MealPlan struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:meal_plans_user_date_meal_type_key"`
	Date      time.Time        `gorm:"column:date;type:date;not null;uniqueIndex:meal_plans_user_date_meal_type_key"`
	MealType  enums.MealType   `gorm:"column:meal_type;not null;uniqueIndex:meal_plans_user_date_meal_type_key"`
	Recipes   []RecipeMealPlan `gorm:"foreignKey:MealPlanID"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *MealPlan) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// RecipeMealPlan schedules a recipe into a meal plan at a planned portion count.
type RecipeMealPlan struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MealPlanID uuid.UUID `gorm:"column:meal_plan_id;type:uuid;not null;index:recipe_meal_plans_meal_plan_id_idx"`
	RecipeID   uuid.UUID `gorm:"column:recipe_id;type:uuid;not null"`
	Recipe     *Recipe   `gorm:"foreignKey:RecipeID"`
	Portions   int       `gorm:"column:portions;not null;default:2"`
	SortOrder  int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *RecipeMealPlan) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
