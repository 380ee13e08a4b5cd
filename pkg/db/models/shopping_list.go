package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealtime-backend/pkg/enums"
)

// ShoppingList is a materialized purchase list for a user's period.
type ShoppingList struct {
	ID           uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index:shopping_lists_user_period_idx"`
	Name         string                   `gorm:"column:name;not null"`
	PeriodStart  time.Time                `gorm:"column:period_start;type:date;not null;index:shopping_lists_user_period_idx"`
	PeriodEnd    time.Time                `gorm:"column:period_end;type:date;not null;index:shopping_lists_user_period_idx"`
	Status       enums.ShoppingListStatus `gorm:"column:status;not null;default:'draft'"`
	TotalItems   int                      `gorm:"column:total_items;not null;default:0"`
	ItemsChecked int                      `gorm:"column:items_checked;not null;default:0"`
	IsOutdated   bool                     `gorm:"column:is_outdated;not null;default:false"`
	Items        []ShoppingListItem       `gorm:"foreignKey:ShoppingListID"`
	CreatedAt    time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                `gorm:"column:updated_at;autoUpdateTime"`
	// GeneratedAt is when the items were last confirmed against the meal plans.
	GeneratedAt  time.Time                `gorm:"column:generated_at;not null"`
	CompletedAt  *time.Time               `gorm:"column:completed_at"`
}

func (l *ShoppingList) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// ProgressPercent is the share of checked items, rounded down.
func (l ShoppingList) ProgressPercent() int {
	if l.TotalItems == 0 {
		return 0
	}
	return l.ItemsChecked * 100 / l.TotalItems
}

// ShoppingListMealPlan links a list to the meal plans it was built from.
type ShoppingListMealPlan struct {
	ShoppingListID uuid.UUID `gorm:"column:shopping_list_id;type:uuid;primaryKey"`
	MealPlanID     uuid.UUID `gorm:"column:meal_plan_id;type:uuid;primaryKey"`
	// RecipeCount is the number of scheduled recipes the plan had when the list was generated.
	RecipeCount    int       `gorm:"column:recipe_count;not null;default:0"`
}

// ShoppingListItem is one aggregated ingredient line on a list.
type ShoppingListItem struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShoppingListID uuid.UUID           `gorm:"column:shopping_list_id;type:uuid;not null;index:shopping_list_items_list_id_idx"`
	IngredientID   uuid.UUID           `gorm:"column:ingredient_id;type:uuid;not null"`
	Ingredient     *Ingredient         `gorm:"foreignKey:IngredientID"`
	Quantity       decimal.Decimal     `gorm:"column:quantity;type:numeric(10,2);not null"`
	Unit           enums.Unit          `gorm:"column:unit;not null"`
	Checked        bool                `gorm:"column:checked;not null;default:false"`
	CategoryID     *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	Category       *IngredientCategory `gorm:"foreignKey:CategoryID"`
	SortOrder      int                 `gorm:"column:sort_order;not null;default:0"`
	CustomName     *string             `gorm:"column:custom_name"`
	Notes          *string             `gorm:"column:notes"`
}

func (i *ShoppingListItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// DisplayName prefers the user supplied name over the catalog name.
func (i ShoppingListItem) DisplayName() string {
	if i.CustomName != nil && *i.CustomName != "" {
		return *i.CustomName
	}
	if i.Ingredient != nil {
		return i.Ingredient.Name
	}
	return ""
}
