package mealplans

import (
	"context"
	"time"

	"github.com/angelmondragon/mealtime-backend/internal/repo"
	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository reads meal plans together with everything needed to price them into a shopping list.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FetchWithRecipes(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.MealPlan, error)
}

type repositoryImpl struct {
	repo.Base
}

// NewRepository returns a meal plan repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{Base: repo.NewBase(db)}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{Base: r.Base.WithTx(tx)}
}

// FetchWithRecipes returns the user's meal plans dated within [start, end], with
// scheduled recipes, recipe lines, ingredients and categories preloaded in a stable order.
func (r *repositoryImpl) FetchWithRecipes(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.MealPlan, error) {
	var plans []models.MealPlan
	err := r.DB(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, start, end).
		Preload("Recipes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Preload("Recipes.Recipe").
		Preload("Recipes.Recipe.Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Recipes.Recipe.Ingredients.Ingredient").
		Preload("Recipes.Recipe.Ingredients.Ingredient.Category").
		Order("date ASC, meal_type ASC, id ASC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}
