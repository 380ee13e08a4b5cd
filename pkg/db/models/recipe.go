package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipe yields Portions servings from its ingredient lines.
type Recipe struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string             `gorm:"column:name;not null"`
	Portions    int                `gorm:"column:portions;not null;default:2"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID"`
}

func (r *Recipe) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// RecipeIngredient is a quantity of an ingredient for the recipe's native portions.
type RecipeIngredient struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipeID     uuid.UUID       `gorm:"column:recipe_id;type:uuid;not null;index:recipe_ingredients_recipe_id_idx"`
	IngredientID uuid.UUID       `gorm:"column:ingredient_id;type:uuid;not null"`
	Ingredient   *Ingredient     `gorm:"foreignKey:IngredientID"`
	Quantity     decimal.Decimal `gorm:"column:quantity;type:numeric(10,2);not null"`
	Position     int             `gorm:"column:position;not null;default:0"`
}

func (ri *RecipeIngredient) BeforeCreate(*gorm.DB) error {
	ensureID(&ri.ID)
	return nil
}
