package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealtime-backend/pkg/enums"
)

// IngredientCategory groups ingredients into store aisles.
type IngredientCategory struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
}

func (c *IngredientCategory) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Ingredient is a catalog entry planned in its default unit.
type Ingredient struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string              `gorm:"column:name;not null"`
	CategoryID  *uuid.UUID          `gorm:"column:category_id;type:uuid"`
	Category    *IngredientCategory `gorm:"foreignKey:CategoryID"`
	DefaultUnit enums.Unit          `gorm:"column:default_unit;not null"`
}

func (i *Ingredient) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
