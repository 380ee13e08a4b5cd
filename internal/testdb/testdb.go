// Package testdb opens throwaway SQLite databases carrying the mealtime schema
// and seeds catalog and meal plan fixtures for repository and service tests.
package testdb

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ingredient_categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  sort_order INTEGER NOT NULL DEFAULT 0
);`,
	`CREATE TABLE IF NOT EXISTS ingredients (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category_id TEXT,
  default_unit TEXT NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS recipes (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  portions INTEGER NOT NULL DEFAULT 2
);`,
	`CREATE TABLE IF NOT EXISTS recipe_ingredients (
  id TEXT PRIMARY KEY,
  recipe_id TEXT NOT NULL,
  ingredient_id TEXT NOT NULL,
  quantity TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0
);`,
	`CREATE TABLE IF NOT EXISTS meal_plans (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  date DATE NOT NULL,
  meal_type TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (user_id, date, meal_type)
);`,
	`CREATE TABLE IF NOT EXISTS recipe_meal_plans (
  id TEXT PRIMARY KEY,
  meal_plan_id TEXT NOT NULL,
  recipe_id TEXT NOT NULL,
  portions INTEGER NOT NULL DEFAULT 2,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS shopping_lists (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  period_start DATE NOT NULL,
  period_end DATE NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  total_items INTEGER NOT NULL DEFAULT 0,
  items_checked INTEGER NOT NULL DEFAULT 0,
  is_outdated INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME,
  generated_at DATETIME,
  completed_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS shopping_list_meal_plans (
  shopping_list_id TEXT NOT NULL,
  meal_plan_id TEXT NOT NULL,
  recipe_count INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (shopping_list_id, meal_plan_id)
);`,
	`CREATE TABLE IF NOT EXISTS shopping_list_items (
  id TEXT PRIMARY KEY,
  shopping_list_id TEXT NOT NULL,
  ingredient_id TEXT NOT NULL,
  quantity TEXT NOT NULL,
  unit TEXT NOT NULL,
  checked INTEGER NOT NULL DEFAULT 0,
  category_id TEXT,
  sort_order INTEGER NOT NULL DEFAULT 0,
  custom_name TEXT,
  notes TEXT
);`,
}

// Open returns an isolated in-memory database with the schema applied.
// A single pooled connection keeps every statement on the same memory database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := "file:" + name + "_" + uuid.NewString()[:8] + "?mode=memory&cache=shared"

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// Day returns UTC midnight for the given calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func Category(t *testing.T, db *gorm.DB, name string, sortOrder int) *models.IngredientCategory {
	t.Helper()
	cat := &models.IngredientCategory{Name: name, SortOrder: sortOrder}
	mustCreate(t, db, cat)
	return cat
}

func Ingredient(t *testing.T, db *gorm.DB, name string, unit enums.Unit, category *models.IngredientCategory) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, DefaultUnit: unit}
	if category != nil {
		ing.CategoryID = &category.ID
	}
	mustCreate(t, db, ing)
	ing.Category = category
	return ing
}

// Line is a recipe ingredient quantity used by Recipe.
type Line struct {
	Ingredient *models.Ingredient
	Quantity   string
}

// Recipe creates a recipe yielding portions servings with the given lines in order.
func Recipe(t *testing.T, db *gorm.DB, name string, portions int, lines ...Line) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{Name: name, Portions: portions}
	mustCreate(t, db, recipe)
	for i, line := range lines {
		ri := models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: line.Ingredient.ID,
			Quantity:     decimal.RequireFromString(line.Quantity),
			Position:     i,
		}
		mustCreate(t, db, &ri)
		ri.Ingredient = line.Ingredient
		recipe.Ingredients = append(recipe.Ingredients, ri)
	}
	return recipe
}

// Planned schedules a recipe at a portion count inside MealPlan.
type Planned struct {
	Recipe   *models.Recipe
	Portions int
}

// MealPlan creates a plan for the user's day and meal slot with the scheduled recipes.
func MealPlan(t *testing.T, db *gorm.DB, userID uuid.UUID, date time.Time, mealType enums.MealType, recipes ...Planned) *models.MealPlan {
	t.Helper()
	plan := &models.MealPlan{UserID: userID, Date: date, MealType: mealType}
	mustCreate(t, db, plan)
	for i, p := range recipes {
		rmp := models.RecipeMealPlan{
			MealPlanID: plan.ID,
			RecipeID:   p.Recipe.ID,
			Portions:   p.Portions,
			SortOrder:  i,
		}
		mustCreate(t, db, &rmp)
		rmp.Recipe = p.Recipe
		plan.Recipes = append(plan.Recipes, rmp)
	}
	return plan
}

func mustCreate(t *testing.T, db *gorm.DB, value any) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}
