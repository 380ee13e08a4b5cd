package mealplans

import (
	"context"
	"testing"

	"github.com/angelmondragon/mealtime-backend/internal/testdb"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchWithRecipesPreloadsGraphWithinRange(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	userID := uuid.New()

	produce := testdb.Category(t, db, "Produce", 1)
	eggs := testdb.Ingredient(t, db, "Eggs", enums.UnitPiece, nil)
	tomato := testdb.Ingredient(t, db, "Tomato", enums.UnitPiece, produce)
	omelet := testdb.Recipe(t, db, "Omelet", 2,
		testdb.Line{Ingredient: eggs, Quantity: "4"},
		testdb.Line{Ingredient: tomato, Quantity: "2"},
	)

	inRange := testdb.MealPlan(t, db, userID, testdb.Day(2026, 10, 5), enums.MealTypeBreakfast, testdb.Planned{Recipe: omelet, Portions: 2})
	testdb.MealPlan(t, db, userID, testdb.Day(2026, 10, 4), enums.MealTypeBreakfast, testdb.Planned{Recipe: omelet, Portions: 2})
	testdb.MealPlan(t, db, uuid.New(), testdb.Day(2026, 10, 5), enums.MealTypeBreakfast, testdb.Planned{Recipe: omelet, Portions: 2})
	lastDay := testdb.MealPlan(t, db, userID, testdb.Day(2026, 10, 11), enums.MealTypeDinner, testdb.Planned{Recipe: omelet, Portions: 4})

	plans, err := NewRepository(db).FetchWithRecipes(ctx, userID, testdb.Day(2026, 10, 5), testdb.Day(2026, 10, 11))
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, inRange.ID, plans[0].ID)
	assert.Equal(t, lastDay.ID, plans[1].ID)

	require.Len(t, plans[0].Recipes, 1)
	recipe := plans[0].Recipes[0].Recipe
	require.NotNil(t, recipe)
	assert.Equal(t, "Omelet", recipe.Name)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "Eggs", recipe.Ingredients[0].Ingredient.Name)
	assert.Nil(t, recipe.Ingredients[0].Ingredient.Category)
	require.NotNil(t, recipe.Ingredients[1].Ingredient.Category)
	assert.Equal(t, "Produce", recipe.Ingredients[1].Ingredient.Category.Name)
	assert.True(t, recipe.Ingredients[0].Quantity.Equal(dec("4")))
}
