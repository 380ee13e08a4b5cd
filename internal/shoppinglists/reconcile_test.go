package shoppinglists

import (
	"testing"

	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func singleItemAggregation(ing *models.Ingredient, qty string) Aggregation {
	return Aggregation{
		Items:     []AggregatedIngredient{{Ingredient: ing, Quantity: dec(qty), Unit: ing.DefaultUnit}},
		MealPlans: []models.MealPlan{{ID: uuid.New()}},
	}
}

func TestSameContentTolerance(t *testing.T) {
	flour := ingredient("Flour", enums.UnitGram, nil)
	agg := singleItemAggregation(flour, "150.00")

	item := func(qty string) []models.ShoppingListItem {
		return []models.ShoppingListItem{{IngredientID: flour.ID, Unit: enums.UnitGram, Quantity: dec(qty)}}
	}

	assert.True(t, sameContent(item("150.00"), agg))
	assert.True(t, sameContent(item("150.01"), agg), "a difference of exactly 0.01 is equal")
	assert.True(t, sameContent(item("149.99"), agg))
	assert.False(t, sameContent(item("150.02"), agg))
	assert.False(t, sameContent(item("149.98"), agg))
}

func TestSameContentKeysOnUnitAndSumsDuplicates(t *testing.T) {
	flour := ingredient("Flour", enums.UnitGram, nil)
	agg := singleItemAggregation(flour, "150")

	otherUnit := []models.ShoppingListItem{{IngredientID: flour.ID, Unit: enums.UnitKilogram, Quantity: dec("150")}}
	assert.False(t, sameContent(otherUnit, agg))

	split := []models.ShoppingListItem{
		{IngredientID: flour.ID, Unit: enums.UnitGram, Quantity: dec("100")},
		{IngredientID: flour.ID, Unit: enums.UnitGram, Quantity: dec("50")},
	}
	assert.True(t, sameContent(split, agg))

	extra := append(split, models.ShoppingListItem{IngredientID: uuid.New(), Unit: enums.UnitGram, Quantity: dec("1")})
	assert.False(t, sameContent(extra, agg))
}

func TestSameBasis(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	agg := Aggregation{MealPlans: []models.MealPlan{{ID: a}, {ID: b}}}

	assert.True(t, sameBasis([]uuid.UUID{b, a}, agg))
	assert.False(t, sameBasis([]uuid.UUID{a}, agg))
	assert.False(t, sameBasis([]uuid.UUID{a, b, uuid.New()}, agg))
	assert.False(t, sameBasis(nil, agg))
}

func TestUpToDateNeedsBothBasisAndContent(t *testing.T) {
	flour := ingredient("Flour", enums.UnitGram, nil)
	agg := singleItemAggregation(flour, "150")
	items := []models.ShoppingListItem{{IngredientID: flour.ID, Unit: enums.UnitGram, Quantity: dec("150")}}

	assert.True(t, upToDate(agg.MealPlanIDs(), items, agg))
	assert.False(t, upToDate([]uuid.UUID{uuid.New()}, items, agg))
	assert.False(t, upToDate(agg.MealPlanIDs(), nil, agg))
}

func TestCountsRecorded(t *testing.T) {
	plan := models.MealPlan{ID: uuid.New(), Recipes: []models.RecipeMealPlan{{}, {}}}
	agg := Aggregation{MealPlans: []models.MealPlan{plan}}

	assert.True(t, countsRecorded(agg.Basis(), agg))
	assert.False(t, countsRecorded([]models.ShoppingListMealPlan{{MealPlanID: plan.ID, RecipeCount: 1}}, agg))
	assert.False(t, countsRecorded([]models.ShoppingListMealPlan{{MealPlanID: uuid.New(), RecipeCount: 2}}, agg))
}
