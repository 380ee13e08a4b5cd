package shoppinglists

import (
	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityTolerance is the largest quantity difference still treated as equal.
var QuantityTolerance = decimal.New(1, -quantityPlaces)

// Action describes what Resolve did to satisfy a request.
type Action string

const (
	ActionCreated Action = "created"
	ActionExists  Action = "exists"
	ActionUpdated Action = "updated"
)

type itemKey struct {
	ingredientID uuid.UUID
	unit         enums.Unit
}

// quantitiesEqual treats differences up to QuantityTolerance as equal.
func quantitiesEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(QuantityTolerance)
}

// sameBasis reports whether the list was built from exactly the aggregation's meal plans.
func sameBasis(linked []uuid.UUID, agg Aggregation) bool {
	want := map[uuid.UUID]struct{}{}
	for _, id := range agg.MealPlanIDs() {
		want[id] = struct{}{}
	}
	have := map[uuid.UUID]struct{}{}
	for _, id := range linked {
		have[id] = struct{}{}
	}
	if len(want) != len(have) {
		return false
	}
	for id := range want {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}

// sameContent compares stored items with the aggregation keyed by (ingredient, unit).
// Duplicate stored rows for a key are summed before comparing.
func sameContent(items []models.ShoppingListItem, agg Aggregation) bool {
	stored := map[itemKey]decimal.Decimal{}
	for _, item := range items {
		key := itemKey{ingredientID: item.IngredientID, unit: item.Unit}
		stored[key] = stored[key].Add(item.Quantity)
	}
	required := map[itemKey]decimal.Decimal{}
	for _, entry := range agg.Items {
		key := itemKey{ingredientID: entry.Ingredient.ID, unit: entry.Unit}
		required[key] = required[key].Add(entry.Quantity)
	}
	if len(stored) != len(required) {
		return false
	}
	for key, want := range required {
		have, ok := stored[key]
		if !ok || !quantitiesEqual(have, want) {
			return false
		}
	}
	return true
}

// countsRecorded reports whether every link carries the recipe count the aggregation
// holds for its meal plan.
func countsRecorded(links []models.ShoppingListMealPlan, agg Aggregation) bool {
	want := map[uuid.UUID]int{}
	for _, link := range agg.Basis() {
		want[link.MealPlanID] = link.RecipeCount
	}
	for _, link := range links {
		if count, ok := want[link.MealPlanID]; !ok || count != link.RecipeCount {
			return false
		}
	}
	return true
}

func linkedIDs(links []models.ShoppingListMealPlan) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.MealPlanID)
	}
	return ids
}

// upToDate reports whether a stored list still matches the aggregation.
func upToDate(linked []uuid.UUID, items []models.ShoppingListItem, agg Aggregation) bool {
	return sameBasis(linked, agg) && sameContent(items, agg)
}
