package shoppinglists

import (
	"fmt"
	"sort"

	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DifferenceKind classifies one line of a list comparison.
type DifferenceKind string

const (
	DifferenceRemoved DifferenceKind = "removed"
	DifferenceAdded   DifferenceKind = "added"
	DifferenceChanged DifferenceKind = "changed"
)

// Difference is a per-ingredient change from the first list to the second.
type Difference struct {
	Kind         DifferenceKind   `json:"kind"`
	IngredientID uuid.UUID        `json:"ingredient_id"`
	Name         string           `json:"name"`
	From         *decimal.Decimal `json:"from,omitempty"`
	To           *decimal.Decimal `json:"to,omitempty"`
	Description  string           `json:"description"`
}

// compareItems diffs two item sets keyed by ingredient. When a list holds several
// rows for one ingredient the first in list order is used.
func compareItems(first, second []models.ShoppingListItem) []Difference {
	a := indexByIngredient(first)
	b := indexByIngredient(second)

	ids := make([]uuid.UUID, 0, len(a)+len(b))
	for id := range a {
		ids = append(ids, id)
	}
	for id := range b {
		if _, ok := a[id]; !ok {
			ids = append(ids, id)
		}
	}

	diffs := []Difference{}
	for _, id := range ids {
		left, inA := a[id]
		right, inB := b[id]
		switch {
		case inA && !inB:
			name := left.DisplayName()
			diffs = append(diffs, Difference{
				Kind:         DifferenceRemoved,
				IngredientID: id,
				Name:         name,
				From:         quantityRef(left.Quantity),
				Description:  fmt.Sprintf("%s removed from list", name),
			})
		case !inA && inB:
			name := right.DisplayName()
			diffs = append(diffs, Difference{
				Kind:         DifferenceAdded,
				IngredientID: id,
				Name:         name,
				To:           quantityRef(right.Quantity),
				Description:  fmt.Sprintf("%s added to list", name),
			})
		case !quantitiesEqual(left.Quantity, right.Quantity):
			name := left.DisplayName()
			diffs = append(diffs, Difference{
				Kind:         DifferenceChanged,
				IngredientID: id,
				Name:         name,
				From:         quantityRef(left.Quantity),
				To:           quantityRef(right.Quantity),
				Description: fmt.Sprintf("%s: %s → %s", name,
					left.Quantity.StringFixed(quantityPlaces), right.Quantity.StringFixed(quantityPlaces)),
			})
		}
	}

	sort.Slice(diffs, func(i, j int) bool {
		if diffs[i].Name != diffs[j].Name {
			return diffs[i].Name < diffs[j].Name
		}
		return diffs[i].IngredientID.String() < diffs[j].IngredientID.String()
	})
	return diffs
}

func indexByIngredient(items []models.ShoppingListItem) map[uuid.UUID]models.ShoppingListItem {
	out := make(map[uuid.UUID]models.ShoppingListItem, len(items))
	for _, item := range items {
		existing, ok := out[item.IngredientID]
		if ok && existing.SortOrder <= item.SortOrder {
			continue
		}
		out[item.IngredientID] = item
	}
	return out
}

func quantityRef(d decimal.Decimal) *decimal.Decimal {
	return &d
}
