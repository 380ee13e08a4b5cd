package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShoppingListStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ShoppingListStatus
		allowed  bool
	}{
		{ShoppingListStatusDraft, ShoppingListStatusActive, true},
		{ShoppingListStatusDraft, ShoppingListStatusArchived, true},
		{ShoppingListStatusDraft, ShoppingListStatusCompleted, false},
		{ShoppingListStatusActive, ShoppingListStatusCompleted, true},
		{ShoppingListStatusActive, ShoppingListStatusArchived, true},
		{ShoppingListStatusActive, ShoppingListStatusDraft, false},
		{ShoppingListStatusCompleted, ShoppingListStatusArchived, false},
		{ShoppingListStatusArchived, ShoppingListStatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestShoppingListStatusIsOpen(t *testing.T) {
	assert.True(t, ShoppingListStatusDraft.IsOpen())
	assert.True(t, ShoppingListStatusActive.IsOpen())
	assert.False(t, ShoppingListStatusCompleted.IsOpen())
	assert.False(t, ShoppingListStatusArchived.IsOpen())
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("tbsp")
	require.NoError(t, err)
	assert.Equal(t, UnitTablespoon, u)
	assert.Equal(t, "tablespoons", u.Display())

	_, err = ParseUnit("cups")
	require.Error(t, err)
	assert.Equal(t, "cups", Unit("cups").Display())
}

func TestParseMealType(t *testing.T) {
	m, err := ParseMealType("supper")
	require.NoError(t, err)
	assert.Equal(t, MealTypeSupper, m)

	_, err = ParseMealType("brunch")
	require.Error(t, err)
}
