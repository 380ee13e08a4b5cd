package enums

import "fmt"

// ShoppingListStatus tracks the lifecycle of a shopping list.
type ShoppingListStatus string

const (
	ShoppingListStatusDraft     ShoppingListStatus = "draft"
	ShoppingListStatusActive    ShoppingListStatus = "active"
	ShoppingListStatusCompleted ShoppingListStatus = "completed"
	ShoppingListStatusArchived  ShoppingListStatus = "archived"
)

var validShoppingListStatuses = []ShoppingListStatus{
	ShoppingListStatusDraft,
	ShoppingListStatusActive,
	ShoppingListStatusCompleted,
	ShoppingListStatusArchived,
}

// OpenShoppingListStatuses are the statuses a list can be reconciled against.
var OpenShoppingListStatuses = []ShoppingListStatus{
	ShoppingListStatusDraft,
	ShoppingListStatusActive,
}

var shoppingListTransitions = map[ShoppingListStatus][]ShoppingListStatus{
	ShoppingListStatusDraft:  {ShoppingListStatusActive, ShoppingListStatusArchived},
	ShoppingListStatusActive: {ShoppingListStatusCompleted, ShoppingListStatusArchived},
}

// String implements fmt.Stringer.
func (s ShoppingListStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShoppingListStatus.
func (s ShoppingListStatus) IsValid() bool {
	for _, candidate := range validShoppingListStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsOpen reports whether the list is still draft or active.
func (s ShoppingListStatus) IsOpen() bool {
	return s == ShoppingListStatusDraft || s == ShoppingListStatusActive
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Completed and archived are terminal.
func (s ShoppingListStatus) CanTransitionTo(next ShoppingListStatus) bool {
	for _, candidate := range shoppingListTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseShoppingListStatus converts raw input into a ShoppingListStatus.
func ParseShoppingListStatus(value string) (ShoppingListStatus, error) {
	for _, candidate := range validShoppingListStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shopping list status %q", value)
}
