package shoppinglists

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	"github.com/angelmondragon/mealtime-backend/pkg/types"
	"github.com/google/uuid"
)

// Materializer writes aggregations into shopping list rows.
type Materializer struct {
	now func() time.Time
}

// NewMaterializer returns a Materializer stamping rows with now.
func NewMaterializer(now func() time.Time) *Materializer {
	if now == nil {
		now = time.Now
	}
	return &Materializer{now: now}
}

// DefaultName is the list name used when the caller gives none.
func DefaultName(start, end time.Time) string {
	return fmt.Sprintf("Shopping %s – %s", start.Format(types.DateLayout), end.Format(types.DateLayout))
}

// CreateFrom persists a new draft list for the period with one item per aggregated ingredient.
// A zero period falls back to the first and last meal plan dates of the aggregation.
func (m *Materializer) CreateFrom(ctx context.Context, repo Repository, userID uuid.UUID, agg Aggregation, name string, start, end time.Time) (*models.ShoppingList, error) {
	if start.IsZero() || end.IsZero() {
		start, end = agg.FirstDate, agg.LastDate
	}
	start, end = types.Midnight(start), types.Midnight(end)
	if name == "" {
		name = DefaultName(start, end)
	}

	now := m.now().UTC()
	list := &models.ShoppingList{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      enums.ShoppingListStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
		GeneratedAt: now,
	}
	if err := repo.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("create shopping list: %w", err)
	}
	if err := m.write(ctx, repo, list, agg, now); err != nil {
		return nil, err
	}
	return list, nil
}

// Refresh rewrites an existing list from the aggregation. Items are recreated, so
// check marks and notes on the old items are lost.
func (m *Materializer) Refresh(ctx context.Context, repo Repository, list *models.ShoppingList, agg Aggregation) (*models.ShoppingList, error) {
	now := m.now().UTC()
	if err := m.write(ctx, repo, list, agg, now); err != nil {
		return nil, err
	}
	if err := m.Confirm(ctx, repo, list, now); err != nil {
		return nil, err
	}
	return list, nil
}

// Confirm records that the list matches its meal plans as of now and clears the outdated flag.
func (m *Materializer) Confirm(ctx context.Context, repo Repository, list *models.ShoppingList, now time.Time) error {
	if err := repo.UpdateFields(ctx, list.ID, map[string]any{
		"is_outdated":  false,
		"generated_at": now,
		"updated_at":   now,
	}); err != nil {
		return fmt.Errorf("clear outdated flag: %w", err)
	}
	list.IsOutdated = false
	list.GeneratedAt = now
	list.UpdatedAt = now
	return nil
}

func (m *Materializer) write(ctx context.Context, repo Repository, list *models.ShoppingList, agg Aggregation, now time.Time) error {
	if err := repo.ReplaceMealPlans(ctx, list.ID, agg.Basis()); err != nil {
		return fmt.Errorf("link meal plans: %w", err)
	}
	if err := repo.ReplaceItems(ctx, list.ID, itemsFrom(agg)); err != nil {
		return fmt.Errorf("write items: %w", err)
	}
	total, checked, err := repo.RecountItems(ctx, list.ID, now)
	if err != nil {
		return fmt.Errorf("recount items: %w", err)
	}
	list.TotalItems = total
	list.ItemsChecked = checked
	list.UpdatedAt = now
	return nil
}

func itemsFrom(agg Aggregation) []models.ShoppingListItem {
	items := make([]models.ShoppingListItem, 0, len(agg.Items))
	for i, entry := range agg.Items {
		items = append(items, models.ShoppingListItem{
			IngredientID: entry.Ingredient.ID,
			Quantity:     entry.Quantity,
			Unit:         entry.Unit,
			CategoryID:   entry.Ingredient.CategoryID,
			SortOrder:    i,
		})
	}
	return items
}
