package shoppinglists

import (
	"context"
	"time"

	"github.com/angelmondragon/mealtime-backend/internal/repo"
	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	"github.com/angelmondragon/mealtime-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes persistence helpers for shopping lists, their items and basis links.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, list *models.ShoppingList) error
	FindByID(ctx context.Context, userID, listID uuid.UUID) (*models.ShoppingList, error)
	LockByID(ctx context.Context, listID uuid.UUID) (*models.ShoppingList, error)
	FindOpenForPeriod(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.ShoppingList, error)
	ListByUser(ctx context.Context, userID uuid.UUID, createdSince *time.Time) ([]models.ShoppingList, error)
	ListPage(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.ShoppingList, error)
	UpdateFields(ctx context.Context, listID uuid.UUID, fields map[string]any) error
	ArchiveOthers(ctx context.Context, userID uuid.UUID, start, end time.Time, keepID uuid.UUID, now time.Time) (int64, error)

	ListItems(ctx context.Context, listID uuid.UUID) ([]models.ShoppingListItem, error)
	ReplaceItems(ctx context.Context, listID uuid.UUID, items []models.ShoppingListItem) error
	FindItem(ctx context.Context, userID, itemID uuid.UUID) (*models.ShoppingListItem, error)
	SetItemChecked(ctx context.Context, itemID uuid.UUID, checked bool) error
	RecountItems(ctx context.Context, listID uuid.UUID, now time.Time) (total int, checked int, err error)

	LinkedMealPlanIDs(ctx context.Context, listID uuid.UUID) ([]uuid.UUID, error)
	LinkedMealPlans(ctx context.Context, listID uuid.UUID) ([]models.ShoppingListMealPlan, error)
	ReplaceMealPlans(ctx context.Context, listID uuid.UUID, links []models.ShoppingListMealPlan) error

	MarkOutdated(ctx context.Context, now time.Time) (int64, error)
	PeriodsWithDuplicates(ctx context.Context) ([]Period, error)
}

// Period identifies the lists a user keeps for one calendar range.
type Period struct {
	UserID      uuid.UUID `gorm:"column:user_id"`
	PeriodStart time.Time `gorm:"column:period_start"`
	PeriodEnd   time.Time `gorm:"column:period_end"`
}

type repositoryImpl struct {
	repo.Base
}

// NewRepository returns a shopping list repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{Base: repo.NewBase(db)}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{Base: r.Base.WithTx(tx)}
}

func openStatuses() []string {
	out := make([]string, 0, len(enums.OpenShoppingListStatuses))
	for _, s := range enums.OpenShoppingListStatuses {
		out = append(out, string(s))
	}
	return out
}

func (r *repositoryImpl) Create(ctx context.Context, list *models.ShoppingList) error {
	return r.DB(ctx).Omit(clause.Associations).Create(list).Error
}

// FindByID returns the list when it belongs to the user.
func (r *repositoryImpl) FindByID(ctx context.Context, userID, listID uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	if err := r.DB(ctx).Where("id = ? AND user_id = ?", listID, userID).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// LockByID loads the list row FOR UPDATE. Must run inside a transaction.
func (r *repositoryImpl) LockByID(ctx context.Context, listID uuid.UUID) (*models.ShoppingList, error) {
	var list models.ShoppingList
	err := r.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", listID).
		First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// FindOpenForPeriod returns draft and active lists for the exact period, newest first.
func (r *repositoryImpl) FindOpenForPeriod(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.ShoppingList, error) {
	var lists []models.ShoppingList
	err := r.DB(ctx).
		Where("user_id = ? AND period_start = ? AND period_end = ? AND status IN ?", userID, start, end, openStatuses()).
		Order("created_at DESC, id DESC").
		Find(&lists).Error
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, createdSince *time.Time) ([]models.ShoppingList, error) {
	query := r.DB(ctx).Where("user_id = ?", userID)
	if createdSince != nil {
		query = query.Where("created_at >= ?", *createdSince)
	}
	var lists []models.ShoppingList
	if err := query.Order("created_at DESC, id DESC").Find(&lists).Error; err != nil {
		return nil, err
	}
	return lists, nil
}

// ListPage returns up to limit+1 lists so callers can detect a following page.
func (r *repositoryImpl) ListPage(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.ShoppingList, error) {
	var lists []models.ShoppingList
	err := r.DB(ctx).
		Where("user_id = ?", userID).
		Scopes(pagination.Seek(cursor, limit)).
		Find(&lists).Error
	if err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *repositoryImpl) UpdateFields(ctx context.Context, listID uuid.UUID, fields map[string]any) error {
	return repo.RequireAffected(r.DB(ctx).Model(&models.ShoppingList{}).Where("id = ?", listID).Updates(fields))
}

// ArchiveOthers archives every open list of the period except keepID.
func (r *repositoryImpl) ArchiveOthers(ctx context.Context, userID uuid.UUID, start, end time.Time, keepID uuid.UUID, now time.Time) (int64, error) {
	result := r.DB(ctx).
		Model(&models.ShoppingList{}).
		Where("user_id = ? AND period_start = ? AND period_end = ? AND status IN ? AND id <> ?", userID, start, end, openStatuses(), keepID).
		Updates(map[string]any{
			"status":      string(enums.ShoppingListStatusArchived),
			"is_outdated": true,
			"updated_at":  now,
		})
	return result.RowsAffected, result.Error
}

// ListItems returns the list's items with ingredient and category, in list order.
func (r *repositoryImpl) ListItems(ctx context.Context, listID uuid.UUID) ([]models.ShoppingListItem, error) {
	var items []models.ShoppingListItem
	err := r.DB(ctx).
		Preload("Ingredient").
		Preload("Category").
		Where("shopping_list_id = ?", listID).
		Order("sort_order ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceItems deletes every item of the list and inserts items in its place.
func (r *repositoryImpl) ReplaceItems(ctx context.Context, listID uuid.UUID, items []models.ShoppingListItem) error {
	db := r.DB(ctx)
	if err := db.Where("shopping_list_id = ?", listID).Delete(&models.ShoppingListItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ShoppingListID = listID
	}
	return db.Omit(clause.Associations).Create(&items).Error
}

// FindItem returns the item when its list belongs to the user.
func (r *repositoryImpl) FindItem(ctx context.Context, userID, itemID uuid.UUID) (*models.ShoppingListItem, error) {
	var item models.ShoppingListItem
	err := r.DB(ctx).
		Preload("Ingredient").
		Preload("Category").
		Select("shopping_list_items.*").
		Joins("JOIN shopping_lists ON shopping_lists.id = shopping_list_items.shopping_list_id").
		Where("shopping_list_items.id = ? AND shopping_lists.user_id = ?", itemID, userID).
		Take(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) SetItemChecked(ctx context.Context, itemID uuid.UUID, checked bool) error {
	return r.DB(ctx).
		Model(&models.ShoppingListItem{}).
		Where("id = ?", itemID).
		Update("checked", checked).Error
}

// RecountItems recomputes total_items and items_checked from the live item rows.
func (r *repositoryImpl) RecountItems(ctx context.Context, listID uuid.UUID, now time.Time) (int, int, error) {
	db := r.DB(ctx)
	var total, checked int64
	if err := db.Model(&models.ShoppingListItem{}).Where("shopping_list_id = ?", listID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := db.Model(&models.ShoppingListItem{}).Where("shopping_list_id = ? AND checked = ?", listID, true).Count(&checked).Error; err != nil {
		return 0, 0, err
	}
	err := r.UpdateFields(ctx, listID, map[string]any{
		"total_items":   total,
		"items_checked": checked,
		"updated_at":    now,
	})
	if err != nil {
		return 0, 0, err
	}
	return int(total), int(checked), nil
}

func (r *repositoryImpl) LinkedMealPlanIDs(ctx context.Context, listID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.ShoppingListMealPlan{}).
		Where("shopping_list_id = ?", listID).
		Order("meal_plan_id ASC").
		Pluck("meal_plan_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repositoryImpl) LinkedMealPlans(ctx context.Context, listID uuid.UUID) ([]models.ShoppingListMealPlan, error) {
	var links []models.ShoppingListMealPlan
	err := r.DB(ctx).
		Where("shopping_list_id = ?", listID).
		Order("meal_plan_id ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

// ReplaceMealPlans relinks the list's basis set. The first link wins for a repeated meal plan.
func (r *repositoryImpl) ReplaceMealPlans(ctx context.Context, listID uuid.UUID, links []models.ShoppingListMealPlan) error {
	db := r.DB(ctx)
	if err := db.Where("shopping_list_id = ?", listID).Delete(&models.ShoppingListMealPlan{}).Error; err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}
	rows := make([]models.ShoppingListMealPlan, 0, len(links))
	seen := map[uuid.UUID]struct{}{}
	for _, link := range links {
		if _, dup := seen[link.MealPlanID]; dup {
			continue
		}
		seen[link.MealPlanID] = struct{}{}
		rows = append(rows, models.ShoppingListMealPlan{
			ShoppingListID: listID,
			MealPlanID:     link.MealPlanID,
			RecipeCount:    link.RecipeCount,
		})
	}
	return db.Create(&rows).Error
}

const markOutdatedSQL = `
UPDATE shopping_lists SET is_outdated = ?, updated_at = ?
WHERE status IN ? AND is_outdated = ?
AND (
  EXISTS (
    SELECT 1 FROM meal_plans mp
    WHERE mp.user_id = shopping_lists.user_id
      AND mp.date >= shopping_lists.period_start
      AND mp.date <= shopping_lists.period_end
      AND (
        mp.updated_at > shopping_lists.generated_at
        OR NOT EXISTS (
          SELECT 1 FROM shopping_list_meal_plans l
          WHERE l.shopping_list_id = shopping_lists.id AND l.meal_plan_id = mp.id
        )
        OR EXISTS (
          SELECT 1 FROM recipe_meal_plans rmp
          WHERE rmp.meal_plan_id = mp.id AND rmp.updated_at > shopping_lists.generated_at
        )
      )
  )
  OR EXISTS (
    SELECT 1 FROM shopping_list_meal_plans l
    WHERE l.shopping_list_id = shopping_lists.id
      AND (
        NOT EXISTS (SELECT 1 FROM meal_plans mp WHERE mp.id = l.meal_plan_id)
        OR l.recipe_count <> (
          SELECT COUNT(*) FROM recipe_meal_plans rmp WHERE rmp.meal_plan_id = l.meal_plan_id
        )
      )
  )
)`

// MarkOutdated flags open lists whose period gained, lost or changed meal plans
// since the list was generated. Scheduled recipes removed from a linked plan are
// caught by the recipe count recorded on the link.
func (r *repositoryImpl) MarkOutdated(ctx context.Context, now time.Time) (int64, error) {
	result := r.DB(ctx).Exec(markOutdatedSQL, true, now, openStatuses(), false)
	return result.RowsAffected, result.Error
}

// PeriodsWithDuplicates returns periods that still hold more than one open list.
func (r *repositoryImpl) PeriodsWithDuplicates(ctx context.Context) ([]Period, error) {
	var periods []Period
	err := r.DB(ctx).
		Model(&models.ShoppingList{}).
		Select("user_id, period_start, period_end").
		Where("status IN ?", openStatuses()).
		Group("user_id, period_start, period_end").
		Having("COUNT(*) > 1").
		Scan(&periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}
