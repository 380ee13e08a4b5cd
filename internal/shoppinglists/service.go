package shoppinglists

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/mealtime-backend/internal/mealplans"
	"github.com/angelmondragon/mealtime-backend/internal/repo"
	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealtime-backend/pkg/errors"
	"github.com/angelmondragon/mealtime-backend/pkg/lock"
	"github.com/angelmondragon/mealtime-backend/pkg/logger"
	"github.com/angelmondragon/mealtime-backend/pkg/metrics"
	"github.com/angelmondragon/mealtime-backend/pkg/pagination"
	"github.com/angelmondragon/mealtime-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultHistoryDays = 30
	defaultLockTTL     = 30 * time.Second
	copySuffix         = " (copy)"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes shopping list reconciliation and list management.
type Service interface {
	Resolve(ctx context.Context, userID uuid.UUID, start, end time.Time, name string) (ResolveResult, error)
	Generate(ctx context.Context, userID uuid.UUID, input GenerateInput) (GenerateResult, error)
	ArchiveSuperseded(ctx context.Context, userID uuid.UUID, start, end time.Time) (int64, error)
	History(ctx context.Context, userID uuid.UUID, days int) (HistoryResult, error)
	Compare(ctx context.Context, userID, firstID, secondID uuid.UUID) (Comparison, error)

	Get(ctx context.Context, userID, listID uuid.UUID) (ShoppingListDetailDTO, error)
	List(ctx context.Context, userID uuid.UUID, page pagination.Params) (ListPage, error)
	Activate(ctx context.Context, userID, listID uuid.UUID) (ShoppingListDTO, error)
	Complete(ctx context.Context, userID, listID uuid.UUID) (ShoppingListDTO, error)
	Duplicate(ctx context.Context, userID, listID uuid.UUID) (ShoppingListDetailDTO, error)
	Refresh(ctx context.Context, userID, listID uuid.UUID) (ShoppingListDetailDTO, error)
	ToggleItem(ctx context.Context, userID, itemID uuid.UUID) (ShoppingListItemDTO, error)

	MarkOutdated(ctx context.Context) (int64, error)
	ArchiveDuplicates(ctx context.Context) (int64, error)
}

// ServiceParams groups dependencies for the shopping list service.
type ServiceParams struct {
	Repo          Repository
	MealPlans     mealplans.Repository
	TxRunner      txRunner
	Locker        lock.Locker
	Logger        *logger.Logger
	Metrics       *metrics.ShoppingListMetrics
	Now           func() time.Time
	LockTTL       time.Duration
	HistoryDays   int
	MaxPeriodDays int
}

type service struct {
	repo          Repository
	mealPlans     mealplans.Repository
	tx            txRunner
	locker        lock.Locker
	logg          *logger.Logger
	metrics       *metrics.ShoppingListMetrics
	materializer  *Materializer
	now           func() time.Time
	lockTTL       time.Duration
	historyDays   int
	maxPeriodDays int
}

// NewService builds a shopping list service. A nil Locker disables period locking,
// leaving concurrent resolutions of the same period as last-write-wins.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shopping list repo is required")
	}
	if params.MealPlans == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal plan repo is required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	lockTTL := params.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	historyDays := params.HistoryDays
	if historyDays <= 0 {
		historyDays = defaultHistoryDays
	}
	return &service{
		repo:          params.Repo,
		mealPlans:     params.MealPlans,
		tx:            params.TxRunner,
		locker:        params.Locker,
		logg:          params.Logger,
		metrics:       params.Metrics,
		materializer:  NewMaterializer(now),
		now:           now,
		lockTTL:       lockTTL,
		historyDays:   historyDays,
		maxPeriodDays: params.MaxPeriodDays,
	}, nil
}

// Resolve returns a list matching the user's meal plans for the period, reusing
// the newest open list when it is still equivalent, rewriting it when it is not,
// and creating one when none exists.
func (s *service) Resolve(ctx context.Context, userID uuid.UUID, start, end time.Time, name string) (ResolveResult, error) {
	start, end, err := s.normalizePeriod(start, end)
	if err != nil {
		return ResolveResult{}, err
	}
	agg, err := s.aggregate(ctx, userID, start, end)
	if err != nil {
		return ResolveResult{}, err
	}

	var result ResolveResult
	err = s.withPeriodLock(ctx, userID, start, end, func() error {
		var resolveErr error
		result, resolveErr = s.resolve(ctx, userID, start, end, name, agg)
		return resolveErr
	})
	if err != nil {
		return ResolveResult{}, err
	}
	return result, nil
}

// Generate resolves the period's list, archives the lists it superseded and
// reports what happened.
func (s *service) Generate(ctx context.Context, userID uuid.UUID, input GenerateInput) (GenerateResult, error) {
	started := s.now()
	start, end, err := s.normalizePeriod(input.Start, input.End)
	if err != nil {
		return GenerateResult{}, err
	}
	ctx = s.logg.WithUserID(ctx, userID.String())
	ctx = s.logg.WithPeriod(ctx, start, end)

	agg, err := s.aggregate(ctx, userID, start, end)
	if err != nil {
		return GenerateResult{}, err
	}

	var (
		result   ResolveResult
		archived int64
	)
	err = s.withPeriodLock(ctx, userID, start, end, func() error {
		var stepErr error
		if result, stepErr = s.resolve(ctx, userID, start, end, input.Name, agg); stepErr != nil {
			return stepErr
		}
		archived, stepErr = s.archiveSuperseded(ctx, userID, start, end)
		return stepErr
	})
	if err != nil {
		return GenerateResult{}, err
	}

	items, err := s.repo.ListItems(ctx, result.List.ID)
	if err != nil {
		return GenerateResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shopping list items")
	}

	s.metrics.ObserveResolve(s.now().Sub(started))
	ctx = s.logg.WithShoppingList(ctx, result.List.ID.String())
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"action":   string(result.Action),
		"archived": archived,
	}), "shopping list resolved")

	return GenerateResult{
		ShoppingList: detailFromModel(*result.List, items),
		Action:       result.Action,
		Message:      result.Action.Message(),
		Statistics: Statistics{
			TotalIngredients: result.List.TotalItems,
			PeriodDays:       types.DaysInclusive(result.List.PeriodStart, result.List.PeriodEnd),
		},
	}, nil
}

// ArchiveSuperseded keeps the newest open list of the period and archives the rest.
func (s *service) ArchiveSuperseded(ctx context.Context, userID uuid.UUID, start, end time.Time) (int64, error) {
	start, end = types.Midnight(start), types.Midnight(end)
	var archived int64
	err := s.withPeriodLock(ctx, userID, start, end, func() error {
		var archiveErr error
		archived, archiveErr = s.archiveSuperseded(ctx, userID, start, end)
		return archiveErr
	})
	return archived, err
}

// History returns lists created on or after today minus days, newest first.
func (s *service) History(ctx context.Context, userID uuid.UUID, days int) (HistoryResult, error) {
	if days <= 0 {
		days = s.historyDays
	}
	cutoff := types.Midnight(s.now().UTC()).AddDate(0, 0, -days)
	lists, err := s.repo.ListByUser(ctx, userID, &cutoff)
	if err != nil {
		return HistoryResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shopping list history")
	}
	return HistoryResult{
		PeriodDays: days,
		TotalLists: len(lists),
		Lists:      listsFromModels(lists),
	}, nil
}

// Compare reports how the second list differs from the first.
func (s *service) Compare(ctx context.Context, userID, firstID, secondID uuid.UUID) (Comparison, error) {
	first, err := s.loadItems(ctx, userID, firstID)
	if err != nil {
		return Comparison{}, err
	}
	second, err := s.loadItems(ctx, userID, secondID)
	if err != nil {
		return Comparison{}, err
	}
	diffs := compareItems(first, second)
	return Comparison{
		FirstListID:      firstID,
		SecondListID:     secondID,
		Differences:      diffs,
		TotalDifferences: len(diffs),
	}, nil
}

func (s *service) Get(ctx context.Context, userID, listID uuid.UUID) (ShoppingListDetailDTO, error) {
	list, err := s.repo.FindByID(ctx, userID, listID)
	if err != nil {
		return ShoppingListDetailDTO{}, mapLoadError(err, "shopping list")
	}
	items, err := s.repo.ListItems(ctx, list.ID)
	if err != nil {
		return ShoppingListDetailDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shopping list items")
	}
	return detailFromModel(*list, items), nil
}

// List pages through every list of the user, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, page pagination.Params) (ListPage, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return ListPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").WithDetails(map[string]any{"field": "cursor"})
	}
	lists, err := s.repo.ListPage(ctx, userID, cursor, page.Limit)
	if err != nil {
		return ListPage{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shopping lists")
	}
	lists, next := pagination.Trim(lists, page.Limit, func(l models.ShoppingList) pagination.Cursor {
		return pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
	})
	return ListPage{Lists: listsFromModels(lists), NextCursor: next}, nil
}

func (s *service) Activate(ctx context.Context, userID, listID uuid.UUID) (ShoppingListDTO, error) {
	return s.transition(ctx, userID, listID, enums.ShoppingListStatusActive)
}

// Complete marks an active list as bought and stamps completed_at.
func (s *service) Complete(ctx context.Context, userID, listID uuid.UUID) (ShoppingListDTO, error) {
	return s.transition(ctx, userID, listID, enums.ShoppingListStatusCompleted)
}

// Duplicate copies a list into a new draft with every item unchecked.
func (s *service) Duplicate(ctx context.Context, userID, listID uuid.UUID) (ShoppingListDetailDTO, error) {
	var copyID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		source, err := repo.FindByID(ctx, userID, listID)
		if err != nil {
			return mapLoadError(err, "shopping list")
		}
		items, err := repo.ListItems(ctx, source.ID)
		if err != nil {
			return err
		}
		linked, err := repo.LinkedMealPlans(ctx, source.ID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		dup := &models.ShoppingList{
			ID:          uuid.New(),
			UserID:      userID,
			Name:        source.Name + copySuffix,
			PeriodStart: source.PeriodStart,
			PeriodEnd:   source.PeriodEnd,
			Status:      enums.ShoppingListStatusDraft,
			IsOutdated:  source.IsOutdated,
			CreatedAt:   now,
			UpdatedAt:   now,
			GeneratedAt: source.GeneratedAt,
		}
		if err := repo.Create(ctx, dup); err != nil {
			return err
		}
		if err := repo.ReplaceMealPlans(ctx, dup.ID, linked); err != nil {
			return err
		}
		copies := make([]models.ShoppingListItem, 0, len(items))
		for _, item := range items {
			copies = append(copies, models.ShoppingListItem{
				IngredientID: item.IngredientID,
				Quantity:     item.Quantity,
				Unit:         item.Unit,
				CategoryID:   item.CategoryID,
				SortOrder:    item.SortOrder,
				CustomName:   item.CustomName,
				Notes:        item.Notes,
			})
		}
		if err := repo.ReplaceItems(ctx, dup.ID, copies); err != nil {
			return err
		}
		if _, _, err := repo.RecountItems(ctx, dup.ID, now); err != nil {
			return err
		}
		copyID = dup.ID
		return nil
	})
	if err != nil {
		return ShoppingListDetailDTO{}, asServiceError(err, "duplicate shopping list")
	}
	return s.Get(ctx, userID, copyID)
}

// Refresh rebuilds an open list from the current meal plans of its period.
func (s *service) Refresh(ctx context.Context, userID, listID uuid.UUID) (ShoppingListDetailDTO, error) {
	list, err := s.repo.FindByID(ctx, userID, listID)
	if err != nil {
		return ShoppingListDetailDTO{}, mapLoadError(err, "shopping list")
	}
	if !list.Status.IsOpen() {
		return ShoppingListDetailDTO{}, pkgerrors.New(pkgerrors.CodeStateConflict, "only draft or active lists can be refreshed").
			WithDetails(map[string]any{"status": list.Status})
	}
	start, end := types.Midnight(list.PeriodStart), types.Midnight(list.PeriodEnd)
	agg, err := s.aggregate(ctx, userID, start, end)
	if err != nil {
		return ShoppingListDetailDTO{}, err
	}
	err = s.withPeriodLock(ctx, userID, start, end, func() error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			_, refreshErr := s.materializer.Refresh(ctx, s.repo.WithTx(tx), list, agg)
			return refreshErr
		})
	})
	if err != nil {
		return ShoppingListDetailDTO{}, asServiceError(err, "refresh shopping list")
	}
	s.metrics.IncResolve(string(ActionUpdated))
	return s.Get(ctx, userID, listID)
}

// ToggleItem flips an item's check mark and recounts its list under a row lock.
func (s *service) ToggleItem(ctx context.Context, userID, itemID uuid.UUID) (ShoppingListItemDTO, error) {
	var item *models.ShoppingListItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindItem(ctx, userID, itemID)
		if err != nil {
			return mapLoadError(err, "shopping list item")
		}
		if _, err := repo.LockByID(ctx, found.ShoppingListID); err != nil {
			return err
		}
		found.Checked = !found.Checked
		if err := repo.SetItemChecked(ctx, found.ID, found.Checked); err != nil {
			return err
		}
		if _, _, err := repo.RecountItems(ctx, found.ShoppingListID, s.now().UTC()); err != nil {
			return err
		}
		item = found
		return nil
	})
	if err != nil {
		return ShoppingListItemDTO{}, asServiceError(err, "toggle shopping list item")
	}
	return itemFromModel(*item), nil
}

// MarkOutdated flags open lists whose meal plans changed since they were written.
func (s *service) MarkOutdated(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkOutdated(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark outdated shopping lists")
	}
	return n, nil
}

// ArchiveDuplicates archives superseded lists for every period holding more than one open list.
func (s *service) ArchiveDuplicates(ctx context.Context) (int64, error) {
	periods, err := s.repo.PeriodsWithDuplicates(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find duplicate shopping lists")
	}
	var (
		total int64
		errs  error
	)
	for _, p := range periods {
		n, archiveErr := s.ArchiveSuperseded(ctx, p.UserID, p.PeriodStart, p.PeriodEnd)
		if archiveErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("archive %s %s..%s: %w",
				p.UserID, types.NewDate(p.PeriodStart), types.NewDate(p.PeriodEnd), archiveErr))
			continue
		}
		total += n
	}
	return total, errs
}

func (s *service) resolve(ctx context.Context, userID uuid.UUID, start, end time.Time, name string, agg Aggregation) (ResolveResult, error) {
	var result ResolveResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		candidates, err := repo.FindOpenForPeriod(ctx, userID, start, end)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			list, err := s.materializer.CreateFrom(ctx, repo, userID, agg, name, start, end)
			if err != nil {
				return err
			}
			result = ResolveResult{List: list, Action: ActionCreated}
			return nil
		}

		current := candidates[0]
		links, err := repo.LinkedMealPlans(ctx, current.ID)
		if err != nil {
			return err
		}
		items, err := repo.ListItems(ctx, current.ID)
		if err != nil {
			return err
		}
		if upToDate(linkedIDs(links), items, agg) {
			// A flagged list that still matches keeps its items and check marks.
			if current.IsOutdated || !countsRecorded(links, agg) {
				if err := repo.ReplaceMealPlans(ctx, current.ID, agg.Basis()); err != nil {
					return err
				}
				if err := s.materializer.Confirm(ctx, repo, &current, s.now().UTC()); err != nil {
					return err
				}
			}
			result = ResolveResult{List: &current, Action: ActionExists}
			return nil
		}
		list, err := s.materializer.Refresh(ctx, repo, &current, agg)
		if err != nil {
			return err
		}
		result = ResolveResult{List: list, Action: ActionUpdated}
		return nil
	})
	if err != nil {
		return ResolveResult{}, asServiceError(err, "resolve shopping list")
	}
	s.metrics.IncResolve(string(result.Action))
	return result, nil
}

func (s *service) archiveSuperseded(ctx context.Context, userID uuid.UUID, start, end time.Time) (int64, error) {
	var archived int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		open, err := repo.FindOpenForPeriod(ctx, userID, start, end)
		if err != nil {
			return err
		}
		if len(open) <= 1 {
			return nil
		}
		archived, err = repo.ArchiveOthers(ctx, userID, start, end, open[0].ID, s.now().UTC())
		return err
	})
	if err != nil {
		return 0, asServiceError(err, "archive superseded shopping lists")
	}
	return archived, nil
}

func (s *service) transition(ctx context.Context, userID, listID uuid.UUID, next enums.ShoppingListStatus) (ShoppingListDTO, error) {
	var updated models.ShoppingList
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		list, err := repo.FindByID(ctx, userID, listID)
		if err != nil {
			return mapLoadError(err, "shopping list")
		}
		if !list.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shopping list status transition not allowed").
				WithDetails(map[string]any{"from": list.Status, "to": next})
		}
		now := s.now().UTC()
		fields := map[string]any{
			"status":     string(next),
			"updated_at": now,
		}
		if next == enums.ShoppingListStatusCompleted {
			fields["completed_at"] = now
			list.CompletedAt = &now
		}
		if err := repo.UpdateFields(ctx, list.ID, fields); err != nil {
			return err
		}
		list.Status = next
		list.UpdatedAt = now
		updated = *list
		return nil
	})
	if err != nil {
		return ShoppingListDTO{}, asServiceError(err, "update shopping list status")
	}
	return listFromModel(updated), nil
}

func (s *service) loadItems(ctx context.Context, userID, listID uuid.UUID) ([]models.ShoppingListItem, error) {
	list, err := s.repo.FindByID(ctx, userID, listID)
	if err != nil {
		return nil, mapLoadError(err, "shopping list")
	}
	items, err := s.repo.ListItems(ctx, list.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shopping list items")
	}
	return items, nil
}

func (s *service) normalizePeriod(start, end time.Time) (time.Time, time.Time, error) {
	if err := mealplans.ValidatePeriod(start, end, s.maxPeriodDays); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return types.Midnight(start), types.Midnight(end), nil
}

func (s *service) aggregate(ctx context.Context, userID uuid.UUID, start, end time.Time) (Aggregation, error) {
	plans, err := s.mealPlans.FetchWithRecipes(ctx, userID, start, end)
	if err != nil {
		return Aggregation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load meal plans")
	}
	agg, err := Aggregate(plans)
	if err != nil {
		return Aggregation{}, err
	}
	if agg.Empty() {
		return Aggregation{}, pkgerrors.New(pkgerrors.CodeNoData, "no meal plans with recipes in the selected period").
			WithDetails(map[string]any{
				"start_date": types.NewDate(start).String(),
				"end_date":   types.NewDate(end).String(),
			})
	}
	return agg, nil
}

func (s *service) withPeriodLock(ctx context.Context, userID uuid.UUID, start, end time.Time, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	l, err := s.locker.Lock(periodLockKey(userID, start, end), s.lockTTL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build period lock")
	}
	acquired, err := l.Acquire(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire period lock")
	}
	if !acquired {
		s.metrics.IncLockConflict()
		return pkgerrors.New(pkgerrors.CodeConcurrency, "shopping list for this period is being updated")
	}
	defer func() {
		if relErr := l.Release(ctx); relErr != nil {
			s.logg.Warn(ctx, "failed to release shopping list lock: "+relErr.Error())
		}
	}()
	return fn()
}

func periodLockKey(userID uuid.UUID, start, end time.Time) string {
	return fmt.Sprintf("shopping-list:%s:%s:%s", userID, types.NewDate(start), types.NewDate(end))
}

func mapLoadError(err error, what string) error {
	if repo.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}

func asServiceError(err error, msg string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if repo.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
