package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/mealtime-backend/pkg/logger"
	"github.com/angelmondragon/mealtime-backend/pkg/metrics"
	"go.uber.org/multierr"
)

const shoppingListStalenessJobName = "shopping-list-staleness"

type ShoppingListStalenessJobParams struct {
	Logger  *logger.Logger
	Lists   shoppingListMaintainer
	Metrics *metrics.CronJobMetrics
}

type shoppingListMaintainer interface {
	MarkOutdated(ctx context.Context) (int64, error)
	ArchiveDuplicates(ctx context.Context) (int64, error)
}

// NewShoppingListStalenessJob flags open lists whose meal plans moved on and
// archives lists superseded within the same period.
func NewShoppingListStalenessJob(params ShoppingListStalenessJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lists == nil {
		return nil, fmt.Errorf("shopping list service required")
	}
	return &shoppingListStalenessJob{
		logg:    params.Logger,
		lists:   params.Lists,
		metrics: params.Metrics,
	}, nil
}

type shoppingListStalenessJob struct {
	logg    *logger.Logger
	lists   shoppingListMaintainer
	metrics *metrics.CronJobMetrics
}

func (j *shoppingListStalenessJob) Name() string { return shoppingListStalenessJobName }

func (j *shoppingListStalenessJob) Run(ctx context.Context) error {
	var errs error

	outdated, err := j.lists.MarkOutdated(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("mark outdated: %w", err))
	}
	j.metrics.AddAffected(j.Name(), "outdated", outdated)

	// Partial progress is still reported when some periods fail to archive.
	archived, err := j.lists.ArchiveDuplicates(ctx)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("archive duplicates: %w", err))
	}
	j.metrics.AddAffected(j.Name(), "archived", archived)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"lists_outdated": outdated,
		"lists_archived": archived,
	})
	if errs != nil {
		return fmt.Errorf("shopping list staleness: %w", errs)
	}
	j.logg.Info(logCtx, "shopping list staleness sweep complete")
	return nil
}
