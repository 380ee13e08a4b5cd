package mealplans

import (
	"context"
	"time"

	pkgerrors "github.com/angelmondragon/mealtime-backend/pkg/errors"
	"github.com/angelmondragon/mealtime-backend/pkg/types"
	"github.com/google/uuid"
)

// Service exposes read-only meal plan views.
type Service interface {
	Range(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]MealPlanDTO, error)
}

type service struct {
	repo          Repository
	maxPeriodDays int
}

// NewService builds a meal plan service. maxPeriodDays <= 0 disables the range cap.
func NewService(repo Repository, maxPeriodDays int) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal plan repo is required")
	}
	return &service{repo: repo, maxPeriodDays: maxPeriodDays}, nil
}

// Range lists the user's meal plans between start and end inclusive.
func (s *service) Range(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]MealPlanDTO, error) {
	if err := ValidatePeriod(start, end, s.maxPeriodDays); err != nil {
		return nil, err
	}
	plans, err := s.repo.FetchWithRecipes(ctx, userID, types.Midnight(start), types.Midnight(end))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load meal plans")
	}
	out := make([]MealPlanDTO, 0, len(plans))
	for _, plan := range plans {
		out = append(out, mealPlanFromModel(plan))
	}
	return out, nil
}

// ValidatePeriod rejects reversed ranges and ranges longer than maxDays.
func ValidatePeriod(start, end time.Time, maxDays int) error {
	if start.IsZero() || end.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end dates are required")
	}
	if types.Midnight(end).Before(types.Midnight(start)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end date must not be before start date").
			WithDetails(map[string]any{"start": types.NewDate(start).String(), "end": types.NewDate(end).String()})
	}
	if maxDays > 0 && types.DaysInclusive(start, end) > maxDays {
		return pkgerrors.New(pkgerrors.CodeValidation, "period is too long").
			WithDetails(map[string]any{"max_days": maxDays})
	}
	return nil
}
