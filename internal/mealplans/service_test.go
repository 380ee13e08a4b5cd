package mealplans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/mealtime-backend/internal/testdb"
	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealtime-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type stubRepo struct {
	plans      []models.MealPlan
	err        error
	start, end time.Time
}

func (s *stubRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubRepo) FetchWithRecipes(_ context.Context, _ uuid.UUID, start, end time.Time) ([]models.MealPlan, error) {
	s.start, s.end = start, end
	return s.plans, s.err
}

func TestRangeMapsPlans(t *testing.T) {
	recipe := &models.Recipe{ID: uuid.New(), Name: "Soup", Portions: 4}
	repo := &stubRepo{plans: []models.MealPlan{{
		ID:       uuid.New(),
		Date:     testdb.Day(2026, 10, 5),
		MealType: enums.MealTypeLunch,
		Recipes:  []models.RecipeMealPlan{{RecipeID: recipe.ID, Recipe: recipe, Portions: 2}},
	}}}
	svc, err := NewService(repo, 31)
	require.NoError(t, err)

	loc := time.FixedZone("UTC-5", -5*3600)
	out, err := svc.Range(context.Background(), uuid.New(), time.Date(2026, 10, 5, 22, 0, 0, 0, loc), testdb.Day(2026, 10, 6))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "2026-10-05", out[0].Date.String())
	assert.Equal(t, PlannedRecipeDTO{RecipeID: recipe.ID, Name: "Soup", Portions: 2, NativePortions: 4}, out[0].Recipes[0])
	assert.Equal(t, testdb.Day(2026, 10, 5), repo.start)
}

func TestRangeValidatesPeriod(t *testing.T) {
	svc, err := NewService(&stubRepo{}, 7)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Range(ctx, uuid.New(), testdb.Day(2026, 10, 6), testdb.Day(2026, 10, 5))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "error: %v", err)

	_, err = svc.Range(ctx, uuid.New(), testdb.Day(2026, 10, 1), testdb.Day(2026, 10, 8))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "error: %v", err)

	_, err = svc.Range(ctx, uuid.New(), testdb.Day(2026, 10, 1), testdb.Day(2026, 10, 7))
	require.NoError(t, err)
}

func TestRangeWrapsRepositoryErrors(t *testing.T) {
	svc, err := NewService(&stubRepo{err: errors.New("connection reset")}, 0)
	require.NoError(t, err)

	_, err = svc.Range(context.Background(), uuid.New(), testdb.Day(2026, 10, 1), testdb.Day(2026, 10, 1))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), "error: %v", err)
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil, 0)
	require.Error(t, err)
}
