package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealtime-backend/internal/mealplans"
	"github.com/angelmondragon/mealtime-backend/internal/shoppinglists"
	"github.com/angelmondragon/mealtime-backend/pkg/config"
	"github.com/angelmondragon/mealtime-backend/pkg/logger"
	"github.com/angelmondragon/mealtime-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubShoppingListService struct {
	shoppinglists.Service
	lastUser uuid.UUID
	lastList uuid.UUID
}

func (s *stubShoppingListService) List(_ context.Context, userID uuid.UUID, _ pagination.Params) (shoppinglists.ListPage, error) {
	s.lastUser = userID
	return shoppinglists.ListPage{}, nil
}

func (s *stubShoppingListService) Get(_ context.Context, userID, listID uuid.UUID) (shoppinglists.ShoppingListDetailDTO, error) {
	s.lastUser, s.lastList = userID, listID
	return shoppinglists.ShoppingListDetailDTO{}, nil
}

func (s *stubShoppingListService) History(_ context.Context, userID uuid.UUID, days int) (shoppinglists.HistoryResult, error) {
	s.lastUser = userID
	return shoppinglists.HistoryResult{PeriodDays: days}, nil
}

func (s *stubShoppingListService) Refresh(_ context.Context, userID, listID uuid.UUID) (shoppinglists.ShoppingListDetailDTO, error) {
	s.lastUser, s.lastList = userID, listID
	return shoppinglists.ShoppingListDetailDTO{}, nil
}

type stubMealPlanService struct{}

func (stubMealPlanService) Range(context.Context, uuid.UUID, time.Time, time.Time) ([]mealplans.MealPlanDTO, error) {
	return nil, nil
}

func newTestRouter(svc shoppinglists.Service, metrics http.Handler) http.Handler {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(Params{
		Config:         cfg,
		Logger:         logg,
		DB:             stubPinger{},
		ShoppingLists:  svc,
		MealPlans:      stubMealPlanService{},
		MetricsHandler: metrics,
	})
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(&stubShoppingListService{}, nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, resp.Code, path)
		assert.NotEmpty(t, resp.Header().Get("X-Request-Id"), path)
	}
}

func TestAPIRoutesRequireIdentity(t *testing.T) {
	router := newTestRouter(&stubShoppingListService{}, nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/shopping-lists", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shopping-lists", nil)
	req.Header.Set("X-User-Id", "not-a-uuid")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestShoppingListRoutesResolveParams(t *testing.T) {
	svc := &stubShoppingListService{}
	router := newTestRouter(svc, nil)
	userID := uuid.New()
	listID := uuid.New()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/shopping-lists"},
		{http.MethodGet, "/api/v1/shopping-lists/history?days=7"},
		{http.MethodGet, "/api/v1/shopping-lists/" + listID.String()},
		{http.MethodPost, "/api/v1/shopping-lists/" + listID.String() + "/refresh"},
		{http.MethodGet, "/api/v1/meal-plans?start=2026-10-05&end=2026-10-11"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("X-User-Id", userID.String())
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code, "%s %s: %s", tc.method, tc.path, resp.Body.String())
	}
	assert.Equal(t, userID, svc.lastUser)
	assert.Equal(t, listID, svc.lastList)
}

func TestMetricsRouteIsOptional(t *testing.T) {
	router := newTestRouter(&stubShoppingListService{}, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "# HELP up\n")
	})
	router = newTestRouter(&stubShoppingListService{}, metrics)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.HasPrefix(resp.Body.String(), "# HELP"))
}
