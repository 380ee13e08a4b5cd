package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/mealtime-backend/api/controllers"
	"github.com/angelmondragon/mealtime-backend/api/middleware"
	"github.com/angelmondragon/mealtime-backend/internal/mealplans"
	"github.com/angelmondragon/mealtime-backend/internal/shoppinglists"
	"github.com/angelmondragon/mealtime-backend/pkg/config"
	"github.com/angelmondragon/mealtime-backend/pkg/logger"
	"github.com/angelmondragon/mealtime-backend/pkg/metrics"
	"github.com/angelmondragon/mealtime-backend/pkg/redis"
)

// Params groups what the HTTP surface needs. Redis may be nil, which disables
// idempotent replays and reports Redis as disabled on readiness.
type Params struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             controllers.Pinger
	Redis          *redis.Client
	ShoppingLists  shoppinglists.Service
	MealPlans      mealplans.Service
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger
	shoppingListService, mealPlanService := p.ShoppingLists, p.MealPlans

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.AccessLog(logg, p.HTTPMetrics),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var redisPinger controllers.Pinger
	var idempotencyStore redis.IdempotencyStore
	if p.Redis != nil {
		redisPinger = p.Redis
		idempotencyStore = p.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, redisPinger))
	})

	if p.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.UserIdentity(logg))
		// route-level so the matcher sees the full route pattern
		idempotent := middleware.Idempotency(idempotencyStore, logg)

		r.Route("/shopping-lists", func(r chi.Router) {
			r.Get("/", controllers.ListShoppingLists(shoppingListService, logg))
			r.With(idempotent).Post("/generate", controllers.GenerateShoppingList(shoppingListService, logg))
			r.Get("/history", controllers.ShoppingListHistory(shoppingListService, logg))
			r.Post("/items/{itemId}/toggle", controllers.ToggleShoppingListItem(shoppingListService, logg))

			r.Route("/{listId}", func(r chi.Router) {
				r.Get("/", controllers.GetShoppingList(shoppingListService, logg))
				r.Get("/compare", controllers.CompareShoppingLists(shoppingListService, logg))
				r.Post("/activate", controllers.ActivateShoppingList(shoppingListService, logg))
				r.Post("/complete", controllers.CompleteShoppingList(shoppingListService, logg))
				r.With(idempotent).Post("/duplicate", controllers.DuplicateShoppingList(shoppingListService, logg))
				r.Post("/refresh", controllers.RefreshShoppingList(shoppingListService, logg))
			})
		})

		r.Get("/meal-plans", controllers.ListMealPlans(mealPlanService, logg))
	})

	return r
}
