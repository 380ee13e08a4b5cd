package controllers

import (
	"net/http"

	"github.com/angelmondragon/mealtime-backend/api/responses"
	"github.com/angelmondragon/mealtime-backend/api/validators"
	"github.com/angelmondragon/mealtime-backend/internal/mealplans"
	"github.com/angelmondragon/mealtime-backend/pkg/logger"
)

// ListMealPlans returns the caller's meal plans between ?start= and ?end= inclusive.
func ListMealPlans(svc mealplans.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		start, err := validators.ParseQueryDate(r, "start")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		end, err := validators.ParseQueryDate(r, "end")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		plans, err := svc.Range(r.Context(), userID, start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plans)
	}
}
