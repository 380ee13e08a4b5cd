package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/mealtime-backend/api/responses"
	"github.com/angelmondragon/mealtime-backend/api/validators"
	"github.com/angelmondragon/mealtime-backend/internal/shoppinglists"
	pkgerrors "github.com/angelmondragon/mealtime-backend/pkg/errors"
	"github.com/angelmondragon/mealtime-backend/pkg/logger"
	"github.com/angelmondragon/mealtime-backend/pkg/pagination"
	"github.com/angelmondragon/mealtime-backend/pkg/types"
)

const (
	maxListNameLength = 255
	maxHistoryDays    = 365
)

type generateShoppingListRequest struct {
	StartDate types.Date `json:"start_date" validate:"required"`
	EndDate   types.Date `json:"end_date" validate:"required"`
	Name      string     `json:"name"`
}

// GenerateShoppingList resolves the caller's list for a period. A new list answers 201.
func GenerateShoppingList(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shopping list service unavailable"))
			return
		}
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req generateShoppingListRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Generate(r.Context(), userID, shoppinglists.GenerateInput{
			Start: req.StartDate.Time,
			End:   req.EndDate.Time,
			Name:  validators.TrimText(req.Name, maxListNameLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if result.Action == shoppinglists.ActionCreated {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// ListShoppingLists pages through the caller's lists with ?limit= and ?cursor=.
func ListShoppingLists(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lists, err := svc.List(r.Context(), userID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lists)
	}
}

// ShoppingListHistory returns lists created in the last ?days= days (default 30).
func ShoppingListHistory(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		days, err := validators.ParseQueryInt(r, "days", 0, 1, maxHistoryDays)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		history, err := svc.History(r.Context(), userID, days)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, history)
	}
}

func GetShoppingList(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return listAction(logg, func(r *http.Request, userID, listID uuid.UUID) (any, int, error) {
		list, err := svc.Get(r.Context(), userID, listID)
		return list, http.StatusOK, err
	})
}

// CompareShoppingLists diffs {listId} against ?with=.
func CompareShoppingLists(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return listAction(logg, func(r *http.Request, userID, listID uuid.UUID) (any, int, error) {
		otherID, err := validators.ParseQueryUUID(r, "with")
		if err != nil {
			return nil, 0, err
		}
		cmp, err := svc.Compare(r.Context(), userID, listID, otherID)
		return cmp, http.StatusOK, err
	})
}

func ActivateShoppingList(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return listAction(logg, func(r *http.Request, userID, listID uuid.UUID) (any, int, error) {
		list, err := svc.Activate(r.Context(), userID, listID)
		return list, http.StatusOK, err
	})
}

func CompleteShoppingList(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return listAction(logg, func(r *http.Request, userID, listID uuid.UUID) (any, int, error) {
		list, err := svc.Complete(r.Context(), userID, listID)
		return list, http.StatusOK, err
	})
}

func DuplicateShoppingList(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return listAction(logg, func(r *http.Request, userID, listID uuid.UUID) (any, int, error) {
		list, err := svc.Duplicate(r.Context(), userID, listID)
		return list, http.StatusCreated, err
	})
}

func RefreshShoppingList(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return listAction(logg, func(r *http.Request, userID, listID uuid.UUID) (any, int, error) {
		list, err := svc.Refresh(r.Context(), userID, listID)
		return list, http.StatusOK, err
	})
}

func ToggleShoppingListItem(svc shoppinglists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := urlUUID(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := svc.ToggleItem(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

func listAction(logg *logger.Logger, fn func(r *http.Request, userID, listID uuid.UUID) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listID, err := urlUUID(r, "listId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload, status, err := fn(r, userID, listID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, payload)
	}
}
