package shoppinglists

import (
	"time"

	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	"github.com/angelmondragon/mealtime-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateInput is the caller's request for a period's shopping list.
type GenerateInput struct {
	Start time.Time
	End   time.Time
	Name  string
}

// ResolveResult pairs the list satisfying a period with how it was obtained.
type ResolveResult struct {
	List   *models.ShoppingList
	Action Action
}

// ShoppingListDTO is the summary view of a list.
type ShoppingListDTO struct {
	ID              uuid.UUID                `json:"id"`
	Name            string                   `json:"name"`
	PeriodStart     types.Date               `json:"period_start"`
	PeriodEnd       types.Date               `json:"period_end"`
	Status          enums.ShoppingListStatus `json:"status"`
	TotalItems      int                      `json:"total_items"`
	ItemsChecked    int                      `json:"items_checked"`
	ProgressPercent int                      `json:"progress_percent"`
	IsOutdated      bool                     `json:"is_outdated"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	CompletedAt     *time.Time               `json:"completed_at,omitempty"`
}

// ShoppingListDetailDTO is a list with its items in display order.
type ShoppingListDetailDTO struct {
	ShoppingListDTO
	Items []ShoppingListItemDTO `json:"items"`
}

type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
}

type ShoppingListItemDTO struct {
	ID             uuid.UUID       `json:"id"`
	IngredientID   uuid.UUID       `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name"`
	Name           string          `json:"name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           enums.Unit      `json:"unit"`
	UnitDisplay    string          `json:"unit_display"`
	Checked        bool            `json:"checked"`
	Category       *CategoryDTO    `json:"category,omitempty"`
	SortOrder      int             `json:"sort_order"`
	CustomName     *string         `json:"custom_name,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
}

// Statistics summarizes a generated list.
type Statistics struct {
	TotalIngredients int `json:"total_ingredients"`
	PeriodDays       int `json:"period_days"`
}

// GenerateResult is the outcome of Generate.
type GenerateResult struct {
	ShoppingList ShoppingListDetailDTO `json:"shopping_list"`
	Action       Action                `json:"action"`
	Message      string                `json:"message"`
	Statistics   Statistics            `json:"statistics"`
}

type ListPage struct {
	Lists      []ShoppingListDTO `json:"lists"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// HistoryResult lists the lists created within the last Days days.
type HistoryResult struct {
	PeriodDays int               `json:"period_days"`
	TotalLists int               `json:"total_lists"`
	Lists      []ShoppingListDTO `json:"lists"`
}

// Comparison describes how a second list differs from the first.
type Comparison struct {
	FirstListID      uuid.UUID    `json:"list1_id"`
	SecondListID     uuid.UUID    `json:"list2_id"`
	Differences      []Difference `json:"differences"`
	TotalDifferences int          `json:"total_differences"`
}

var actionMessages = map[Action]string{
	ActionCreated: "Shopping list created",
	ActionExists:  "Using the existing up-to-date shopping list",
	ActionUpdated: "Shopping list updated with the latest meal plans",
}

// Message returns the human readable description of the action.
func (a Action) Message() string {
	return actionMessages[a]
}

func listFromModel(list models.ShoppingList) ShoppingListDTO {
	return ShoppingListDTO{
		ID:              list.ID,
		Name:            list.Name,
		PeriodStart:     types.NewDate(list.PeriodStart),
		PeriodEnd:       types.NewDate(list.PeriodEnd),
		Status:          list.Status,
		TotalItems:      list.TotalItems,
		ItemsChecked:    list.ItemsChecked,
		ProgressPercent: list.ProgressPercent(),
		IsOutdated:      list.IsOutdated,
		CreatedAt:       list.CreatedAt,
		UpdatedAt:       list.UpdatedAt,
		CompletedAt:     list.CompletedAt,
	}
}

func detailFromModel(list models.ShoppingList, items []models.ShoppingListItem) ShoppingListDetailDTO {
	out := ShoppingListDetailDTO{
		ShoppingListDTO: listFromModel(list),
		Items:           make([]ShoppingListItemDTO, 0, len(items)),
	}
	for _, item := range items {
		out.Items = append(out.Items, itemFromModel(item))
	}
	return out
}

func itemFromModel(item models.ShoppingListItem) ShoppingListItemDTO {
	dto := ShoppingListItemDTO{
		ID:           item.ID,
		IngredientID: item.IngredientID,
		Name:         item.DisplayName(),
		Quantity:     item.Quantity,
		Unit:         item.Unit,
		UnitDisplay:  item.Unit.Display(),
		Checked:      item.Checked,
		SortOrder:    item.SortOrder,
		CustomName:   item.CustomName,
		Notes:        item.Notes,
	}
	if item.Ingredient != nil {
		dto.IngredientName = item.Ingredient.Name
	}
	if item.Category != nil {
		dto.Category = &CategoryDTO{ID: item.Category.ID, Name: item.Category.Name, SortOrder: item.Category.SortOrder}
	}
	return dto
}

func listsFromModels(lists []models.ShoppingList) []ShoppingListDTO {
	out := make([]ShoppingListDTO, 0, len(lists))
	for _, list := range lists {
		out = append(out, listFromModel(list))
	}
	return out
}
