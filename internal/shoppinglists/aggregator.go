package shoppinglists

import (
	"sort"
	"time"

	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mealtime-backend/pkg/errors"
	"github.com/angelmondragon/mealtime-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	quantityPlaces = 2
	// uncategorizedOrder sorts ingredients without a category after every real aisle.
	uncategorizedOrder = 999
)

// AggregatedIngredient is the total requirement for one ingredient across a period.
type AggregatedIngredient struct {
	Ingredient *models.Ingredient
	Quantity   decimal.Decimal
	Unit       enums.Unit
	Recipes    []string
}

func (a AggregatedIngredient) categoryOrder() int {
	if a.Ingredient.Category == nil {
		return uncategorizedOrder
	}
	return a.Ingredient.Category.SortOrder
}

// Aggregation is the required shopping content for a set of meal plans.
type Aggregation struct {
	Items     []AggregatedIngredient
	MealPlans []models.MealPlan
	FirstDate time.Time
	LastDate  time.Time
}

// Empty reports whether nothing needs to be bought.
func (a Aggregation) Empty() bool {
	return len(a.Items) == 0
}

// MealPlanIDs returns the ids of the meal plans the aggregation was built from.
func (a Aggregation) MealPlanIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a.MealPlans))
	for _, plan := range a.MealPlans {
		ids = append(ids, plan.ID)
	}
	return ids
}

// Basis returns the meal plan links a list generated from the aggregation records.
func (a Aggregation) Basis() []models.ShoppingListMealPlan {
	links := make([]models.ShoppingListMealPlan, 0, len(a.MealPlans))
	for _, plan := range a.MealPlans {
		links = append(links, models.ShoppingListMealPlan{
			MealPlanID:  plan.ID,
			RecipeCount: len(plan.Recipes),
		})
	}
	return links
}

type accumulator struct {
	ingredient *models.Ingredient
	total      decimal.Decimal
	recipes    map[string]struct{}
}

// Aggregate sums the scaled ingredient requirements of plans. Each recipe line
// contributes quantity * planned portions / native portions in the ingredient's
// default unit; totals are rounded once to two decimals.
func Aggregate(plans []models.MealPlan) (Aggregation, error) {
	agg := Aggregation{MealPlans: plans}
	if len(plans) == 0 {
		return agg, nil
	}

	byIngredient := map[uuid.UUID]*accumulator{}
	order := []uuid.UUID{}

	for _, plan := range plans {
		day := types.Midnight(plan.Date)
		if agg.FirstDate.IsZero() || day.Before(agg.FirstDate) {
			agg.FirstDate = day
		}
		if day.After(agg.LastDate) {
			agg.LastDate = day
		}

		for _, scheduled := range plan.Recipes {
			recipe := scheduled.Recipe
			if recipe == nil {
				return Aggregation{}, integrityError("scheduled recipe is missing", map[string]any{
					"meal_plan_id": plan.ID,
					"recipe_id":    scheduled.RecipeID,
				})
			}
			if recipe.Portions <= 0 {
				return Aggregation{}, integrityError("recipe has no portions", map[string]any{
					"recipe_id": recipe.ID,
					"portions":  recipe.Portions,
				})
			}
			if scheduled.Portions < 0 {
				return Aggregation{}, integrityError("planned portions are negative", map[string]any{
					"meal_plan_id": plan.ID,
					"recipe_id":    recipe.ID,
					"portions":     scheduled.Portions,
				})
			}

			planned := decimal.NewFromInt(int64(scheduled.Portions))
			native := decimal.NewFromInt(int64(recipe.Portions))

			for _, line := range recipe.Ingredients {
				ingredient := line.Ingredient
				if ingredient == nil {
					return Aggregation{}, integrityError("recipe ingredient is missing", map[string]any{
						"recipe_id":     recipe.ID,
						"ingredient_id": line.IngredientID,
					})
				}
				if !ingredient.DefaultUnit.IsValid() {
					return Aggregation{}, integrityError("ingredient has no valid unit", map[string]any{
						"ingredient_id": ingredient.ID,
						"unit":          string(ingredient.DefaultUnit),
					})
				}

				acc, ok := byIngredient[ingredient.ID]
				if !ok {
					acc = &accumulator{ingredient: ingredient, recipes: map[string]struct{}{}}
					byIngredient[ingredient.ID] = acc
					order = append(order, ingredient.ID)
				}
				acc.total = acc.total.Add(line.Quantity.Mul(planned).Div(native))
				acc.recipes[recipe.Name] = struct{}{}
			}
		}
	}

	agg.Items = make([]AggregatedIngredient, 0, len(order))
	for _, id := range order {
		acc := byIngredient[id]
		recipes := make([]string, 0, len(acc.recipes))
		for name := range acc.recipes {
			recipes = append(recipes, name)
		}
		sort.Strings(recipes)
		agg.Items = append(agg.Items, AggregatedIngredient{
			Ingredient: acc.ingredient,
			Quantity:   acc.total.Round(quantityPlaces),
			Unit:       acc.ingredient.DefaultUnit,
			Recipes:    recipes,
		})
	}

	sort.SliceStable(agg.Items, func(i, j int) bool {
		a, b := agg.Items[i], agg.Items[j]
		if oa, ob := a.categoryOrder(), b.categoryOrder(); oa != ob {
			return oa < ob
		}
		if a.Ingredient.Name != b.Ingredient.Name {
			return a.Ingredient.Name < b.Ingredient.Name
		}
		return a.Ingredient.ID.String() < b.Ingredient.ID.String()
	})

	return agg, nil
}

func integrityError(msg string, details map[string]any) error {
	return pkgerrors.New(pkgerrors.CodeDataIntegrity, msg).WithDetails(details)
}
