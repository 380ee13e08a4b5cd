package mealplans

import (
	"github.com/angelmondragon/mealtime-backend/pkg/db/models"
	"github.com/angelmondragon/mealtime-backend/pkg/enums"
	"github.com/angelmondragon/mealtime-backend/pkg/types"
	"github.com/google/uuid"
)

// MealPlanDTO is the read view of a planned meal.
type MealPlanDTO struct {
	ID       uuid.UUID          `json:"id"`
	Date     types.Date         `json:"date"`
	MealType enums.MealType     `json:"meal_type"`
	Recipes  []PlannedRecipeDTO `json:"recipes"`
}

type PlannedRecipeDTO struct {
	RecipeID       uuid.UUID `json:"recipe_id"`
	Name           string    `json:"name"`
	Portions       int       `json:"portions"`
	NativePortions int       `json:"native_portions"`
}

func mealPlanFromModel(plan models.MealPlan) MealPlanDTO {
	dto := MealPlanDTO{
		ID:       plan.ID,
		Date:     types.NewDate(plan.Date),
		MealType: plan.MealType,
		Recipes:  make([]PlannedRecipeDTO, 0, len(plan.Recipes)),
	}
	for _, rmp := range plan.Recipes {
		entry := PlannedRecipeDTO{RecipeID: rmp.RecipeID, Portions: rmp.Portions}
		if rmp.Recipe != nil {
			entry.Name = rmp.Recipe.Name
			entry.NativePortions = rmp.Recipe.Portions
		}
		dto.Recipes = append(dto.Recipes, entry)
	}
	return dto
}
