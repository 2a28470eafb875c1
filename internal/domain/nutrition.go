package domain

import "math"

// NutrientTotals são as somas dos nutrientes de todas as refeições do plano.
type NutrientTotals struct {
	Calories      float64 `json:"calories"`
	Proteins      float64 `json:"proteins"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fats          float64 `json:"fats"`
	Fiber         float64 `json:"fiber"`
}

// Compliance é o percentual (inteiro) do calculado em relação à meta.
// Fibra não tem meta, então não aparece aqui.
type Compliance struct {
	Calories      int `json:"calories"`
	Proteins      int `json:"proteins"`
	Carbohydrates int `json:"carbohydrates"`
	Fats          int `json:"fats"`
}

type Summary struct {
	Calculated NutrientTotals `json:"calculated"`
	Compliance Compliance     `json:"compliance"`
}

// ComputeNutritionalSummary soma os nutrientes de cada alimento de cada
// refeição e compara com as metas do plano. Função pura: sempre recalcula a
// partir de Meals, nunca de um total guardado.
func ComputeNutritionalSummary(plan DietPlan) Summary {
	var total NutrientTotals
	for _, meal := range plan.Meals {
		for _, food := range meal.Foods {
			total.Calories += valueOrZero(food.Calories)
			total.Proteins += valueOrZero(food.Proteins)
			total.Carbohydrates += valueOrZero(food.Carbohydrates)
			total.Fats += valueOrZero(food.Fats)
			total.Fiber += valueOrZero(food.Fiber)
		}
	}

	return Summary{
		Calculated: total,
		Compliance: Compliance{
			Calories:      percentOf(total.Calories, plan.TargetCalories),
			Proteins:      percentOf(total.Proteins, plan.TargetProteins),
			Carbohydrates: percentOf(total.Carbohydrates, plan.TargetCarbohydrates),
			Fats:          percentOf(total.Fats, plan.TargetFats),
		},
	}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// percentOf devolve round(value/target*100). Meta zero ou negativa vira 0.
func percentOf(value, target float64) int {
	if target <= 0 {
		return 0
	}
	return int(math.Round(value / target * 100))
}
