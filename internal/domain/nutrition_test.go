package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func planWithTargets(cal, prot, carb, fat float64, meals ...Meal) DietPlan {
	return DietPlan{
		TargetCalories:      cal,
		TargetProteins:      prot,
		TargetCarbohydrates: carb,
		TargetFats:          fat,
		Meals:               meals,
	}
}

func TestComputeNutritionalSummary(t *testing.T) {
	t.Run("soma alimentos de uma refeição", func(t *testing.T) {
		plan := planWithTargets(2000, 100, 250, 70, Meal{
			Type: MealLunch,
			Time: "12:00",
			Foods: []Food{
				{Name: "Arroz", Quantity: 100, Unit: UnitGram, Calories: f(300), Proteins: f(20)},
				{Name: "Feijão", Quantity: 80, Unit: UnitGram, Calories: f(150), Proteins: f(5), Carbohydrates: f(30)},
			},
		})

		s := ComputeNutritionalSummary(plan)

		assert.Equal(t, NutrientTotals{Calories: 450, Proteins: 25, Carbohydrates: 30, Fats: 0, Fiber: 0}, s.Calculated)
	})

	t.Run("alimento sem nutrientes contribui zero", func(t *testing.T) {
		plan := planWithTargets(2000, 100, 250, 70, Meal{
			Type:  MealBreakfast,
			Time:  "07:30",
			Foods: []Food{{Name: "Água", Quantity: 1, Unit: UnitGlass}},
		})

		s := ComputeNutritionalSummary(plan)

		assert.Equal(t, NutrientTotals{}, s.Calculated)
		assert.Equal(t, Compliance{}, s.Compliance)
	})

	t.Run("soma entre várias refeições incluindo fibra", func(t *testing.T) {
		plan := planWithTargets(2000, 100, 250, 70,
			Meal{Type: MealBreakfast, Time: "07:00", Foods: []Food{
				{Name: "Aveia", Quantity: 40, Unit: UnitGram, Calories: f(150), Carbohydrates: f(27), Fiber: f(4)},
			}},
			Meal{Type: MealDinner, Time: "19:00", Foods: []Food{
				{Name: "Azeite", Quantity: 1, Unit: UnitSpoon, Calories: f(90), Fats: f(10)},
				{Name: "Brócolis", Quantity: 1, Unit: UnitPortion, Fiber: f(2.5)},
			}},
		)

		s := ComputeNutritionalSummary(plan)

		assert.Equal(t, 240.0, s.Calculated.Calories)
		assert.Equal(t, 27.0, s.Calculated.Carbohydrates)
		assert.Equal(t, 10.0, s.Calculated.Fats)
		assert.Equal(t, 6.5, s.Calculated.Fiber)
	})

	t.Run("compliance arredondada", func(t *testing.T) {
		plan := planWithTargets(2000, 150, 300, 60, Meal{
			Type: MealLunch,
			Time: "12:00",
			Foods: []Food{
				{Name: "Prato feito", Quantity: 1, Unit: UnitPortion, Calories: f(1800), Proteins: f(100), Carbohydrates: f(200), Fats: f(45)},
			},
		})

		s := ComputeNutritionalSummary(plan)

		assert.Equal(t, 90, s.Compliance.Calories)
		assert.Equal(t, 67, s.Compliance.Proteins)      // 66.67
		assert.Equal(t, 67, s.Compliance.Carbohydrates) // 66.67
		assert.Equal(t, 75, s.Compliance.Fats)
	})

	t.Run("meta zero não divide por zero", func(t *testing.T) {
		plan := planWithTargets(0, 0, 0, 0, Meal{
			Type:  MealLunch,
			Time:  "12:00",
			Foods: []Food{{Name: "Pão", Quantity: 1, Unit: UnitSlice, Calories: f(80), Proteins: f(3)}},
		})

		s := ComputeNutritionalSummary(plan)

		assert.Equal(t, 0, s.Compliance.Calories)
		assert.Equal(t, 0, s.Compliance.Proteins)
		assert.Equal(t, 80.0, s.Calculated.Calories)
	})

	t.Run("mesma entrada, mesma saída", func(t *testing.T) {
		plan := planWithTargets(1800, 90, 200, 60, Meal{
			Type:  MealLunch,
			Time:  "12:00",
			Foods: []Food{{Name: "Frango", Quantity: 120, Unit: UnitGram, Calories: f(198), Proteins: f(37.2), Fats: f(4.3)}},
		})

		assert.Equal(t, ComputeNutritionalSummary(plan), ComputeNutritionalSummary(plan))
	})
}

func TestDietPlan_State(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	assert.Equal(t, StateDraft, DietPlan{}.State(now))
	assert.Equal(t, StateActive, DietPlan{ID: "a", IsActive: true}.State(now))
	assert.Equal(t, StateActive, DietPlan{ID: "a", IsActive: true, EndDate: &future}.State(now))
	assert.Equal(t, StateExpired, DietPlan{ID: "a", IsActive: true, EndDate: &past}.State(now))
	assert.Equal(t, StateSuperseded, DietPlan{ID: "a", IsActive: false}.State(now))
}
