package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPlan() DietPlan {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return DietPlan{
		PatientID:           "paciente-1",
		Title:               "Plano de janeiro",
		StartDate:           start,
		EndDate:             &end,
		TargetCalories:      2000,
		TargetProteins:      120,
		TargetCarbohydrates: 250,
		TargetFats:          60,
		Meals: []Meal{{
			Type:  MealBreakfast,
			Time:  "07:30",
			Foods: []Food{{Name: "Pão integral", Quantity: 2, Unit: UnitSlice, Calories: f(140)}},
		}},
	}
}

func TestValidate(t *testing.T) {
	t.Run("plano válido", func(t *testing.T) {
		assert.NoError(t, Validate(validPlan()))
	})

	tests := []struct {
		name  string
		field string
		edit  func(p *DietPlan)
	}{
		{"título curto", "title", func(p *DietPlan) { p.Title = "ab" }},
		{"calorias abaixo do mínimo", "target_calories", func(p *DietPlan) { p.TargetCalories = 399 }},
		{"gorduras acima do máximo", "target_fats", func(p *DietPlan) { p.TargetFats = 201 }},
		{"horário fora do padrão", "meals[0].time", func(p *DietPlan) { p.Meals[0].Time = "24:00" }},
		{"tipo de refeição desconhecido", "meals[0].type", func(p *DietPlan) { p.Meals[0].Type = "brunch" }},
		{"unidade desconhecida", "meals[0].foods[0].unit", func(p *DietPlan) { p.Meals[0].Foods[0].Unit = "oz" }},
		{"quantidade zero", "meals[0].foods[0].quantity", func(p *DietPlan) { p.Meals[0].Foods[0].Quantity = 0 }},
		{"nutriente negativo", "meals[0].foods[0].calories", func(p *DietPlan) { p.Meals[0].Foods[0].Calories = f(-1) }},
		{"fim antes do início", "end_date", func(p *DietPlan) {
			end := p.StartDate.Add(-time.Hour)
			p.EndDate = &end
		}},
		{"sem data de início", "start_date", func(p *DietPlan) {
			p.StartDate = time.Time{}
			p.EndDate = nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan()
			tt.edit(&p)

			err := Validate(p)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "esperava ValidationError, veio %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestCheckStructure(t *testing.T) {
	assert.NoError(t, CheckStructure(validPlan()))

	p := validPlan()
	p.Meals[0].Foods[0].Quantity = -1
	assert.ErrorIs(t, CheckStructure(p), ErrMalformedPlan)

	p = validPlan()
	p.Meals[0].Foods[0].Fiber = f(-0.5)
	assert.ErrorIs(t, CheckStructure(p), ErrMalformedPlan)

	p = validPlan()
	p.PatientID = ""
	assert.ErrorIs(t, CheckStructure(p), ErrMalformedPlan)
}

func TestValidatePatient(t *testing.T) {
	assert.NoError(t, ValidatePatient(Patient{Name: "Ana", Email: "ana@exemplo.com"}))

	var verr *ValidationError
	require.ErrorAs(t, ValidatePatient(Patient{Name: "Ana", Email: "nao-e-email"}), &verr)
	assert.Contains(t, verr.Fields, "email")
}
