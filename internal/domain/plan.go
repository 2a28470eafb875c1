package domain

import "time"

// MealType é o tipo de refeição dentro do dia. Conjunto fechado.
type MealType string

const (
	MealBreakfast      MealType = "breakfast"
	MealMorningSnack   MealType = "morning_snack"
	MealLunch          MealType = "lunch"
	MealAfternoonSnack MealType = "afternoon_snack"
	MealDinner         MealType = "dinner"
	MealEveningSnack   MealType = "evening_snack"
)

// MealTypes lista os tipos aceitos, na ordem natural do dia.
var MealTypes = []MealType{
	MealBreakfast, MealMorningSnack, MealLunch,
	MealAfternoonSnack, MealDinner, MealEveningSnack,
}

// FoodUnit é a unidade de medida de um alimento.
type FoodUnit string

const (
	UnitGram       FoodUnit = "g"
	UnitKilogram   FoodUnit = "kg"
	UnitMilliliter FoodUnit = "ml"
	UnitLiter      FoodUnit = "l"
	UnitUnit       FoodUnit = "unidade"
	UnitSlice      FoodUnit = "fatia"
	UnitSpoon      FoodUnit = "colher"
	UnitCup        FoodUnit = "xícara"
	UnitGlass      FoodUnit = "copo"
	UnitPortion    FoodUnit = "porção"
)

var FoodUnits = []FoodUnit{
	UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitUnit,
	UnitSlice, UnitSpoon, UnitCup, UnitGlass, UnitPortion,
}

// Food é um alimento dentro de uma refeição.
// Os nutrientes são opcionais: um campo ausente (nil) conta como zero nos totais.
type Food struct {
	Name          string   `json:"name" validate:"required,min=2,max=100"`
	Quantity      float64  `json:"quantity" validate:"gt=0"`
	Unit          FoodUnit `json:"unit" validate:"required,foodunit"`
	Calories      *float64 `json:"calories,omitempty" validate:"omitempty,min=0,max=5000"`
	Proteins      *float64 `json:"proteins,omitempty" validate:"omitempty,min=0,max=1000"`
	Carbohydrates *float64 `json:"carbohydrates,omitempty" validate:"omitempty,min=0,max=1000"`
	Fats          *float64 `json:"fats,omitempty" validate:"omitempty,min=0,max=1000"`
	Fiber         *float64 `json:"fiber,omitempty" validate:"omitempty,min=0,max=200"`
}

// Meal é uma refeição embutida no plano. A ordem no slice é a ordem do dia.
type Meal struct {
	Type         MealType `json:"type" validate:"required,mealtype"`
	Time         string   `json:"time" validate:"required,hhmm"`
	Foods        []Food   `json:"foods" validate:"dive"`
	Instructions string   `json:"instructions,omitempty" validate:"max=300"`
}

// DietPlan é o plano alimentar que um nutricionista escreve para um paciente.
type DietPlan struct {
	ID             string `json:"id"`
	PatientID      string `json:"patient_id" validate:"required"`
	NutritionistID string `json:"nutritionist_id"`

	Title       string `json:"title" validate:"required,min=3,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	TargetCalories      float64 `json:"target_calories" validate:"min=400,max=15000"`
	TargetProteins      float64 `json:"target_proteins" validate:"min=20,max=300"`
	TargetCarbohydrates float64 `json:"target_carbohydrates" validate:"min=50,max=800"`
	TargetFats          float64 `json:"target_fats" validate:"min=20,max=200"`

	Meals []Meal `json:"meals" validate:"dive"`

	// IsActive é o flag gravado. Se o plano está realmente em vigor depende
	// também de EndDate; veja State.
	IsActive bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Expired informa se o plano já passou do EndDate no instante now.
func (p DietPlan) Expired(now time.Time) bool {
	return p.EndDate != nil && p.EndDate.Before(now)
}

// PlanState é o estado derivado de um plano. Não é persistido.
type PlanState string

const (
	StateDraft      PlanState = "draft"
	StateActive     PlanState = "active"
	StateExpired    PlanState = "expired"
	StateSuperseded PlanState = "superseded"
)

// State classifica o plano no instante now.
// Um plano sem ID ainda não foi gravado. Planos apagados simplesmente não
// existem mais no banco, então não há estado para eles aqui.
func (p DietPlan) State(now time.Time) PlanState {
	switch {
	case p.ID == "":
		return StateDraft
	case !p.IsActive:
		return StateSuperseded
	case p.Expired(now):
		return StateExpired
	default:
		return StateActive
	}
}
