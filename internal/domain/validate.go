package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMalformedPlan indica um registro estruturalmente impossível
// (quantidade não positiva, nutriente negativo). O núcleo confere só isso;
// os limites de cada campo ficam com Validate.
var ErrMalformedPlan = errors.New("plano alimentar malformado")

// ValidationError agrupa as violações de limites de um payload.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, rule := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", field, rule))
	}
	return "dados inválidos: " + strings.Join(parts, ", ")
}

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Usa o nome do campo no JSON nas mensagens de erro.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("mealtype", func(fl validator.FieldLevel) bool {
		s := MealType(fl.Field().String())
		for _, t := range MealTypes {
			if s == t {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("foodunit", func(fl validator.FieldLevel) bool {
		s := FoodUnit(fl.Field().String())
		for _, u := range FoodUnits {
			if s == u {
				return true
			}
		}
		return false
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		p := sl.Current().Interface().(DietPlan)
		if p.StartDate.IsZero() {
			sl.ReportError(p.StartDate, "start_date", "StartDate", "required", "")
		}
		if p.EndDate != nil && !p.EndDate.After(p.StartDate) {
			sl.ReportError(p.EndDate, "end_date", "EndDate", "gtfield", "start_date")
		}
	}, DietPlan{})

	return v
}

// Validate confere todos os limites declarados do plano.
func Validate(plan DietPlan) error {
	return toValidationError(validate.Struct(plan))
}

// ValidatePatient confere os dados do convite de paciente.
func ValidatePatient(p Patient) error {
	return toValidationError(validate.Struct(p))
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		// Namespace vem como "DietPlan.meals[0].foods[1].name"; tiramos o tipo raiz.
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields[ns] = fe.Tag()
	}
	return &ValidationError{Fields: fields}
}

// CheckStructure é a conferência mínima do núcleo: recusa o que nenhum
// plano válido poderia conter, sem repetir a validação de limites.
func CheckStructure(plan DietPlan) error {
	if plan.PatientID == "" {
		return fmt.Errorf("%w: paciente não informado", ErrMalformedPlan)
	}
	for i, meal := range plan.Meals {
		for j, food := range meal.Foods {
			if food.Quantity <= 0 {
				return fmt.Errorf("%w: meals[%d].foods[%d] com quantidade %v", ErrMalformedPlan, i, j, food.Quantity)
			}
			for _, n := range []*float64{food.Calories, food.Proteins, food.Carbohydrates, food.Fats, food.Fiber} {
				if n != nil && *n < 0 {
					return fmt.Errorf("%w: meals[%d].foods[%d] com nutriente negativo", ErrMalformedPlan, i, j)
				}
			}
		}
	}
	return nil
}
