package repository

import (
	"fmt"

	"github.com/willjrcristo/nutriplan/internal/domain"
	"github.com/willjrcristo/nutriplan/internal/fieldcrypt"
)

// sealPlan devolve uma cópia do plano com a descrição e as instruções das
// refeições cifradas. O plano original não é alterado.
func sealPlan(c fieldcrypt.Cipher, plan domain.DietPlan) (domain.DietPlan, error) {
	var err error
	if plan.Description, err = c.Seal(plan.Description); err != nil {
		return plan, fmt.Errorf("falha ao cifrar descrição: %w", err)
	}
	meals := make([]domain.Meal, len(plan.Meals))
	for i, m := range plan.Meals {
		if m.Instructions, err = c.Seal(m.Instructions); err != nil {
			return plan, fmt.Errorf("falha ao cifrar instruções: %w", err)
		}
		meals[i] = m
	}
	plan.Meals = meals
	return plan, nil
}

// openPlan decifra, no lugar, os campos cifrados por sealPlan.
func openPlan(c fieldcrypt.Cipher, plan *domain.DietPlan) error {
	var err error
	if plan.Description, err = c.Open(plan.Description); err != nil {
		return fmt.Errorf("falha ao decifrar descrição: %w", err)
	}
	for i := range plan.Meals {
		if plan.Meals[i].Instructions, err = c.Open(plan.Meals[i].Instructions); err != nil {
			return fmt.Errorf("falha ao decifrar instruções: %w", err)
		}
	}
	return nil
}
