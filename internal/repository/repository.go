package repository

import (
	"context"
	"errors"

	"github.com/willjrcristo/nutriplan/internal/domain"
)

// ErrConflict é devolvido quando uma restrição de unicidade é violada
// (e-mail de paciente repetido, segundo plano ativo para o mesmo paciente).
var ErrConflict = errors.New("registro em conflito")

// PlanRepository define a persistência dos planos alimentares.
// Buscas que não encontram nada devolvem nil, nil: ausência não é erro.
type PlanRepository interface {
	// FindActiveByPatient devolve os planos com is_active verdadeiro, do mais
	// novo para o mais antigo. Não filtra por data de término.
	FindActiveByPatient(ctx context.Context, patientID string) ([]domain.DietPlan, error)
	FindByPatient(ctx context.Context, patientID string) ([]domain.DietPlan, error)
	FindByID(ctx context.Context, id string) (*domain.DietPlan, error)
	DeactivateAllForPatient(ctx context.Context, patientID string) (int64, error)
	Insert(ctx context.Context, plan domain.DietPlan) error
	Delete(ctx context.Context, id string) error

	// RunInTx executa fn numa transação. O repositório passado para fn
	// enxerga e escreve dentro dela; qualquer erro desfaz tudo.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx PlanRepository) error) error
}

// PatientRepository define a persistência dos pacientes.
type PatientRepository interface {
	Create(ctx context.Context, patient domain.Patient) error
	GetByID(ctx context.Context, id string) (*domain.Patient, error)
}
