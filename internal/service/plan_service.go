package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/willjrcristo/nutriplan/internal/domain"
	"github.com/willjrcristo/nutriplan/internal/metrics"
	"github.com/willjrcristo/nutriplan/internal/repository"
)

// Erros de negócio.
var (
	ErrPlanNotFound    = errors.New("plano alimentar não encontrado")
	ErrPatientNotFound = errors.New("paciente não encontrado")
	ErrPatientExists   = errors.New("já existe um paciente com este e-mail")
	ErrForbidden       = errors.New("operação não permitida para este usuário")
)

// PlanNotifier recebe o aviso de que um plano foi ativado.
// É chamado em segundo plano; o erro só é registrado.
type PlanNotifier interface {
	PlanActivated(ctx context.Context, plan domain.DietPlan) error
}

// DietPlanService cuida do ciclo de vida dos planos: criação com um único
// plano ativo por paciente, expiração na leitura e resumo nutricional.
type DietPlanService struct {
	repo          repository.PlanRepository
	patients      repository.PatientRepository
	notifier      PlanNotifier
	logger        *zap.Logger
	now           func() time.Time
	notifyTimeout time.Duration
}

type Option func(*DietPlanService)

// WithClock troca a fonte de tempo (usado nos testes).
func WithClock(now func() time.Time) Option {
	return func(s *DietPlanService) { s.now = now }
}

// WithNotifyTimeout limita quanto tempo a notificação em segundo plano pode levar.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *DietPlanService) { s.notifyTimeout = d }
}

// NewDietPlanService cria o serviço. patients e notifier podem ser nil.
func NewDietPlanService(repo repository.PlanRepository, patients repository.PatientRepository, notifier PlanNotifier, logger *zap.Logger, opts ...Option) *DietPlanService {
	s := &DietPlanService{
		repo:          repo,
		patients:      patients,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
		notifyTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ComputeNutritionalSummary recalcula os totais do plano. Sem efeitos colaterais.
func (s *DietPlanService) ComputeNutritionalSummary(plan domain.DietPlan) domain.Summary {
	return domain.ComputeNutritionalSummary(plan)
}

// CreateOrActivatePlan grava um plano novo como o único ativo do paciente.
// Desativar os anteriores e inserir o novo acontecem na mesma transação:
// se a inserção falhar, os planos anteriores continuam como estavam.
// Duas chamadas concorrentes para o mesmo paciente: vence a última a confirmar.
func (s *DietPlanService) CreateOrActivatePlan(ctx context.Context, plan domain.DietPlan) (*domain.DietPlan, error) {
	if err := domain.CheckStructure(plan); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	plan.ID = uuid.NewString()
	plan.IsActive = true
	plan.CreatedAt = now
	plan.UpdatedAt = now

	var superseded int64
	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx repository.PlanRepository) error {
		n, err := tx.DeactivateAllForPatient(ctx, plan.PatientID)
		if err != nil {
			return fmt.Errorf("falha ao desativar planos anteriores: %w", err)
		}
		superseded = n
		if err := tx.Insert(ctx, plan); err != nil {
			return fmt.Errorf("falha ao gravar plano: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Falha ao ativar plano alimentar",
			zap.String("patient_id", plan.PatientID), zap.Error(err))
		return nil, err
	}

	metrics.PlansActivated.Inc()
	metrics.PlansDeactivated.Add(float64(superseded))
	s.logger.Info("Plano alimentar ativado",
		zap.String("plan_id", plan.ID),
		zap.String("patient_id", plan.PatientID),
		zap.String("nutritionist_id", plan.NutritionistID),
		zap.Int64("superseded", superseded))

	s.notifyActivated(plan)
	return &plan, nil
}

// CreatePlanForPatient confere que o paciente pertence ao nutricionista e
// então cria e ativa o plano em nome dele.
func (s *DietPlanService) CreatePlanForPatient(ctx context.Context, nutritionistID string, plan domain.DietPlan) (*domain.DietPlan, error) {
	if s.patients != nil {
		patient, err := s.patients.GetByID(ctx, plan.PatientID)
		if err != nil {
			return nil, err
		}
		if patient == nil {
			return nil, ErrPatientNotFound
		}
		if patient.NutritionistID != nutritionistID {
			return nil, ErrForbidden
		}
	}
	plan.NutritionistID = nutritionistID
	return s.CreateOrActivatePlan(ctx, plan)
}

// GetActivePlan devolve o plano em vigor do paciente, ou nil se não houver.
// O flag is_active sozinho não basta: planos com EndDate no passado são
// descartados aqui, na leitura.
func (s *DietPlanService) GetActivePlan(ctx context.Context, patientID string) (*domain.DietPlan, error) {
	plans, err := s.repo.FindActiveByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	candidates := make([]domain.DietPlan, 0, len(plans))
	for _, p := range plans {
		if !p.Expired(now) {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > 1 {
		ids := make([]string, len(candidates))
		for i, p := range candidates {
			ids[i] = p.ID
		}
		metrics.ActivePlanAnomalies.Inc()
		s.logger.Warn("Mais de um plano ativo para o paciente; usando o mais recente",
			zap.String("patient_id", patientID),
			zap.Strings("plan_ids", ids))
	}

	// O repositório já ordena do mais novo para o mais antigo.
	active := candidates[0]
	return &active, nil
}

func (s *DietPlanService) GetPlanByID(ctx context.Context, id string) (*domain.DietPlan, error) {
	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

func (s *DietPlanService) ListPatientPlans(ctx context.Context, patientID string) ([]domain.DietPlan, error) {
	return s.repo.FindByPatient(ctx, patientID)
}

// GetPlanSummary busca o plano e calcula o resumo nutricional dele.
func (s *DietPlanService) GetPlanSummary(ctx context.Context, id string) (*domain.DietPlan, domain.Summary, error) {
	plan, err := s.GetPlanByID(ctx, id)
	if err != nil {
		return nil, domain.Summary{}, err
	}
	return plan, domain.ComputeNutritionalSummary(*plan), nil
}

// DeletePlan remove o plano. Só o nutricionista autor pode apagar.
func (s *DietPlanService) DeletePlan(ctx context.Context, id, nutritionistID string) error {
	plan, err := s.GetPlanByID(ctx, id)
	if err != nil {
		return err
	}
	if plan.NutritionistID != nutritionistID {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Plano alimentar removido", zap.String("plan_id", id), zap.String("patient_id", plan.PatientID))
	return nil
}

// PlanState classifica o plano no instante atual do serviço.
func (s *DietPlanService) PlanState(plan domain.DietPlan) domain.PlanState {
	return plan.State(s.now())
}

// notifyActivated dispara a notificação sem esperar por ela.
func (s *DietPlanService) notifyActivated(plan domain.DietPlan) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := s.notifier.PlanActivated(ctx, plan); err != nil {
			metrics.NotificationFailures.Inc()
			s.logger.Warn("Falha ao notificar ativação do plano",
				zap.String("plan_id", plan.ID), zap.Error(err))
		}
	}()
}
