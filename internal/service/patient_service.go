package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/willjrcristo/nutriplan/internal/domain"
	"github.com/willjrcristo/nutriplan/internal/repository"
)

// PatientService cuida do convite e da consulta de pacientes.
type PatientService struct {
	repo   repository.PatientRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewPatientService(repo repository.PatientRepository, logger *zap.Logger) *PatientService {
	return &PatientService{repo: repo, logger: logger, now: time.Now}
}

// InvitePatient cadastra um paciente vinculado ao nutricionista.
func (s *PatientService) InvitePatient(ctx context.Context, nutritionistID, name, email string) (*domain.Patient, error) {
	p := domain.Patient{
		ID:             uuid.NewString(),
		NutritionistID: nutritionistID,
		Name:           strings.TrimSpace(name),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		CreatedAt:      s.now().UTC(),
	}
	if err := domain.ValidatePatient(p); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrPatientExists
		}
		return nil, err
	}

	s.logger.Info("Paciente convidado", zap.String("patient_id", p.ID), zap.String("nutritionist_id", nutritionistID))
	return &p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id string) (*domain.Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrPatientNotFound
	}
	return p, nil
}
