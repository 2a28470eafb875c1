// Package notify avisa o paciente quando um plano alimentar novo entra em vigor.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"

	"github.com/willjrcristo/nutriplan/internal/domain"
)

var ErrNoRecipient = errors.New("paciente sem e-mail cadastrado")

// PatientLookup é o pedaço do repositório de pacientes que o notificador usa.
type PatientLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Patient, error)
}

// emailSender é o subconjunto do cliente SES usado aqui.
type emailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier envia um e-mail de texto simples pelo Amazon SES.
type SESNotifier struct {
	client   emailSender
	from     string
	patients PatientLookup
	logger   *zap.Logger
}

// NewSESNotifier carrega as credenciais padrão da AWS para a região informada.
func NewSESNotifier(ctx context.Context, region, from string, patients PatientLookup, logger *zap.Logger) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar configuração da AWS: %w", err)
	}
	return &SESNotifier{client: ses.NewFromConfig(cfg), from: from, patients: patients, logger: logger}, nil
}

func (n *SESNotifier) PlanActivated(ctx context.Context, plan domain.DietPlan) error {
	patient, err := n.patients.GetByID(ctx, plan.PatientID)
	if err != nil {
		return fmt.Errorf("falha ao buscar paciente: %w", err)
	}
	if patient == nil || patient.Email == "" {
		return ErrNoRecipient
	}

	subject, body := activationMessage(patient.Name, plan)
	_, err = n.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: []string{patient.Email}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(n.from),
	})
	if err != nil {
		return fmt.Errorf("falha ao enviar e-mail: %w", err)
	}

	n.logger.Info("Notificação de plano enviada",
		zap.String("plan_id", plan.ID), zap.String("patient_id", plan.PatientID))
	return nil
}

// LogNotifier só registra a ativação. Usado quando o SES não está configurado.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) PlanActivated(ctx context.Context, plan domain.DietPlan) error {
	n.logger.Info("Plano ativado (notificação apenas no log)",
		zap.String("plan_id", plan.ID),
		zap.String("patient_id", plan.PatientID),
		zap.String("title", plan.Title))
	return nil
}

func activationMessage(name string, plan domain.DietPlan) (string, string) {
	subject := "Seu novo plano alimentar está disponível"

	var b strings.Builder
	fmt.Fprintf(&b, "Olá, %s!\n\n", name)
	fmt.Fprintf(&b, "Seu nutricionista publicou o plano \"%s\", válido a partir de %s",
		plan.Title, plan.StartDate.Format("02/01/2006"))
	if plan.EndDate != nil {
		fmt.Fprintf(&b, " até %s", plan.EndDate.Format("02/01/2006"))
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Meta diária: %.0f kcal, %.0fg de proteínas, %.0fg de carboidratos e %.0fg de gorduras.\n",
		plan.TargetCalories, plan.TargetProteins, plan.TargetCarbohydrates, plan.TargetFats)
	fmt.Fprintf(&b, "Refeições no plano: %d.\n\n", len(plan.Meals))
	b.WriteString("Acesse o NutriPlan para ver os detalhes.\n")
	return subject, b.String()
}
