package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/willjrcristo/nutriplan/internal/domain"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, f.err
}

type fakePatients map[string]*domain.Patient

func (f fakePatients) GetByID(ctx context.Context, id string) (*domain.Patient, error) {
	return f[id], nil
}

func testPlan() domain.DietPlan {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return domain.DietPlan{
		ID: "plan-1", PatientID: "pac-1", Title: "Plano de abril",
		StartDate: start, EndDate: &end,
		TargetCalories: 1800, TargetProteins: 110, TargetCarbohydrates: 200, TargetFats: 55,
	}
}

func TestSESNotifier_PlanActivated(t *testing.T) {
	client := &fakeSES{}
	n := &SESNotifier{
		client:   client,
		from:     "nao-responda@nutriplan.app",
		patients: fakePatients{"pac-1": {ID: "pac-1", Name: "Ana", Email: "ana@exemplo.com"}},
		logger:   zap.NewNop(),
	}

	require.NoError(t, n.PlanActivated(context.Background(), testPlan()))
	require.NotNil(t, client.input)
	assert.Equal(t, []string{"ana@exemplo.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "nao-responda@nutriplan.app", aws.ToString(client.input.Source))

	body := aws.ToString(client.input.Message.Body.Text.Data)
	assert.Contains(t, body, "Olá, Ana!")
	assert.Contains(t, body, "Plano de abril")
	assert.Contains(t, body, "01/04/2026 até 01/05/2026")
	assert.Contains(t, body, "1800 kcal")
}

func TestSESNotifier_Errors(t *testing.T) {
	t.Run("paciente desconhecido", func(t *testing.T) {
		n := &SESNotifier{client: &fakeSES{}, patients: fakePatients{}, logger: zap.NewNop()}
		assert.ErrorIs(t, n.PlanActivated(context.Background(), testPlan()), ErrNoRecipient)
	})

	t.Run("falha do SES", func(t *testing.T) {
		boom := errors.New("throttled")
		n := &SESNotifier{
			client:   &fakeSES{err: boom},
			patients: fakePatients{"pac-1": {ID: "pac-1", Email: "ana@exemplo.com"}},
			logger:   zap.NewNop(),
		}
		assert.ErrorIs(t, n.PlanActivated(context.Background(), testPlan()), boom)
	})
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier(zap.NewNop()).PlanActivated(context.Background(), testPlan()))
}
