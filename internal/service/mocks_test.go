package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/willjrcristo/nutriplan/internal/domain"
	"github.com/willjrcristo/nutriplan/internal/repository"
)

// Garante em tempo de compilação que os mocks implementam as interfaces.
var (
	_ repository.PlanRepository    = (*MockPlanRepository)(nil)
	_ repository.PatientRepository = (*MockPatientRepository)(nil)
)

// MockPlanRepository guarda os planos em memória e imita o comportamento
// transacional do banco: se fn de RunInTx falhar, o estado volta ao anterior.
// As funções *Func, quando definidas, substituem o comportamento padrão.
type MockPlanRepository struct {
	mu    sync.Mutex
	plans []domain.DietPlan

	InsertFunc func(ctx context.Context, plan domain.DietPlan) error

	DeactivateCallCount int32
	InsertCallCount     int32
}

func (m *MockPlanRepository) seed(plans ...domain.DietPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append(m.plans, plans...)
}

func (m *MockPlanRepository) newestFirst(keep func(domain.DietPlan) bool) []domain.DietPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DietPlan
	for i := len(m.plans) - 1; i >= 0; i-- {
		if keep(m.plans[i]) {
			out = append(out, m.plans[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *MockPlanRepository) FindActiveByPatient(ctx context.Context, patientID string) ([]domain.DietPlan, error) {
	return m.newestFirst(func(p domain.DietPlan) bool { return p.PatientID == patientID && p.IsActive }), nil
}

func (m *MockPlanRepository) FindByPatient(ctx context.Context, patientID string) ([]domain.DietPlan, error) {
	return m.newestFirst(func(p domain.DietPlan) bool { return p.PatientID == patientID }), nil
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id string) (*domain.DietPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.ID == id {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockPlanRepository) DeactivateAllForPatient(ctx context.Context, patientID string) (int64, error) {
	atomic.AddInt32(&m.DeactivateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.plans {
		if m.plans[i].PatientID == patientID && m.plans[i].IsActive {
			m.plans[i].IsActive = false
			n++
		}
	}
	return n, nil
}

func (m *MockPlanRepository) Insert(ctx context.Context, plan domain.DietPlan) error {
	atomic.AddInt32(&m.InsertCallCount, 1)
	if m.InsertFunc != nil {
		if err := m.InsertFunc(ctx, plan); err != nil {
			return err
		}
	}
	m.seed(plan)
	return nil
}

func (m *MockPlanRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.plans {
		if p.ID == id {
			m.plans = append(m.plans[:i], m.plans[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockPlanRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.PlanRepository) error) error {
	m.mu.Lock()
	snapshot := append([]domain.DietPlan(nil), m.plans...)
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.plans = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *MockPlanRepository) activeCount(patientID string) int {
	active, _ := m.FindActiveByPatient(context.Background(), patientID)
	return len(active)
}

// MockPatientRepository é um mock simples baseado em funções.
type MockPatientRepository struct {
	CreateFunc  func(ctx context.Context, patient domain.Patient) error
	GetByIDFunc func(ctx context.Context, id string) (*domain.Patient, error)
}

func (m *MockPatientRepository) Create(ctx context.Context, patient domain.Patient) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, patient)
	}
	return nil
}

func (m *MockPatientRepository) GetByID(ctx context.Context, id string) (*domain.Patient, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

// recordingNotifier entrega cada plano notificado num canal.
type recordingNotifier struct {
	calls chan domain.DietPlan
	err   error
}

func newRecordingNotifier(err error) *recordingNotifier {
	return &recordingNotifier{calls: make(chan domain.DietPlan, 10), err: err}
}

func (n *recordingNotifier) PlanActivated(ctx context.Context, plan domain.DietPlan) error {
	n.calls <- plan
	return n.err
}
