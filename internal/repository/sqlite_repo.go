package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/willjrcristo/nutriplan/internal/domain"
	"github.com/willjrcristo/nutriplan/internal/fieldcrypt"
)

// queryer é o que *sql.DB e *sql.Tx têm em comum. Os métodos do repositório
// usam só isso, então rodam igual dentro e fora de uma transação.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqlitePlanRepository é a implementação do PlanRepository para SQLite.
// As refeições ficam numa coluna JSON, como um documento embutido.
type sqlitePlanRepository struct {
	db     *sql.DB
	q      queryer
	cipher fieldcrypt.Cipher
	inTx   bool
}

// NewSQLitePlanRepository cria o repositório de planos. cipher pode ser nil.
func NewSQLitePlanRepository(db *sql.DB, cipher fieldcrypt.Cipher) PlanRepository {
	if cipher == nil {
		cipher = fieldcrypt.Noop{}
	}
	return &sqlitePlanRepository{db: db, q: db, cipher: cipher}
}

const planColumns = `id, patient_id, nutritionist_id, title, description, start_date, end_date,
	target_calories, target_proteins, target_carbohydrates, target_fats,
	meals, is_active, created_at, updated_at`

func (r *sqlitePlanRepository) FindActiveByPatient(ctx context.Context, patientID string) ([]domain.DietPlan, error) {
	return r.queryPlans(ctx,
		"SELECT "+planColumns+" FROM diet_plans WHERE patient_id = ? AND is_active = 1 ORDER BY created_at DESC, rowid DESC",
		patientID)
}

func (r *sqlitePlanRepository) FindByPatient(ctx context.Context, patientID string) ([]domain.DietPlan, error) {
	return r.queryPlans(ctx,
		"SELECT "+planColumns+" FROM diet_plans WHERE patient_id = ? ORDER BY created_at DESC, rowid DESC",
		patientID)
}

func (r *sqlitePlanRepository) FindByID(ctx context.Context, id string) (*domain.DietPlan, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+planColumns+" FROM diet_plans WHERE id = ?", id)
	plan, err := r.scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

func (r *sqlitePlanRepository) DeactivateAllForPatient(ctx context.Context, patientID string) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		"UPDATE diet_plans SET is_active = 0, updated_at = ? WHERE patient_id = ? AND is_active = 1",
		time.Now().UTC().UnixNano(), patientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sqlitePlanRepository) Insert(ctx context.Context, plan domain.DietPlan) error {
	sealed, err := sealPlan(r.cipher, plan)
	if err != nil {
		return err
	}
	meals, err := json.Marshal(nonNilMeals(sealed.Meals))
	if err != nil {
		return fmt.Errorf("falha ao serializar refeições: %w", err)
	}

	var endDate sql.NullInt64
	if sealed.EndDate != nil {
		endDate = sql.NullInt64{Int64: sealed.EndDate.UTC().UnixNano(), Valid: true}
	}

	_, err = r.q.ExecContext(ctx, `INSERT INTO diet_plans(`+planColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sealed.ID, sealed.PatientID, sealed.NutritionistID, sealed.Title, sealed.Description,
		sealed.StartDate.UTC().UnixNano(), endDate,
		sealed.TargetCalories, sealed.TargetProteins, sealed.TargetCarbohydrates, sealed.TargetFats,
		string(meals), sealed.IsActive,
		sealed.CreatedAt.UTC().UnixNano(), sealed.UpdatedAt.UTC().UnixNano(),
	)
	return mapSQLiteErr(err)
}

func (r *sqlitePlanRepository) Delete(ctx context.Context, id string) error {
	_, err := r.q.ExecContext(ctx, "DELETE FROM diet_plans WHERE id = ?", id)
	return err
}

func (r *sqlitePlanRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx PlanRepository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	txRepo := &sqlitePlanRepository{db: r.db, q: tx, cipher: r.cipher, inTx: true}

	if err := fn(ctx, txRepo); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("falha ao confirmar transação: %w", err)
	}
	return nil
}

// --- AUXILIARES ---

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *sqlitePlanRepository) queryPlans(ctx context.Context, query string, args ...any) ([]domain.DietPlan, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.DietPlan
	for rows.Next() {
		p, err := r.scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func (r *sqlitePlanRepository) scanPlan(s rowScanner) (*domain.DietPlan, error) {
	var (
		p                       domain.DietPlan
		meals                   string
		start, created, updated int64
		end                     sql.NullInt64
	)
	err := s.Scan(&p.ID, &p.PatientID, &p.NutritionistID, &p.Title, &p.Description, &start, &end,
		&p.TargetCalories, &p.TargetProteins, &p.TargetCarbohydrates, &p.TargetFats,
		&meals, &p.IsActive, &created, &updated)
	if err != nil {
		return nil, err
	}

	p.StartDate = time.Unix(0, start).UTC()
	if end.Valid {
		e := time.Unix(0, end.Int64).UTC()
		p.EndDate = &e
	}
	p.CreatedAt = time.Unix(0, created).UTC()
	p.UpdatedAt = time.Unix(0, updated).UTC()

	if err := json.Unmarshal([]byte(meals), &p.Meals); err != nil {
		return nil, fmt.Errorf("refeições corrompidas no plano %s: %w", p.ID, err)
	}
	if err := openPlan(r.cipher, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func nonNilMeals(m []domain.Meal) []domain.Meal {
	if m == nil {
		return []domain.Meal{}
	}
	return m
}

func mapSQLiteErr(err error) error {
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// --- PACIENTES ---

type sqlitePatientRepository struct {
	db *sql.DB
}

// NewSQLitePatientRepository cria o repositório de pacientes.
func NewSQLitePatientRepository(db *sql.DB) PatientRepository {
	return &sqlitePatientRepository{db: db}
}

func (r *sqlitePatientRepository) Create(ctx context.Context, p domain.Patient) error {
	stmt, err := r.db.PrepareContext(ctx, "INSERT INTO patients(id, nutritionist_id, name, email, created_at) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, p.ID, p.NutritionistID, p.Name, p.Email, p.CreatedAt.UTC().UnixNano())
	return mapSQLiteErr(err)
}

func (r *sqlitePatientRepository) GetByID(ctx context.Context, id string) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, nutritionist_id, name, email, created_at FROM patients WHERE id = ?", id)

	var (
		p       domain.Patient
		created int64
	)
	if err := row.Scan(&p.ID, &p.NutritionistID, &p.Name, &p.Email, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.CreatedAt = time.Unix(0, created).UTC()
	return &p, nil
}
