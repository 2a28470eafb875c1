package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/willjrcristo/nutriplan/internal/domain"
	"github.com/willjrcristo/nutriplan/internal/fieldcrypt"
)

// Documentos como gravados no MongoDB. As refeições ficam embutidas.
type foodDoc struct {
	Name          string   `bson:"name"`
	Quantity      float64  `bson:"quantity"`
	Unit          string   `bson:"unit"`
	Calories      *float64 `bson:"calories,omitempty"`
	Proteins      *float64 `bson:"proteins,omitempty"`
	Carbohydrates *float64 `bson:"carbohydrates,omitempty"`
	Fats          *float64 `bson:"fats,omitempty"`
	Fiber         *float64 `bson:"fiber,omitempty"`
}

type mealDoc struct {
	Type         string    `bson:"type"`
	Time         string    `bson:"time"`
	Foods        []foodDoc `bson:"foods"`
	Instructions string    `bson:"instructions,omitempty"`
}

type planDoc struct {
	ID                  string     `bson:"_id"`
	PatientID           string     `bson:"patient_id"`
	NutritionistID      string     `bson:"nutritionist_id"`
	Title               string     `bson:"title"`
	Description         string     `bson:"description,omitempty"`
	StartDate           time.Time  `bson:"start_date"`
	EndDate             *time.Time `bson:"end_date,omitempty"`
	TargetCalories      float64    `bson:"target_calories"`
	TargetProteins      float64    `bson:"target_proteins"`
	TargetCarbohydrates float64    `bson:"target_carbohydrates"`
	TargetFats          float64    `bson:"target_fats"`
	Meals               []mealDoc  `bson:"meals"`
	IsActive            bool       `bson:"is_active"`
	CreatedAt           time.Time  `bson:"created_at"`
	UpdatedAt           time.Time  `bson:"updated_at"`
}

type patientDoc struct {
	ID             string    `bson:"_id"`
	NutritionistID string    `bson:"nutritionist_id"`
	Name           string    `bson:"name"`
	Email          string    `bson:"email"`
	CreatedAt      time.Time `bson:"created_at"`
}

func toPlanDoc(p domain.DietPlan) planDoc {
	meals := make([]mealDoc, len(p.Meals))
	for i, m := range p.Meals {
		foods := make([]foodDoc, len(m.Foods))
		for j, f := range m.Foods {
			foods[j] = foodDoc{
				Name: f.Name, Quantity: f.Quantity, Unit: string(f.Unit),
				Calories: f.Calories, Proteins: f.Proteins, Carbohydrates: f.Carbohydrates,
				Fats: f.Fats, Fiber: f.Fiber,
			}
		}
		meals[i] = mealDoc{Type: string(m.Type), Time: m.Time, Foods: foods, Instructions: m.Instructions}
	}
	return planDoc{
		ID: p.ID, PatientID: p.PatientID, NutritionistID: p.NutritionistID,
		Title: p.Title, Description: p.Description,
		StartDate: p.StartDate, EndDate: p.EndDate,
		TargetCalories: p.TargetCalories, TargetProteins: p.TargetProteins,
		TargetCarbohydrates: p.TargetCarbohydrates, TargetFats: p.TargetFats,
		Meals: meals, IsActive: p.IsActive,
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (d planDoc) toDomain() domain.DietPlan {
	meals := make([]domain.Meal, len(d.Meals))
	for i, m := range d.Meals {
		foods := make([]domain.Food, len(m.Foods))
		for j, f := range m.Foods {
			foods[j] = domain.Food{
				Name: f.Name, Quantity: f.Quantity, Unit: domain.FoodUnit(f.Unit),
				Calories: f.Calories, Proteins: f.Proteins, Carbohydrates: f.Carbohydrates,
				Fats: f.Fats, Fiber: f.Fiber,
			}
		}
		meals[i] = domain.Meal{Type: domain.MealType(m.Type), Time: m.Time, Foods: foods, Instructions: m.Instructions}
	}
	return domain.DietPlan{
		ID: d.ID, PatientID: d.PatientID, NutritionistID: d.NutritionistID,
		Title: d.Title, Description: d.Description,
		StartDate: d.StartDate.UTC(), EndDate: utcPtr(d.EndDate),
		TargetCalories: d.TargetCalories, TargetProteins: d.TargetProteins,
		TargetCarbohydrates: d.TargetCarbohydrates, TargetFats: d.TargetFats,
		Meals: meals, IsActive: d.IsActive,
		CreatedAt: d.CreatedAt.UTC(), UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// mongoPlanRepository é a implementação do PlanRepository para MongoDB.
// RunInTx usa transações multi-documento, que exigem replica set.
type mongoPlanRepository struct {
	client *mongo.Client
	plans  *mongo.Collection
	cipher fieldcrypt.Cipher
}

// NewMongoPlanRepository cria o repositório de planos sobre a coleção diet_plans.
func NewMongoPlanRepository(db *mongo.Database, cipher fieldcrypt.Cipher) PlanRepository {
	if cipher == nil {
		cipher = fieldcrypt.Noop{}
	}
	return &mongoPlanRepository{client: db.Client(), plans: db.Collection("diet_plans"), cipher: cipher}
}

// EnsureMongoIndexes cria os índices usados pelas buscas e o índice único
// parcial que impede dois planos ativos para o mesmo paciente.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("diet_plans").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys: bson.D{{Key: "patient_id", Value: 1}},
			Options: options.Index().
				SetName("uq_one_active_per_patient").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
	})
	if err != nil {
		return fmt.Errorf("falha ao criar índices de planos: %w", err)
	}
	_, err = db.Collection("patients").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("falha ao criar índices de pacientes: %w", err)
	}
	return nil
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

func (r *mongoPlanRepository) FindActiveByPatient(ctx context.Context, patientID string) ([]domain.DietPlan, error) {
	return r.find(ctx, bson.M{"patient_id": patientID, "is_active": true})
}

func (r *mongoPlanRepository) FindByPatient(ctx context.Context, patientID string) ([]domain.DietPlan, error) {
	return r.find(ctx, bson.M{"patient_id": patientID})
}

func (r *mongoPlanRepository) FindByID(ctx context.Context, id string) (*domain.DietPlan, error) {
	var doc planDoc
	if err := r.plans.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	p := doc.toDomain()
	if err := openPlan(r.cipher, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *mongoPlanRepository) DeactivateAllForPatient(ctx context.Context, patientID string) (int64, error) {
	res, err := r.plans.UpdateMany(ctx,
		bson.M{"patient_id": patientID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *mongoPlanRepository) Insert(ctx context.Context, plan domain.DietPlan) error {
	sealed, err := sealPlan(r.cipher, plan)
	if err != nil {
		return err
	}
	if _, err := r.plans.InsertOne(ctx, toPlanDoc(sealed)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}
	return nil
}

func (r *mongoPlanRepository) Delete(ctx context.Context, id string) error {
	_, err := r.plans.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *mongoPlanRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx PlanRepository) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, r)
	}

	sess, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("falha ao iniciar sessão: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, r)
	})
	return err
}

func (r *mongoPlanRepository) find(ctx context.Context, filter bson.M) ([]domain.DietPlan, error) {
	cur, err := r.plans.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []planDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	plans := make([]domain.DietPlan, 0, len(docs))
	for _, d := range docs {
		p := d.toDomain()
		if err := openPlan(r.cipher, &p); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// --- PACIENTES ---

type mongoPatientRepository struct {
	patients *mongo.Collection
}

func NewMongoPatientRepository(db *mongo.Database) PatientRepository {
	return &mongoPatientRepository{patients: db.Collection("patients")}
}

func (r *mongoPatientRepository) Create(ctx context.Context, p domain.Patient) error {
	_, err := r.patients.InsertOne(ctx, patientDoc{
		ID: p.ID, NutritionistID: p.NutritionistID, Name: p.Name, Email: p.Email, CreatedAt: p.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func (r *mongoPatientRepository) GetByID(ctx context.Context, id string) (*domain.Patient, error) {
	var doc patientDoc
	if err := r.patients.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Patient{
		ID: doc.ID, NutritionistID: doc.NutritionistID, Name: doc.Name, Email: doc.Email,
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}
