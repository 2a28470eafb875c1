package domain

import "time"

// Patient é o paciente convidado por um nutricionista.
type Patient struct {
	ID             string    `json:"id"`
	NutritionistID string    `json:"nutritionist_id"`
	Name           string    `json:"name" validate:"required,min=2,max=100"`
	Email          string    `json:"email" validate:"required,email"`
	CreatedAt      time.Time `json:"created_at"`
}
