package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/willjrcristo/nutriplan/internal/auth"
	"github.com/willjrcristo/nutriplan/internal/domain"
	"github.com/willjrcristo/nutriplan/internal/service"
)

// O handler depende destas interfaces, não das implementações concretas,
// para que os testes possam usar mocks.
type PlanService interface {
	CreatePlanForPatient(ctx context.Context, nutritionistID string, plan domain.DietPlan) (*domain.DietPlan, error)
	GetActivePlan(ctx context.Context, patientID string) (*domain.DietPlan, error)
	GetPlanByID(ctx context.Context, id string) (*domain.DietPlan, error)
	GetPlanSummary(ctx context.Context, id string) (*domain.DietPlan, domain.Summary, error)
	ListPatientPlans(ctx context.Context, patientID string) ([]domain.DietPlan, error)
	DeletePlan(ctx context.Context, id, nutritionistID string) error
	PlanState(plan domain.DietPlan) domain.PlanState
}

type PatientService interface {
	InvitePatient(ctx context.Context, nutritionistID, name, email string) (*domain.Patient, error)
	GetPatient(ctx context.Context, id string) (*domain.Patient, error)
}

// Handler lida com as rotas de /plans e /patients.
type Handler struct {
	plans    PlanService
	patients PatientService
	logger   *zap.Logger
}

func NewHandler(plans PlanService, patients PatientService, logger *zap.Logger) *Handler {
	return &Handler{plans: plans, patients: patients, logger: logger}
}

// PlanRoutes define as rotas montadas em /plans.
func (h *Handler) PlanRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreatePlan)                // POST /plans
	r.Get("/{id}", h.GetPlan)                // GET /plans/{id}
	r.Get("/{id}/summary", h.GetPlanSummary) // GET /plans/{id}/summary
	r.Delete("/{id}", h.DeletePlan)          // DELETE /plans/{id}

	return r
}

// PatientRoutes define as rotas montadas em /patients.
func (h *Handler) PatientRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.InvitePatient)                       // POST /patients
	r.Get("/{patientID}", h.GetPatient)                // GET /patients/{patientID}
	r.Get("/{patientID}/plans", h.ListPatientPlans)    // GET /patients/{patientID}/plans
	r.Get("/{patientID}/active-plan", h.GetActivePlan) // GET /patients/{patientID}/active-plan

	return r
}

// --- RESPOSTAS ---

// PlanResponse é o plano com o estado derivado no momento da leitura.
type PlanResponse struct {
	domain.DietPlan
	State domain.PlanState `json:"state"`
}

type PlanSummaryResponse struct {
	Plan    PlanResponse   `json:"plan"`
	Summary domain.Summary `json:"summary"`
}

// ActivePlanResponse traz plan nulo quando o paciente não tem plano em vigor.
type ActivePlanResponse struct {
	Plan    *domain.DietPlan `json:"plan"`
	Summary *domain.Summary  `json:"summary,omitempty"`
}

type InvitePatientRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// --- PLANOS ---

// @Summary      Cria e ativa um plano alimentar
// @Description  Desativa o plano ativo anterior do paciente e grava o novo como ativo
// @Tags         planos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        plano  body      domain.DietPlan  true  "Plano alimentar"
// @Success      201    {object}  PlanResponse
// @Failure      400    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /plans [post]
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireRole(w, r, auth.RoleNutritionist)
	if !ok {
		return
	}

	var plan domain.DietPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if err := domain.Validate(plan); err != nil {
		h.respondWithServiceError(w, err, "Erro ao criar plano")
		return
	}

	created, err := h.plans.CreatePlanForPatient(r.Context(), caller.ID, plan)
	if err != nil {
		h.respondWithServiceError(w, err, "Erro ao criar plano")
		return
	}

	respondWithJSON(w, http.StatusCreated, PlanResponse{DietPlan: *created, State: h.plans.PlanState(*created)})
}

// @Summary      Busca um plano por ID
// @Tags         planos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID do plano"
// @Success      200  {object}  PlanResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /plans/{id} [get]
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	plan, err := h.plans.GetPlanByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondWithServiceError(w, err, "Erro ao buscar plano")
		return
	}
	if !canReadPlan(caller, *plan) {
		respondWithError(w, http.StatusForbidden, service.ErrForbidden.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, PlanResponse{DietPlan: *plan, State: h.plans.PlanState(*plan)})
}

// @Summary      Resumo nutricional do plano
// @Description  Totais calculados a partir das refeições e percentual atingido de cada meta
// @Tags         planos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ID do plano"
// @Success      200  {object}  PlanSummaryResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /plans/{id}/summary [get]
func (h *Handler) GetPlanSummary(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	plan, summary, err := h.plans.GetPlanSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondWithServiceError(w, err, "Erro ao calcular resumo")
		return
	}
	if !canReadPlan(caller, *plan) {
		respondWithError(w, http.StatusForbidden, service.ErrForbidden.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, PlanSummaryResponse{
		Plan:    PlanResponse{DietPlan: *plan, State: h.plans.PlanState(*plan)},
		Summary: summary,
	})
}

// @Summary      Remove um plano
// @Tags         planos
// @Security     BearerAuth
// @Param        id   path      string  true  "ID do plano"
// @Success      204  {string}  string "No Content"
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /plans/{id} [delete]
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireRole(w, r, auth.RoleNutritionist)
	if !ok {
		return
	}

	if err := h.plans.DeletePlan(r.Context(), chi.URLParam(r, "id"), caller.ID); err != nil {
		h.respondWithServiceError(w, err, "Erro ao remover plano")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- PACIENTES ---

// @Summary      Convida um paciente
// @Tags         pacientes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        paciente  body      InvitePatientRequest  true  "Nome e e-mail"
// @Success      201       {object}  domain.Patient
// @Failure      400       {object}  map[string]string
// @Failure      409       {object}  map[string]string
// @Router       /patients [post]
func (h *Handler) InvitePatient(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireRole(w, r, auth.RoleNutritionist)
	if !ok {
		return
	}

	var req InvitePatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}

	patient, err := h.patients.InvitePatient(r.Context(), caller.ID, req.Name, req.Email)
	if err != nil {
		h.respondWithServiceError(w, err, "Erro ao convidar paciente")
		return
	}

	respondWithJSON(w, http.StatusCreated, patient)
}

// @Summary      Busca um paciente
// @Tags         pacientes
// @Produce      json
// @Security     BearerAuth
// @Param        patientID  path      string  true  "ID do paciente"
// @Success      200        {object}  domain.Patient
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /patients/{patientID} [get]
func (h *Handler) GetPatient(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	patient, ok := h.authorizePatientAccess(w, r, caller)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}

// @Summary      Lista os planos de um paciente
// @Description  Todos os planos, do mais novo para o mais antigo, com o estado de cada um
// @Tags         pacientes
// @Produce      json
// @Security     BearerAuth
// @Param        patientID  path      string  true  "ID do paciente"
// @Success      200        {array}   PlanResponse
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /patients/{patientID}/plans [get]
func (h *Handler) ListPatientPlans(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	patient, ok := h.authorizePatientAccess(w, r, caller)
	if !ok {
		return
	}

	plans, err := h.plans.ListPatientPlans(r.Context(), patient.ID)
	if err != nil {
		h.respondWithServiceError(w, err, "Erro ao listar planos")
		return
	}

	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanResponse{DietPlan: p, State: h.plans.PlanState(p)})
	}
	respondWithJSON(w, http.StatusOK, out)
}

// @Summary      Plano em vigor do paciente
// @Description  Devolve {"plan": null} quando não há plano ativo e dentro da validade
// @Tags         pacientes
// @Produce      json
// @Security     BearerAuth
// @Param        patientID  path      string  true  "ID do paciente"
// @Success      200        {object}  ActivePlanResponse
// @Failure      403        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /patients/{patientID}/active-plan [get]
func (h *Handler) GetActivePlan(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	patient, ok := h.authorizePatientAccess(w, r, caller)
	if !ok {
		return
	}

	plan, err := h.plans.GetActivePlan(r.Context(), patient.ID)
	if err != nil {
		h.respondWithServiceError(w, err, "Erro ao buscar plano ativo")
		return
	}

	resp := ActivePlanResponse{Plan: plan}
	if plan != nil {
		summary := domain.ComputeNutritionalSummary(*plan)
		resp.Summary = &summary
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// --- AUTORIZAÇÃO ---

func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Não autenticado")
	}
	return id, ok
}

func requireRole(w http.ResponseWriter, r *http.Request, role auth.Role) (auth.Identity, bool) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return id, false
	}
	if id.Role != role {
		respondWithError(w, http.StatusForbidden, service.ErrForbidden.Error())
		return id, false
	}
	return id, true
}

// canReadPlan: o nutricionista autor e o próprio paciente podem ler o plano.
func canReadPlan(caller auth.Identity, plan domain.DietPlan) bool {
	switch caller.Role {
	case auth.RoleNutritionist:
		return plan.NutritionistID == caller.ID
	case auth.RolePatient:
		return plan.PatientID == caller.ID
	}
	return false
}

// authorizePatientAccess carrega o paciente da URL e confere que o chamador
// é o próprio paciente ou o nutricionista dele.
func (h *Handler) authorizePatientAccess(w http.ResponseWriter, r *http.Request, caller auth.Identity) (*domain.Patient, bool) {
	patientID := chi.URLParam(r, "patientID")
	if caller.Role == auth.RolePatient && caller.ID != patientID {
		respondWithError(w, http.StatusForbidden, service.ErrForbidden.Error())
		return nil, false
	}

	patient, err := h.patients.GetPatient(r.Context(), patientID)
	if err != nil {
		h.respondWithServiceError(w, err, "Erro ao buscar paciente")
		return nil, false
	}
	if caller.Role == auth.RoleNutritionist && patient.NutritionistID != caller.ID {
		respondWithError(w, http.StatusForbidden, service.ErrForbidden.Error())
		return nil, false
	}
	return patient, true
}

// --- FUNÇÕES AUXILIARES ---

func (h *Handler) respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusBadRequest, map[string]any{"error": "Dados inválidos", "fields": verr.Fields})
	case errors.Is(err, domain.ErrMalformedPlan):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPlanNotFound), errors.Is(err, service.ErrPatientNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPatientExists):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(fallback, zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
