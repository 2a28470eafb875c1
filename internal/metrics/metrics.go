package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Métricas registradas no registro padrão do Prometheus via promauto.
var (
	// http_requests_total conta as requisições por método, rota e status.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requisições HTTP recebidas.",
		},
		[]string{"method", "path", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duração das requisições HTTP em segundos.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "code"},
	)

	// PlansActivated conta planos criados e ativados com sucesso.
	PlansActivated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nutriplan_plans_activated_total",
		Help: "Planos alimentares criados e ativados.",
	})

	// PlansDeactivated conta planos anteriores desativados por um plano novo.
	PlansDeactivated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nutriplan_plans_superseded_total",
		Help: "Planos desativados porque outro plano foi ativado para o mesmo paciente.",
	})

	// ActivePlanAnomalies conta leituras que encontraram mais de um plano ativo.
	ActivePlanAnomalies = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nutriplan_active_plan_anomalies_total",
		Help: "Leituras que encontraram mais de um plano ativo para o mesmo paciente.",
	})

	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nutriplan_notification_failures_total",
		Help: "Falhas ao notificar a ativação de um plano.",
	})
)

// Middleware coleta contagem e latência de cada requisição.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Captura o status code da resposta.
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(ww.Status())

		// Usa o padrão da rota (ex: /plans/{id}) para não criar uma série por ID.
		routePattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			routePattern = rctx.RoutePattern()
		}

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, statusCode).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, statusCode).Observe(duration)
	})
}
