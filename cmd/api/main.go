package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	_ "github.com/willjrcristo/nutriplan/docs" // Importa a pasta docs gerada

	// Nossos pacotes internos da aplicação!
	"github.com/willjrcristo/nutriplan/internal/auth"
	"github.com/willjrcristo/nutriplan/internal/config"
	"github.com/willjrcristo/nutriplan/internal/fieldcrypt"
	httphandler "github.com/willjrcristo/nutriplan/internal/handler/http"
	"github.com/willjrcristo/nutriplan/internal/metrics"
	"github.com/willjrcristo/nutriplan/internal/notify"
	"github.com/willjrcristo/nutriplan/internal/repository"
	"github.com/willjrcristo/nutriplan/internal/service"
	"github.com/willjrcristo/nutriplan/pkg/logger"
)

// @title           NutriPlan API
// @version         1.0
// @description     API de planos alimentares: cada paciente tem no máximo um plano ativo por vez.
// @termsOfService  http://swagger.io/terms/
//
// @contact.name   Will Cristo
// @contact.url    https://linkedin.com/in/willjrcristo
// @contact.email  willjrcristo@gmail.com
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @host      localhost:8080
// @BasePath  /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Token JWT no formato "Bearer {token}"
func main() {
	// --- 1. CONFIGURAÇÃO ---
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// --- 2. LOGGER ---
	log, err := logger.For(cfg.Log.Development)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuração inválida", zap.Error(err))
	}
	log.Info("🚀 Iniciando a NutriPlan API...", zap.String("driver", cfg.DB.Driver))

	// --- 3. CIFRAGEM DE CAMPOS ---
	cipher, err := fieldcrypt.New(cfg.Crypto.FieldKey)
	if err != nil {
		log.Fatal("Chave de cifragem inválida", zap.Error(err))
	}
	if cfg.Crypto.FieldKey == "" {
		log.Warn("Cifragem de campos desligada: defina NUTRIPLAN_CRYPTO_FIELD_KEY")
	}

	// --- 4. BANCO DE DADOS E REPOSITÓRIOS ---
	ctx := context.Background()
	planRepo, patientRepo, closeDB, err := openRepositories(ctx, cfg, cipher)
	if err != nil {
		log.Fatal("Erro ao inicializar o banco de dados", zap.Error(err))
	}
	defer closeDB()
	log.Info("💾 Conexão com o banco de dados estabelecida com sucesso.")

	// --- 5. INJEÇÃO DE DEPENDÊNCIAS (WIRING) ---
	// DB -> Repository -> Service -> Handler
	var notifier service.PlanNotifier = notify.NewLogNotifier(log)
	if cfg.SESEnabled() {
		sesNotifier, err := notify.NewSESNotifier(ctx, cfg.Notify.SESRegion, cfg.Notify.FromEmail, patientRepo, log)
		if err != nil {
			log.Fatal("Erro ao configurar o SES", zap.Error(err))
		}
		notifier = sesNotifier
		log.Info("📧 Notificações por e-mail via SES", zap.String("region", cfg.Notify.SESRegion))
	}

	planService := service.NewDietPlanService(planRepo, patientRepo, notifier, log,
		service.WithNotifyTimeout(cfg.Notify.Timeout))
	patientService := service.NewPatientService(patientRepo, log)
	handler := httphandler.NewHandler(planService, patientService, log)
	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)

	// --- 6. CONFIGURAÇÃO DO ROTEADOR E ROTAS ---
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httphandler.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metrics.Middleware)

	// Rota de Health Check
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("NutriPlan API está no ar! 🚀"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// A URL será http://localhost:8080/swagger/index.html
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Group(func(r chi.Router) {
		r.Use(verifier.Middleware)
		r.Mount("/plans", handler.PlanRoutes())
		r.Mount("/patients", handler.PatientRoutes())
	})
	log.Info("🛰️  Rotas de /plans e /patients registradas")

	// --- 7. INICIALIZAÇÃO DO SERVIDOR HTTP ---
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("✅ Servidor pronto para receber requisições", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Erro ao iniciar o servidor", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Encerrando o servidor...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Erro no encerramento do servidor", zap.Error(err))
	}
}

// openRepositories abre o banco escolhido em db.driver e devolve os
// repositórios junto com a função que fecha a conexão.
func openRepositories(ctx context.Context, cfg *config.Config, cipher fieldcrypt.Cipher) (repository.PlanRepository, repository.PatientRepository, func(), error) {
	switch cfg.DB.Driver {
	case config.DriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, nil, nil, err
		}
		if err := client.Ping(ctx, nil); err != nil {
			return nil, nil, nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return repository.NewMongoPlanRepository(db, cipher), repository.NewMongoPatientRepository(db), closeFn, nil
	default:
		db, err := repository.OpenSQLite(cfg.DB.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() { _ = db.Close() }
		return repository.NewSQLitePlanRepository(db, cipher), repository.NewSQLitePatientRepository(db), closeFn, nil
	}
}
