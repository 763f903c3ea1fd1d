package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/adapters/event"
	httpAdapter "github.com/khoahotran/profile-portal/adapters/http"
	"github.com/khoahotran/profile-portal/adapters/llm"
	"github.com/khoahotran/profile-portal/adapters/media_storage"
	"github.com/khoahotran/profile-portal/adapters/persistence"
	"github.com/khoahotran/profile-portal/internal/application/service"
	authUC "github.com/khoahotran/profile-portal/internal/application/usecase/auth"
	profileUC "github.com/khoahotran/profile-portal/internal/application/usecase/profile"
	"github.com/khoahotran/profile-portal/internal/config"
	"github.com/khoahotran/profile-portal/pkg/auth"
	"github.com/khoahotran/profile-portal/pkg/logger"
	"github.com/khoahotran/profile-portal/pkg/tracing"
)

const serviceName = "profile-portal-api"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Start Profile Portal API Server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Cannot init tracer provider", err)
	}
	if tp != nil {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				appLogger.Error("Failed to shutdown tracer provider", err)
			}
		}()
	}

	// Infrastructure
	if cfg.DB.AutoMigrate {
		if err := persistence.RunMigrations(cfg.DB.DSN, appLogger); err != nil {
			appLogger.Fatal("Cannot apply migrations", err)
		}
	}

	dbPool, err := persistence.NewPostgresPool(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Postgres", err)
	}
	defer dbPool.Close()

	redisClient, err := persistence.NewRedisClient(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Cannot connect Redis", err)
	}
	defer redisClient.Close()

	var publisher service.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := event.NewKafkaProducerClient(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Cannot init Kafka", err)
		}
		defer kafkaClient.Close()
		publisher = kafkaClient
	} else {
		appLogger.Warn("No Kafka brokers configured, events are only logged")
		publisher = event.NewLogPublisher(appLogger)
	}

	storage, err := media_storage.NewFileStorage(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize file storage", err)
	}

	var llmService service.LLMService
	if cfg.LLM.Host != "" {
		llmService, err = llm.NewOpenAICompatibleAdapter(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize LLM adapter", err)
		}
	} else {
		appLogger.Warn("No LLM host configured, bio generation disabled")
	}

	// Repositories
	userRepo := persistence.NewPostgresUserRepo(dbPool, appLogger)
	profileRepo := persistence.NewPostgresProfileRepo(dbPool, appLogger)
	resetTokens := persistence.NewRedisResetTokenStore(redisClient)

	// Services
	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenLifespan)
	hasher := auth.NewPasswordHasher()

	// Use Cases
	registerUseCase := authUC.NewRegisterUseCase(userRepo, jwtSvc, hasher, publisher, appLogger)
	loginUseCase := authUC.NewLoginUseCase(userRepo, jwtSvc, hasher, appLogger)
	requestResetUseCase := authUC.NewRequestPasswordResetUseCase(userRepo, resetTokens, publisher, cfg.Auth.ResetTokenLifespan, cfg.App.PublicURL, appLogger)
	resetPasswordUseCase := authUC.NewResetPasswordUseCase(userRepo, resetTokens, hasher, appLogger)
	currentUserUseCase := authUC.NewGetCurrentUserUseCase(userRepo)
	profileUseCase := profileUC.NewProfileUseCase(profileRepo, storage, publisher, appLogger)
	generateBioUseCase := profileUC.NewGenerateBioUseCase(llmService, appLogger)

	// HTTP Handlers
	authHandler := httpAdapter.NewAuthHandler(
		registerUseCase,
		loginUseCase,
		requestResetUseCase,
		resetPasswordUseCase,
		currentUserUseCase,
		appLogger,
	)
	profileHandler := httpAdapter.NewProfileHandler(
		profileUseCase,
		generateBioUseCase,
		httpAdapter.NewUploadStager("", cfg.Upload.MaxBytes),
		appLogger,
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	routerCfg := httpAdapter.RouterConfig{
		ServiceName:    serviceName,
		FrontendURL:    cfg.App.FrontendURL,
		AuthHandler:    authHandler,
		ProfileHandler: profileHandler,
		JWTService:     jwtSvc,
		Logger:         appLogger,
		HealthCheck: func(ctx context.Context) error {
			if err := dbPool.Ping(ctx); err != nil {
				return err
			}
			return redisClient.Ping(ctx).Err()
		},
	}
	if cfg.Storage.Provider == "local" {
		routerCfg.LocalUploadDir = cfg.Upload.Dir
	}

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           httpAdapter.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Server running", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Cannot run server", err)
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", err)
	}
	appLogger.Info("Server exited")
}
