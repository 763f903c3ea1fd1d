package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/khoahotran/profile-portal/adapters/event"
	"github.com/khoahotran/profile-portal/adapters/mail"
	"github.com/khoahotran/profile-portal/adapters/media_storage"
	"github.com/khoahotran/profile-portal/internal/application/service"
	notificationUC "github.com/khoahotran/profile-portal/internal/application/usecase/notification"
	"github.com/khoahotran/profile-portal/internal/config"
	"github.com/khoahotran/profile-portal/pkg/logger"
	"github.com/khoahotran/profile-portal/pkg/tracing"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: cannot load config: %v", err)
	}

	appLogger := logger.NewZapLogger(cfg.App.Env)
	defer appLogger.Sync()
	appLogger.Info("Starting Profile Portal Worker...")

	if len(cfg.Kafka.Brokers) == 0 {
		appLogger.Fatal("Worker needs KAFKA_BROKERS", nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewTracerProvider(cfg, appLogger, "profile-portal-worker")
	if err != nil {
		appLogger.Fatal("Cannot init tracer provider", err)
	}
	if tp != nil {
		defer tp.Shutdown(context.Background())
	}

	storage, err := media_storage.NewFileStorage(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize file storage", err)
	}

	var mailer service.Mailer
	if cfg.Mail.PlunkAPIKey != "" {
		mailer, err = mail.NewPlunkMailer(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to initialize mailer", err)
		}
	} else {
		appLogger.Warn("No Plunk API key configured, mail is only logged")
		mailer = mail.NewLogMailer(appLogger)
	}

	processUserEventUC := notificationUC.NewProcessUserEventUseCase(mailer, storage, appLogger)

	consumer := event.NewUserEventConsumer(cfg, appLogger)
	defer consumer.Close()

	if err := consumer.Run(ctx, processUserEventUC.Execute); err != nil {
		appLogger.Fatal("Worker stopped", err)
	}
	appLogger.Info("Worker exited")
}
