package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"field-booking/cmd"
	"field-booking/internal/artifact"
	"field-booking/internal/data/repository"
	"field-booking/internal/gateway/paymob"
	"field-booking/internal/notify"
	"field-booking/internal/wire"
	"field-booking/pkg/database"
	"field-booking/pkg/mailer"
	"field-booking/pkg/mq"
	"field-booking/pkg/storage"
	"field-booking/pkg/utils"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const sessionCleanupInterval = time.Hour

func main() {
	// Load config
	config, err := utils.LoadConfig(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	smtp := mailer.NewSMTP(mailer.SMTPConfig{
		Host:     config.Email.Host,
		Port:     config.Email.Port,
		User:     config.Email.User,
		Password: config.Email.Password,
		From:     config.Email.From,
	})

	if len(os.Args) > 1 && os.Args[1] == "worker" {
		if err := cmd.NotificationWorker(ctx, config, smtp, logger); err != nil {
			logger.Fatal("Worker stopped", zap.Error(err))
		}
		return
	}

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	repos := repository.NewRepository(db, logger)

	// Notifications go through RabbitMQ when configured, otherwise straight to SMTP
	var notifier notify.Dispatcher
	if config.Rabbit.URL != "" {
		publisher, err := mq.NewPublisher(config.Rabbit.URL, config.Rabbit.Exchange)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
		notifier = notify.NewQueueDispatcher(publisher, logger)
	} else {
		notifier = notify.NewMailDispatcher(smtp, logger)
	}

	gateway := paymob.NewClient(paymob.Config{
		BaseURL:       config.Paymob.BaseURL,
		APIKey:        config.Paymob.APIKey,
		SecretKey:     config.Paymob.SecretKey,
		IntegrationID: config.Paymob.IntegrationID,
		IframeID:      config.Paymob.IframeID,
		Timeout:       config.Paymob.Timeout,
	}, logger)

	if err := os.MkdirAll(config.Storage.Root, 0755); err != nil {
		logger.Fatal("Failed to create storage root", zap.Error(err))
	}

	app := wire.Wiring(repos, config, wire.Dependencies{
		Gateway:   gateway,
		Artifacts: artifact.NewRenderer(storage.New(config.Storage.Root, config.Storage.PublicURL)),
		Notifier:  notifier,
		Files:     afero.NewHttpFs(afero.NewBasePathFs(afero.NewOsFs(), config.Storage.Root)).Dir("."),
	}, logger)

	go cmd.CleanSessions(ctx, repos.Session, sessionCleanupInterval, logger)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
	logger.Info("Server stopped")
}
