package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/crewops/opsync/internal/api/handler"
	"github.com/crewops/opsync/internal/api/router"
	"github.com/crewops/opsync/internal/assets"
	"github.com/crewops/opsync/internal/config"
	"github.com/crewops/opsync/internal/localstore"
	"github.com/crewops/opsync/internal/objectstore"
	"github.com/crewops/opsync/internal/remote"
	"github.com/crewops/opsync/internal/syncer"
	"github.com/crewops/opsync/shared/logger"
	"github.com/crewops/opsync/shared/rabbitmq"
	"github.com/crewops/opsync/shared/sqlite"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Open the embedded local cache
	cacheClient, err := sqlite.NewClient(&sqlite.Config{
		Path:        cfg.LocalStore.Path,
		BusyTimeout: cfg.LocalStore.BusyTimeout,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}

	store, err := localstore.NewStore(cacheClient, appLogger.Logger)
	if err != nil {
		cacheClient.Close()
		return fmt.Errorf("failed to initialize local store: %w", err)
	}

	appLogger.Info("Local store ready", slog.String("path", cfg.LocalStore.Path))

	// Remote backend settings seeded from config; mutable at runtime
	// through the settings API. Empty endpoint means local-only mode.
	settings := remote.NewSettings(cfg.Remote.Endpoint, cfg.Remote.Credential, cfg.Remote.StorageBucket)
	if settings.Configured() {
		appLogger.Info("Remote backend attached", slog.String("endpoint", cfg.Remote.Endpoint))
	} else {
		appLogger.Info("Remote backend not configured, running local-only")
	}

	gateway := remote.NewClient(settings, cfg.Remote.Timeout, appLogger.Logger)
	mirror := remote.NewMirror(gateway, store, appLogger.Logger)
	uploader := objectstore.NewUploader(settings, cfg.Remote.Timeout, appLogger.Logger)
	pipeline := assets.NewPipeline(uploader, assets.SharedCache(), appLogger.Logger)

	dispatch := syncer.NewDispatchService(store, mirror, pipeline, appLogger.Logger)
	inspection := syncer.NewInspectionService(store, mirror, pipeline, appLogger.Logger)

	// RabbitMQ is optional for the API: without it the sync-task endpoint
	// answers 503 and everything else still works.
	var rabbitClient *rabbitmq.Client
	if cfg.RabbitMQ.Host != "" {
		rabbitClient, err = initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		appLogger.Info("RabbitMQ connection established")
	} else {
		appLogger.Info("RabbitMQ not configured, sync-task endpoint disabled")
	}

	// Initialize router
	r := initRouter(cfg.App.Environment, &handler.Dependencies{
		Logger:     appLogger.Logger,
		Dispatch:   dispatch,
		Inspection: inspection,
		Settings:   settings,
		Tasks:      taskPublisher(rabbitClient),
	})

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)

	// Cleanup function to close all resources
	cleanup := func() {
		cancel()
		if cacheClient != nil {
			cacheClient.Close()
		}
		if rabbitClient != nil {
			rabbitClient.Close()
		}
	}
	defer cleanup()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// taskPublisher converts a possibly-nil client into the handler dependency.
// A typed nil inside a non-nil interface would defeat the handler's check.
func taskPublisher(client *rabbitmq.Client) handler.TaskPublisher {
	if client == nil {
		return nil
	}
	return client
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(environment string, deps *handler.Dependencies) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	return router.SetupRouter(deps)
}
