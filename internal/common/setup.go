package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"rwa-registry-go/internal/database"
	"rwa-registry-go/internal/events"
	"rwa-registry-go/internal/formance"
	"rwa-registry-go/internal/metrics"
	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/reconciler"
	"rwa-registry-go/internal/registry"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		// Only log if the file exists but couldn't be read
		// (godotenv returns an error if .env doesn't exist)
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService  *database.Service // nil when persistence is disabled
	Registry   *registry.Registry
	Dispatcher *events.Dispatcher
	Mirror     *formance.Mirror // nil when no Formance stack is configured
	Reconciler *reconciler.Reconciler

	nats *events.NATSPublisher
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires persistence, event sinks, the registry and the
// reconciler. The registry is restored from the database when enabled and
// the dispatcher is started, so events of any caller reach the sinks.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	services := &Services{}

	if cfg.Database.Enabled {
		dbService, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		services.DbService = dbService
	} else {
		zap.L().Warn("Persistence disabled, registry state lives in memory only")
	}

	var sinks []events.Sink
	if cfg.Events.NatsURL != "" {
		publisher, err := events.NewNATSPublisher(ctx, cfg.Events)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.nats = publisher
		sinks = append(sinks, publisher)
	}

	if cfg.Formance.Enabled() {
		mirror, err := formance.NewMirror(ctx, cfg.Formance)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.Mirror = mirror
		sinks = append(sinks, mirror)
	}

	services.Dispatcher = events.NewDispatcher(cfg.Events, sinks, events.WithObserver(metrics.EventObserver{}))
	services.Dispatcher.Start(ctx)

	opts := []registry.Option{registry.WithPublisher(services.Dispatcher)}
	if services.DbService != nil {
		opts = append(opts, registry.WithStore(services.DbService))
	}
	services.Registry = registry.New(opts...)

	if services.DbService != nil {
		snapshot, err := services.DbService.Load(ctx)
		if err != nil {
			services.Close()
			return nil, fmt.Errorf("failed to load registry state: %w", err)
		}
		services.Registry.Restore(snapshot)
	}
	metrics.SetSource(services.Registry)

	reconcilerCfg := reconciler.Config{
		Source:   services.Registry,
		Schedule: cfg.Reconciler.Schedule,
	}
	if services.DbService != nil {
		reconcilerCfg.Store = services.DbService
	}
	if services.Mirror != nil {
		reconcilerCfg.Mirror = services.Mirror
		reconcilerCfg.Backlog = services.Dispatcher
	}
	services.Reconciler = reconciler.New(reconcilerCfg)

	zap.L().Info("Services initialized",
		zap.Bool("persistence", services.DbService != nil),
		zap.Bool("nats", services.nats != nil),
		zap.Bool("formance", services.Mirror != nil))
	return services, nil
}

// InitializeDatabaseOnly initializes just the database service without event sinks
// Useful for read-only operations like reports and the audit journal
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

// Close drains pending events before releasing connections
func (cs *Services) Close() {
	if cs.Reconciler != nil {
		cs.Reconciler.Stop()
	}
	if cs.Dispatcher != nil {
		cs.Dispatcher.Stop()
	}
	if cs.nats != nil {
		cs.nats.Close()
	}
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
