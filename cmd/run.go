package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"streameconomy/api"
	"streameconomy/application"
	"streameconomy/config"
	"streameconomy/database"
	"streameconomy/domain/interfaces"
	"streameconomy/infrastructure"
	"streameconomy/infrastructure/observability"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run initializes and starts the economy service
func Run(ctx context.Context) error {
	log.Info("Starting stream economy service...")

	cfg := config.Get()

	log.Info("Initializing metrics...")
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(), database.WithMaxConns(cfg.DatabaseMaxConns))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")

	log.WithField("servers", cfg.NATSServers).Info("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	subjectMapper := infrastructure.NewEventSubjectMapper()
	if err := infrastructure.EnsureEconomyEventStream(natsClient, subjectMapper); err != nil {
		_ = natsClient.Close()
		db.Close()
		return fmt.Errorf("failed to ensure economy event stream: %w", err)
	}
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)
	log.Info("Event publisher initialized successfully")

	var fanout interfaces.Fanout
	var closeFanout func() error
	if cfg.UsesRedisFanout() {
		log.WithField("addr", cfg.RedisAddr).Info("Connecting to Redis fanout...")
		redisClient, err := infrastructure.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			_ = natsClient.Close()
			db.Close()
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		fanout = infrastructure.NewRedisFanout(redisClient)
		closeFanout = redisClient.Close
	} else {
		log.Info("Using in-process fanout")
		fanout = infrastructure.NewMemoryFanout()
		closeFanout = func() error { return nil }
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)
	processor, err := application.NewTransactionProcessor(uowFactory, cfg, nil)
	if err != nil {
		_ = closeFanout()
		_ = natsClient.Close()
		db.Close()
		return fmt.Errorf("failed to initialize transaction processor: %w", err)
	}
	application.RegisterApplicationSubscriptions(uowFactory, fanout)
	log.Info("Transaction processor initialized successfully")

	consumer := infrastructure.NewMessageConsumer(natsClient, application.NewCollaboratorHandler(processor))

	var reconciler *application.TierReconciliationWorker
	if cfg.TierReconcileSchedule != "" {
		reconciler = application.NewTierReconciliationWorker(processor, cfg.TierReconcileSchedule)
	}

	router := api.NewRouter(processor, fanout,
		api.HealthCheck{Name: "database", Check: db.Ping},
		api.HealthCheck{Name: "nats", Check: natsClient.Ping},
	)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := consumer.Start(groupCtx); err != nil {
			return fmt.Errorf("message consumer stopped: %w", err)
		}
		return nil
	})

	if reconciler != nil {
		if err := reconciler.Start(groupCtx); err != nil {
			log.WithError(err).Error("Tier reconciliation worker not started")
			reconciler = nil
		}
	}

	group.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down HTTP server")
		}
		return nil
	})

	log.WithField("environment", cfg.Environment).Info("Stream economy service is running")
	runErr := group.Wait()

	log.Info("Shutting down stream economy service...")

	if reconciler != nil {
		reconciler.Stop()
	}

	if err := closeFanout(); err != nil {
		log.WithError(err).Error("Error closing fanout")
	}

	if err := natsClient.Close(); err != nil {
		log.WithError(err).Error("Error closing NATS connection")
	}

	log.Info("Closing database connection...")
	db.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return runErr
}
