package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jogardn/fireworks-storefront/internal/events"
	"github.com/jogardn/fireworks-storefront/internal/payment"
	"github.com/jogardn/fireworks-storefront/internal/receipts"
	"github.com/jogardn/fireworks-storefront/internal/session"
	"github.com/jogardn/fireworks-storefront/internal/storefront"
	"github.com/jogardn/fireworks-storefront/internal/websocket"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront gateway",
		Long: `Serve the shopper API and websocket feed. Sessions are kept in Redis
when redis.url is set, receipts in Postgres when postgres.dsn is set, and
order events are published to Kafka when kafka.brokers is set. Each falls
back to an in-process implementation otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *rootOptions) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newBackendClient(cfg, logger)

	var sessionStore session.Store = session.NewMemoryStore()
	if cfg.Redis.URL != "" {
		redisStore, err := session.NewRedisStore(cfg.Redis.URL, cfg.Redis.SessionTTL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisStore.Close()
		sessionStore = redisStore
		logger.Info("Using Redis session store")
	}

	var receiptStore receipts.Store = receipts.NewMemoryStore()
	if cfg.Postgres.DSN != "" {
		pg, err := receipts.OpenPostgres(ctx, cfg.Postgres.DSN, logger)
		if err != nil {
			return fmt.Errorf("failed to open receipts database: %w", err)
		}
		defer pg.Close()
		receiptStore = pg
		logger.Info("Using Postgres receipt store")
	}

	var publisher events.Publisher = events.NewNopPublisher(logger)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewKafkaProducer(cfg.Kafka.Brokers, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to create Kafka producer, order events disabled")
		} else {
			publisher = producer
			logger.WithField("brokers", cfg.Kafka.Brokers).Info("Publishing order events to Kafka")
		}
	}
	defer publisher.Close()

	hub := websocket.NewHub(cfg.Server.AllowedOrigins, logger)
	go hub.Run(ctx)

	sessions := session.NewManager(sessionStore, session.Dependencies{
		Products:     client,
		Orders:       client,
		Locations:    client,
		Tracking:     client,
		ProductLimit: cfg.Backend.ProductLimit,
	}, hub, logger)

	handler := storefront.NewHandler(storefront.Options{
		Backend:        client,
		Sessions:       sessions,
		Payment:        payment.NewResolver(client, cfg.MinimumOrderValue(), logger),
		Receipts:       receiptStore,
		Publisher:      publisher,
		Hub:            hub,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Backend.ProductTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":    cfg.Server.Port,
			"backend": client.BaseURL(),
		}).Info("Starting storefront gateway")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	cancel()

	logger.Info("Server gracefully stopped")
	return nil
}
