package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jogardn/fireworks-storefront/internal/events"
	"github.com/jogardn/fireworks-storefront/internal/receipts"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRecordReceiptsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "record-receipts",
		Short: "Archive order-placed events into Postgres",
		Long: `Consume order-placed events from Kafka and store each receipt in
Postgres, so print views survive gateway restarts even when the gateway
itself keeps receipts in memory. Replayed events are ignored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordReceipts(opts)
		},
	}
}

func runRecordReceipts(opts *rootOptions) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := receipts.OpenPostgres(ctx, cfg.Postgres.DSN, logger)
	if err != nil {
		return fmt.Errorf("failed to open receipts database: %w", err)
	}
	defer store.Close()

	consumer, err := events.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, events.NewReceiptRecorder(store, logger), logger)
	if err != nil {
		return fmt.Errorf("failed to create Kafka consumer: %w", err)
	}
	defer consumer.Close()

	consumerErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"brokers":  cfg.Kafka.Brokers,
			"group_id": cfg.Kafka.GroupID,
		}).Info("Starting receipt recorder")
		consumerErr <- consumer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("Shutting down receipt recorder...")
		cancel()
		<-consumerErr
		return nil
	case err := <-consumerErr:
		return err
	}
}
