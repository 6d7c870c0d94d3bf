// Package cmd is the storefront command line: the gateway server, the
// receipt archiver and a few shopper-side helpers that talk to the backend
// directly.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/internal/circuitbreaker"
	"github.com/jogardn/fireworks-storefront/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the command tree. Each call returns fresh flag
// state.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Fireworks storefront gateway",
		Long: `Storefront sits between the shop's browser pages and the retailer's
backend API. It keeps each shopper's catalog filters, cart and checkout
progress, and serves them as a JSON API with a websocket feed.

The helper commands query the same backend from a terminal.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./storefront.yaml)")

	root.AddCommand(
		newServeCommand(opts),
		newRecordReceiptsCommand(opts),
		newCatalogCommand(opts),
		newTrackCommand(opts),
		newQuoteCommand(opts),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (o *rootOptions) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, newLogger(cfg.Log.Level), nil
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Unknown log level, using info")
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
	return logger
}

func newBackendClient(cfg *config.Config, logger *logrus.Logger) *backend.Client {
	breakers := circuitbreaker.NewManager(circuitbreaker.Config{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		MaxRequests: 1,
		IsFailure:   backend.IsOutage,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.WithFields(logrus.Fields{
				"group": name,
				"from":  from.String(),
				"to":    to.String(),
			}).Warn("Backend breaker changed state")
		},
	}, logger)

	return backend.NewClient(backend.Options{
		BaseURL:        cfg.Backend.URL,
		ProductTimeout: cfg.Backend.ProductTimeout,
		DefaultTimeout: cfg.Backend.DefaultTimeout,
		Breakers:       breakers,
	}, logger)
}
