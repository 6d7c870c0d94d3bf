package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jogardn/fireworks-storefront/internal/mockbackend"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	server := mockbackend.New(logger)
	// Some backend deployments answer without the {success,data} wrapper.
	if flat, _ := strconv.ParseBool(getEnv("MOCK_FLAT_RESPONSES", "false")); flat {
		server.SetFlat(true)
	}
	if delay, err := time.ParseDuration(getEnv("MOCK_PRODUCT_DELAY", "0s")); err == nil && delay > 0 {
		server.SetProductDelay(func(string) time.Duration { return delay })
	}

	port := getEnv("MOCK_PORT", "3000")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: server.Handler(),
	}

	go func() {
		logger.WithField("port", port).Info("Starting backend mock server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down backend mock server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server forced to shutdown")
	}

	logger.Info("Backend mock server gracefully stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
