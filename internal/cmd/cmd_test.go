package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/internal/mockbackend"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// startBackend writes a config file pointing at a fresh mock backend.
func startBackend(t *testing.T) (string, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(mockbackend.New(quietLogger()).Handler())
	t.Cleanup(server.Close)

	path := filepath.Join(t.TempDir(), "storefront.yaml")
	config := fmt.Sprintf("backend:\n  url: %q\nlog:\n  level: error\n", server.URL)
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))
	return path, server
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCatalogCommand(t *testing.T) {
	config, _ := startBackend(t)

	out, err := run(t, "--config", config, "catalog", "--category", "Rockets")
	require.NoError(t, err)
	assert.Contains(t, out, "Sky Rocket")
	assert.Contains(t, out, "Whistling Rocket")
	assert.NotContains(t, out, "Sparklers")
	assert.Contains(t, out, "2 products")

	_, err = run(t, "--config", config, "catalog", "--category", "Lanterns")
	assert.Error(t, err)
}

func TestQuoteCommand(t *testing.T) {
	config, _ := startBackend(t)

	out, err := run(t, "--config", config, "quote", "1=10", "2=10")
	require.NoError(t, err)
	assert.Contains(t, out, "Subtotal: 3700.00")
	assert.Contains(t, out, "Discount: 900.00")
	assert.Contains(t, out, "Net: 2800.00")
	assert.NotContains(t, out, "Below minimum")

	out, err = run(t, "--config", config, "quote", "1=1")
	require.NoError(t, err)
	assert.Contains(t, out, "Below minimum order of 2500.00, add 2400.00 more")
}

func TestQuoteCommandRejects(t *testing.T) {
	config, _ := startBackend(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "malformed line", args: []string{"1x10"}},
		{name: "bad quantity", args: []string{"1=many"}},
		{name: "out of stock", args: []string{"6=1"}},
		{name: "over the cap", args: []string{"4=11"}},
		{name: "unknown product", args: []string{"99=1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--config", config, "quote"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestTrackCommand(t *testing.T) {
	config, server := startBackend(t)

	client := backend.NewClient(backend.Options{BaseURL: server.URL}, quietLogger())
	result, err := client.CreateOrder(context.Background(), models.CreateOrderRequest{
		CustomerName:   "Ravi",
		CustomerMobile: "9876543210",
		PaymentMethod:  "cash",
		Items: []models.OrderItem{
			{ProductID: 4, ProductName: "7cm Sparklers", Quantity: 2, Rate: "60.00", OriginalPrice: "80.00", Discount: "20.00", Total: 120},
		},
	})
	require.NoError(t, err)

	out, err := run(t, "--config", config, "track", "--order", result.OrderNumber)
	require.NoError(t, err)
	assert.Contains(t, out, "Order "+result.OrderNumber)
	assert.Contains(t, out, "7cm Sparklers")
	assert.Contains(t, out, "Net: 120.00")

	out, err = run(t, "--config", config, "track", "--mobile", "9876543210")
	require.NoError(t, err)
	assert.Contains(t, out, "1 orders")

	_, err = run(t, "--config", config, "track", "--order", "KC404")
	assert.EqualError(t, err, "Order KC404 not found")

	_, err = run(t, "--config", config, "track")
	assert.EqualError(t, err, "Please enter either Order Number or Mobile Number")

	_, err = run(t, "--config", config, "track", "--order", "KC1", "--mobile", "9876543210")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, newLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, newLogger("loud").GetLevel())
}
