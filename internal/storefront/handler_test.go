package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/internal/mockbackend"
	"github.com/jogardn/fireworks-storefront/internal/payment"
	"github.com/jogardn/fireworks-storefront/internal/receipts"
	"github.com/jogardn/fireworks-storefront/internal/session"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type testEnv struct {
	server   *httptest.Server
	mock     *mockbackend.Server
	receipts *receipts.MemoryStore
	session  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := quietLogger()

	mock := mockbackend.New(logger)
	upstream := httptest.NewServer(mock.Handler())
	t.Cleanup(upstream.Close)

	client := backend.NewClient(backend.Options{BaseURL: upstream.URL}, logger)
	sessions := session.NewManager(session.NewMemoryStore(), session.Dependencies{
		Products:  client,
		Orders:    client,
		Locations: client,
		Tracking:  client,
	}, nil, logger)
	store := receipts.NewMemoryStore()

	handler := NewHandler(Options{
		Backend:  client,
		Sessions: sessions,
		Payment:  payment.NewResolver(client, decimal.Zero, logger),
		Receipts: store,
	}, logger)
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)

	return &testEnv{server: server, mock: mock, receipts: store}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// do sends a request on the env's session, adopting the id issued by the
// first response.
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	resp := e.raw(t, method, path, body)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (e *testEnv) raw(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if e.session != "" {
		req.Header.Set(SessionHeader, e.session)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	if e.session == "" {
		e.session = resp.Header.Get(SessionHeader)
	}
	return resp
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func validCustomer() map[string]string {
	return map[string]string{
		"name":     "Ravi",
		"address1": "12 Temple Street",
		"address2": "Near Bus Stand",
		"mobile":   "9876543210",
		"city":     "Sivakasi",
		"state":    "Tamil Nadu",
		"pincode":  "626123",
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	resp := env.raw(t, http.MethodGet, "/health", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(SessionHeader))
}

func TestAllServicesHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	resp := env.raw(t, http.MethodGet, "/api/health/all", nil)
	defer resp.Body.Close()

	var status map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", status["backend"].(map[string]interface{})["status"])
	assert.Contains(t, status, "circuit_breakers")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	resp := env.raw(t, http.MethodOptions, "/api/cart", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), SessionHeader)
}

func TestCatalogFilters(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, code)
	var view struct {
		Selected []string          `json:"selectedCategories"`
		Products []json.RawMessage `json:"products"`
	}
	decodeData(t, body, &view)
	assert.Empty(t, view.Selected)
	assert.Len(t, view.Products, 7)

	code, body = env.do(t, http.MethodPost, "/api/catalog/filters/Rockets", nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, body, &view)
	assert.Equal(t, []string{"Rockets"}, view.Selected)
	assert.Len(t, view.Products, 2)

	code, body = env.do(t, http.MethodDelete, "/api/catalog/filters", nil)
	require.Equal(t, http.StatusOK, code)
	view.Selected = nil
	decodeData(t, body, &view)
	assert.Empty(t, view.Selected)
	assert.Len(t, view.Products, 7)

	code, _ = env.do(t, http.MethodPost, "/api/catalog/filters/Lanterns", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCartRequiresLoadedProduct(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1})
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, body.Success)
}

func TestCartQuantityBounds(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/catalog", nil)

	code, _ := env.do(t, http.MethodPut, "/api/cart/items/5", map[string]int{"quantity": 4})
	assert.Equal(t, http.StatusUnprocessableEntity, code, "only 3 in stock")

	code, _ = env.do(t, http.MethodPut, "/api/cart/items/4", map[string]int{"quantity": 11})
	assert.Equal(t, http.StatusUnprocessableEntity, code, "per item cap")

	code, body := env.do(t, http.MethodPut, "/api/cart/items/4", map[string]int{"quantity": 2})
	require.Equal(t, http.StatusOK, code)
	var cart cartView
	decodeData(t, body, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "120", cart.Totals.Net.String())

	code, body = env.do(t, http.MethodGet, "/api/cart/items/4", nil)
	require.Equal(t, http.StatusOK, code)
	var item map[string]int
	decodeData(t, body, &item)
	assert.Equal(t, 2, item["quantity"])

	code, body = env.do(t, http.MethodPut, "/api/cart/items/4", map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, code)
	decodeData(t, body, &cart)
	assert.Empty(t, cart.Items)
}

func TestAddItemBounds(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/catalog", nil)

	code, _ := env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 5, "quantity": 50})
	assert.Equal(t, http.StatusUnprocessableEntity, code, "only 3 in stock")

	code, _ = env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 6, "quantity": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, code, "sold out")

	for i := 0; i < 10; i++ {
		code, _ = env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 4})
		require.Equal(t, http.StatusOK, code)
	}
	code, _ = env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 4})
	assert.Equal(t, http.StatusUnprocessableEntity, code, "per item cap")

	code, body := env.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, code)
	var cart cartView
	decodeData(t, body, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(4), cart.Items[0].Product.ID)
	assert.Equal(t, 10, cart.Items[0].Quantity)
}

func TestCartItemRejectsInvalidID(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/cart/items/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid product ID", body.Message)

	code, _ = env.do(t, http.MethodPut, "/api/cart/items/99999999999999999999", map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/catalog", nil)
	env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 2})

	other := &testEnv{server: env.server}
	code, body := other.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, code)
	var cart cartView
	decodeData(t, body, &cart)
	assert.Empty(t, cart.Items)
	assert.NotEqual(t, env.session, other.session)
}

func TestCheckoutBelowMinimum(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/catalog", nil)
	env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 1})

	code, body := env.do(t, http.MethodGet, "/api/cart/summary", nil)
	require.Equal(t, http.StatusOK, code)
	var summary summaryView
	decodeData(t, body, &summary)
	assert.True(t, summary.BelowMinimum)
	assert.False(t, summary.CanOrder)
	assert.Equal(t, "2400.00", summary.Shortfall)
	assert.Equal(t, "2500.00", summary.MinimumOrder)

	code, body = env.do(t, http.MethodPost, "/api/checkout/open", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, body.Message, "2400.00")
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodPost, "/api/checkout/open", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Your cart is empty", body.Message)
}

func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/catalog", nil)
	env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 10})
	env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 2, "quantity": 10})

	code, body := env.do(t, http.MethodGet, "/api/cart/summary", nil)
	require.Equal(t, http.StatusOK, code)
	var summary summaryView
	decodeData(t, body, &summary)
	assert.Equal(t, "3700.00", summary.Subtotal)
	assert.Equal(t, "900.00", summary.Discount)
	assert.Equal(t, "2800.00", summary.Net)
	assert.True(t, summary.CanOrder)

	code, _ = env.do(t, http.MethodPost, "/api/checkout/submit", validCustomer())
	assert.Equal(t, http.StatusConflict, code, "form is not open")

	code, body = env.do(t, http.MethodPost, "/api/checkout/open", nil)
	require.Equal(t, http.StatusOK, code)
	var snap struct {
		State string `json:"state"`
	}
	decodeData(t, body, &snap)
	assert.Equal(t, "order_form_open", snap.State)

	code, body = env.do(t, http.MethodPost, "/api/checkout/submit", map[string]string{"name": "Ravi"})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	var invalid struct {
		Errors map[string]string `json:"errors"`
	}
	decodeData(t, body, &invalid)
	assert.Contains(t, invalid.Errors, "mobile")
	assert.Contains(t, invalid.Errors, "pincode")
	assert.NotContains(t, invalid.Errors, "name")

	code, body = env.do(t, http.MethodPost, "/api/checkout/submit", validCustomer())
	require.Equal(t, http.StatusCreated, code, body.Message)
	var placed struct {
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
		Payment struct {
			UPIID string `json:"upiId"`
		} `json:"payment"`
	}
	decodeData(t, body, &placed)
	assert.Equal(t, "KC1001", placed.Order.ID)
	assert.Equal(t, "kargil@upi", placed.Payment.UPIID)

	code, _ = env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 3})
	assert.Equal(t, http.StatusConflict, code, "cart is locked while payment is shown")

	req, ok := env.mock.OrderRequest("KC1001")
	require.True(t, ok)
	assert.Equal(t, "12 Temple Street, Near Bus Stand", req.CustomerAddress)
	assert.Equal(t, "cash", req.PaymentMethod)

	receipt, err := env.receipts.Get(context.Background(), "KC1001", env.session)
	require.NoError(t, err)
	assert.Equal(t, env.session, receipt.SessionID)

	resp := env.raw(t, http.MethodGet, "/api/orders/KC1001/print", nil)
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	assert.Contains(t, string(page), "KC1001")
	assert.Contains(t, string(page), "SIVAKASI KARGIL CRACKERS")

	code, _ = env.do(t, http.MethodGet, "/api/track/order/KC1001", nil)
	require.Equal(t, http.StatusOK, code)

	code, body = env.do(t, http.MethodPost, "/api/checkout/close", nil)
	require.Equal(t, http.StatusOK, code)
	decodeData(t, body, &snap)
	assert.Equal(t, "closed", snap.State)

	code, body = env.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, code)
	var cart cartView
	decodeData(t, body, &cart)
	assert.Empty(t, cart.Items)
}

func TestCheckoutBackendRejection(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/catalog", nil)
	env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 2, "quantity": 10})
	env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 10})
	env.do(t, http.MethodPost, "/api/checkout/open", nil)

	// Stock sells out between browsing and submitting.
	products := mockbackend.SeedProducts()
	products[0].CurrentStock = 1
	env.mock.SetProducts(products)

	code, body := env.do(t, http.MethodPost, "/api/checkout/submit", validCustomer())
	require.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "Insufficient stock for Sky Rocket", body.Message)

	code, body = env.do(t, http.MethodGet, "/api/checkout", nil)
	require.Equal(t, http.StatusOK, code)
	var snap struct {
		State string `json:"state"`
		Error string `json:"error"`
	}
	decodeData(t, body, &snap)
	assert.Equal(t, "order_form_open", snap.State)
	assert.Equal(t, "Insufficient stock for Sky Rocket", snap.Error)
}

func TestCheckoutRejectsUnknownLocation(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/api/catalog", nil)
	env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 1, "quantity": 10})
	env.do(t, http.MethodPost, "/api/cart/items", map[string]int{"productId": 2, "quantity": 10})
	code, _ := env.do(t, http.MethodPost, "/api/checkout/open", nil)
	require.Equal(t, http.StatusOK, code)

	var invalid struct {
		Errors map[string]string `json:"errors"`
	}

	customer := validCustomer()
	customer["state"] = "Atlantis"
	customer["city"] = "Nowhere"
	code, body := env.do(t, http.MethodPost, "/api/checkout/submit", customer)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	decodeData(t, body, &invalid)
	assert.Equal(t, "State is required", invalid.Errors["state"])
	assert.Equal(t, "City is required", invalid.Errors["city"])

	customer = validCustomer()
	customer["city"] = "Kochi"
	code, body = env.do(t, http.MethodPost, "/api/checkout/submit", customer)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	invalid.Errors = nil
	decodeData(t, body, &invalid)
	assert.Equal(t, map[string]string{"city": "City is required"}, invalid.Errors)

	_, ok := env.mock.OrderRequest("KC1001")
	assert.False(t, ok)

	code, body = env.do(t, http.MethodPost, "/api/checkout/submit", validCustomer())
	require.Equal(t, http.StatusCreated, code, body.Message)
}

func TestPrintOrderOtherSession(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.receipts.Save(context.Background(), &receipts.Receipt{
		Order:     models.Order{ID: "KC9"},
		SessionID: "someone-else",
	}))

	code, _ := env.do(t, http.MethodGet, "/api/orders/KC9/print", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTracking(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/track/order/KC404", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Order KC404 not found", body.Message)

	code, body = env.do(t, http.MethodGet, "/api/track/mobile/9000000000", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No orders found for this mobile number", body.Message)

	code, body = env.do(t, http.MethodGet, "/api/track/order/%20", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Please enter either Order Number or Mobile Number", body.Message)
}

func TestLocationsAndPayment(t *testing.T) {
	env := newTestEnv(t)

	code, body := env.do(t, http.MethodGet, "/api/states", nil)
	require.Equal(t, http.StatusOK, code)
	var states []map[string]interface{}
	decodeData(t, body, &states)
	assert.Len(t, states, 2)

	code, _ = env.do(t, http.MethodGet, "/api/cities", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = env.do(t, http.MethodGet, "/api/cities?state=Kerala", nil)
	require.Equal(t, http.StatusOK, code)
	var cities []map[string]interface{}
	decodeData(t, body, &cities)
	require.Len(t, cities, 1)
	assert.Equal(t, "Kochi", cities[0]["city"])

	code, body = env.do(t, http.MethodGet, "/api/payment-details", nil)
	require.Equal(t, http.StatusOK, code)
	var details map[string]string
	decodeData(t, body, &details)
	assert.Equal(t, "2500.00", details["minimumOrderValue"])
}

func TestPaymentDetailsFallback(t *testing.T) {
	env := newTestEnv(t)
	env.mock.SetPaymentDetails(nil)

	code, body := env.do(t, http.MethodGet, "/api/payment-details", nil)
	require.Equal(t, http.StatusOK, code)
	var details map[string]string
	decodeData(t, body, &details)
	assert.Equal(t, "5685101002509", details["accountNumber"])
}

func TestContact(t *testing.T) {
	env := newTestEnv(t)

	code, _ := env.do(t, http.MethodPost, "/api/contact", map[string]string{"name": "Ravi"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := env.do(t, http.MethodPost, "/api/contact", map[string]string{
		"name":    "Ravi",
		"mobile":  "9876543210",
		"message": "Do you deliver to Madurai?",
	})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, body.Success)

	contacts := env.mock.Contacts()
	require.Len(t, contacts, 1)
	assert.Equal(t, "email", contacts[0].PreferredContact)
}
