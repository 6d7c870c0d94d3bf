// Package storefront is the shopper-facing HTTP API. Every page of the shop
// reads and mutates the same per-session state through it.
package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/internal/events"
	"github.com/jogardn/fireworks-storefront/internal/payment"
	"github.com/jogardn/fireworks-storefront/internal/receipts"
	"github.com/jogardn/fireworks-storefront/internal/session"
	"github.com/jogardn/fireworks-storefront/internal/websocket"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Options struct {
	Backend        *backend.Client
	Sessions       *session.Manager
	Payment        *payment.Resolver
	Receipts       receipts.Store
	Publisher      events.Publisher
	Hub            *websocket.Hub
	AllowedOrigins []string
}

type Handler struct {
	backend        *backend.Client
	sessions       *session.Manager
	payment        *payment.Resolver
	receipts       receipts.Store
	publisher      events.Publisher
	hub            *websocket.Hub
	allowedOrigins []string
	logger         *logrus.Logger
}

func NewHandler(opts Options, logger *logrus.Logger) *Handler {
	if opts.Publisher == nil {
		opts.Publisher = events.NewNopPublisher(logger)
	}
	if opts.Receipts == nil {
		opts.Receipts = receipts.NewMemoryStore()
	}
	return &Handler{
		backend:        opts.Backend,
		sessions:       opts.Sessions,
		payment:        opts.Payment,
		receipts:       opts.Receipts,
		publisher:      opts.Publisher,
		hub:            opts.Hub,
		allowedOrigins: opts.AllowedOrigins,
		logger:         logger,
	}
}

// Routes builds the instrumented router.
func (h *Handler) Routes() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", h.HealthCheck).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/health/all", h.AllServicesHealthCheck).Methods("GET", "OPTIONS")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/catalog", h.GetCatalog).Methods("GET", "OPTIONS")
	api.HandleFunc("/catalog/filters/{category}", h.ToggleFilter).Methods("POST", "OPTIONS")
	api.HandleFunc("/catalog/filters", h.ClearFilters).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/catalog/refresh", h.RefreshCatalog).Methods("POST", "OPTIONS")

	api.HandleFunc("/cart", h.GetCart).Methods("GET", "OPTIONS")
	api.HandleFunc("/cart/summary", h.CartSummary).Methods("GET", "OPTIONS")
	api.HandleFunc("/cart/items", h.AddItem).Methods("POST", "OPTIONS")
	api.HandleFunc("/cart/items/{id}", h.GetItem).Methods("GET", "OPTIONS")
	api.HandleFunc("/cart/items/{id}", h.SetItem).Methods("PUT", "OPTIONS")

	api.HandleFunc("/checkout", h.GetCheckout).Methods("GET", "OPTIONS")
	api.HandleFunc("/checkout/open", h.OpenCheckout).Methods("POST", "OPTIONS")
	api.HandleFunc("/checkout/cancel", h.CancelCheckout).Methods("POST", "OPTIONS")
	api.HandleFunc("/checkout/submit", h.SubmitOrder).Methods("POST", "OPTIONS")
	api.HandleFunc("/checkout/close", h.CloseCheckout).Methods("POST", "OPTIONS")

	api.HandleFunc("/payment-details", h.PaymentDetails).Methods("GET", "OPTIONS")
	api.HandleFunc("/states", h.States).Methods("GET", "OPTIONS")
	api.HandleFunc("/cities", h.Cities).Methods("GET", "OPTIONS")
	api.HandleFunc("/contact", h.Contact).Methods("POST", "OPTIONS")

	api.HandleFunc("/track/order/{orderNumber}", h.TrackOrder).Methods("GET", "OPTIONS")
	api.HandleFunc("/track/mobile/{mobile}", h.TrackMobile).Methods("GET", "OPTIONS")
	api.HandleFunc("/orders/{orderNumber}/print", h.PrintOrder).Methods("GET", "OPTIONS")

	if h.hub != nil {
		router.HandleFunc("/ws", h.WebSocket)
	}

	router.Use(loggingMiddleware(h.logger))
	router.Use(corsMiddleware(h.allowedOrigins))
	router.Use(sessionMiddleware)

	return otelhttp.NewHandler(router, "storefront")
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(r.Context(), sessionID(r))
	if err != nil {
		h.logger.WithError(err).Error("Failed to load session")
		respondWithError(w, http.StatusServiceUnavailable, "Session store unavailable")
		return nil, false
	}
	return s, true
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "storefront",
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (h *Handler) AllServicesHealthCheck(w http.ResponseWriter, r *http.Request) {
	healthStatus := map[string]interface{}{
		"storefront": map[string]interface{}{
			"status":        "healthy",
			"service":       "storefront",
			"sessions":      h.sessions.Count(),
			"response_time": 0,
			"last_check":    time.Now().Format(time.RFC3339),
		},
	}

	healthStatus["backend"] = checkHealth(r.Context(), "backend", h.backend)
	if p, ok := h.receipts.(pinger); ok {
		healthStatus["receipts"] = checkHealth(r.Context(), "receipts", p)
	}
	healthStatus["circuit_breakers"] = h.backend.Breakers().AllMetrics()

	respondWithJSON(w, http.StatusOK, healthStatus)
}

func checkHealth(ctx context.Context, service string, p pinger) map[string]interface{} {
	start := time.Now()
	err := p.Ping(ctx)
	status := map[string]interface{}{
		"status":        "healthy",
		"service":       service,
		"response_time": time.Since(start).Milliseconds(),
		"last_check":    time.Now().Format(time.RFC3339),
	}
	if err != nil {
		status["status"] = "unhealthy"
		status["error"] = err.Error()
	}
	return status
}

func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	h.hub.Serve(w, r, sessionID(r))
}
