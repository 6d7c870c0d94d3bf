package storefront

import (
	"errors"
	"net/http"
	"time"

	"github.com/jogardn/fireworks-storefront/internal/checkout"
	"github.com/jogardn/fireworks-storefront/internal/events"
	"github.com/jogardn/fireworks-storefront/internal/pricing"
	"github.com/jogardn/fireworks-storefront/internal/receipts"
	"github.com/jogardn/fireworks-storefront/internal/session"
	"github.com/jogardn/fireworks-storefront/pkg/models"
)

type placedView struct {
	Order   *models.Order         `json:"order"`
	Payment models.PaymentDetails `json:"payment"`
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondWithData(w, http.StatusOK, s.Checkout.Snapshot())
}

func (h *Handler) OpenCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	items := s.Items()
	totals, err := pricing.Compute(items)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute cart totals")
		respondWithError(w, http.StatusInternalServerError, "Failed to compute cart totals")
		return
	}

	minimum := h.payment.MinimumOrder(r.Context())
	if err := s.Checkout.Open(len(items), totals.Net, minimum); err != nil {
		h.respondCheckoutError(w, s, err)
		return
	}
	h.respondCheckout(w, r, s, session.EventCheckoutUpdated)
}

func (h *Handler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Checkout.Cancel(); err != nil {
		h.respondCheckoutError(w, s, err)
		return
	}
	h.respondCheckout(w, r, s, session.EventCheckoutUpdated)
}

// SubmitOrder validates the customer form and places the order. Placed
// orders are recorded as receipts and announced on the order feed; neither
// can fail the order.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var details models.CustomerDetails
	if err := decodeBody(w, r, &details); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	order, err := s.Checkout.Submit(r.Context(), details, s.Items())
	if err != nil {
		h.sessions.Commit(r.Context(), s, session.EventCheckoutUpdated, s.Checkout.Snapshot())
		h.respondCheckoutError(w, s, err)
		return
	}

	paymentDetails := h.payment.Details(r.Context())
	receipt := &receipts.Receipt{
		Order:     *order,
		SessionID: s.ID,
		Payment:   paymentDetails,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.receipts.Save(r.Context(), receipt); err != nil {
		h.logger.WithError(err).WithField("order_id", order.ID).Error("Failed to record receipt")
	}
	if err := h.publisher.PublishOrderPlaced(events.NewOrderPlacedEvent(receipt)); err != nil {
		h.logger.WithError(err).WithField("order_id", order.ID).Error("Failed to publish order placed event")
	}

	view := placedView{Order: order, Payment: paymentDetails}
	h.sessions.Commit(r.Context(), s, session.EventOrderPlaced, view)
	respondWithData(w, http.StatusCreated, view)
}

// CloseCheckout leaves the payment view and empties the cart.
func (h *Handler) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := s.Checkout.Close(); err != nil {
		h.respondCheckoutError(w, s, err)
		return
	}
	s.ClearCart()
	h.sessions.Commit(r.Context(), s, session.EventCartUpdated, cartView{Items: []models.CartItem{}})
	h.respondCheckout(w, r, s, session.EventCheckoutUpdated)
}

func (h *Handler) respondCheckout(w http.ResponseWriter, r *http.Request, s *session.Session, event string) {
	snap := s.Checkout.Snapshot()
	h.sessions.Commit(r.Context(), s, event, snap)
	respondWithData(w, http.StatusOK, snap)
}

func (h *Handler) respondCheckoutError(w http.ResponseWriter, s *session.Session, err error) {
	var fieldErrs checkout.FieldErrors
	snap := s.Checkout.Snapshot()

	switch {
	case errors.As(err, &fieldErrs):
		respondWithErrorData(w, http.StatusUnprocessableEntity, "Please correct the highlighted fields", map[string]interface{}{
			"errors":   fieldErrs,
			"checkout": snap,
		})
	case errors.Is(err, checkout.ErrEmptyCart):
		respondWithErrorData(w, http.StatusUnprocessableEntity, "Your cart is empty", snap)
	case errors.Is(err, checkout.ErrBelowMinimum):
		respondWithErrorData(w, http.StatusUnprocessableEntity, err.Error(), snap)
	case errors.Is(err, checkout.ErrOrderInFlight), errors.Is(err, checkout.ErrInvalidTransition):
		respondWithErrorData(w, http.StatusConflict, err.Error(), snap)
	case snap.Error != "":
		respondWithErrorData(w, http.StatusBadGateway, snap.Error, snap)
	default:
		h.logger.WithError(err).WithField("session_id", s.ID).Error("Checkout failed")
		respondWithErrorData(w, http.StatusInternalServerError, "Failed to create order", snap)
	}
}
