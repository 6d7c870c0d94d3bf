package storefront

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/internal/receipts"
	"github.com/jogardn/fireworks-storefront/internal/tracking"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/sirupsen/logrus"
)

func (h *Handler) PaymentDetails(w http.ResponseWriter, r *http.Request) {
	respondWithData(w, http.StatusOK, h.payment.Details(r.Context()))
}

func (h *Handler) States(w http.ResponseWriter, r *http.Request) {
	states, err := h.backend.States(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Failed to load states")
		respondWithError(w, http.StatusBadGateway, backend.Message(err, "Failed to load states"))
		return
	}
	respondWithData(w, http.StatusOK, states)
}

func (h *Handler) Cities(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	if state == "" {
		respondWithError(w, http.StatusBadRequest, "state is required")
		return
	}
	cities, err := h.backend.Cities(r.Context(), state)
	if err != nil {
		h.logger.WithError(err).WithField("state", state).Warn("Failed to load cities")
		respondWithError(w, http.StatusBadGateway, backend.Message(err, "Failed to load cities"))
		return
	}
	respondWithData(w, http.StatusOK, cities)
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Mobile = strings.TrimSpace(req.Mobile)
	req.Message = strings.TrimSpace(req.Message)
	if req.Name == "" || req.Mobile == "" || req.Message == "" {
		respondWithError(w, http.StatusBadRequest, "Name, mobile and message are required")
		return
	}
	if req.PreferredContact == "" {
		req.PreferredContact = "email"
	}

	if err := h.backend.SubmitContact(r.Context(), req); err != nil {
		h.logger.WithError(err).Warn("Failed to submit contact message")
		var be *backend.BusinessError
		if errors.As(err, &be) && be.Message != "" {
			respondWithError(w, http.StatusBadGateway, "Failed to send message: "+be.Message)
			return
		}
		respondWithError(w, http.StatusBadGateway, "Failed to send message. Please try again.")
		return
	}
	respondWithJSON(w, http.StatusOK, models.Response{Success: true, Message: "Message sent successfully"})
}

func (h *Handler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	h.track(w, r, tracking.Query{Mode: tracking.ModeOrder, Value: mux.Vars(r)["orderNumber"]})
}

func (h *Handler) TrackMobile(w http.ResponseWriter, r *http.Request) {
	h.track(w, r, tracking.Query{Mode: tracking.ModeMobile, Value: mux.Vars(r)["mobile"]})
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request, q tracking.Query) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	result, err := s.Tracker.Lookup(r.Context(), q)
	if err == nil {
		respondWithData(w, http.StatusOK, result)
		return
	}

	var lookupErr *tracking.LookupError
	var be *backend.BusinessError
	switch {
	case errors.Is(err, tracking.ErrInFlight):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.As(err, &lookupErr) && lookupErr.Err == nil:
		respondWithError(w, http.StatusBadRequest, lookupErr.Message)
	case errors.As(err, &be) && be.NotFound():
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &be):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondWithError(w, http.StatusBadGateway, err.Error())
	}
}

// PrintOrder renders the printable receipt. Receipts are only shown to the
// session that placed the order.
func (h *Handler) PrintOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderNumber"]
	receipt, err := h.receipts.Get(r.Context(), orderID, sessionID(r))
	if errors.Is(err, receipts.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Order "+orderID+" not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("order_id", orderID).Error("Failed to load receipt")
		respondWithError(w, http.StatusServiceUnavailable, "Failed to load receipt")
		return
	}

	var page bytes.Buffer
	if err := receipts.Render(&page, receipt); err != nil {
		h.logger.WithFields(logrus.Fields{
			"order_id": orderID,
			"error":    err.Error(),
		}).Error("Failed to render receipt")
		respondWithError(w, http.StatusInternalServerError, "Failed to render receipt")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page.Bytes())
}
