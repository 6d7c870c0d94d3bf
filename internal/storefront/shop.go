package storefront

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jogardn/fireworks-storefront/internal/cart"
	"github.com/jogardn/fireworks-storefront/internal/catalog"
	"github.com/jogardn/fireworks-storefront/internal/pricing"
	"github.com/jogardn/fireworks-storefront/internal/session"
	"github.com/jogardn/fireworks-storefront/pkg/models"
)

type cartView struct {
	Items  []models.CartItem `json:"items"`
	Totals pricing.Totals    `json:"totals"`
}

type summaryView struct {
	TotalProducts int    `json:"totalProducts"`
	TotalQuantity int    `json:"totalQuantity"`
	Subtotal      string `json:"subtotal"`
	Discount      string `json:"discount"`
	Net           string `json:"net"`
	MinimumOrder  string `json:"minimumOrder"`
	BelowMinimum  bool   `json:"belowMinimum"`
	Shortfall     string `json:"shortfall"`
	CanOrder      bool   `json:"canOrder"`
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type setItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := s.Catalog.EnsureLoaded(r.Context())
	h.respondCatalog(w, r, s, view, err)
}

func (h *Handler) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	category, err := models.ParseCategory(mux.Vars(r)["category"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := s.Catalog.Toggle(r.Context(), category)
	h.respondCatalog(w, r, s, view, err)
}

func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := s.Catalog.ClearFilters(r.Context())
	h.respondCatalog(w, r, s, view, err)
}

func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := s.Catalog.Refetch(r.Context())
	h.respondCatalog(w, r, s, view, err)
}

// respondCatalog answers a superseded fetch with the view as it stands;
// the newer request owns the final result.
func (h *Handler) respondCatalog(w http.ResponseWriter, r *http.Request, s *session.Session, view catalog.View, err error) {
	switch {
	case errors.Is(err, catalog.ErrSuperseded):
		respondWithData(w, http.StatusOK, view)
	case err != nil:
		h.sessions.Commit(r.Context(), s, session.EventCatalogUpdated, view)
		respondWithErrorData(w, http.StatusBadGateway, view.Error, view)
	default:
		h.sessions.Commit(r.Context(), s, session.EventCatalogUpdated, view)
		respondWithData(w, http.StatusOK, view)
	}
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := newCartView(s.Items())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute cart totals")
		respondWithError(w, http.StatusInternalServerError, "Failed to compute cart totals")
		return
	}
	respondWithData(w, http.StatusOK, view)
}

func newCartView(items []models.CartItem) (cartView, error) {
	totals, err := pricing.Compute(items)
	if err != nil {
		return cartView{}, err
	}
	return cartView{Items: items, Totals: totals}, nil
}

func (h *Handler) CartSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	totals, err := pricing.Compute(s.Items())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute cart totals")
		respondWithError(w, http.StatusInternalServerError, "Failed to compute cart totals")
		return
	}

	minimum := h.payment.MinimumOrder(r.Context())
	threshold := pricing.Assess(totals.Net, minimum)
	respondWithData(w, http.StatusOK, summaryView{
		TotalProducts: totals.TotalProducts,
		TotalQuantity: totals.TotalQuantity,
		Subtotal:      pricing.Format(totals.Subtotal),
		Discount:      pricing.Format(totals.Discount),
		Net:           pricing.Format(totals.Net),
		MinimumOrder:  pricing.Format(minimum),
		BelowMinimum:  threshold.BelowMinimum,
		Shortfall:     pricing.Format(threshold.Shortfall),
		CanOrder:      totals.TotalProducts > 0 && threshold.CanOrder(totals.Net),
	})
}

// AddItem is the product card button. The product must be on display and
// the summed quantity stays within stock and the per item cap.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, found := s.Catalog.Lookup(req.ProductID); !found {
		respondWithError(w, http.StatusNotFound, "Product not found in catalog")
		return
	}
	if err := s.AddItem(req.ProductID, req.Quantity); err != nil {
		respondCartError(w, err)
		return
	}
	h.respondCart(w, r, s)
}

// SetItem is the quantity selector, bounded by stock and the per item cap.
func (h *Handler) SetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req setItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.AdjustItem(id, req.Quantity); err != nil {
		respondCartError(w, err)
		return
	}
	h.respondCart(w, r, s)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respondWithData(w, http.StatusOK, map[string]interface{}{
		"productId": id,
		"quantity":  s.Quantity(id),
	})
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return id, true
}

func respondCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrUnknownProduct):
		respondWithError(w, http.StatusNotFound, "Product not found in catalog")
	case errors.Is(err, session.ErrCartLocked):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	}
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, s *session.Session) {
	view, err := newCartView(s.Items())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute cart totals")
		respondWithError(w, http.StatusInternalServerError, "Failed to compute cart totals")
		return
	}
	h.sessions.Commit(r.Context(), s, session.EventCartUpdated, view)
	respondWithData(w, http.StatusOK, view)
}
