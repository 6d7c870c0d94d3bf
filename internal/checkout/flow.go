// Package checkout drives a shopper from the cart through the order form to
// the payment instructions.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/internal/pricing"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type State string

const (
	StateBrowsing       State = "browsing"
	StateOrderFormOpen  State = "order_form_open"
	StateSubmitting     State = "submitting"
	StatePaymentDisplay State = "payment_display"
	StateClosed         State = "closed"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrBelowMinimum      = errors.New("order is below the minimum order value")
	ErrInvalidTransition = errors.New("invalid checkout transition")
	ErrOrderInFlight     = errors.New("an order is already being placed")
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.CreateOrderResult, error)
}

// Snapshot is the persisted form of a Flow.
type Snapshot struct {
	State     State                  `json:"state"`
	Order     *models.Order          `json:"order,omitempty"`
	Customer  models.CustomerDetails `json:"customer"`
	Error     string                 `json:"error,omitempty"`
	Shortfall string                 `json:"shortfall,omitempty"`
}

type Flow struct {
	creator   OrderCreator
	locations Locations
	now       func() time.Time

	mutex     sync.Mutex
	state     State
	order     *models.Order
	customer  models.CustomerDetails
	lastErr   string
	shortfall decimal.Decimal

	logger *logrus.Logger
}

func NewFlow(creator OrderCreator, logger *logrus.Logger) *Flow {
	return &Flow{
		creator: creator,
		now:     time.Now,
		state:   StateBrowsing,
		logger:  logger,
	}
}

// WithClock replaces the clock used for order dates and fallback ids.
func (f *Flow) WithClock(now func() time.Time) *Flow {
	f.now = now
	return f
}

// WithLocations constrains state and city to the backend's lookup values.
func (f *Flow) WithLocations(locations Locations) *Flow {
	f.locations = locations
	return f
}

// Open shows the order form when the cart has items and meets the minimum.
func (f *Flow) Open(itemCount int, net, minimum decimal.Decimal) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	switch f.state {
	case StateBrowsing, StateClosed:
	case StateOrderFormOpen:
		return nil
	default:
		return fmt.Errorf("%w: open from %s", ErrInvalidTransition, f.state)
	}

	if itemCount == 0 {
		return ErrEmptyCart
	}
	threshold := pricing.Assess(net, minimum)
	if threshold.BelowMinimum {
		f.shortfall = threshold.Shortfall
		return fmt.Errorf("%w: add %s more", ErrBelowMinimum, pricing.Format(threshold.Shortfall))
	}

	f.shortfall = decimal.Zero
	f.lastErr = ""
	f.order = nil
	f.state = StateOrderFormOpen
	return nil
}

// Cancel dismisses the order form.
func (f *Flow) Cancel() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.state != StateOrderFormOpen {
		return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, f.state)
	}
	f.state = StateBrowsing
	f.lastErr = ""
	return nil
}

// Submit validates details and places the order for items. Validation
// failures return FieldErrors and leave the form open. Backend failures
// return the flow to the open form with the message retained.
func (f *Flow) Submit(ctx context.Context, details models.CustomerDetails, items []models.CartItem) (*models.Order, error) {
	req, totals, err := f.beginSubmit(details, items)
	if err != nil {
		return nil, err
	}
	if errs := f.checkLocation(ctx, details); errs != nil {
		f.mutex.Lock()
		f.state = StateOrderFormOpen
		f.mutex.Unlock()
		return nil, errs
	}
	return f.place(ctx, req, details, items, totals)
}

// checkLocation runs while the flow is Submitting so a second submit is
// still rejected as in flight.
func (f *Flow) checkLocation(ctx context.Context, details models.CustomerDetails) FieldErrors {
	if f.locations == nil {
		return nil
	}
	errs, err := ValidateLocation(ctx, f.locations, details)
	if err != nil {
		f.logger.WithError(err).Warn("Location lookup failed, skipping state and city check")
		return nil
	}
	return errs
}

func (f *Flow) beginSubmit(details models.CustomerDetails, items []models.CartItem) (models.CreateOrderRequest, pricing.Totals, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	switch f.state {
	case StateOrderFormOpen:
	case StateSubmitting:
		return models.CreateOrderRequest{}, pricing.Totals{}, ErrOrderInFlight
	default:
		return models.CreateOrderRequest{}, pricing.Totals{}, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, f.state)
	}
	f.customer = details

	if errs := Validate(details); errs != nil {
		return models.CreateOrderRequest{}, pricing.Totals{}, errs
	}
	if len(items) == 0 {
		return models.CreateOrderRequest{}, pricing.Totals{}, ErrEmptyCart
	}

	totals, err := pricing.Compute(items)
	if err != nil {
		f.lastErr = err.Error()
		return models.CreateOrderRequest{}, pricing.Totals{}, err
	}
	req, err := BuildOrderRequest(details, items)
	if err != nil {
		f.lastErr = err.Error()
		return models.CreateOrderRequest{}, pricing.Totals{}, err
	}

	f.state = StateSubmitting
	f.lastErr = ""
	return req, totals, nil
}

func (f *Flow) place(ctx context.Context, req models.CreateOrderRequest, details models.CustomerDetails, items []models.CartItem, totals pricing.Totals) (*models.Order, error) {
	result, err := f.creator.CreateOrder(ctx, req)

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if err != nil {
		f.state = StateOrderFormOpen
		f.lastErr = backend.Message(err, "Failed to create order")
		f.logger.WithError(err).WithField("customer_mobile", details.Mobile).Error("Failed to create order")
		return nil, fmt.Errorf("create order: %w", err)
	}

	now := f.now()
	id := result.OrderNumber
	if id == "" {
		id = fmt.Sprintf("ORD%d", now.UnixMilli())
		f.logger.WithField("order_id", id).Warn("Backend returned no order number, using generated id")
	}

	order := &models.Order{
		ID:        id,
		Items:     append([]models.CartItem(nil), items...),
		Customer:  details,
		Total:     totals.Subtotal,
		Discount:  totals.Discount,
		NetAmount: totals.Net,
		OrderDate: now,
		Status:    models.OrderStatusPending,
	}
	f.order = order
	f.state = StatePaymentDisplay

	f.logger.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"net_amount": pricing.Format(order.NetAmount),
	}).Info("Order placed")
	return order, nil
}

// Close leaves the payment view. The returned order is discarded by the
// flow and the caller must clear the cart.
func (f *Flow) Close() (*models.Order, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.state != StatePaymentDisplay {
		return nil, fmt.Errorf("%w: close from %s", ErrInvalidTransition, f.state)
	}
	order := f.order
	f.order = nil
	f.customer = models.CustomerDetails{}
	f.lastErr = ""
	f.state = StateClosed
	return order, nil
}

func (f *Flow) State() State {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.state
}

// Order is the placed order while the payment view is shown.
func (f *Flow) Order() *models.Order {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.order
}

func (f *Flow) Snapshot() Snapshot {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	snap := Snapshot{
		State:    f.state,
		Order:    f.order,
		Customer: f.customer,
		Error:    f.lastErr,
	}
	if f.shortfall.IsPositive() {
		snap.Shortfall = pricing.Format(f.shortfall)
	}
	return snap
}

// Restore loads a snapshot. An interrupted submission comes back as the
// open form since its outcome is unknown.
func (f *Flow) Restore(snap Snapshot) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.state = snap.State
	switch f.state {
	case StateBrowsing, StateOrderFormOpen, StatePaymentDisplay, StateClosed:
	case StateSubmitting:
		f.state = StateOrderFormOpen
	default:
		f.state = StateBrowsing
	}
	if f.state == StatePaymentDisplay && snap.Order == nil {
		f.state = StateBrowsing
	}
	f.order = snap.Order
	f.customer = snap.Customer
	f.lastErr = snap.Error
	f.shortfall = decimal.Zero
}
