// Package tracking looks up placed orders by order number or by the
// customer's mobile number.
package tracking

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeOrder  Mode = "order"
	ModeMobile Mode = "mobile"
)

const (
	msgEmptyInput    = "Please enter either Order Number or Mobile Number"
	msgInvalidInput  = "Please enter valid details for tracking"
	msgOrderNotFound = "Order not found. Please check your details."
	msgNoMobileOrder = "No orders found for this mobile number."
	msgTrackFailed   = "Failed to track order. Please try again."
)

var ErrInFlight = errors.New("a tracking lookup is already in progress")

// LookupError carries the message to show for a failed lookup.
type LookupError struct {
	Message string
	Err     error
}

func (e *LookupError) Error() string {
	return e.Message
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

type Source interface {
	TrackOrder(ctx context.Context, orderNumber string) (*models.TrackedOrder, error)
	TrackMobile(ctx context.Context, mobile string) (*models.MobileTracking, error)
}

type Query struct {
	Mode  Mode   `json:"mode"`
	Value string `json:"value"`
}

// Result holds exactly one of Order or Mobile, matching the query mode.
type Result struct {
	Mode   Mode                   `json:"mode"`
	Order  *models.TrackedOrder   `json:"order,omitempty"`
	Mobile *models.MobileTracking `json:"mobile,omitempty"`
}

type Tracker struct {
	source  Source
	loading atomic.Bool
	logger  *logrus.Logger
}

func NewTracker(source Source, logger *logrus.Logger) *Tracker {
	return &Tracker{source: source, logger: logger}
}

// Loading reports whether a lookup is in flight.
func (t *Tracker) Loading() bool {
	return t.loading.Load()
}

// Lookup runs one query. A second call while one is in flight fails with
// ErrInFlight.
func (t *Tracker) Lookup(ctx context.Context, q Query) (*Result, error) {
	value := strings.TrimSpace(q.Value)
	if value == "" {
		return nil, &LookupError{Message: msgEmptyInput}
	}
	if q.Mode != ModeOrder && q.Mode != ModeMobile {
		return nil, &LookupError{Message: msgInvalidInput}
	}

	if !t.loading.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer t.loading.Store(false)

	logger := t.logger.WithFields(logrus.Fields{
		"mode":  q.Mode,
		"value": value,
	})

	if q.Mode == ModeOrder {
		order, err := t.source.TrackOrder(ctx, value)
		if err != nil {
			logger.WithError(err).Info("Order lookup failed")
			return nil, lookupError(err, msgOrderNotFound)
		}
		return &Result{Mode: ModeOrder, Order: order}, nil
	}

	tracking, err := t.source.TrackMobile(ctx, value)
	if err != nil {
		logger.WithError(err).Info("Mobile lookup failed")
		return nil, lookupError(err, msgNoMobileOrder)
	}
	return &Result{Mode: ModeMobile, Mobile: tracking}, nil
}

// lookupError surfaces the backend's own message verbatim, then the
// mode-specific fallback for business failures, then a generic retry hint.
func lookupError(err error, fallback string) *LookupError {
	var be *backend.BusinessError
	switch {
	case errors.As(err, &be) && be.Message != "":
		return &LookupError{Message: be.Message, Err: err}
	case errors.As(err, &be):
		return &LookupError{Message: fallback, Err: err}
	default:
		return &LookupError{Message: msgTrackFailed, Err: err}
	}
}
