// Package payment resolves the bank and UPI details shown after an order is
// placed, falling back to the built-in account when the backend is down.
package payment

import (
	"context"
	"strings"

	"github.com/jogardn/fireworks-storefront/internal/pricing"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Source interface {
	PaymentDetails(ctx context.Context) (*models.PaymentDetails, error)
}

type Resolver struct {
	source   Source
	minimum  decimal.Decimal
	defaults models.PaymentDetails
	logger   *logrus.Logger
}

// NewResolver uses fallbackMinimum whenever the backend has no usable
// minimum order value; a non-positive value selects the 2500 default.
func NewResolver(source Source, fallbackMinimum decimal.Decimal, logger *logrus.Logger) *Resolver {
	if !fallbackMinimum.IsPositive() {
		fallbackMinimum = pricing.DefaultMinimumOrder
	}
	return &Resolver{
		source:   source,
		minimum:  fallbackMinimum,
		defaults: models.DefaultPaymentDetails(),
		logger:   logger,
	}
}

// Details never fails. Backend errors are logged and replaced by the
// default account.
func (r *Resolver) Details(ctx context.Context) models.PaymentDetails {
	details, err := r.source.PaymentDetails(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to fetch payment details, using defaults")
		return r.defaults
	}
	return *details
}

func (r *Resolver) MinimumOrder(ctx context.Context) decimal.Decimal {
	return r.MinimumOf(r.Details(ctx))
}

// MinimumOf parses the minimum order value carried by details.
func (r *Resolver) MinimumOf(details models.PaymentDetails) decimal.Decimal {
	raw := strings.TrimSpace(details.MinimumOrderValue)
	if raw == "" {
		return r.minimum
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || !value.IsPositive() {
		r.logger.WithField("minimum_order_value", raw).Warn("Unusable minimum order value, using fallback")
		return r.minimum
	}
	return value
}
