package pricing

import "github.com/shopspring/decimal"

type Threshold struct {
	Minimum      decimal.Decimal `json:"minimum"`
	BelowMinimum bool            `json:"belowMinimum"`
	Shortfall    decimal.Decimal `json:"shortfall"`
}

// Assess reports whether a non-empty cart is short of the minimum order
// value. An empty cart (net zero) is never below minimum; it simply has
// nothing to order.
func Assess(net, minimum decimal.Decimal) Threshold {
	t := Threshold{Minimum: minimum}
	if net.IsPositive() && net.LessThan(minimum) {
		t.BelowMinimum = true
		t.Shortfall = minimum.Sub(net)
	}
	return t
}

// CanOrder is the condition for opening the order form.
func (t Threshold) CanOrder(net decimal.Decimal) bool {
	return net.IsPositive() && !t.BelowMinimum
}
