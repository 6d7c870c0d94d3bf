// Package pricing is the one place cart and order amounts are computed.
// Every surface that shows a total (cart summary, checkout, payment view,
// receipts, CLI) goes through Compute.
package pricing

import (
	"fmt"
	"strings"

	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/shopspring/decimal"
)

// DefaultMinimumOrder applies when the backend does not report one.
var DefaultMinimumOrder = decimal.NewFromInt(2500)

type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Net           decimal.Decimal `json:"net"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalProducts int             `json:"totalProducts"`
}

// Compute reduces cart items into subtotal (original prices), net (final
// prices) and discount = subtotal - net.
func Compute(items []models.CartItem) (Totals, error) {
	var t Totals
	for _, item := range items {
		original, final, err := prices(item.Product)
		if err != nil {
			return Totals{}, err
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		t.Subtotal = t.Subtotal.Add(original.Mul(qty))
		t.Net = t.Net.Add(final.Mul(qty))
		t.TotalQuantity += item.Quantity
	}
	t.Discount = t.Subtotal.Sub(t.Net)
	t.TotalProducts = len(items)
	return t, nil
}

// Lines converts cart items into create-order request lines. The per-line
// discount is a per-unit amount, zero when the product has no original price.
func Lines(items []models.CartItem) ([]models.OrderItem, error) {
	lines := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if item.Product.ID <= 0 {
			return nil, fmt.Errorf("invalid product ID: %d", item.Product.ID)
		}
		original, final, err := prices(item.Product)
		if err != nil {
			return nil, err
		}
		discount := decimal.Zero
		if original.IsPositive() {
			discount = original.Sub(final)
		}
		total, _ := final.Mul(decimal.NewFromInt(int64(item.Quantity))).Float64()
		lines = append(lines, models.OrderItem{
			ProductID:     item.Product.ID,
			ProductName:   item.Product.Name,
			Quantity:      item.Quantity,
			Rate:          Format(final),
			OriginalPrice: Format(original),
			Discount:      Format(discount),
			Total:         total,
		})
	}
	return lines, nil
}

// LineTotals is the per-line breakdown used by the print view.
type LineTotals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Net      decimal.Decimal
}

func Line(item models.CartItem) (LineTotals, error) {
	t, err := Compute([]models.CartItem{item})
	if err != nil {
		return LineTotals{}, err
	}
	return LineTotals{Subtotal: t.Subtotal, Discount: t.Discount, Net: t.Net}, nil
}

// PriceOf parses a backend decimal string.
func PriceOf(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed price %q: %w", s, err)
	}
	return v, nil
}

func prices(p models.Product) (original, final decimal.Decimal, err error) {
	original, err = PriceOf(p.OriginalPrice)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("product %d original price: %w", p.ID, err)
	}
	final, err = PriceOf(p.Price)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("product %d price: %w", p.ID, err)
	}
	return original, final, nil
}

// Format renders an amount with two decimals.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
