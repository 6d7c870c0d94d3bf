// Package cart holds a shopper's pre-submission selection. A Cart is not
// safe for concurrent use; the owning session serializes access.
package cart

import (
	"errors"
	"fmt"

	"github.com/jogardn/fireworks-storefront/pkg/models"
)

// MaxQuantityPerItem is the per-product cap enforced on the shopper path.
const MaxQuantityPerItem = 10

var (
	ErrInvalidQuantity = errors.New("quantity must not be negative")
	ErrQuantityLimit   = fmt.Errorf("quantity cannot exceed %d per product", MaxQuantityPerItem)
	ErrOutOfStock      = errors.New("quantity exceeds available stock")
	ErrUnknownProduct  = errors.New("product is not in the current catalog")
)

// ProductLookup resolves a product from the currently loaded catalog.
type ProductLookup func(id int64) (models.Product, bool)

type Cart struct {
	items []models.CartItem
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) index(id int64) int {
	for i := range c.items {
		if c.items[i].Product.ID == id {
			return i
		}
	}
	return -1
}

// Add sums quantity into an existing entry or appends a new one. It does
// not enforce the per-item cap.
func (c *Cart) Add(product models.Product, quantity int) {
	if quantity <= 0 {
		return
	}
	if i := c.index(product.ID); i >= 0 {
		c.items[i].Quantity += quantity
		return
	}
	c.items = append(c.items, models.CartItem{Product: product, Quantity: quantity})
}

// SetQuantity overwrites a product's quantity. Zero removes the entry. A
// product not yet in the cart is looked up in the catalog; if it is not
// there the call is a no-op and reports false.
func (c *Cart) SetQuantity(id int64, quantity int, lookup ProductLookup) bool {
	i := c.index(id)
	if quantity <= 0 {
		if i >= 0 {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
		return false
	}
	if i >= 0 {
		c.items[i].Quantity = quantity
		return true
	}
	if lookup == nil {
		return false
	}
	product, ok := lookup(id)
	if !ok {
		return false
	}
	c.items = append(c.items, models.CartItem{Product: product, Quantity: quantity})
	return true
}

// Adjust is the shopper-facing quantity change. Bounds are checked before
// anything is mutated.
func (c *Cart) Adjust(id int64, quantity int, lookup ProductLookup) error {
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	if quantity > MaxQuantityPerItem {
		return ErrQuantityLimit
	}
	if quantity == 0 {
		c.SetQuantity(id, 0, nil)
		return nil
	}

	var product models.Product
	if i := c.index(id); i >= 0 {
		product = c.items[i].Product
		if lookup != nil {
			// Prefer fresher stock from the catalog when it is loaded.
			if p, ok := lookup(id); ok {
				product = p
			}
		}
	} else {
		p, ok := lookupProduct(lookup, id)
		if !ok {
			return ErrUnknownProduct
		}
		product = p
	}
	if quantity > product.CurrentStock {
		return fmt.Errorf("%w: %d requested, %d available", ErrOutOfStock, quantity, product.CurrentStock)
	}
	c.SetQuantity(id, quantity, lookup)
	return nil
}

func lookupProduct(lookup ProductLookup, id int64) (models.Product, bool) {
	if lookup == nil {
		return models.Product{}, false
	}
	return lookup(id)
}

// Quantity returns 0 for products not in the cart.
func (c *Cart) Quantity(id int64) int {
	if i := c.index(id); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

// Items returns a copy of the entries in insertion order.
func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) TotalQuantity() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) Clear() {
	c.items = nil
}

// Restore replaces the contents from a persisted snapshot, folding
// duplicates and dropping non-positive quantities.
func (c *Cart) Restore(items []models.CartItem) {
	c.items = nil
	for _, item := range items {
		c.Add(item.Product, item.Quantity)
	}
}
