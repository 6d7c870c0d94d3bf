// Package catalog holds a shopper's category filters and the product list
// currently on display.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/sirupsen/logrus"
)

const DefaultLimit = 500000

// ErrSuperseded is returned by a fetch whose response arrived after a newer
// fetch was issued. Its result is discarded.
var ErrSuperseded = errors.New("catalog fetch superseded by a newer request")

type Fetcher interface {
	Products(ctx context.Context, q backend.ProductQuery) (*models.ProductPage, error)
}

// View is a consistent copy of the catalog state.
type View struct {
	Selected []models.Category `json:"selectedCategories"`
	Products []models.Product  `json:"products"`
	Loading  bool              `json:"loading"`
	Error    string            `json:"error,omitempty"`
}

type Catalog struct {
	fetcher Fetcher
	limit   int

	mutex    sync.Mutex
	selected []models.Category
	products []models.Product
	loading  bool
	lastErr  string
	latest   uint64

	logger *logrus.Logger
}

func New(fetcher Fetcher, limit int, logger *logrus.Logger) *Catalog {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Catalog{
		fetcher:  fetcher,
		limit:    limit,
		products: []models.Product{},
		logger:   logger,
	}
}

// Toggle flips category membership in the filter set and refetches.
func (c *Catalog) Toggle(ctx context.Context, category models.Category) (View, error) {
	c.mutex.Lock()
	if i := indexOf(c.selected, category); i >= 0 {
		c.selected = append(c.selected[:i:i], c.selected[i+1:]...)
	} else {
		c.selected = append(c.selected, category)
	}
	token, query := c.beginLocked()
	c.mutex.Unlock()

	return c.fetch(ctx, token, query)
}

func (c *Catalog) ClearFilters(ctx context.Context) (View, error) {
	c.mutex.Lock()
	c.selected = nil
	token, query := c.beginLocked()
	c.mutex.Unlock()

	return c.fetch(ctx, token, query)
}

// Refetch retries with the current filters.
func (c *Catalog) Refetch(ctx context.Context) (View, error) {
	c.mutex.Lock()
	token, query := c.beginLocked()
	c.mutex.Unlock()

	return c.fetch(ctx, token, query)
}

// EnsureLoaded fetches once for a catalog that has never been loaded and
// otherwise returns the current view.
func (c *Catalog) EnsureLoaded(ctx context.Context) (View, error) {
	c.mutex.Lock()
	if c.latest > 0 {
		defer c.mutex.Unlock()
		return c.viewLocked(), nil
	}
	token, query := c.beginLocked()
	c.mutex.Unlock()

	return c.fetch(ctx, token, query)
}

// Restore replaces the filter set without fetching.
func (c *Catalog) Restore(selected []models.Category) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.selected = append([]models.Category(nil), selected...)
}

// Lookup finds a product in the displayed list.
func (c *Catalog) Lookup(id int64) (models.Product, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, p := range c.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

func (c *Catalog) Selected() []models.Category {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]models.Category(nil), c.selected...)
}

func (c *Catalog) View() View {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.viewLocked()
}

func (c *Catalog) viewLocked() View {
	products := make([]models.Product, len(c.products))
	copy(products, c.products)
	return View{
		Selected: append([]models.Category{}, c.selected...),
		Products: products,
		Loading:  c.loading,
		Error:    c.lastErr,
	}
}

// beginLocked clears the displayed list and issues the next token. Only the
// first selected category is sent to the backend.
func (c *Catalog) beginLocked() (uint64, backend.ProductQuery) {
	c.latest++
	c.products = []models.Product{}
	c.loading = true
	c.lastErr = ""

	query := backend.ProductQuery{Status: "active", Limit: c.limit}
	if len(c.selected) > 0 {
		query.Category = c.selected[0]
	}
	return c.latest, query
}

func (c *Catalog) fetch(ctx context.Context, token uint64, query backend.ProductQuery) (View, error) {
	page, err := c.fetcher.Products(ctx, query)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if token != c.latest {
		c.logger.WithFields(logrus.Fields{
			"token":    token,
			"latest":   c.latest,
			"category": query.Category,
		}).Debug("Discarding stale catalog response")
		return c.viewLocked(), ErrSuperseded
	}

	c.loading = false
	if err != nil {
		c.lastErr = fmt.Sprintf("Failed to fetch products: %s", errorText(err))
		c.logger.WithError(err).WithField("category", query.Category).Error("Failed to fetch products")
		return c.viewLocked(), fmt.Errorf("fetch products: %w", err)
	}

	c.products = page.Items
	if c.products == nil {
		c.products = []models.Product{}
	}
	return c.viewLocked(), nil
}

func errorText(err error) string {
	var be *backend.BusinessError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return err.Error()
}

func indexOf(categories []models.Category, category models.Category) int {
	for i, c := range categories {
		if c == category {
			return i
		}
	}
	return -1
}
