package catalog

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jogardn/fireworks-storefront/internal/backend"
	"github.com/jogardn/fireworks-storefront/internal/mockbackend"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// gatedFetcher blocks fetches for gated categories until released.
type gatedFetcher struct {
	mutex   sync.Mutex
	gates   map[models.Category]chan struct{}
	started chan models.Category
	queries []backend.ProductQuery
	err     error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		gates:   make(map[models.Category]chan struct{}),
		started: make(chan models.Category, 10),
	}
}

func (f *gatedFetcher) gate(category models.Category) chan struct{} {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	ch := make(chan struct{})
	f.gates[category] = ch
	return ch
}

func (f *gatedFetcher) Products(ctx context.Context, q backend.ProductQuery) (*models.ProductPage, error) {
	f.mutex.Lock()
	f.queries = append(f.queries, q)
	gate := f.gates[q.Category]
	err := f.err
	f.mutex.Unlock()

	f.started <- q.Category
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	name := "all"
	if q.Category != "" {
		name = string(q.Category)
	}
	return &models.ProductPage{Items: []models.Product{{ID: 1, Name: name, Category: string(q.Category)}}}, nil
}

func TestToggleSendsFirstSelectedCategory(t *testing.T) {
	fetcher := newGatedFetcher()
	c := New(fetcher, 0, quietLogger())
	ctx := context.Background()

	_, err := c.Toggle(ctx, models.CategoryRockets)
	require.NoError(t, err)
	view, err := c.Toggle(ctx, models.CategorySparklers)
	require.NoError(t, err)

	assert.Equal(t, []models.Category{models.CategoryRockets, models.CategorySparklers}, view.Selected)
	require.Len(t, fetcher.queries, 2)
	assert.Equal(t, models.CategoryRockets, fetcher.queries[1].Category)
	assert.Equal(t, "active", fetcher.queries[1].Status)
	assert.Equal(t, DefaultLimit, fetcher.queries[1].Limit)

	view, err = c.Toggle(ctx, models.CategoryRockets)
	require.NoError(t, err)
	assert.Equal(t, []models.Category{models.CategorySparklers}, view.Selected)
	assert.Equal(t, models.CategorySparklers, fetcher.queries[2].Category)
}

func TestClearFiltersFetchesUnfiltered(t *testing.T) {
	fetcher := newGatedFetcher()
	c := New(fetcher, 0, quietLogger())
	ctx := context.Background()

	_, err := c.Toggle(ctx, models.CategoryBombs)
	require.NoError(t, err)
	view, err := c.ClearFilters(ctx)
	require.NoError(t, err)

	assert.Empty(t, view.Selected)
	assert.Equal(t, models.Category(""), fetcher.queries[1].Category)
	require.Len(t, view.Products, 1)
	assert.Equal(t, "all", view.Products[0].Name)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	fetcher := newGatedFetcher()
	release := fetcher.gate(models.CategoryRockets)
	c := New(fetcher, 0, quietLogger())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.Toggle(ctx, models.CategoryRockets)
		done <- err
	}()
	assert.Equal(t, models.CategoryRockets, <-fetcher.started)

	view, err := c.Toggle(ctx, models.CategoryRockets)
	require.NoError(t, err)
	<-fetcher.started

	close(release)
	assert.ErrorIs(t, <-done, ErrSuperseded)

	view = c.View()
	assert.Empty(t, view.Selected)
	require.Len(t, view.Products, 1)
	assert.Equal(t, "all", view.Products[0].Name)
	assert.False(t, view.Loading)
}

func TestFetchFailureMessage(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.err = &backend.BusinessError{Status: 500, Message: "database unavailable"}
	c := New(fetcher, 0, quietLogger())

	view, err := c.Refetch(context.Background())
	require.Error(t, err)
	<-fetcher.started

	var be *backend.BusinessError
	assert.True(t, errors.As(err, &be))
	assert.Equal(t, "Failed to fetch products: database unavailable", view.Error)
	assert.Empty(t, view.Products)
	assert.False(t, view.Loading)
}

func TestLookupUsesDisplayedList(t *testing.T) {
	fetcher := newGatedFetcher()
	c := New(fetcher, 0, quietLogger())

	_, ok := c.Lookup(1)
	assert.False(t, ok)

	_, err := c.Refetch(context.Background())
	require.NoError(t, err)
	p, ok := c.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, "all", p.Name)
}

func TestRestoreKeepsFilters(t *testing.T) {
	c := New(newGatedFetcher(), 0, quietLogger())
	c.Restore([]models.Category{models.CategoryWheels})
	assert.Equal(t, []models.Category{models.CategoryWheels}, c.Selected())
}

func TestAgainstMockBackend(t *testing.T) {
	srv := httptest.NewServer(mockbackend.New(quietLogger()).Handler())
	defer srv.Close()

	client := backend.NewClient(backend.Options{BaseURL: srv.URL}, quietLogger())
	c := New(client, 0, quietLogger())

	view, err := c.Toggle(context.Background(), models.CategoryRockets)
	require.NoError(t, err)
	require.Len(t, view.Products, 2)
	for _, p := range view.Products {
		assert.Equal(t, string(models.CategoryRockets), p.Category)
	}
}

func TestEnsureLoadedFetchesOnce(t *testing.T) {
	fetcher := newGatedFetcher()
	c := New(fetcher, 0, quietLogger())
	ctx := context.Background()

	view, err := c.EnsureLoaded(ctx)
	require.NoError(t, err)
	assert.Len(t, view.Products, 1)

	_, err = c.EnsureLoaded(ctx)
	require.NoError(t, err)
	assert.Len(t, fetcher.queries, 1)
}
