package receipts

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReceipt() *Receipt {
	return &Receipt{
		SessionID: "s1",
		Order: models.Order{
			ID: "KC1001",
			Items: []models.CartItem{
				{Product: models.Product{ID: 1, Name: "Sky Rocket", OriginalPrice: "120.00", Price: "100.00"}, Quantity: 2},
				{Product: models.Product{ID: 2, Name: "Flower Pot <Big>", OriginalPrice: "50.00", Price: "50.00"}, Quantity: 3},
			},
			Customer: models.CustomerDetails{
				Name: "Ravi", Mobile: "9876543210", Address1: "12 Temple Street", Address2: "Near Bus Stand",
				City: "Sivakasi", State: "Tamil Nadu", Pincode: "626123",
			},
			OrderDate: time.Date(2024, 10, 28, 9, 0, 0, 0, time.UTC),
			Status:    models.OrderStatusPending,
		},
		Payment:   models.DefaultPaymentDetails(),
		CreatedAt: time.Now(),
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "KC1001", "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, sampleReceipt()))
	got, err := store.Get(ctx, "KC1001", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
	assert.Len(t, got.Order.Items, 2)

	_, err = store.Get(ctx, "KC1001", "s2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreKeepsSameOrderIDPerSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := sampleReceipt()
	first.Order.ID = "ORD1700000000123"
	second := sampleReceipt()
	second.Order.ID = first.Order.ID
	second.SessionID = "s2"
	second.Order.Items = second.Order.Items[:1]

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	got, err := store.Get(ctx, first.Order.ID, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Order.Items, 2)

	got, err = store.Get(ctx, first.Order.ID, "s2")
	require.NoError(t, err)
	assert.Len(t, got.Order.Items, 1)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReceipt()))
	out := buf.String()

	assert.Contains(t, out, "Order Details - KC1001")
	assert.Contains(t, out, "28/10/2024")
	assert.Contains(t, out, "₹390.00")
	assert.Contains(t, out, "-₹40.00")
	assert.Contains(t, out, "₹350.00")
	assert.Contains(t, out, "Qty: 2 × ₹100.00 = ₹200.00 (Saved: ₹40.00)")
	assert.Contains(t, out, "Qty: 3 × ₹50.00 = ₹150.00</span>")
	assert.Contains(t, out, "12 Temple Street, Near Bus Stand")
	assert.Contains(t, out, "Flower Pot &lt;Big&gt;")
	assert.Contains(t, out, "S.Dhamodhara kannan")
	assert.Contains(t, out, WhatsAppNumber)
}

func TestRenderWithoutDiscount(t *testing.T) {
	r := sampleReceipt()
	r.Order.Items = r.Order.Items[1:]

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	assert.NotContains(t, buf.String(), "Discount:")
}

func TestRenderMalformedPrice(t *testing.T) {
	r := sampleReceipt()
	r.Order.Items[0].Product.Price = "n/a"

	var buf bytes.Buffer
	assert.Error(t, Render(&buf, r))
}
