// Package receipts records placed orders so their payment and print views
// can be shown again after the checkout flow has moved on.
package receipts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jogardn/fireworks-storefront/pkg/models"
)

var ErrNotFound = errors.New("receipt not found")

type Receipt struct {
	Order     models.Order          `json:"order"`
	SessionID string                `json:"sessionId"`
	Payment   models.PaymentDetails `json:"payment"`
	CreatedAt time.Time             `json:"createdAt"`
}

// Store keys receipts by order id and session. Generated fallback order ids
// can repeat across sessions, so the session is part of the key.
type Store interface {
	Save(ctx context.Context, r *Receipt) error
	Get(ctx context.Context, orderID, sessionID string) (*Receipt, error)
}

type receiptKey struct {
	orderID   string
	sessionID string
}

type MemoryStore struct {
	mutex    sync.RWMutex
	receipts map[receiptKey]Receipt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{receipts: make(map[receiptKey]Receipt)}
}

func (m *MemoryStore) Save(ctx context.Context, r *Receipt) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.receipts[receiptKey{r.Order.ID, r.SessionID}] = *r
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, orderID, sessionID string) (*Receipt, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	r, ok := m.receipts[receiptKey{orderID, sessionID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}
