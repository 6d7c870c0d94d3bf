package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jogardn/fireworks-storefront/internal/checkout"
	"github.com/jogardn/fireworks-storefront/pkg/models"
)

var ErrNotFound = errors.New("session not found")

// Snapshot is what survives a restart. Catalog products are refetched on
// load, only the filters are kept.
type Snapshot struct {
	ID         string            `json:"id"`
	Items      []models.CartItem `json:"items"`
	Categories []models.Category `json:"categories"`
	Checkout   checkout.Snapshot `json:"checkout"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

type Store interface {
	Load(ctx context.Context, id string) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Delete(ctx context.Context, id string) error
}

type MemoryStore struct {
	mutex     sync.RWMutex
	snapshots map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]Snapshot)}
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	snap, ok := m.snapshots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &snap, nil
}

func (m *MemoryStore) Save(ctx context.Context, snap *Snapshot) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.snapshots[snap.ID] = *snap
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.snapshots, id)
	return nil
}
