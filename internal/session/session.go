// Package session owns the single authoritative cart, catalog and checkout
// state of each browser session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jogardn/fireworks-storefront/internal/cart"
	"github.com/jogardn/fireworks-storefront/internal/catalog"
	"github.com/jogardn/fireworks-storefront/internal/checkout"
	"github.com/jogardn/fireworks-storefront/internal/tracking"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/sirupsen/logrus"
)

// Change notification types.
const (
	EventCartUpdated     = "cart_updated"
	EventCatalogUpdated  = "catalog_updated"
	EventCheckoutUpdated = "checkout_updated"
	EventOrderPlaced     = "order_placed"
)

type Session struct {
	ID       string
	Catalog  *catalog.Catalog
	Checkout *checkout.Flow
	Tracker  *tracking.Tracker

	mutex sync.Mutex
	cart  *cart.Cart
}

// ErrCartLocked rejects cart changes while an order is being placed or its
// payment instructions are on screen.
var ErrCartLocked = errors.New("cart cannot change while an order is in progress")

// AddItem is the product card path. It sums quantity into the cart under
// the same stock and per item bounds as AdjustItem.
func (s *Session) AddItem(id int64, quantity int) error {
	if err := s.checkUnlocked(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cart.Adjust(id, s.cart.Quantity(id)+quantity, s.Catalog.Lookup)
}

// AdjustItem is the quantity selector path, bounded by stock and the per
// item cap.
func (s *Session) AdjustItem(id int64, quantity int) error {
	if err := s.checkUnlocked(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cart.Adjust(id, quantity, s.Catalog.Lookup)
}

func (s *Session) checkUnlocked() error {
	switch s.Checkout.State() {
	case checkout.StateSubmitting, checkout.StatePaymentDisplay:
		return ErrCartLocked
	}
	return nil
}

func (s *Session) Quantity(id int64) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cart.Quantity(id)
}

func (s *Session) Items() []models.CartItem {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cart.Items()
}

func (s *Session) ClearCart() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.cart.Clear()
}

func (s *Session) Snapshot() *Snapshot {
	return &Snapshot{
		ID:         s.ID,
		Items:      s.Items(),
		Categories: s.Catalog.Selected(),
		Checkout:   s.Checkout.Snapshot(),
		UpdatedAt:  time.Now().UTC(),
	}
}

// Notifier receives a message after every committed session change.
type Notifier interface {
	Broadcast(sessionID, messageType string, data interface{})
}

type Dependencies struct {
	Products     catalog.Fetcher
	Orders       checkout.OrderCreator
	Locations    checkout.Locations
	Tracking     tracking.Source
	ProductLimit int
}

type Manager struct {
	store    Store
	deps     Dependencies
	notifier Notifier

	mutex    sync.Mutex
	sessions map[string]*Session

	logger *logrus.Logger
}

func NewManager(store Store, deps Dependencies, notifier Notifier, logger *logrus.Logger) *Manager {
	return &Manager{
		store:    store,
		deps:     deps,
		notifier: notifier,
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// NewID issues a fresh session id.
func NewID() string {
	return uuid.New().String()
}

// Get returns the live session for id, restoring it from the store or
// creating it when unknown.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, errors.New("session id is required")
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	s := m.newSession(id)
	snap, err := m.store.Load(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		m.logger.WithField("session_id", id).Debug("Starting new session")
	case err != nil:
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	default:
		s.cart.Restore(snap.Items)
		s.Catalog.Restore(snap.Categories)
		s.Checkout.Restore(snap.Checkout)
		m.logger.WithFields(logrus.Fields{
			"session_id": id,
			"items":      len(snap.Items),
		}).Info("Session restored")
	}

	m.sessions[id] = s
	return s, nil
}

func (m *Manager) newSession(id string) *Session {
	return &Session{
		ID:       id,
		Catalog:  catalog.New(m.deps.Products, m.deps.ProductLimit, m.logger),
		Checkout: checkout.NewFlow(m.deps.Orders, m.logger).WithLocations(m.deps.Locations),
		Tracker:  tracking.NewTracker(m.deps.Tracking, m.logger),
		cart:     cart.New(),
	}
}

// Commit persists the session and notifies its subscribers. A failed save
// is logged; the in-memory session stays authoritative.
func (m *Manager) Commit(ctx context.Context, s *Session, messageType string, data interface{}) {
	if err := m.store.Save(ctx, s.Snapshot()); err != nil {
		m.logger.WithError(err).WithField("session_id", s.ID).Error("Failed to persist session")
	}
	if m.notifier != nil {
		m.notifier.Broadcast(s.ID, messageType, data)
	}
}

// Forget drops the session from memory and the store.
func (m *Manager) Forget(ctx context.Context, id string) error {
	m.mutex.Lock()
	delete(m.sessions, id)
	m.mutex.Unlock()
	return m.store.Delete(ctx, id)
}

// Count is the number of live sessions.
func (m *Manager) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.sessions)
}
