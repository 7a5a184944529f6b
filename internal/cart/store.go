// Package cart holds the per-session shopping cart. The in-memory line
// set is the source of truth for the session; persistence is best-effort
// and never blocks or fails a mutation.
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/tina-boutique/store-service/internal/domain"
	"go.uber.org/zap"
)

const persistTimeout = 5 * time.Second

// Persistence is the durable store behind a session's cart. Load returns
// nil items when nothing was saved yet.
type Persistence interface {
	Load(ctx context.Context, sessionID string) ([]domain.CartItem, error)
	Save(ctx context.Context, sessionID string, items []domain.CartItem) error
	Delete(ctx context.Context, sessionID string) error
}

// Store is one shopper's cart. Lines are keyed by product+size+color and
// deduplicated on add. Every mutation schedules an asynchronous save;
// save failures are logged and swallowed, the in-memory state stays
// authoritative for the session.
type Store struct {
	sessionID   string
	persistence Persistence
	logger      *zap.Logger

	mu    sync.Mutex
	items []domain.CartItem

	// Saves are funneled through one writer goroutine per store so a slow
	// earlier save can never land after, and overwrite, a later snapshot.
	// Only the newest pending op is kept; intermediate snapshots coalesce.
	persistMu  sync.Mutex
	pending    persistOp
	hasPending bool
	persisting bool
}

// persistOp is one queued persistence write: either the snapshot to
// save, or a delete of the persisted cart.
type persistOp struct {
	items  []domain.CartItem
	remove bool
}

func NewStore(sessionID string, persistence Persistence, logger *zap.Logger) *Store {
	return &Store{
		sessionID:   sessionID,
		persistence: persistence,
		logger:      logger,
	}
}

// Restore loads a previously persisted line set. Any load or decode
// failure falls back to an empty cart; the shopper never sees the error.
func (s *Store) Restore(ctx context.Context) {
	items, err := s.persistence.Load(ctx, s.sessionID)
	if err != nil {
		s.logger.Warn("Failed to restore cart, starting empty",
			zap.String("session_id", s.sessionID),
			zap.Error(err))
		return
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

// AddItem appends a line for (product, size, color), snapshotting the
// product's current price and images. If the line already exists its
// quantity is incremented instead.
func (s *Store) AddItem(product *domain.Product, quantity int, size, color string) domain.CartItem {
	if quantity < 1 {
		quantity = 1
	}
	id := domain.CartItemID(product.ProductID, size, color)

	s.mu.Lock()
	var line domain.CartItem
	found := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity += quantity
			line = s.items[i]
			found = true
			break
		}
	}
	if !found {
		line = domain.CartItem{
			ID:        id,
			ProductID: product.ProductID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
			Size:      size,
			Color:     color,
			ImageURLs: product.ImageURLs,
		}
		s.items = append(s.items, line)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snapshot)
	return line
}

// RemoveItem deletes the line with the given key. Removing an absent
// line is a no-op.
func (s *Store) RemoveItem(cartItemID string) {
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == cartItemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snapshot)
}

// UpdateQuantity replaces a line's quantity. A quantity of zero or less
// removes the line. Quantities are not checked against live stock here;
// checkout re-validates against fresh reads regardless.
func (s *Store) UpdateQuantity(cartItemID string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(cartItemID)
		return
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == cartItemID {
			s.items[i].Quantity = quantity
			break
		}
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persistAsync(snapshot)
}

// Clear drops every line, on successful checkout or explicit reset.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	s.enqueuePersist(persistOp{remove: true})
}

// Items returns a copy of the current line set.
func (s *Store) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartTotal(s.items)
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartItemCount(s.items)
}

func (s *Store) snapshotLocked() []domain.CartItem {
	snapshot := make([]domain.CartItem, len(s.items))
	copy(snapshot, s.items)
	return snapshot
}

func (s *Store) persistAsync(items []domain.CartItem) {
	s.enqueuePersist(persistOp{items: items})
}

// enqueuePersist records op as the newest pending write and starts the
// writer goroutine if one is not already draining the queue.
func (s *Store) enqueuePersist(op persistOp) {
	s.persistMu.Lock()
	s.pending = op
	s.hasPending = true
	if s.persisting {
		s.persistMu.Unlock()
		return
	}
	s.persisting = true
	s.persistMu.Unlock()

	go s.persistLoop()
}

func (s *Store) persistLoop() {
	for {
		s.persistMu.Lock()
		if !s.hasPending {
			s.persisting = false
			s.persistMu.Unlock()
			return
		}
		op := s.pending
		s.hasPending = false
		s.persistMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		var err error
		if op.remove {
			err = s.persistence.Delete(ctx, s.sessionID)
		} else {
			err = s.persistence.Save(ctx, s.sessionID, op.items)
		}
		cancel()
		if err != nil {
			s.logger.Warn("Failed to persist cart",
				zap.String("session_id", s.sessionID),
				zap.Bool("remove", op.remove),
				zap.Error(err))
		}
	}
}
