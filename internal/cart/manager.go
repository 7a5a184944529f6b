package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type managedStore struct {
	store *Store
	init  sync.Once
}

// Manager hands out one Store per shopper session, restoring it from
// persistence the first time the session is seen by this process.
type Manager struct {
	persistence Persistence
	logger      *zap.Logger

	mu     sync.Mutex
	stores map[string]*managedStore
}

func NewManager(persistence Persistence, logger *zap.Logger) *Manager {
	return &Manager{
		persistence: persistence,
		logger:      logger,
		stores:      make(map[string]*managedStore),
	}
}

// Get returns the session's store, restoring it before anyone can
// mutate it. Concurrent first requests for the same session block on
// the restore; a store is never handed out with the restore still in
// flight, so a restore can never clobber an in-memory mutation.
func (m *Manager) Get(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	entry, ok := m.stores[sessionID]
	if !ok {
		entry = &managedStore{store: NewStore(sessionID, m.persistence, m.logger)}
		m.stores[sessionID] = entry
	}
	m.mu.Unlock()

	entry.init.Do(func() {
		entry.store.Restore(ctx)
	})
	return entry.store
}

// Drop forgets the in-memory store for a session. The persisted copy, if
// any, is untouched and will be restored on the next Get.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	delete(m.stores, sessionID)
	m.mu.Unlock()
}
