package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tina-boutique/store-service/internal/domain"
	"go.uber.org/zap"
)

func TestManager_SameSessionSameStore(t *testing.T) {
	m := NewManager(newFakePersistence(), zap.NewNop())

	a := m.Get(context.Background(), "sess-1")
	b := m.Get(context.Background(), "sess-1")
	if a != b {
		t.Error("expected the same store for the same session")
	}

	other := m.Get(context.Background(), "sess-2")
	if other == a {
		t.Error("expected distinct stores for distinct sessions")
	}
}

func TestManager_DropForgetsInMemoryStore(t *testing.T) {
	p := newFakePersistence()
	m := NewManager(p, zap.NewNop())

	store := m.Get(context.Background(), "sess-1")
	store.AddItem(testProduct(), 1, "M", "red")
	awaitSave(t, p)

	m.Drop("sess-1")

	restored := m.Get(context.Background(), "sess-1")
	if restored == store {
		t.Fatal("expected a fresh store after drop")
	}
	if got := restored.ItemCount(); got != 1 {
		t.Errorf("expected persisted line to be restored, got item count %d", got)
	}
}

func TestManager_SlowRestoreCannotDiscardConcurrentAdds(t *testing.T) {
	p := newFakePersistence()
	p.data["sess-1"] = []domain.CartItem{
		{ID: "prod-9Lblack", ProductID: "prod-9", Price: 80, Quantity: 1, Size: "L", Color: "black"},
	}
	p.loadDelay = 100 * time.Millisecond
	m := NewManager(p, zap.NewNop())

	// Two requests race on first access. Get must not hand out the
	// store until the restore finished, so the line added by the second
	// request survives alongside the restored one.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.Get(context.Background(), "sess-1")
	}()
	go func() {
		defer wg.Done()
		store := m.Get(context.Background(), "sess-1")
		store.AddItem(testProduct(), 1, "M", "red")
	}()
	wg.Wait()

	items := m.Get(context.Background(), "sess-1").Items()
	if len(items) != 2 {
		t.Fatalf("expected restored line plus added line, got %d lines: %+v", len(items), items)
	}
	byID := make(map[string]domain.CartItem, len(items))
	for _, line := range items {
		byID[line.ID] = line
	}
	if _, ok := byID["prod-9Lblack"]; !ok {
		t.Error("restored cart line is missing")
	}
	if line, ok := byID[domain.CartItemID("prod-1", "M", "red")]; !ok || line.Quantity != 1 {
		t.Errorf("cart line added during restore is missing or wrong: %+v", line)
	}
}
