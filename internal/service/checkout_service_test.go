package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tina-boutique/store-service/internal/domain"
	"github.com/tina-boutique/store-service/internal/events"
	"github.com/tina-boutique/store-service/pkg/middleware"
	"go.uber.org/zap"
)

// fakeStockStore mimics the transactional reservation: validate every
// line against current state, then decrement all-or-nothing under one
// lock.
type fakeStockStore struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	conflicts int // inject this many conflicts before succeeding
	calls     int
}

func newFakeStockStore(products ...*domain.Product) *fakeStockStore {
	m := make(map[string]*domain.Product)
	for _, p := range products {
		m[p.ProductID] = p
	}
	return &fakeStockStore{products: m}
}

func (f *fakeStockStore) ReserveStock(ctx context.Context, lines []domain.CartItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.conflicts > 0 {
		f.conflicts--
		return domain.ErrTransactionConflict
	}

	type decrement struct {
		product *domain.Product
		idx     int
		qty     int
	}
	var decrements []decrement

	for _, line := range lines {
		product, ok := f.products[line.ProductID]
		if !ok {
			return &domain.ReservationError{
				Reason:      domain.ReasonProductNotFound,
				ProductID:   line.ProductID,
				ProductName: line.Name,
			}
		}
		idx := -1
		for i, row := range product.Stock {
			if row.Size == line.Size && row.Color == line.Color {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &domain.ReservationError{
				Reason:      domain.ReasonVariantUnavailable,
				ProductID:   line.ProductID,
				ProductName: product.Name,
				Size:        line.Size,
				Color:       line.Color,
			}
		}
		if product.Stock[idx].Quantity < line.Quantity {
			return &domain.ReservationError{
				Reason:      domain.ReasonInsufficientStock,
				ProductID:   line.ProductID,
				ProductName: product.Name,
				Size:        line.Size,
				Color:       line.Color,
				Requested:   line.Quantity,
				Available:   product.Stock[idx].Quantity,
			}
		}
		decrements = append(decrements, decrement{product, idx, line.Quantity})
	}

	// All lines validated, apply atomically.
	for _, d := range decrements {
		d.product.Stock[d.idx].Quantity -= d.qty
	}
	return nil
}

func (f *fakeStockStore) quantity(productID, size, color string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.AvailableQuantity(f.products[productID].Stock, size, color)
}

type fakeOrderWriter struct {
	mu     sync.Mutex
	orders []*domain.Order
	err    error
}

func (f *fakeOrderWriter) Create(ctx context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.orders = append(f.orders, order)
	return nil
}

type fakePayments struct {
	sessionID string
	err       error
}

func (f *fakePayments) CreateSession(ctx context.Context, lines []domain.CartItem) (string, error) {
	return f.sessionID, f.err
}

type fakePublisher struct {
	published chan events.OrderCreatedEvent
}

func (f *fakePublisher) PublishOrderCreated(event events.OrderCreatedEvent) error {
	f.published <- event
	return nil
}

func checkoutProduct(id string, qty int) *domain.Product {
	return &domain.Product{
		ProductID: id,
		Name:      "Remera " + id,
		Price:     100,
		Stock:     []domain.StockItem{{Size: "M", Color: "red", Quantity: qty}},
	}
}

func checkoutLine(productID string, qty int) domain.CartItem {
	return domain.CartItem{
		ID:        domain.CartItemID(productID, "M", "red"),
		ProductID: productID,
		Name:      "Remera " + productID,
		Price:     100,
		Quantity:  qty,
		Size:      "M",
		Color:     "red",
	}
}

func customer() *domain.CustomerInfo {
	return &domain.CustomerInfo{
		FirstName: "Ana",
		LastName:  "Gomez",
		Phone:     "11-5555-0000",
		Address:   "Av. Siempre Viva 742",
		City:      "Buenos Aires",
	}
}

func newCheckout(stock StockReserver, orders OrderWriter, payments PaymentClient, publisher OrderEventPublisher) *CheckoutService {
	return NewCheckoutService(stock, orders, payments, publisher, 3, zap.NewNop())
}

func TestCheckout_DirectOrderSuccess(t *testing.T) {
	// Buying the entire stock succeeds once and drains the row; an
	// identical second attempt fails with insufficient stock.
	stock := newFakeStockStore(checkoutProduct("p1", 2))
	orders := &fakeOrderWriter{}
	svc := newCheckout(stock, orders, nil, nil)

	req := domain.CheckoutRequest{
		CartItems:    []domain.CartItem{checkoutLine("p1", 2)},
		CustomerInfo: customer(),
	}

	result, err := svc.Checkout(context.Background(), req)
	if err != nil {
		t.Fatalf("expected checkout to succeed, got %v", err)
	}
	if result.OrderID == "" {
		t.Error("expected an order id")
	}
	if got := stock.quantity("p1", "M", "red"); got != 0 {
		t.Errorf("expected stock 0 after checkout, got %d", got)
	}

	_, err = svc.Checkout(context.Background(), req)
	var resErr *domain.ReservationError
	if !errors.As(err, &resErr) || resErr.Reason != domain.ReasonInsufficientStock {
		t.Errorf("expected insufficient-stock on second checkout, got %v", err)
	}
}

func TestCheckout_OrderTotalFromSnapshots(t *testing.T) {
	stock := newFakeStockStore(checkoutProduct("p1", 10), checkoutProduct("p2", 10))
	orders := &fakeOrderWriter{}
	svc := newCheckout(stock, orders, nil, nil)

	lineA := checkoutLine("p1", 2) // 2 x 100
	lineB := checkoutLine("p2", 1)
	lineB.Price = 250 // snapshot price differs from live product

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		CartItems:    []domain.CartItem{lineA, lineB},
		CustomerInfo: customer(),
	})
	if err != nil {
		t.Fatalf("expected checkout to succeed, got %v", err)
	}

	order := orders.orders[0]
	if order.Total != 450 {
		t.Errorf("expected total 450 from snapshotted prices, got %v", order.Total)
	}
	if order.Status != domain.OrderStatusCompleted {
		t.Errorf("expected status %q, got %q", domain.OrderStatusCompleted, order.Status)
	}
	if order.CreatedAt.IsZero() {
		t.Error("expected a server-assigned creation timestamp")
	}
	if len(order.Items) != 2 {
		t.Errorf("expected 2 snapshot lines, got %d", len(order.Items))
	}
}

func TestCheckout_MultiLineFailureLeavesAllStockUntouched(t *testing.T) {
	// One valid line and one under-stocked line abort together.
	stock := newFakeStockStore(checkoutProduct("p1", 5), checkoutProduct("p2", 2))
	orders := &fakeOrderWriter{}
	svc := newCheckout(stock, orders, nil, nil)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		CartItems: []domain.CartItem{
			checkoutLine("p1", 1),
			checkoutLine("p2", 3),
		},
		CustomerInfo: customer(),
	})

	var resErr *domain.ReservationError
	if !errors.As(err, &resErr) || resErr.ProductID != "p2" {
		t.Fatalf("expected reservation error for p2, got %v", err)
	}
	if got := stock.quantity("p1", "M", "red"); got != 5 {
		t.Errorf("p1 stock must be unchanged, got %d", got)
	}
	if got := stock.quantity("p2", "M", "red"); got != 2 {
		t.Errorf("p2 stock must be unchanged, got %d", got)
	}
	if len(orders.orders) != 0 {
		t.Error("no order may be created for a failed reservation")
	}
}

func TestCheckout_NoOversellUnderConcurrency(t *testing.T) {
	// 50 concurrent single-unit checkouts against 5 units: exactly 5
	// commit.
	const initial = 5
	const shoppers = 50

	stock := newFakeStockStore(checkoutProduct("p1", initial))
	orders := &fakeOrderWriter{}
	svc := newCheckout(stock, orders, nil, nil)

	var succeeded int64
	var wg sync.WaitGroup
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
				CartItems:    []domain.CartItem{checkoutLine("p1", 1)},
				CustomerInfo: customer(),
			})
			if err == nil {
				atomic.AddInt64(&succeeded, 1)
			}
		}()
	}
	wg.Wait()

	if succeeded != initial {
		t.Errorf("expected exactly %d successful checkouts, got %d", initial, succeeded)
	}
	if got := stock.quantity("p1", "M", "red"); got != 0 {
		t.Errorf("expected stock drained to 0, got %d", got)
	}
	if len(orders.orders) != initial {
		t.Errorf("expected %d orders, got %d", initial, len(orders.orders))
	}
}

func TestCheckout_RetriesConflictsThenSucceeds(t *testing.T) {
	stock := newFakeStockStore(checkoutProduct("p1", 5))
	stock.conflicts = 2
	orders := &fakeOrderWriter{}
	svc := newCheckout(stock, orders, nil, nil)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		CartItems:    []domain.CartItem{checkoutLine("p1", 1)},
		CustomerInfo: customer(),
	})
	if err != nil {
		t.Fatalf("expected retries to absorb the conflicts, got %v", err)
	}
	if stock.calls != 3 {
		t.Errorf("expected 3 reservation attempts, got %d", stock.calls)
	}
}

func TestCheckout_SurfacesConflictAfterRetryBudget(t *testing.T) {
	stock := newFakeStockStore(checkoutProduct("p1", 5))
	stock.conflicts = 100
	svc := newCheckout(stock, &fakeOrderWriter{}, nil, nil)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		CartItems:    []domain.CartItem{checkoutLine("p1", 1)},
		CustomerInfo: customer(),
	})
	if !errors.Is(err, domain.ErrTransactionConflict) {
		t.Errorf("expected ErrTransactionConflict, got %v", err)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	svc := newCheckout(newFakeStockStore(), &fakeOrderWriter{}, nil, nil)
	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{})
	if !errors.Is(err, ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got %v", err)
	}
}

func TestCheckout_RejectsNonPositiveQuantity(t *testing.T) {
	stock := newFakeStockStore(checkoutProduct("p1", 5))
	svc := newCheckout(stock, &fakeOrderWriter{}, nil, nil)

	badLine := checkoutLine("p1", 0)
	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		CartItems:    []domain.CartItem{badLine},
		CustomerInfo: customer(),
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
	if got := stock.quantity("p1", "M", "red"); got != 5 {
		t.Errorf("stock must be unchanged, got %d", got)
	}
}

func TestCheckout_OrderCreationFailureAfterReservation(t *testing.T) {
	stock := newFakeStockStore(checkoutProduct("p1", 5))
	orders := &fakeOrderWriter{err: errors.New("table unavailable")}
	svc := newCheckout(stock, orders, nil, nil)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		CartItems:    []domain.CartItem{checkoutLine("p1", 2)},
		CustomerInfo: customer(),
	})
	if !errors.Is(err, ErrOrderCreation) {
		t.Fatalf("expected ErrOrderCreation, got %v", err)
	}
	// Stock stays decremented: there is no compensating rollback.
	if got := stock.quantity("p1", "M", "red"); got != 3 {
		t.Errorf("expected stock 3 after reservation, got %d", got)
	}
}

func TestCheckout_PaymentSessionPath(t *testing.T) {
	stock := newFakeStockStore(checkoutProduct("p1", 5))
	svc := newCheckout(stock, &fakeOrderWriter{}, &fakePayments{sessionID: "cs_test_123"}, nil)

	result, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		CartItems: []domain.CartItem{checkoutLine("p1", 1)},
	})
	if err != nil {
		t.Fatalf("expected checkout to succeed, got %v", err)
	}
	if result.SessionID != "cs_test_123" {
		t.Errorf("expected session id cs_test_123, got %q", result.SessionID)
	}
	if result.OrderID != "" {
		t.Error("session path must not create an order id")
	}
}

func TestCheckout_PaymentPathWithoutClient(t *testing.T) {
	stock := newFakeStockStore(checkoutProduct("p1", 5))
	svc := newCheckout(stock, &fakeOrderWriter{}, nil, nil)

	_, err := svc.Checkout(context.Background(), domain.CheckoutRequest{
		CartItems: []domain.CartItem{checkoutLine("p1", 1)},
	})
	if !errors.Is(err, ErrPaymentUnavailable) {
		t.Errorf("expected ErrPaymentUnavailable, got %v", err)
	}
}

func TestCheckout_PublishesOrderEvent(t *testing.T) {
	stock := newFakeStockStore(checkoutProduct("p1", 5))
	publisher := &fakePublisher{published: make(chan events.OrderCreatedEvent, 1)}
	svc := newCheckout(stock, &fakeOrderWriter{}, nil, publisher)

	ctx := middleware.WithRequestID(context.Background(), "req-42")
	result, err := svc.Checkout(ctx, domain.CheckoutRequest{
		CartItems:    []domain.CartItem{checkoutLine("p1", 2)},
		CustomerInfo: customer(),
	})
	if err != nil {
		t.Fatalf("expected checkout to succeed, got %v", err)
	}

	select {
	case event := <-publisher.published:
		if event.OrderID != result.OrderID {
			t.Errorf("event order id %q does not match checkout result %q", event.OrderID, result.OrderID)
		}
		if event.Total != 200 {
			t.Errorf("expected event total 200, got %v", event.Total)
		}
		if event.RequestID != "req-42" {
			t.Errorf("expected event to carry request id %q, got %q", "req-42", event.RequestID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for order event")
	}
}
