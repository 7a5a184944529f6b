package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tina-boutique/store-service/internal/domain"
	"github.com/tina-boutique/store-service/internal/events"
	"github.com/tina-boutique/store-service/pkg/middleware"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("cart line quantity must be positive")
	ErrPaymentUnavailable = errors.New("payment sessions are not configured")
	// ErrOrderCreation wraps a persistence failure that happened after
	// the stock reservation already committed. Stock stays decremented;
	// there is no compensating rollback.
	ErrOrderCreation = errors.New("order creation failed")
)

// StockReserver is the sole authority allowed to decrement stock.
type StockReserver interface {
	ReserveStock(ctx context.Context, lines []domain.CartItem) error
}

type OrderWriter interface {
	Create(ctx context.Context, order *domain.Order) error
}

// PaymentClient creates a redirect-capable payment session for a
// validated, stock-reserved line list.
type PaymentClient interface {
	CreateSession(ctx context.Context, lines []domain.CartItem) (string, error)
}

type OrderEventPublisher interface {
	PublishOrderCreated(event events.OrderCreatedEvent) error
}

// CheckoutService runs the reservation transaction and, depending on the
// request, either materializes an order or hands off to the payment
// collaborator.
type CheckoutService struct {
	stock      StockReserver
	orders     OrderWriter
	payments   PaymentClient
	publisher  OrderEventPublisher
	maxRetries int
	logger     *zap.Logger
}

func NewCheckoutService(
	stock StockReserver,
	orders OrderWriter,
	payments PaymentClient,
	publisher OrderEventPublisher,
	maxRetries int,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		stock:      stock,
		orders:     orders,
		payments:   payments,
		publisher:  publisher,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	if len(req.CartItems) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range req.CartItems {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	if err := s.reserve(ctx, req.CartItems); err != nil {
		return nil, err
	}

	if req.CustomerInfo != nil {
		order, err := s.materializeOrder(ctx, req.CartItems, req.CustomerInfo)
		if err != nil {
			return nil, err
		}
		s.publishOrderCreated(ctx, order)
		return &domain.CheckoutResult{OrderID: order.OrderID}, nil
	}

	if s.payments == nil {
		return nil, ErrPaymentUnavailable
	}
	sessionID, err := s.payments.CreateSession(ctx, req.CartItems)
	if err != nil {
		s.logger.Error("Failed to create payment session after reservation", zap.Error(err))
		return nil, err
	}

	return &domain.CheckoutResult{SessionID: sessionID}, nil
}

// reserve retries the whole read-validate-write on version conflicts a
// bounded number of times, then surfaces the conflict as retryable.
func (s *CheckoutService) reserve(ctx context.Context, lines []domain.CartItem) error {
	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.stock.ReserveStock(ctx, lines)
		if !errors.Is(err, domain.ErrTransactionConflict) {
			return err
		}
		s.logger.Warn("Stock reservation conflict, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("lines", len(lines)))
	}
	return err
}

// materializeOrder runs only after the reservation committed. The order
// snapshots the cart lines; its total comes from the snapshotted prices.
func (s *CheckoutService) materializeOrder(ctx context.Context, lines []domain.CartItem, customer *domain.CustomerInfo) (*domain.Order, error) {
	order := &domain.Order{
		OrderID:    uuid.NewString(),
		FirstName:  customer.FirstName,
		LastName:   customer.LastName,
		Phone:      customer.Phone,
		Address:    customer.Address,
		City:       customer.City,
		PostalCode: customer.PostalCode,
		Items:      lines,
		Total:      domain.CartTotal(lines),
		Status:     domain.OrderStatusCompleted,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// Stock is already decremented at this point. Log loudly so an
		// operator can reconcile; the shopper sees a terminal error.
		s.logger.Error("Order creation failed after committed stock reservation",
			zap.String("order_id", order.OrderID),
			zap.Float64("total", order.Total),
			zap.Int("lines", len(order.Items)),
			zap.Error(err))
		return nil, errors.Join(ErrOrderCreation, err)
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.OrderID),
		zap.Float64("total", order.Total),
		zap.Int("lines", len(order.Items)))

	return order, nil
}

func (s *CheckoutService) publishOrderCreated(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}

	items := make([]events.OrderItem, 0, len(order.Items))
	for _, line := range order.Items {
		items = append(items, events.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Size:        line.Size,
			Color:       line.Color,
			Quantity:    line.Quantity,
			Price:       line.Price,
		})
	}
	event := events.OrderCreatedEvent{
		EventID:   uuid.NewString(),
		OrderID:   order.OrderID,
		RequestID: middleware.RequestIDFromContext(ctx),
		Total:     order.Total,
		Items:     items,
		Status:    string(order.Status),
		Timestamp: time.Now().UTC(),
	}

	go func() {
		if err := s.publisher.PublishOrderCreated(event); err != nil {
			s.logger.Warn("Failed to publish order event",
				zap.String("order_id", order.OrderID),
				zap.Error(err))
		}
	}()
}
