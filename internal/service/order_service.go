package service

import (
	"context"
	"errors"

	"github.com/tina-boutique/store-service/internal/domain"
	"github.com/tina-boutique/store-service/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
)

// OrderService serves the dashboard's order screens. Orders are
// immutable snapshots; the status field is the one exception.
type OrderService struct {
	orderRepo *repository.OrderRepository
	logger    *zap.Logger
}

func NewOrderService(orderRepo *repository.OrderRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		logger:    logger,
	}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orderRepo.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, limit int32, cursor string) ([]domain.Order, string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.orderRepo.List(ctx, limit, cursor)
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		s.logger.Error("Failed to update order status",
			zap.String("order_id", orderID),
			zap.String("status", string(status)),
			zap.Error(err))
		return err
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("status", string(status)))
	return nil
}
