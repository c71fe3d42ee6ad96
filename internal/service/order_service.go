package service

import (
	"context"

	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports"
	"vaultmarket/pkg/apperror"

	"github.com/google/uuid"
)

// OrderService exposes read access to settled orders, scoped to the buyer.
type OrderService struct {
	orders ports.OrderRepository
}

// NewOrderService creates a new OrderService.
func NewOrderService(orders ports.OrderRepository) *OrderService {
	return &OrderService{orders: orders}
}

// GetOrder fetches one of the buyer's orders. Another buyer's order is
// indistinguishable from a missing one.
func (s *OrderService) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if order == nil || order.BuyerID != buyerID {
		return nil, apperror.ErrNotFound("Order")
	}
	return order, nil
}

// ListOrders fetches the buyer's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.orders.ListByBuyer(ctx, buyerID, limit, offset)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return orders, nil
}
