package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService defines the interface for order reads and administrative
// lifecycle changes.
type OrderService interface {
	GetUserOrders(ctx context.Context, identity domain.Identity) ([]*domain.Order, error)
	GetOrderByID(ctx context.Context, identity domain.Identity, id uuid.UUID) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	tx        repository.TxManager
	logger    *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orderRepo repository.OrderRepository, tx repository.TxManager, logger *zap.Logger) OrderService {
	return &orderService{orderRepo: orderRepo, tx: tx, logger: logger}
}

func (s *orderService) GetUserOrders(ctx context.Context, identity domain.Identity) ([]*domain.Order, error) {
	if identity.IsGuest() {
		return []*domain.Order{}, nil
	}
	return s.orderRepo.ListByUser(ctx, identity.UserID)
}

// GetOrderByID is visible to the order's owner and to admins
func (s *orderService) GetOrderByID(ctx context.Context, identity domain.Identity, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() && (identity.IsGuest() || !order.OwnedBy(identity.UserID)) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

// UpdateOrderStatus sets the status and, on the first advance past pending,
// decrements stock for every line and marks the order as deducted. All of it
// commits or none of it does.
func (s *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	var updated *domain.Order
	err := s.tx.WithinTx(ctx, func(repos repository.TxRepos) error {
		order, err := repos.Orders.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if order.ConsumesStock(status) {
			for _, item := range order.Items {
				ok, err := repos.Products.DecrementStock(ctx, item.ProductID, item.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s needs %d", domain.ErrInsufficientStock, item.Name, item.Quantity)
				}
			}
			if err := repos.Orders.MarkStockDeducted(ctx, id); err != nil {
				return err
			}
			order.StockDeducted = true
		}

		if err := repos.Orders.UpdateStatus(ctx, id, status); err != nil {
			return err
		}

		order.Status = status
		updated = order
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrInsufficientStock) {
			s.logger.Error("order status update failed", zap.String("order_id", id.String()), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.String("order_id", id.String()),
		zap.String("status", string(status)),
	)
	return updated, nil
}

// DeleteOrder removes the order in any state. Stock is not restored.
func (s *orderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("order deleted", zap.String("order_id", id.String()))
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
