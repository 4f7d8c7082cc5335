package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/afrosatoshi1/STOR1/internal/domain"
	"github.com/afrosatoshi1/STOR1/internal/event"
	"github.com/afrosatoshi1/STOR1/internal/repository"
	apperrors "github.com/afrosatoshi1/STOR1/pkg/errors"
)

// OrderService implements read access to the order ledger and the admin
// status transitions.
type OrderService struct {
	orders   repository.OrderRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

// GetByID retrieves an order. Non-admins only see their own orders; an order
// belonging to someone else reads as not found rather than confirming it
// exists.
func (s *OrderService) GetByID(ctx context.Context, id int64, actor domain.Actor) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin && order.UserID != actor.UserID {
		return nil, apperrors.NotFound("order", fmt.Sprintf("%d", id))
	}

	return order, nil
}

// List returns the actor's own orders, newest first.
func (s *OrderService) List(ctx context.Context, actor domain.Actor, page, perPage int) ([]domain.Order, int, error) {
	if actor.UserID == "" {
		return nil, 0, apperrors.Unauthorized("user id is required")
	}

	return s.orders.List(ctx, repository.OrderFilter{
		UserID:  actor.UserID,
		Page:    page,
		PerPage: perPage,
	})
}

// AdminList returns orders across all users, optionally filtered by user and
// status. Admin capability only.
func (s *OrderService) AdminList(ctx context.Context, actor domain.Actor, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if !actor.IsAdmin {
		return nil, 0, apperrors.Forbidden("admin capability required")
	}

	if filter.Status != "" && !domain.IsValidStatus(filter.Status) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", filter.Status))
	}

	return s.orders.List(ctx, filter)
}

// SetStatus applies an admin status transition to an order. Only the moves
// the ledger allows go through (PAID to SHIPPED or CANCELLED, PENDING to
// FAILED); anything else is an IllegalTransition. The row update is guarded
// by the old status, so two admins racing on the same order cannot both win.
func (s *OrderService) SetStatus(ctx context.Context, id int64, newStatus string, actor domain.Actor) (*domain.Order, error) {
	if !actor.IsAdmin {
		return nil, apperrors.Forbidden("admin capability required")
	}
	if !domain.IsValidStatus(newStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", newStatus))
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.CanTransitionTo(newStatus) {
		return nil, apperrors.IllegalTransition(order.Status, newStatus)
	}

	if err := s.orders.UpdateStatus(ctx, id, order.Status, newStatus); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// The guard missed: someone else moved the order between our read
			// and the update.
			return nil, apperrors.Conflict("order status changed concurrently, please retry")
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	oldStatus := order.Status
	order.Status = newStatus

	if err := s.producer.PublishOrderStatusChanged(ctx, id, oldStatus, newStatus, actor.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.Int64("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.Int64("order_id", id),
		slog.String("old_status", oldStatus),
		slog.String("new_status", newStatus),
		slog.String("changed_by", actor.UserID),
	)

	return order, nil
}
