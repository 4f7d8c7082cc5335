package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/afrosatoshi1/STOR1/internal/domain"
	"github.com/afrosatoshi1/STOR1/internal/event"
	"github.com/afrosatoshi1/STOR1/internal/gateway"
	"github.com/afrosatoshi1/STOR1/internal/repository"
	apperrors "github.com/afrosatoshi1/STOR1/pkg/errors"
)

// CheckoutService turns a cart into an order, gated by payment verification.
// The two-step flow is initiate (snapshot the cart) then confirm (verify the
// payment reference and write the order from the snapshot). The order is
// always built from the snapshot, so cart edits between the two steps cannot
// change what the user pays for.
type CheckoutService struct {
	carts     repository.CartRepository
	checkouts repository.CheckoutRepository
	orders    repository.OrderRepository
	verifier  gateway.Verifier
	producer  *event.Producer
	logger    *slog.Logger
	refLocks  *keyedMutex
	ttl       time.Duration
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	carts repository.CartRepository,
	checkouts repository.CheckoutRepository,
	orders repository.OrderRepository,
	verifier gateway.Verifier,
	producer *event.Producer,
	logger *slog.Logger,
	ttl time.Duration,
) *CheckoutService {
	return &CheckoutService{
		carts:     carts,
		checkouts: checkouts,
		orders:    orders,
		verifier:  verifier,
		producer:  producer,
		logger:    logger,
		refLocks:  newKeyedMutex(),
		ttl:       ttl,
	}
}

// Initiate snapshots the current cart into a pending checkout with a TTL.
// The snapshot freezes lines, prices, total, and currency; the order ledger
// is not touched until Confirm. An empty or absent cart is an error.
func (s *CheckoutService) Initiate(ctx context.Context, userID string) (*domain.CheckoutSnapshot, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.EmptyCart()
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.EmptyCart()
	}

	now := time.Now().UTC()
	snapshot := &domain.CheckoutSnapshot{
		ID:        uuid.New().String(),
		UserID:    userID,
		Lines:     append([]domain.CartLine(nil), cart.Lines...),
		Total:     cart.TotalAmount(),
		Currency:  cart.Currency,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	if err := s.checkouts.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("save checkout snapshot: %w", err)
	}

	if err := s.producer.PublishCheckoutInitiated(ctx, snapshot); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.initiated event",
			slog.String("checkout_id", snapshot.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout initiated",
		slog.String("checkout_id", snapshot.ID),
		slog.String("user_id", userID),
		slog.Int64("total", snapshot.Total),
	)

	return snapshot, nil
}

// Confirm verifies the payment reference with the provider and, if the money
// settled for exactly the snapshot total, writes the order. Replays of the
// same reference are idempotent: the in-process per-reference lock plus the
// unique index on orders.reference guarantee one order per reference, and
// every replay returns that order. A verifier outage is retryable and leaves
// no trace; an amount mismatch or unsettled payment leaves the cart and the
// snapshot intact so the user can retry with a fresh reference.
func (s *CheckoutService) Confirm(ctx context.Context, userID, reference string) (*domain.Order, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperrors.InvalidInput("payment reference is required")
	}

	s.refLocks.Lock(reference)
	defer s.refLocks.Unlock(reference)

	// A replayed reference short-circuits before hitting the provider again.
	existing, err := s.orders.GetByReference(ctx, reference)
	if err == nil {
		s.logger.InfoContext(ctx, "confirm replay returned existing order",
			slog.String("reference", reference),
			slog.Int64("order_id", existing.ID),
		)
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("lookup order by reference: %w", err)
	}

	snapshot, err := s.checkouts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidInput("no pending checkout, initiate first")
		}
		return nil, fmt.Errorf("get checkout snapshot: %w", err)
	}
	if snapshot.IsExpired() {
		return nil, apperrors.InvalidInput("checkout expired, initiate again")
	}

	result, err := s.verifier.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !result.Settled {
		return nil, apperrors.PaymentFailed("payment is not settled")
	}
	if result.Currency != "" && !strings.EqualFold(result.Currency, snapshot.Currency) {
		return nil, apperrors.PaymentFailed(
			fmt.Sprintf("payment settled in %s, checkout is in %s", result.Currency, snapshot.Currency))
	}
	if result.Amount != snapshot.Total {
		return nil, apperrors.AmountMismatch(snapshot.Total, result.Amount)
	}

	order := &domain.Order{
		UserID:    userID,
		Status:    domain.OrderStatusPaid,
		Items:     snapshot.OrderItems(),
		Total:     snapshot.Total,
		Currency:  snapshot.Currency,
		Reference: reference,
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateReference) {
			// Lost the race against another process; the winner's order is
			// the answer.
			return s.orders.GetByReference(ctx, reference)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	// Cleanup after a written order is best effort. A leftover cart or
	// snapshot expires on its own and never produces a second order.
	if err := s.carts.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart after checkout",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.checkouts.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete checkout snapshot",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, created); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.Int64("order_id", created.ID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.producer.PublishCartCleared(ctx, userID, "checkout"); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout confirmed",
		slog.String("user_id", userID),
		slog.String("reference", reference),
		slog.Int64("order_id", created.ID),
		slog.Int64("total", created.Total),
	)

	return created, nil
}
