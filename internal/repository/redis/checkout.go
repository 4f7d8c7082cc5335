package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/afrosatoshi1/STOR1/internal/domain"
	apperrors "github.com/afrosatoshi1/STOR1/pkg/errors"
)

const checkoutKeyPrefix = "checkout:"

// CheckoutRepository stores pending checkout snapshots in Redis. A snapshot
// lives at most its TTL; a confirm after expiry finds nothing and the user
// must initiate again.
type CheckoutRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCheckoutRepository creates a new Redis-backed checkout snapshot store.
func NewCheckoutRepository(client *redis.Client, ttl time.Duration) *CheckoutRepository {
	return &CheckoutRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves the pending snapshot for a user.
func (r *CheckoutRepository) Get(ctx context.Context, userID string) (*domain.CheckoutSnapshot, error) {
	key := checkoutKeyPrefix + userID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("checkout", userID)
		}
		return nil, fmt.Errorf("redis get checkout: %w", err)
	}

	var snapshot domain.CheckoutSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal checkout: %w", err)
	}

	return &snapshot, nil
}

// Save persists a snapshot with the configured TTL, replacing any pending one.
func (r *CheckoutRepository) Save(ctx context.Context, snapshot *domain.CheckoutSnapshot) error {
	key := checkoutKeyPrefix + snapshot.UserID

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal checkout: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set checkout: %w", err)
	}

	return nil
}

// Delete removes the pending snapshot for a user.
func (r *CheckoutRepository) Delete(ctx context.Context, userID string) error {
	key := checkoutKeyPrefix + userID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del checkout: %w", err)
	}

	return nil
}
