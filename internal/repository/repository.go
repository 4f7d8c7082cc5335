package repository

import (
	"context"

	"github.com/afrosatoshi1/STOR1/internal/domain"
)

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves a cart by its user ID.
	Get(ctx context.Context, userID string) (*domain.Cart, error)

	// SaveIfVersion persists the cart only if the stored cart's version still
	// equals expectedVersion (an absent cart counts as version zero). On
	// success the saved cart carries expectedVersion+1. A stale version
	// returns a conflict error the service retries on.
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) error

	// Delete removes a cart from the store by the user ID.
	Delete(ctx context.Context, userID string) error
}

// CheckoutRepository persists checkout snapshots between initiate and confirm.
type CheckoutRepository interface {
	// Get retrieves the pending snapshot for a user.
	Get(ctx context.Context, userID string) (*domain.CheckoutSnapshot, error)

	// Save persists a snapshot with a TTL, replacing any pending one.
	Save(ctx context.Context, snapshot *domain.CheckoutSnapshot) error

	// Delete removes the pending snapshot for a user.
	Delete(ctx context.Context, userID string) error
}

// OrderRepository defines the interface for the order ledger.
type OrderRepository interface {
	// Create inserts the order and its items in one transaction and returns
	// the stored order with its assigned ID. A reference collision returns
	// ErrDuplicateReference.
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id int64) (*domain.Order, error)

	// GetByReference retrieves an order by its payment reference.
	GetByReference(ctx context.Context, reference string) (*domain.Order, error)

	// List returns orders matching the filter plus the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus moves an order from one status to another. The update is
	// guarded by the current status so concurrent admin updates cannot clobber
	// each other; a guard miss returns ErrNotFound.
	UpdateStatus(ctx context.Context, id int64, from, to string) error
}

// OrderFilter narrows List results.
type OrderFilter struct {
	UserID  string
	Status  string
	Page    int
	PerPage int
}

// ProductRepository defines the interface for the product catalog.
type ProductRepository interface {
	// Get retrieves a product by ID regardless of active state.
	Get(ctx context.Context, id int64) (*domain.Product, error)

	// List returns products plus the total count. When activeOnly is set,
	// inactive products are excluded.
	List(ctx context.Context, activeOnly bool, category string, page, perPage int) ([]domain.Product, int, error)

	// Create inserts a product and returns it with its assigned ID.
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)

	// Update rewrites a product's mutable fields.
	Update(ctx context.Context, p *domain.Product) error

	// SetActive flips the active flag.
	SetActive(ctx context.Context, id int64, active bool) error

	// IncrementViews bumps the view counter.
	IncrementViews(ctx context.Context, id int64) error
}
