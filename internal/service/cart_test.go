package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afrosatoshi1/STOR1/internal/domain"
	"github.com/afrosatoshi1/STOR1/internal/event"
	apperrors "github.com/afrosatoshi1/STOR1/pkg/errors"
)

func newTestCartService(carts *mockCartRepository, products *mockProductRepository) (*CartService, *capturedPublisher) {
	producer, pub := newTestProducer()
	svc := NewCartService(carts, products, producer, newTestLogger(), 7*24*time.Hour, "NGN")
	return svc, pub
}

func activeProduct() *domain.Product {
	return &domain.Product{
		ID:     1,
		Name:   "Widget",
		Price:  2500,
		Active: true,
	}
}

func cartWithLine(userID string, version int) *domain.Cart {
	cart := domain.NewCart(userID, "NGN")
	cart.Version = version
	cart.Lines = []domain.CartLine{
		{ProductID: 1, Name: "Widget", Price: 2500, Quantity: 2},
	}
	return cart
}

// --- GetCart Tests ---

func TestGetCart_ReturnsEmptyCartWhenAbsent(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc, _ := newTestCartService(carts, products)
	ctx := context.Background()

	carts.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))

	cart, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, "user-1", cart.UserID)
	assert.Equal(t, 0, cart.Version)
}

func TestGetCart_RequiresUserID(t *testing.T) {
	svc, _ := newTestCartService(new(mockCartRepository), new(mockProductRepository))

	_, err := svc.GetCart(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- AddItem Tests ---

func TestAddItem_NewLine(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc, pub := newTestCartService(carts, products)
	ctx := context.Background()

	products.On("Get", ctx, int64(1)).Return(activeProduct(), nil)
	carts.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 0).Return(nil)

	cart, err := svc.AddItem(ctx, "user-1", 1, 2)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, int64(2500), cart.Lines[0].Price)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.Equal(t, int64(5000), cart.TotalAmount())
	assert.Contains(t, pub.published(), event.TopicCartUpdated)

	carts.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestAddItem_MergesQuantity(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc, _ := newTestCartService(carts, products)
	ctx := context.Background()

	products.On("Get", ctx, int64(1)).Return(activeProduct(), nil)
	carts.On("Get", ctx, "user-1").Return(cartWithLine("user-1", 3), nil)
	carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 3).Return(nil)

	cart, err := svc.AddItem(ctx, "user-1", 1, 3)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 5, cart.Lines[0].Quantity)

	carts.AssertExpectations(t)
}

func TestAddItem_MissingProduct(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc, _ := newTestCartService(carts, products)
	ctx := context.Background()

	products.On("Get", ctx, int64(99)).Return(nil, apperrors.NotFound("product", "99"))

	_, err := svc.AddItem(ctx, "user-1", 99, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddItem_InactiveProduct(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc, _ := newTestCartService(carts, products)
	ctx := context.Background()

	p := activeProduct()
	p.Active = false
	products.On("Get", ctx, int64(1)).Return(p, nil)

	_, err := svc.AddItem(ctx, "user-1", 1, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	svc, _ := newTestCartService(new(mockCartRepository), new(mockProductRepository))
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "user-1", 1, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.AddItem(ctx, "user-1", 1, -2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.AddItem(ctx, "user-1", 1, MaxQuantityPerItem+1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestAddItem_RetriesOnStaleVersion(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc, _ := newTestCartService(carts, products)
	ctx := context.Background()

	products.On("Get", ctx, int64(1)).Return(activeProduct(), nil)

	// First save loses the race, second attempt sees the new version and wins.
	carts.On("Get", ctx, "user-1").Return(cartWithLine("user-1", 1), nil).Once()
	carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 1).
		Return(apperrors.Conflict("cart modified concurrently")).Once()
	carts.On("Get", ctx, "user-1").Return(cartWithLine("user-1", 2), nil).Once()
	carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 2).Return(nil).Once()

	cart, err := svc.AddItem(ctx, "user-1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Lines[0].Quantity)

	carts.AssertExpectations(t)
}

func TestAddItem_GivesUpAfterRetryBudget(t *testing.T) {
	carts := new(mockCartRepository)
	products := new(mockProductRepository)
	svc, _ := newTestCartService(carts, products)
	ctx := context.Background()

	products.On("Get", ctx, int64(1)).Return(activeProduct(), nil)
	carts.On("Get", ctx, "user-1").Return(cartWithLine("user-1", 1), nil)
	carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 1).
		Return(apperrors.Conflict("cart modified concurrently"))

	_, err := svc.AddItem(ctx, "user-1", 1, 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	carts.AssertNumberOfCalls(t, "SaveIfVersion", maxSaveRetries)
}

// --- UpdateQuantity Tests ---

func TestUpdateQuantity_SetsQuantity(t *testing.T) {
	carts := new(mockCartRepository)
	svc, _ := newTestCartService(carts, new(mockProductRepository))
	ctx := context.Background()

	carts.On("Get", ctx, "user-1").Return(cartWithLine("user-1", 1), nil)
	carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 1).Return(nil)

	cart, err := svc.UpdateQuantity(ctx, "user-1", 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Lines[0].Quantity)
}

func TestUpdateQuantity_ClampsToOne(t *testing.T) {
	carts := new(mockCartRepository)
	svc, _ := newTestCartService(carts, new(mockProductRepository))
	ctx := context.Background()

	carts.On("Get", ctx, "user-1").Return(cartWithLine("user-1", 1), nil)
	carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 1).Return(nil)

	cart, err := svc.UpdateQuantity(ctx, "user-1", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
}

func TestUpdateQuantity_LineNotFound(t *testing.T) {
	carts := new(mockCartRepository)
	svc, _ := newTestCartService(carts, new(mockProductRepository))
	ctx := context.Background()

	carts.On("Get", ctx, "user-1").Return(cartWithLine("user-1", 1), nil)

	_, err := svc.UpdateQuantity(ctx, "user-1", 42, 3)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- RemoveItem Tests ---

func TestRemoveItem_RemovesLine(t *testing.T) {
	carts := new(mockCartRepository)
	svc, _ := newTestCartService(carts, new(mockProductRepository))
	ctx := context.Background()

	carts.On("Get", ctx, "user-1").Return(cartWithLine("user-1", 1), nil)
	carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 1).Return(nil)

	cart, err := svc.RemoveItem(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestRemoveItem_AbsentLineIsNoOp(t *testing.T) {
	carts := new(mockCartRepository)
	svc, _ := newTestCartService(carts, new(mockProductRepository))
	ctx := context.Background()

	carts.On("Get", ctx, "user-1").Return(cartWithLine("user-1", 1), nil)
	carts.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 1).Return(nil)

	cart, err := svc.RemoveItem(ctx, "user-1", 42)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
}

// --- ClearCart Tests ---

func TestClearCart(t *testing.T) {
	carts := new(mockCartRepository)
	svc, pub := newTestCartService(carts, new(mockProductRepository))
	ctx := context.Background()

	carts.On("Delete", ctx, "user-1").Return(nil)

	err := svc.ClearCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Contains(t, pub.published(), event.TopicCartCleared)
}
