package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afrosatoshi1/STOR1/internal/config"
	"github.com/afrosatoshi1/STOR1/internal/domain"
	"github.com/afrosatoshi1/STOR1/internal/event"
	"github.com/afrosatoshi1/STOR1/internal/gateway"
	"github.com/afrosatoshi1/STOR1/internal/repository"
	"github.com/afrosatoshi1/STOR1/internal/service"
	"github.com/afrosatoshi1/STOR1/pkg/health"
	"github.com/afrosatoshi1/STOR1/pkg/httputil"
	pkgkafka "github.com/afrosatoshi1/STOR1/pkg/kafka"
	"github.com/afrosatoshi1/STOR1/pkg/middleware"
)

// --- Mock repositories ---

type mockCartRepository struct {
	mock.Mock
}

func (m *mockCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) error {
	args := m.Called(ctx, cart, expectedVersion)
	return args.Error(0)
}

func (m *mockCartRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockCheckoutRepository struct {
	mock.Mock
}

func (m *mockCheckoutRepository) Get(ctx context.Context, userID string) (*domain.CheckoutSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSnapshot), args.Error(1)
}

func (m *mockCheckoutRepository) Save(ctx context.Context, snapshot *domain.CheckoutSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *mockCheckoutRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) GetByReference(ctx context.Context, reference string) (*domain.Order, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id int64, from, to string) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, activeOnly bool, category string, page, perPage int) ([]domain.Product, int, error) {
	args := m.Called(ctx, activeOnly, category, page, perPage)
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) Update(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockProductRepository) SetActive(ctx context.Context, id int64, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *mockProductRepository) IncrementViews(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Name() string { return "mock" }

func (m *mockVerifier) Verify(ctx context.Context, reference string) (*gateway.VerificationResult, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.VerificationResult), args.Error(1)
}

// nopPublisher drops events so handler tests don't need a broker.
type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	return nil
}

// --- Test setup ---

type testRepos struct {
	carts     *mockCartRepository
	checkouts *mockCheckoutRepository
	orders    *mockOrderRepository
	products  *mockProductRepository
	verifier  *mockVerifier
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter wires mock repositories through real services into the
// production router so requests exercise the full middleware chain.
func newTestRouter(t *testing.T) (http.Handler, *testRepos) {
	t.Helper()

	repos := &testRepos{
		carts:     new(mockCartRepository),
		checkouts: new(mockCheckoutRepository),
		orders:    new(mockOrderRepository),
		products:  new(mockProductRepository),
		verifier:  new(mockVerifier),
	}

	logger := testLogger()
	producer := event.NewProducer(nopPublisher{}, logger)

	cartSvc := service.NewCartService(repos.carts, repos.products, producer, logger, 24*time.Hour, "NGN")
	checkoutSvc := service.NewCheckoutService(repos.carts, repos.checkouts, repos.orders, repos.verifier, producer, logger, 30*time.Minute)
	orderSvc := service.NewOrderService(repos.orders, producer, logger)
	productSvc := service.NewProductService(repos.products, logger)

	cfg := &config.Config{
		Environment:        "development",
		RequestTimeout:     5 * time.Second,
		CORSAllowedOrigins: []string{"*"},
		CORSMaxAge:         3600,
	}

	router := NewRouter(cfg, cartSvc, checkoutSvc, orderSvc, productSvc, health.NewHandler(), logger)
	return router, repos
}

// doRequest issues a request through the router with the identity headers the
// edge proxy would set. Empty userID means an anonymous request.
func doRequest(router http.Handler, method, target string, body io.Reader, userID, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	if role != "" {
		req.Header.Set(middleware.HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeResponse reads the response body into the httputil.Response struct.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}
