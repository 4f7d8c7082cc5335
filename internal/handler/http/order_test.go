package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/afrosatoshi1/STOR1/internal/domain"
	"github.com/afrosatoshi1/STOR1/internal/repository"
	apperrors "github.com/afrosatoshi1/STOR1/pkg/errors"
	"github.com/afrosatoshi1/STOR1/pkg/httputil"
)

func paidOrder(id int64, userID string) *domain.Order {
	now := time.Now().UTC()
	return &domain.Order{
		ID:     id,
		UserID: userID,
		Status: domain.OrderStatusPaid,
		Items: []domain.OrderItem{
			{ProductID: 7, Name: "Wireless Mouse", Price: 4500, Quantity: 2},
		},
		Total:     9000,
		Currency:  "NGN",
		Reference: "PSK_ref_042",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestGetOrder_Owner(t *testing.T) {
	router, repos := newTestRouter(t)

	repos.orders.On("GetByID", mock.Anything, int64(42)).Return(paidOrder(42, "user-1"), nil)

	rec := doRequest(router, http.MethodGet, "/api/v1/orders/42", nil, "user-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(42), data["id"])
	assert.Equal(t, "PAID", data["status"])
}

func TestGetOrder_StrangerSeesNotFound(t *testing.T) {
	router, repos := newTestRouter(t)

	repos.orders.On("GetByID", mock.Anything, int64(42)).Return(paidOrder(42, "user-1"), nil)

	rec := doRequest(router, http.MethodGet, "/api/v1/orders/42", nil, "user-2", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestListOrders_ScopedToCaller(t *testing.T) {
	router, repos := newTestRouter(t)

	orders := []domain.Order{*paidOrder(42, "user-1")}
	repos.orders.On("List", mock.Anything, repository.OrderFilter{UserID: "user-1", Page: 1, PerPage: 20}).
		Return(orders, 1, nil)

	rec := doRequest(router, http.MethodGet, "/api/v1/orders", nil, "user-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp httputil.PaginatedResponse[domain.Order]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.TotalCount)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(42), resp.Data[0].ID)

	repos.orders.AssertExpectations(t)
}

func TestListOrders_InvalidPage(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/api/v1/orders?page=0", nil, "user-1", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestAdminListOrders_RequiresAdminRole(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doRequest(router, http.MethodGet, "/api/v1/admin/orders", nil, "user-1", "customer")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminListOrders_FiltersByUserAndStatus(t *testing.T) {
	router, repos := newTestRouter(t)

	orders := []domain.Order{*paidOrder(42, "user-1")}
	repos.orders.On("List", mock.Anything, repository.OrderFilter{UserID: "user-1", Status: "PAID", Page: 1, PerPage: 20}).
		Return(orders, 1, nil)

	rec := doRequest(router, http.MethodGet, "/api/v1/admin/orders?user_id=user-1&status=PAID", nil, "admin-1", "admin")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp httputil.PaginatedResponse[domain.Order]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.TotalCount)

	repos.orders.AssertExpectations(t)
}

func TestUpdateOrderStatus_PaidToShipped(t *testing.T) {
	router, repos := newTestRouter(t)

	repos.orders.On("GetByID", mock.Anything, int64(42)).Return(paidOrder(42, "user-1"), nil)
	repos.orders.On("UpdateStatus", mock.Anything, int64(42), domain.OrderStatusPaid, domain.OrderStatusShipped).Return(nil)

	body, _ := json.Marshal(UpdateStatusRequest{Status: domain.OrderStatusShipped})
	rec := doRequest(router, http.MethodPut, "/api/v1/admin/orders/42/status", bytes.NewReader(body), "admin-1", "admin")

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "SHIPPED", data["status"])

	repos.orders.AssertExpectations(t)
}

func TestUpdateOrderStatus_RequiresAdminRole(t *testing.T) {
	router, _ := newTestRouter(t)

	body, _ := json.Marshal(UpdateStatusRequest{Status: domain.OrderStatusShipped})
	rec := doRequest(router, http.MethodPut, "/api/v1/admin/orders/42/status", bytes.NewReader(body), "user-1", "customer")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	body := []byte(`{"status":"LOST"}`)
	rec := doRequest(router, http.MethodPut, "/api/v1/admin/orders/42/status", bytes.NewReader(body), "admin-1", "admin")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestUpdateOrderStatus_IllegalTransition(t *testing.T) {
	router, repos := newTestRouter(t)

	shipped := paidOrder(42, "user-1")
	shipped.Status = domain.OrderStatusShipped
	repos.orders.On("GetByID", mock.Anything, int64(42)).Return(shipped, nil)

	body, _ := json.Marshal(UpdateStatusRequest{Status: domain.OrderStatusPending})
	rec := doRequest(router, http.MethodPut, "/api/v1/admin/orders/42/status", bytes.NewReader(body), "admin-1", "admin")

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ILLEGAL_TRANSITION", resp.Error.Code)
	repos.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOrderStatus_OrderNotFound(t *testing.T) {
	router, repos := newTestRouter(t)

	repos.orders.On("GetByID", mock.Anything, int64(404)).Return(nil, apperrors.NotFound("order", "404"))

	body, _ := json.Marshal(UpdateStatusRequest{Status: domain.OrderStatusCancelled})
	rec := doRequest(router, http.MethodPut, "/api/v1/admin/orders/404/status", bytes.NewReader(body), "admin-1", "admin")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
