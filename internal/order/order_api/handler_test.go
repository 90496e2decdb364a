package order_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/order/db"
	"ms-ordering/internal/order/order_api"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateOrder(ctx context.Context, o *models.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockDBLayer) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockDBLayer) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockDBLayer) GetOrdersByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	args := m.Called(ctx, restaurantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockDBLayer) GetOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockDBLayer) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockDBLayer) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockDBLayer) AssignWaiter(ctx context.Context, id string, waiterID string) error {
	args := m.Called(ctx, id, waiterID)
	return args.Error(0)
}

func (m *MockDBLayer) SetCheckoutSession(ctx context.Context, id string, sessionID string) error {
	args := m.Called(ctx, id, sessionID)
	return args.Error(0)
}

func (m *MockDBLayer) AppendStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockMenuResolver struct {
	mock.Mock
}

func (m *MockMenuResolver) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MenuItem), args.Error(1)
}

func newRouter(mockDB *MockDBLayer, mockMenu *MockMenuResolver) chi.Router {
	svc := order.NewOrderService(mockDB, mockMenu, nil, nil, logger.NewSilentLogger())
	h := &order_api.Handler{OrderService: svc, Logger: logger.NewSilentLogger()}

	r := chi.NewRouter()
	r.Post("/orders", h.PlaceOrder)
	r.Get("/orders/{orderID}", h.GetOrder)
	r.Get("/orders/{orderID}/actions", h.Actions)
	r.Patch("/orders/{orderID}/status", h.UpdateStatus)
	r.Post("/orders/{orderID}/cancel", h.CancelOrder)
	r.Post("/checkout", h.CreateCheckout)
	r.Get("/payments/verify", h.VerifyPayment)
	return r
}

func TestGetOrderNotFoundReturns404(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockDB.On("GetOrderByID", mock.Anything, "missing").Return(nil, db.ErrNotFound)
	router := newRouter(mockDB, new(MockMenuResolver))

	req := httptest.NewRequest(http.MethodGet, "/orders/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrderReturnsOrder(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockDB.On("GetOrderByID", mock.Anything, "o1").Return(&models.Order{
		ID: "o1", RestaurantID: "rest-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending,
	}, nil)
	router := newRouter(mockDB, new(MockMenuResolver))

	req := httptest.NewRequest(http.MethodGet, "/orders/o1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "o1", resp.Data.ID)
}

func TestUpdateStatusInvalidTransitionReturns400(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockDB.On("GetOrderByID", mock.Anything, "o1").Return(&models.Order{
		ID: "o1", Status: models.OrderPending, PaymentStatus: models.PaymentPending,
	}, nil)
	router := newRouter(mockDB, new(MockMenuResolver))

	body := bytes.NewBufferString(`{"status":"served","actor":"staff-1"}`)
	req := httptest.NewRequest(http.MethodPatch, "/orders/o1/status", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockDB.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPlaceOrderReturns201(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockMenu := new(MockMenuResolver)
	mockMenu.On("GetMenuItem", mock.Anything, "pizza").Return(&models.MenuItem{
		ID: "pizza", Name: "Margherita", Price: 10.0,
	}, nil)
	mockDB.On("CreateOrder", mock.Anything, mock.Anything).Return(nil)
	mockDB.On("CreateOrderItems", mock.Anything, mock.Anything).Return(nil)
	mockDB.On("AppendStatusHistory", mock.Anything, mock.Anything).Return(nil)
	router := newRouter(mockDB, mockMenu)

	body := bytes.NewBufferString(`{
		"restaurant_id": "rest-1",
		"payment_method": "cash-on-collection",
		"items": [{"menu_item_id": "pizza", "quantity": 2}]
	}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data struct {
			TotalAmount float64 `json:"total_amount"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 20.0, resp.Data.TotalAmount)
}

func TestPlaceOrderBadBodyReturns400(t *testing.T) {
	router := newRouter(new(MockDBLayer), new(MockMenuResolver))

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActionsForPendingOrder(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockDB.On("GetOrderByID", mock.Anything, "o1").Return(&models.Order{
		ID: "o1", Status: models.OrderPending, PaymentStatus: models.PaymentPending,
	}, nil)
	router := newRouter(mockDB, new(MockMenuResolver))

	req := httptest.NewRequest(http.MethodGet, "/orders/o1/actions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []string `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"start-preparing", "cancel"}, resp.Data)
}

func TestCheckoutUnconfiguredReturns503(t *testing.T) {
	router := newRouter(new(MockDBLayer), new(MockMenuResolver))

	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/payments/verify?session_id=cs_123", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
