package order_api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/order/order_api"
	"ms-ordering/internal/realtime"
)

func newNotificationsRouter(mockDB *MockDBLayer, feed *realtime.Feed) chi.Router {
	svc := order.NewOrderService(mockDB, new(MockMenuResolver), feed, nil, logger.NewSilentLogger())
	h := order_api.NewNotificationsHandler(logger.NewSilentLogger(), feed, svc, 10*time.Millisecond)

	r := chi.NewRouter()
	r.Get("/restaurants/{restaurantID}/notifications/stream", h.StreamRestaurantNotifications)
	r.Get("/customers/{customerID}/notifications/stream", h.StreamCustomerNotifications)
	return r
}

func streamUntil(router chi.Router, url string, publish func(), settle time.Duration) string {
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, url, nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(rec, req)
		close(done)
	}()

	// Let the initial synchronous load and snapshot write happen, then
	// push the change and give the debounced refresh time to land.
	time.Sleep(50 * time.Millisecond)
	publish()
	time.Sleep(settle)

	cancel()
	<-done
	return rec.Body.String()
}

func TestRestaurantNotificationsStreamSurfacesStatusChange(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockDB.On("GetOrdersByRestaurant", mock.Anything, "rest-1").Return([]models.Order{
		{ID: "o1", RestaurantID: "rest-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending},
	}, nil).Once()
	mockDB.On("GetOrdersByRestaurant", mock.Anything, "rest-1").Return([]models.Order{
		{ID: "o1", RestaurantID: "rest-1", Status: models.OrderPreparing, PaymentStatus: models.PaymentPending},
	}, nil)

	feed := realtime.NewFeed()
	router := newNotificationsRouter(mockDB, feed)

	body := streamUntil(router, "/restaurants/rest-1/notifications/stream", func() {
		feed.Publish(realtime.ChangeEvent{
			Table:        realtime.TableOrders,
			Action:       realtime.ActionUpdate,
			OrderID:      "o1",
			RestaurantID: "rest-1",
		})
	}, 300*time.Millisecond)

	assert.Contains(t, body, "event: snapshot")
	assert.Contains(t, body, `"type":"order-status-updated"`)
	assert.Contains(t, body, `"status":"preparing"`)
}

func TestRestaurantNotificationsStreamAnnouncesNewOrders(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockDB.On("GetOrdersByRestaurant", mock.Anything, "rest-1").Return([]models.Order{
		{ID: "o1", RestaurantID: "rest-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending},
	}, nil).Once()
	mockDB.On("GetOrdersByRestaurant", mock.Anything, "rest-1").Return([]models.Order{
		{ID: "o1", RestaurantID: "rest-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending},
		{ID: "o2", RestaurantID: "rest-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending},
	}, nil)

	feed := realtime.NewFeed()
	router := newNotificationsRouter(mockDB, feed)

	body := streamUntil(router, "/restaurants/rest-1/notifications/stream", func() {
		feed.Publish(realtime.ChangeEvent{
			Table:        realtime.TableOrders,
			Action:       realtime.ActionInsert,
			OrderID:      "o2",
			RestaurantID: "rest-1",
		})
	}, 300*time.Millisecond)

	assert.Contains(t, body, `"type":"new-order"`)
	assert.Contains(t, body, `"id":"o2"`)
}

func TestCustomerNotificationsStreamStaysSilentOnNewOrders(t *testing.T) {
	mockDB := new(MockDBLayer)
	mockDB.On("GetOrdersByCustomer", mock.Anything, "cust-1").Return([]models.Order{
		{ID: "o1", CustomerID: "cust-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending},
	}, nil).Once()
	mockDB.On("GetOrdersByCustomer", mock.Anything, "cust-1").Return([]models.Order{
		{ID: "o1", CustomerID: "cust-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending},
		{ID: "o2", CustomerID: "cust-1", Status: models.OrderPending, PaymentStatus: models.PaymentPending},
	}, nil)

	feed := realtime.NewFeed()
	router := newNotificationsRouter(mockDB, feed)

	body := streamUntil(router, "/customers/cust-1/notifications/stream", func() {
		feed.Publish(realtime.ChangeEvent{
			Table:      realtime.TableOrders,
			Action:     realtime.ActionInsert,
			OrderID:    "o2",
			CustomerID: "cust-1",
		})
	}, 300*time.Millisecond)

	assert.Contains(t, body, "event: snapshot")
	assert.NotContains(t, body, `"type":"new-order"`)
}

func TestNotificationsStreamRequiresScopeID(t *testing.T) {
	feed := realtime.NewFeed()
	router := newNotificationsRouter(new(MockDBLayer), feed)

	req := httptest.NewRequest(http.MethodGet, "/restaurants//notifications/stream", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}
