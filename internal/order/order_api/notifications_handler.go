package order_api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/realtime"
	"ms-ordering/internal/reconcile"
)

// Notification kinds streamed to clients.
const (
	NotifyOrderStatus   = "order-status-updated"
	NotifyPaymentStatus = "payment-status-updated"
	NotifyNewOrder      = "new-order"
	NotifyRefreshFailed = "refresh-failed"
)

// Notification is one user-facing outcome of a reconciliation pass: a
// digested "something you care about changed", as opposed to the raw
// row-level events on the change stream.
type Notification struct {
	Type  string        `json:"type"`
	Order *models.Order `json:"order,omitempty"`
	Error string        `json:"error,omitempty"`
}

// channelNotifier adapts the reconciler's callbacks onto a buffered channel
// drained by the SSE loop. Sends are non-blocking; a client too slow to
// drain its buffer misses the notification but still gets the next
// snapshot.
type channelNotifier struct {
	ch chan Notification
}

func (n *channelNotifier) push(note Notification) {
	select {
	case n.ch <- note:
	default:
	}
}

func (n *channelNotifier) OrderStatusUpdated(o models.Order) {
	n.push(Notification{Type: NotifyOrderStatus, Order: &o})
}

func (n *channelNotifier) PaymentStatusUpdated(o models.Order) {
	n.push(Notification{Type: NotifyPaymentStatus, Order: &o})
}

func (n *channelNotifier) NewOrderReceived(o models.Order) {
	n.push(Notification{Type: NotifyNewOrder, Order: &o})
}

func (n *channelNotifier) RefreshFailed(err error) {
	n.push(Notification{Type: NotifyRefreshFailed, Error: err.Error()})
}

// NotificationsHandler streams reconciled order notifications over SSE.
// Each connection owns a Watch: a scoped feed listener whose events
// schedule a debounced snapshot refetch, with the diff surfaced here as
// notifications. This is the live-view backend for the restaurant
// dashboard, the customer order list and the single-order tracker.
type NotificationsHandler struct {
	Logger   *logger.Logger
	Feed     *realtime.Feed
	Orders   *order.OrderService
	Debounce time.Duration
}

func NewNotificationsHandler(log *logger.Logger, feed *realtime.Feed, orders *order.OrderService, debounce time.Duration) *NotificationsHandler {
	return &NotificationsHandler{Logger: log, Feed: feed, Orders: orders, Debounce: debounce}
}

// StreamRestaurantNotifications is the staff dashboard feed. It is the only
// scope that announces new orders; a customer's own list growing is not
// news to the customer.
func (h *NotificationsHandler) StreamRestaurantNotifications(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")
	if restaurantID == "" {
		http.Error(w, "Restaurant ID is required", http.StatusBadRequest)
		return
	}

	fetch := func(ctx context.Context) ([]models.Order, error) {
		return h.Orders.OrdersByRestaurant(ctx, restaurantID)
	}
	h.stream(w, r, realtime.RestaurantScope(restaurantID), fetch, reconcile.WithNewOrderNotifications())
}

// StreamCustomerNotifications notifies a customer about their own orders.
func (h *NotificationsHandler) StreamCustomerNotifications(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		http.Error(w, "Customer ID is required", http.StatusBadRequest)
		return
	}

	fetch := func(ctx context.Context) ([]models.Order, error) {
		return h.Orders.OrdersByCustomer(ctx, customerID)
	}
	h.stream(w, r, realtime.CustomerScope(customerID), fetch)
}

// StreamOrderNotifications tracks a single order, the customer-facing
// tracker feed.
func (h *NotificationsHandler) StreamOrderNotifications(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}

	fetch := func(ctx context.Context) ([]models.Order, error) {
		o, err := h.Orders.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		return []models.Order{*o}, nil
	}
	h.stream(w, r, realtime.OrderScope(orderID), fetch)
}

func (h *NotificationsHandler) stream(w http.ResponseWriter, r *http.Request, scope realtime.Scope, fetch reconcile.Fetcher, opts ...reconcile.Option) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	setSSEHeaders(w)

	notifier := &channelNotifier{ch: make(chan Notification, 16)}
	watch := reconcile.NewWatch(h.Feed, scope, fetch, notifier, h.Debounce, h.Logger, opts...)
	defer watch.Close()

	// The initial load ran synchronously inside NewWatch; hand the client
	// its starting snapshot before any diffs arrive.
	snapshot, err := json.Marshal(watch.Snapshot())
	if err != nil {
		http.Error(w, "Could not render snapshot", http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
	flusher.Flush()

	h.Logger.LogRealtime(scope.String(), "notification client connected")

	ctx := r.Context()
	for {
		select {
		case note := <-notifier.ch:
			data, err := json.Marshal(note)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to serialize notification: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: notification\ndata: %s\n\n", data)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.LogRealtime(scope.String(), "notification client disconnected")
			return
		}
	}
}
