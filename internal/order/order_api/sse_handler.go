package order_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/realtime"
)

// SSEHandler streams order change events to browsers over Server-Sent
// Events. Each connection owns one scoped feed subscription, torn down
// when the client disconnects.
type SSEHandler struct {
	Logger *logger.Logger
	Feed   *realtime.Feed
}

func NewSSEHandler(log *logger.Logger, feed *realtime.Feed) *SSEHandler {
	return &SSEHandler{Logger: log, Feed: feed}
}

// StreamRestaurantOrders streams every order change for a restaurant, the
// staff dashboard feed.
func (h *SSEHandler) StreamRestaurantOrders(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")
	if restaurantID == "" {
		http.Error(w, "Restaurant ID is required", http.StatusBadRequest)
		return
	}
	h.stream(w, r, realtime.RestaurantScope(restaurantID))
}

// StreamCustomerOrders streams changes for a customer's own orders.
func (h *SSEHandler) StreamCustomerOrders(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if customerID == "" {
		http.Error(w, "Customer ID is required", http.StatusBadRequest)
		return
	}
	h.stream(w, r, realtime.CustomerScope(customerID))
}

// StreamOrder streams changes for a single order, the customer-facing
// tracker feed.
func (h *SSEHandler) StreamOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		http.Error(w, "Order ID is required", http.StatusBadRequest)
		return
	}
	h.stream(w, r, realtime.OrderScope(orderID))
}

func (h *SSEHandler) stream(w http.ResponseWriter, r *http.Request, scope realtime.Scope) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	setSSEHeaders(w)

	ctx := r.Context()
	events := make(chan realtime.ChangeEvent, 16)
	sub := h.Feed.Subscribe(scope, func(ev realtime.ChangeEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	defer sub.Unsubscribe()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"scope\":\"%s\"}\n\n", scope)
	flusher.Flush()

	h.Logger.LogRealtime(scope.String(), "SSE client connected")

	for {
		select {
		case ev := <-events:
			jsonData, err := json.Marshal(ev)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("failed to serialize change event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.LogRealtime(scope.String(), "SSE client disconnected")
			return
		}
	}
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
