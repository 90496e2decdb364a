package order_api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order"
	"ms-ordering/internal/utils"
)

type Handler struct {
	OrderService *order.OrderService
	Checkout     *order.StripeCheckout
	Logger       *logger.Logger
}

// statusFor maps the error taxonomy onto HTTP codes: validation failures
// are the caller's fault, not-found is 404, everything else is a backend
// failure.
func statusFor(err error) int {
	var ve *order.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, err error) {
	utils.WriteJSON(w, statusFor(err), utils.ErrorResponse(message, err.Error()))
}

// PlaceOrder handles direct placement, the cash-on-collection path.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var draft models.OrderDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	placed, err := h.OrderService.PlaceOrder(r.Context(), draft)
	if err != nil {
		h.writeError(w, "Could not place order", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("order placed", placed))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	o, err := h.OrderService.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, "Could not fetch order", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order", o))
}

func (h *Handler) ListRestaurantOrders(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "restaurantID")

	orders, err := h.OrderService.OrdersByRestaurant(r.Context(), restaurantID)
	if err != nil {
		h.writeError(w, "Could not list orders", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("orders", orders))
}

func (h *Handler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	orders, err := h.OrderService.OrdersByCustomer(r.Context(), customerID)
	if err != nil {
		h.writeError(w, "Could not list orders", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("orders", orders))
}

// UpdateStatus advances the order axis. Invalid transitions are rejected
// by the state machine and come back as 400s.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req struct {
		Status models.OrderStatus `json:"status"`
		Actor  string             `json:"actor,omitempty"`
		Note   string             `json:"note,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.OrderService.UpdateStatus(r.Context(), orderID, req.Status, req.Actor, req.Note); err != nil {
		h.writeError(w, "Could not update order status", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("status updated", nil))
}

func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req struct {
		Status models.PaymentStatus `json:"status"`
		Actor  string               `json:"actor,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.OrderService.UpdatePayment(r.Context(), orderID, req.Status, req.Actor); err != nil {
		h.writeError(w, "Could not update payment status", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("payment updated", nil))
}

// MarkPaymentReceived settles a served cash-on-collection order.
func (h *Handler) MarkPaymentReceived(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req struct {
		Actor string `json:"actor,omitempty"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.OrderService.MarkCashPaymentReceived(r.Context(), orderID, req.Actor); err != nil {
		h.writeError(w, "Could not mark payment received", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("payment received", nil))
}

func (h *Handler) AssignWaiter(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req struct {
		WaiterID string `json:"waiter_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.OrderService.AssignWaiter(r.Context(), orderID, req.WaiterID); err != nil {
		h.writeError(w, "Could not assign waiter", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("waiter assigned", nil))
}

// Actions reports which staff affordances apply to the order right now.
func (h *Handler) Actions(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	o, err := h.OrderService.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeError(w, "Could not fetch order", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("actions", order.AvailableActions(*o)))
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	var req struct {
		Actor string `json:"actor,omitempty"`
		Note  string `json:"note,omitempty"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.OrderService.CancelOrder(r.Context(), orderID, req.Actor, req.Note); err != nil {
		h.writeError(w, "Could not cancel order", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("order cancelled", nil))
}

// CreateCheckout creates the order and its Stripe session in one call and
// returns the redirect URL.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	if h.Checkout == nil {
		http.Error(w, "Online payment is not configured", http.StatusServiceUnavailable)
		return
	}

	var draft models.OrderDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.Checkout.CreateCheckoutSession(r.Context(), draft)
	if err != nil {
		h.writeError(w, "Could not create checkout session", err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("checkout session created", session))
}

// VerifyPayment is the pull-based verification endpoint hit by the
// customer's browser on the payment return URL.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	if h.Checkout == nil {
		http.Error(w, "Online payment is not configured", http.StatusServiceUnavailable)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	verified, err := h.Checkout.VerifyPayment(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, "Could not verify payment", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("payment verification", map[string]bool{"verified": verified}))
}
