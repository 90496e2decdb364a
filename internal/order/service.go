package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/models"
	"ms-ordering/internal/order/db"
	"ms-ordering/internal/realtime"
)

// DBLayer is the order store interface consumed by the service.
type DBLayer interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrdersByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error)
	GetOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
	AssignWaiter(ctx context.Context, id string, waiterID string) error
	SetCheckoutSession(ctx context.Context, id string, sessionID string) error
	AppendStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error
}

// MenuResolver looks up menu items so line items can snapshot name and
// price at placement time.
type MenuResolver interface {
	GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
}

// ChangeEmitter receives row-level change events for local subscribers.
type ChangeEmitter interface {
	Publish(ev realtime.ChangeEvent)
}

// KafkaPublisher fans change events out to other service instances.
type KafkaPublisher interface {
	PublishChange(ev realtime.ChangeEvent) error
}

type OrderService struct {
	DB     DBLayer
	Menu   MenuResolver
	Feed   ChangeEmitter
	Kafka  KafkaPublisher
	logger *logger.Logger
}

func NewOrderService(database DBLayer, menu MenuResolver, feed ChangeEmitter, kafka KafkaPublisher, log *logger.Logger) *OrderService {
	return &OrderService{DB: database, Menu: menu, Feed: feed, Kafka: kafka, logger: log}
}

// ---------------- PLACEMENT ----------------

// PlaceOrder validates the draft, snapshots menu names and prices into
// line items, persists the order header and then the items, and emits
// change events. Header and items are two separate store calls with no
// transaction between them; a crash in between leaves a header with zero
// items, which readers tolerate.
func (s *OrderService) PlaceOrder(ctx context.Context, draft models.OrderDraft) (*models.Order, error) {
	if draft.RestaurantID == "" {
		return nil, validationf("restaurant_id is required")
	}
	if !draft.PaymentMethod.Valid() {
		return nil, validationf("unknown payment method %q", draft.PaymentMethod)
	}

	currency := draft.Currency
	if currency == "" {
		currency = "usd"
	}

	orderID := uuid.NewString()
	items := make([]models.OrderItem, 0, len(draft.Items))
	var total float64
	for _, di := range draft.Items {
		if di.Quantity <= 0 {
			return nil, validationf("item %s has non-positive quantity %d", di.MenuItemID, di.Quantity)
		}
		menuItem, err := s.Menu.GetMenuItem(ctx, di.MenuItemID)
		if err != nil {
			return nil, validationf("unknown menu item %s", di.MenuItemID)
		}
		item := models.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    orderID,
			MenuItemID: menuItem.ID,
			Name:       menuItem.Name,
			UnitPrice:  menuItem.Price,
			Quantity:   di.Quantity,
			Variant:    di.Variant,
			Notes:      di.Notes,
		}
		total += item.LineTotal()
		items = append(items, item)
	}

	order := &models.Order{
		ID:                  orderID,
		RestaurantID:        draft.RestaurantID,
		TableID:             draft.TableID,
		CustomerID:          draft.CustomerID,
		Status:              models.OrderPending,
		PaymentStatus:       models.PaymentPending,
		PaymentMethod:       draft.PaymentMethod,
		TotalAmount:         total,
		Currency:            currency,
		SpecialInstructions: draft.SpecialInstructions,
		CreatedAt:           time.Now(),
		Items:               items,
	}

	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, requestErr("create order", err)
	}
	if err := s.DB.CreateOrderItems(ctx, items); err != nil {
		return nil, requestErr("create order items", err)
	}

	s.appendHistory(ctx, orderID, models.OrderPending, models.PaymentPending, "", "order placed")

	s.logger.LogOrder("PLACE", orderID, fmt.Sprintf("%d items, total %.2f %s", len(items), total, currency))

	s.emit(realtime.ChangeEvent{
		Table:        realtime.TableOrders,
		Action:       realtime.ActionInsert,
		OrderID:      orderID,
		RestaurantID: order.RestaurantID,
		CustomerID:   order.CustomerID,
		New:          mustJSON(order),
	})
	for i := range items {
		s.emit(realtime.ChangeEvent{
			Table:   realtime.TableOrderItems,
			Action:  realtime.ActionInsert,
			OrderID: orderID,
			New:     mustJSON(items[i]),
		})
	}

	return order, nil
}

// ---------------- READS ----------------

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, requestErr("get order", err)
	}
	return order, nil
}

func (s *OrderService) OrdersByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	orders, err := s.DB.GetOrdersByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, requestErr("list restaurant orders", err)
	}
	return orders, nil
}

func (s *OrderService) OrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	orders, err := s.DB.GetOrdersByCustomer(ctx, customerID)
	if err != nil {
		return nil, requestErr("list customer orders", err)
	}
	return orders, nil
}

// ---------------- MUTATIONS ----------------

// UpdateStatus advances the order axis. The transition table is enforced:
// an invalid step writes nothing and returns a ValidationError. Repeating
// the current status is a no-op with no history side effects.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, next models.OrderStatus, actor, note string) error {
	if !next.Valid() {
		return validationf("unknown order status %q", next)
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status == next {
		return nil
	}
	if !order.Status.CanTransition(next) {
		return validationf("cannot transition order from %s to %s", order.Status, next)
	}
	if next == models.OrderCompleted && order.PaymentStatus != models.PaymentCompleted {
		return validationf("cannot complete order %s with payment status %s", id, order.PaymentStatus)
	}

	if err := s.DB.UpdateOrderStatus(ctx, id, next); err != nil {
		return requestErr("update order status", err)
	}

	s.appendHistory(ctx, id, next, order.PaymentStatus, actor, note)
	s.logger.LogOrder("STATUS", id, fmt.Sprintf("%s -> %s", order.Status, next))

	updated := *order
	updated.Status = next
	s.emitOrderUpdate(order, &updated)
	return nil
}

// UpdatePayment advances the payment axis, used by the payment
// verification path and refunds. Gated by the payment transition table.
func (s *OrderService) UpdatePayment(ctx context.Context, id string, next models.PaymentStatus, actor string) error {
	if !next.Valid() {
		return validationf("unknown payment status %q", next)
	}

	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.PaymentStatus == next {
		return nil
	}
	if !order.PaymentStatus.CanTransition(next) {
		return validationf("cannot transition payment from %s to %s", order.PaymentStatus, next)
	}

	if err := s.DB.UpdatePaymentStatus(ctx, id, next); err != nil {
		return requestErr("update payment status", err)
	}

	s.appendHistory(ctx, id, order.Status, next, actor, "payment "+string(next))
	s.logger.LogPayment("STATUS", id, fmt.Sprintf("%s -> %s", order.PaymentStatus, next))

	updated := *order
	updated.PaymentStatus = next
	s.emitOrderUpdate(order, &updated)
	return nil
}

// MarkCashPaymentReceived settles a cash-on-collection bill. Only a served
// order paying cash with payment still pending qualifies.
func (s *OrderService) MarkCashPaymentReceived(ctx context.Context, id string, actor string) error {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.PaymentMethod != models.PayCashOnCollection {
		return validationf("order %s is not cash on collection", id)
	}
	if order.Status != models.OrderServed {
		return validationf("cash can only be collected for a served order, order %s is %s", id, order.Status)
	}
	if order.PaymentStatus != models.PaymentPending {
		return validationf("payment for order %s is already %s", id, order.PaymentStatus)
	}
	return s.UpdatePayment(ctx, id, models.PaymentCompleted, actor)
}

// AssignWaiter sets or clears the staff member responsible for the order.
func (s *OrderService) AssignWaiter(ctx context.Context, id string, waiterID string) error {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}

	if err := s.DB.AssignWaiter(ctx, id, waiterID); err != nil {
		return requestErr("assign waiter", err)
	}
	s.logger.LogOrder("WAITER", id, fmt.Sprintf("assigned %q", waiterID))

	updated := *order
	updated.WaiterID = waiterID
	s.emitOrderUpdate(order, &updated)
	return nil
}

// CancelOrder is a status transition, not a deletion. Terminal orders
// cannot be cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, id string, actor, note string) error {
	return s.UpdateStatus(ctx, id, models.OrderCancelled, actor, note)
}

// AttachCheckoutSession stores the payment-session reference and moves the
// payment axis to processing.
func (s *OrderService) AttachCheckoutSession(ctx context.Context, id string, sessionID string) error {
	if err := s.DB.SetCheckoutSession(ctx, id, sessionID); err != nil {
		return requestErr("set checkout session", err)
	}
	return s.UpdatePayment(ctx, id, models.PaymentProcessing, "")
}

// AvailableActions reports which staff affordances apply to the order in
// its current state. Mirrors the gating rules the views render.
func AvailableActions(order models.Order) []string {
	var actions []string
	switch order.Status {
	case models.OrderPending:
		actions = append(actions, "start-preparing")
	case models.OrderPreparing:
		actions = append(actions, "mark-served")
	case models.OrderServed:
		if order.PaymentMethod == models.PayCashOnCollection && order.PaymentStatus == models.PaymentPending {
			actions = append(actions, "mark-payment-received")
		}
		if order.PaymentStatus == models.PaymentCompleted {
			actions = append(actions, "complete-order")
		}
	}
	if !order.Status.Terminal() {
		actions = append(actions, "cancel")
	}
	return actions
}

// ---------------- INTERNAL ----------------

// appendHistory is best-effort: a failed append is logged but never rolls
// back the status write it records.
func (s *OrderService) appendHistory(ctx context.Context, orderID string, status models.OrderStatus, payment models.PaymentStatus, actor, note string) {
	entry := &models.OrderStatusHistory{
		OrderID:       orderID,
		Status:        status,
		PaymentStatus: payment,
		Actor:         actor,
		Note:          note,
		CreatedAt:     time.Now(),
	}
	if err := s.DB.AppendStatusHistory(ctx, entry); err != nil {
		s.logger.Warn("ORDER", fmt.Sprintf("failed to append status history for %s: %v", orderID, err))
		return
	}
	s.emit(realtime.ChangeEvent{
		Table:   realtime.TableStatusHistory,
		Action:  realtime.ActionInsert,
		OrderID: orderID,
		New:     mustJSON(entry),
	})
}

func (s *OrderService) emitOrderUpdate(old, updated *models.Order) {
	s.emit(realtime.ChangeEvent{
		Table:        realtime.TableOrders,
		Action:       realtime.ActionUpdate,
		OrderID:      updated.ID,
		RestaurantID: updated.RestaurantID,
		CustomerID:   updated.CustomerID,
		Old:          mustJSON(old),
		New:          mustJSON(updated),
	})
}

// emit delivers the event locally and fans it out over Kafka. A Kafka
// publish failure degrades cross-instance liveness only, so it is logged
// and otherwise ignored.
func (s *OrderService) emit(ev realtime.ChangeEvent) {
	if s.Feed != nil {
		s.Feed.Publish(ev)
	}
	if s.Kafka != nil {
		if err := s.Kafka.PublishChange(ev); err != nil {
			s.logger.Error("KAFKA", fmt.Sprintf("failed to publish change event for order %s: %v", ev.OrderID, err))
		}
	}
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
