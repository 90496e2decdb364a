package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-ordering/internal/models"
)

// ErrNotFound is returned when a targeted mutation or lookup matches no row.
var ErrNotFound = errors.New("order not found")

type DB struct {
	Bun *bun.DB
}

// ---------------- ORDERS ----------------

// CreateOrder inserts the order header. Items are persisted by a separate
// CreateOrderItems call; there is no transaction spanning the two.
func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	return err
}

// CreateOrderItems inserts all line items for an order. Empty input is a
// no-op: an order with zero items is permitted.
func (d *DB) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := d.Bun.NewInsert().Model(&items).Exec(ctx)
	return err
}

// GetOrderByID fetches one order with its items and status history.
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	orders := []models.Order{order}
	if err := d.attachRelations(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// GetOrdersByRestaurant fetches all orders for a restaurant, newest first,
// with items and history attached.
func (d *DB) GetOrdersByRestaurant(ctx context.Context, restaurantID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.attachRelations(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrdersByCustomer fetches all orders placed by a customer, newest
// first, with items and history attached.
func (d *DB) GetOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.attachRelations(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachRelations loads items and history for the given orders in two
// queries and groups them by order id.
func (d *DB) attachRelations(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderIDs := make([]string, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}

	var items []models.OrderItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("order_id IN (?)", bun.In(orderIDs)).
		Scan(ctx)
	if err != nil {
		return err
	}

	var history []models.OrderStatusHistory
	err = d.Bun.NewSelect().
		Model(&history).
		Where("order_id IN (?)", bun.In(orderIDs)).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return err
	}

	itemsByOrder := make(map[string][]models.OrderItem)
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], item)
	}
	historyByOrder := make(map[string][]models.OrderStatusHistory)
	for _, h := range history {
		historyByOrder[h.OrderID] = append(historyByOrder[h.OrderID], h)
	}

	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
		orders[i].History = historyByOrder[orders[i].ID]
	}
	return nil
}

// ---------------- TARGETED MUTATIONS ----------------

// UpdateOrderStatus sets the status column of one order.
func (d *DB) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdatePaymentStatus sets the payment_status column of one order.
func (d *DB) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("payment_status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AssignWaiter sets or clears the assigned waiter. An empty waiterID
// clears the assignment.
func (d *DB) AssignWaiter(ctx context.Context, id string, waiterID string) error {
	q := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id)
	if waiterID == "" {
		q = q.Set("waiter_id = NULL")
	} else {
		q = q.Set("waiter_id = ?", waiterID)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetCheckoutSession stores the external payment-session reference.
func (d *DB) SetCheckoutSession(ctx context.Context, id string, sessionID string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("checkout_session_id = ?", sessionID).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ---------------- STATUS HISTORY ----------------

// AppendStatusHistory adds one audit record. The history table is
// append-only; nothing ever updates or deletes rows here.
func (d *DB) AppendStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	_, err := d.Bun.NewInsert().Model(entry).Exec(ctx)
	return err
}

// GetHistoryByOrder returns the time-ordered audit trail for one order.
func (d *DB) GetHistoryByOrder(ctx context.Context, orderID string) ([]models.OrderStatusHistory, error) {
	var history []models.OrderStatusHistory
	err := d.Bun.NewSelect().
		Model(&history).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return history, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
