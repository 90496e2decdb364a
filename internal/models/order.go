package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order is one customer transaction at one restaurant. Items and History
// are loaded separately and grouped by order id, not as bun relations.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID                  string        `bun:"id,pk" json:"id"`
	RestaurantID        string        `bun:"restaurant_id,notnull" json:"restaurant_id"`
	TableID             string        `bun:"table_id,nullzero" json:"table_id,omitempty"`
	CustomerID          string        `bun:"customer_id,nullzero" json:"customer_id,omitempty"`
	WaiterID            string        `bun:"waiter_id,nullzero" json:"waiter_id,omitempty"`
	Status              OrderStatus   `bun:"status,notnull" json:"status"`
	PaymentStatus       PaymentStatus `bun:"payment_status,notnull" json:"payment_status"`
	PaymentMethod       PaymentMethod `bun:"payment_method,notnull" json:"payment_method"`
	TotalAmount         float64       `bun:"total_amount,notnull" json:"total_amount"`
	Currency            string        `bun:"currency,notnull" json:"currency"`
	CheckoutSessionID   string        `bun:"checkout_session_id,nullzero" json:"checkout_session_id,omitempty"`
	SpecialInstructions string        `bun:"special_instructions,nullzero" json:"special_instructions,omitempty"`
	CreatedAt           time.Time     `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt           time.Time     `bun:"updated_at,nullzero" json:"updated_at,omitempty"`

	Items   []OrderItem          `bun:"-" json:"items"`
	History []OrderStatusHistory `bun:"-" json:"history,omitempty"`
}

// OrderItem is one line of an order. Name and UnitPrice are snapshots taken
// from the menu item at order time so historical orders stay readable after
// menu edits. Immutable once the order is placed.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID         string  `bun:"id,pk" json:"id"`
	OrderID    string  `bun:"order_id,notnull" json:"order_id"`
	MenuItemID string  `bun:"menu_item_id,notnull" json:"menu_item_id"`
	Name       string  `bun:"name,notnull" json:"name"`
	UnitPrice  float64 `bun:"unit_price,notnull" json:"unit_price"`
	Quantity   int     `bun:"quantity,notnull" json:"quantity"`
	Variant    string  `bun:"variant,nullzero" json:"variant,omitempty"`
	Notes      string  `bun:"notes,nullzero" json:"notes,omitempty"`
}

// LineTotal is unit price times quantity.
func (i OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}

// OrderStatusHistory is one append-only audit record for an order, used to
// reconstruct the customer-facing tracker timeline.
type OrderStatusHistory struct {
	bun.BaseModel `bun:"table:order_status_history"`

	ID            int64         `bun:"id,pk,autoincrement" json:"id"`
	OrderID       string        `bun:"order_id,notnull" json:"order_id"`
	Status        OrderStatus   `bun:"status,notnull" json:"status"`
	PaymentStatus PaymentStatus `bun:"payment_status,nullzero" json:"payment_status,omitempty"`
	Note          string        `bun:"note,nullzero" json:"note,omitempty"`
	Actor         string        `bun:"actor,nullzero" json:"actor,omitempty"`
	CreatedAt     time.Time     `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// OrderDraft is the input to order placement.
type OrderDraft struct {
	RestaurantID        string        `json:"restaurant_id"`
	TableID             string        `json:"table_id,omitempty"`
	CustomerID          string        `json:"customer_id,omitempty"`
	PaymentMethod       PaymentMethod `json:"payment_method"`
	Currency            string        `json:"currency,omitempty"`
	SpecialInstructions string        `json:"special_instructions,omitempty"`
	Items               []DraftItem   `json:"items"`
}

// DraftItem references a menu item by id; name and price are snapshotted
// from the menu at placement time.
type DraftItem struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Variant    string `json:"variant,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// CheckoutSession is what online checkout returns to the customer's browser.
type CheckoutSession struct {
	OrderID   string `json:"order_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
