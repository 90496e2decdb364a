package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Discount kinds for promotions.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Promotion is a restaurant-scoped discount code. The discount is applied
// only when a bill is rendered, it is never persisted back into an order's
// total_amount.
type Promotion struct {
	bun.BaseModel `bun:"table:promotions"`

	ID           string    `bun:"id,pk" json:"id"`
	RestaurantID string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
	Code         string    `bun:"code,notnull" json:"code"`
	DiscountType string    `bun:"discount_type,notnull" json:"discount_type"`
	Value        float64   `bun:"value,notnull" json:"value"`
	ValidFrom    time.Time `bun:"valid_from,notnull" json:"valid_from"`
	ValidUntil   time.Time `bun:"valid_until,notnull" json:"valid_until"`
	MaxUses      int       `bun:"max_uses,nullzero" json:"max_uses,omitempty"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
