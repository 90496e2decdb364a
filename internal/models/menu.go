package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MenuItem is a priced dish on a restaurant's menu. Orders snapshot its
// name and price at placement time, so editing or deleting a menu item
// never rewrites history.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID           string    `bun:"id,pk" json:"id"`
	RestaurantID string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
	Name         string    `bun:"name,notnull" json:"name"`
	Description  string    `bun:"description,nullzero" json:"description,omitempty"`
	Price        float64   `bun:"price,notnull" json:"price"`
	Available    bool      `bun:"available,notnull,default:true" json:"available"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}
