package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Table is a physical restaurant table. ScanCode is the opaque string
// embedded in the table's QR code; customers scanning it are resolved to
// this restaurant/table pair.
type Table struct {
	bun.BaseModel `bun:"table:tables"`

	ID           string    `bun:"id,pk" json:"id"`
	RestaurantID string    `bun:"restaurant_id,notnull" json:"restaurant_id"`
	Number       int       `bun:"number,notnull" json:"number"`
	ScanCode     string    `bun:"scan_code,unique,notnull" json:"scan_code"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
