package store

import (
	"database/sql"

	"github.com/uptrace/bun"
)

// Product is a catalog entry. The policy columns are optional overrides added by
// Migrate; NULL means the default policy applies.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID               int64         `bun:"id,pk"`
	Name             string        `bun:"name,notnull"`
	Category         string        `bun:"category"`
	Price            float64       `bun:"price"`
	IsReturnable     sql.NullBool  `bun:"is_returnable"`
	ReturnWindowDays sql.NullInt64 `bun:"return_window_days"`
}

// Order is a seeded order record. Only Status (and the cancellation columns)
// are ever written by this service.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID            string         `bun:"order_id,pk"`
	ProductID          int64          `bun:"product_id,notnull"`
	UserID             string         `bun:"user_id"`
	Status             string         `bun:"status"`
	Date               string         `bun:"date"`
	DeliveredDate      sql.NullString `bun:"delivered_date"`
	CancellationReason sql.NullString `bun:"cancellation_reason"`
	UpdatedAt          sql.NullString `bun:"updated_at"`
}

// OrderRow is an order joined with its product and the product's return policy.
type OrderRow struct {
	OrderID          string         `bun:"order_id"`
	UserID           string         `bun:"user_id"`
	Status           string         `bun:"status"`
	Date             string         `bun:"date"`
	DeliveredDate    sql.NullString `bun:"delivered_date"`
	ProductID        int64          `bun:"product_id"`
	ProductName      string         `bun:"product_name"`
	IsReturnable     sql.NullBool   `bun:"is_returnable"`
	ReturnWindowDays sql.NullInt64  `bun:"return_window_days"`
}

// PriceFilter narrows a product search by price. Op is one of "<", ">", "between"
// or empty for no filter.
type PriceFilter struct {
	Op   string
	Low  float64
	High float64
}
