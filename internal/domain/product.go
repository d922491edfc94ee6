package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry with a finite stock
type Product struct {
	ID             int64
	Name           string
	Description    string
	Price          decimal.Decimal
	InventoryCount int32
	CreatedAt      time.Time
}

// OrderItem is a single requested line of an incoming order
type OrderItem struct {
	ProductID int64
	Quantity  int32
}

// OrderLine is an order item with the unit price captured when the order was processed
type OrderLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns the unrounded UnitPrice x Quantity
func (l OrderLine) Subtotal() decimal.Decimal {
	return LineTotal(l.UnitPrice, l.Quantity)
}
