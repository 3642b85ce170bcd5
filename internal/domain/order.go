package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusDispatched OrderStatus = "dispatched"
	OrderStatusCompleted  OrderStatus = "completed"
)

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusDispatched, OrderStatusCompleted:
		return true
	}
	return false
}

// OrderItem is a by-value snapshot of a cart line at checkout time
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID uuid.UUID       `json:"product_id" db:"product_id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Image     string          `json:"image" db:"image"`
	// Product is the live catalog summary, nil when the product was deleted.
	Product   *ProductSummary `json:"product,omitempty" db:"-"`
}

// ProductSummary is the current catalog view of an ordered product
type ProductSummary struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images"`
}

// Order is created pending at checkout and advanced administratively
type Order struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Items          []OrderItem     `json:"items" db:"-"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax            decimal.Decimal `json:"tax" db:"tax"`
	Shipping       decimal.Decimal `json:"shipping" db:"shipping"`
	Total          decimal.Decimal `json:"total" db:"total"`
	Status         OrderStatus     `json:"status" db:"status"`
	PaymentSession string          `json:"payment_session_id" db:"payment_session_id"`
	// StockDeducted is set once the order's lines have been taken from stock
	// and never cleared, whatever status the order moves to afterwards.
	StockDeducted  bool            `json:"-" db:"stock_deducted"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// IsGuest reports whether the order has no owning user
func (o *Order) IsGuest() bool {
	return o.UserID == nil
}

// ConsumesStock reports whether moving the order to next must decrement
// stock. It holds for the first advance past pending only.
func (o *Order) ConsumesStock(next OrderStatus) bool {
	return !o.StockDeducted &&
		(next == OrderStatusDispatched || next == OrderStatusCompleted)
}

// OwnedBy reports whether the order belongs to userID
func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}
