package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is a stored (product, quantity) pair. A cart holds at most one
// line per product.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CartItemProduct is the product detail resolved for a cart line
type CartItemProduct struct {
	ID     uuid.UUID       `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images"`
	Stock  int             `json:"stock"`
}

// CartItem is a cart line with its product resolved
type CartItem struct {
	Product  CartItemProduct `json:"product"`
	Quantity int             `json:"quantity"`
}

// Cart is the read model returned to callers
type Cart struct {
	Owner      string          `json:"owner"`
	Guest      bool            `json:"guest"`
	Items      []CartItem      `json:"items"`
	ItemsCount int             `json:"items_count"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// NewCart builds a cart and derives its totals from items
func NewCart(identity Identity, items []CartItem) *Cart {
	if items == nil {
		items = []CartItem{}
	}
	cart := &Cart{
		Owner: identity.Key(),
		Guest: identity.IsGuest(),
		Items: items,
	}
	cart.ItemsCount, cart.Subtotal = CartTotals(items)
	return cart
}

// CartTotals returns the sum of quantities and the sum of price*quantity
// rounded to two decimal places.
func CartTotals(items []CartItem) (int, decimal.Decimal) {
	count := 0
	subtotal := decimal.Zero
	for _, item := range items {
		count += item.Quantity
		subtotal = subtotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return count, subtotal.Round(2)
}

// IsEmpty reports whether the cart holds no units
func (c *Cart) IsEmpty() bool {
	return c.ItemsCount == 0
}
