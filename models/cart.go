package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemKind distinguishes a ready-made ingredient kit from a single product.
type ItemKind string

const (
	ItemKindKit     ItemKind = "kit"
	ItemKindProduct ItemKind = "product"
)

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool {
	return k == ItemKindKit || k == ItemKindProduct
}

// CartItemCandidate is what a buyer asks to put into the cart.
type CartItemCandidate struct {
	ItemID      string          `json:"item_id"`
	DisplayName string          `json:"display_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Category    string          `json:"category"`
	Kind        ItemKind        `json:"kind"`
	UnitLabel   string          `json:"unit_label,omitempty"`
}

// CartLine is one distinct purchasable item held in a cart.
type CartLine struct {
	ItemID      string          `json:"item_id"`
	DisplayName string          `json:"display_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Category    string          `json:"category"`
	Kind        ItemKind        `json:"kind"`
	UnitLabel   string          `json:"unit_label,omitempty"`
	Quantity    int             `json:"quantity"`
}

// Subtotal is unit price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot is a point-in-time copy of a cart, used for order placement and responses.
type CartSnapshot struct {
	SessionID   string          `json:"session_id"`
	Lines       []CartLine      `json:"lines"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TakenAt     time.Time       `json:"taken_at"`
}

// IsEmpty reports whether the snapshot has no lines.
func (s CartSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// AddCartItemRequest is the payload for POST /cart/items.
type AddCartItemRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

// SetQuantityRequest is the payload for PUT /cart/items/:item_id.
// Zero is allowed and removes the line.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}
