package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
)

// OrderConfirmation is what the order boundary hands back for a submitted cart.
type OrderConfirmation struct {
	OrderID           string          `json:"order_id"`
	SessionID         string          `json:"session_id"`
	IdentityID        string          `json:"identity_id"`
	Lines             []CartLine      `json:"lines"`
	TotalItems        int             `json:"total_items"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            OrderStatus     `json:"status"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
	PlacedAt          time.Time       `json:"placed_at"`
}

// OrderSubmission is the message sent across the order boundary.
type OrderSubmission struct {
	OrderID    string       `json:"order_id"`
	EventType  string       `json:"event_type"`
	IdentityID string       `json:"identity_id"`
	Location   string       `json:"location,omitempty"`
	Cart       CartSnapshot `json:"cart"`
}
