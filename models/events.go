package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartEventType names a state change of a cart.
type CartEventType string

const (
	CartItemAdded       CartEventType = "cart.item_added"
	CartItemRemoved     CartEventType = "cart.item_removed"
	CartQuantityUpdated CartEventType = "cart.quantity_updated"
	CartCleared         CartEventType = "cart.cleared"
)

// CartEvent is emitted after every state-changing cart mutation.
type CartEvent struct {
	EventType   CartEventType   `json:"event_type"`
	SessionID   string          `json:"session_id"`
	ItemID      string          `json:"item_id,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
	Quantity    int             `json:"quantity"`
	TotalItems  int             `json:"total_items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Timestamp   time.Time       `json:"timestamp"`
}

// NotificationLevel mirrors the toast variants shown by the dashboard.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationInfo    NotificationLevel = "info"
)

// Notification is a user-facing message derived from a cart event.
type Notification struct {
	ID        string            `json:"id"`
	SessionID string            `json:"-"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	CreatedAt time.Time         `json:"created_at"`
}
