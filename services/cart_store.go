package services

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yashrajoria/streetkit/models"
)

var (
	ErrInvalidItem   = errors.New("cart item must have an id")
	ErrNegativePrice = errors.New("unit price must not be negative")
	ErrLineNotFound  = errors.New("cart line not found")

	ErrCheckoutPending = errors.New("a checkout is already in progress for this cart")
)

// CartListener receives an event after every state-changing cart mutation.
type CartListener interface {
	OnCartChanged(event models.CartEvent)
}

// CartListenerFunc adapts a plain function to CartListener.
type CartListenerFunc func(event models.CartEvent)

func (f CartListenerFunc) OnCartChanged(event models.CartEvent) { f(event) }

// CartStore holds the line items of one buyer session.
//
// Lines are kept in insertion order and keyed uniquely by item id. Totals are
// computed from the lines on every read, so they cannot drift from the contents.
// Mutations that change nothing (removing an absent line, clearing an empty cart)
// emit no event.
type CartStore struct {
	mu          sync.Mutex
	sessionID   string
	lines       []models.CartLine
	checkingOut bool
	listener    CartListener
	now         func() time.Time
}

// NewCartStore returns an empty cart owned by sessionID. listener may be nil.
func NewCartStore(sessionID string, listener CartListener) *CartStore {
	return &CartStore{
		sessionID: sessionID,
		listener:  listener,
		now:       time.Now,
	}
}

// AddItem increments the quantity of an existing line or inserts a new line with quantity 1.
func (s *CartStore) AddItem(candidate models.CartItemCandidate) (models.CartLine, error) {
	if strings.TrimSpace(candidate.ItemID) == "" {
		return models.CartLine{}, ErrInvalidItem
	}
	if candidate.UnitPrice.IsNegative() {
		return models.CartLine{}, ErrNegativePrice
	}

	s.mu.Lock()
	var line models.CartLine
	if i := s.indexOf(candidate.ItemID); i >= 0 {
		s.lines[i].Quantity++
		line = s.lines[i]
	} else {
		line = models.CartLine{
			ItemID:      candidate.ItemID,
			DisplayName: candidate.DisplayName,
			UnitPrice:   candidate.UnitPrice,
			Category:    candidate.Category,
			Kind:        candidate.Kind,
			UnitLabel:   candidate.UnitLabel,
			Quantity:    1,
		}
		s.lines = append(s.lines, line)
	}
	event := s.eventLocked(models.CartItemAdded, line)
	s.mu.Unlock()

	s.emit(event)
	return line, nil
}

// RemoveItem deletes the line for itemID. It reports whether a line was removed.
func (s *CartStore) RemoveItem(itemID string) bool {
	s.mu.Lock()
	i := s.indexOf(itemID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	removed := s.lines[i]
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	removed.Quantity = 0
	event := s.eventLocked(models.CartItemRemoved, removed)
	s.mu.Unlock()

	s.emit(event)
	return true
}

// SetQuantity sets the quantity of an existing line. A quantity of zero or less
// removes the line, and is a no-op when the line is absent. A positive quantity for
// an absent line returns ErrLineNotFound and creates nothing.
func (s *CartStore) SetQuantity(itemID string, quantity int) (models.CartLine, error) {
	if quantity <= 0 {
		s.RemoveItem(itemID)
		return models.CartLine{}, nil
	}

	s.mu.Lock()
	i := s.indexOf(itemID)
	if i < 0 {
		s.mu.Unlock()
		return models.CartLine{}, ErrLineNotFound
	}
	if s.lines[i].Quantity == quantity {
		line := s.lines[i]
		s.mu.Unlock()
		return line, nil
	}
	s.lines[i].Quantity = quantity
	line := s.lines[i]
	event := s.eventLocked(models.CartQuantityUpdated, line)
	s.mu.Unlock()

	s.emit(event)
	return line, nil
}

// Clear empties the cart.
func (s *CartStore) Clear() {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return
	}
	s.lines = nil
	event := s.eventLocked(models.CartCleared, models.CartLine{})
	s.mu.Unlock()

	s.emit(event)
}

// TotalItems is the sum of all line quantities.
func (s *CartStore) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.lines)
}

// TotalAmount is the sum of unit price times quantity over all lines.
func (s *CartStore) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalAmount(s.lines)
}

// Len is the number of distinct lines.
func (s *CartStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Line returns the line for itemID, if present.
func (s *CartStore) Line(itemID string) (models.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(itemID); i >= 0 {
		return s.lines[i], true
	}
	return models.CartLine{}, false
}

// Lines returns a copy of the lines in insertion order.
func (s *CartStore) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CartLine(nil), s.lines...)
}

// Snapshot copies the cart and its totals under a single lock.
func (s *CartStore) Snapshot() models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// BeginCheckout snapshots the cart and holds it as checking out until EndCheckout.
// A second call before EndCheckout returns ErrCheckoutPending. An empty cart is
// never held.
func (s *CartStore) BeginCheckout() (models.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkingOut {
		return models.CartSnapshot{}, ErrCheckoutPending
	}
	snapshot := s.snapshotLocked()
	if !snapshot.IsEmpty() {
		s.checkingOut = true
	}
	return snapshot, nil
}

// EndCheckout releases the hold taken by BeginCheckout.
func (s *CartStore) EndCheckout() {
	s.mu.Lock()
	s.checkingOut = false
	s.mu.Unlock()
}

// Consume subtracts the quantities of snapshot from the cart. Lines added or
// incremented after the snapshot was taken survive; lines that reach zero are dropped.
func (s *CartStore) Consume(snapshot models.CartSnapshot) {
	s.mu.Lock()
	var changed []models.CartLine
	for _, taken := range snapshot.Lines {
		i := s.indexOf(taken.ItemID)
		if i < 0 {
			continue
		}
		s.lines[i].Quantity -= taken.Quantity
		line := s.lines[i]
		if line.Quantity <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			line.Quantity = 0
		}
		changed = append(changed, line)
	}
	if len(changed) == 0 {
		s.mu.Unlock()
		return
	}

	var events []models.CartEvent
	if len(s.lines) == 0 {
		s.lines = nil
		events = append(events, s.eventLocked(models.CartCleared, models.CartLine{}))
	} else {
		for _, line := range changed {
			typ := models.CartQuantityUpdated
			if line.Quantity == 0 {
				typ = models.CartItemRemoved
			}
			events = append(events, s.eventLocked(typ, line))
		}
	}
	s.mu.Unlock()

	for _, event := range events {
		s.emit(event)
	}
}

func (s *CartStore) snapshotLocked() models.CartSnapshot {
	lines := make([]models.CartLine, len(s.lines))
	copy(lines, s.lines)
	return models.CartSnapshot{
		SessionID:   s.sessionID,
		Lines:       lines,
		TotalItems:  totalItems(lines),
		TotalAmount: totalAmount(lines),
		TakenAt:     s.now(),
	}
}

func (s *CartStore) indexOf(itemID string) int {
	for i := range s.lines {
		if s.lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func (s *CartStore) eventLocked(typ models.CartEventType, line models.CartLine) models.CartEvent {
	return models.CartEvent{
		EventType:   typ,
		SessionID:   s.sessionID,
		ItemID:      line.ItemID,
		DisplayName: line.DisplayName,
		Quantity:    line.Quantity,
		TotalItems:  totalItems(s.lines),
		TotalAmount: totalAmount(s.lines),
		Timestamp:   s.now(),
	}
}

// emit runs outside the lock so listeners may read the cart.
func (s *CartStore) emit(event models.CartEvent) {
	if s.listener != nil {
		s.listener.OnCartChanged(event)
	}
}

func totalItems(lines []models.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func totalAmount(lines []models.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}
