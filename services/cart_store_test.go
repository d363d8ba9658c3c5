package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/streetkit/models"
)

type recordingListener struct {
	events []models.CartEvent
}

func (r *recordingListener) OnCartChanged(event models.CartEvent) {
	r.events = append(r.events, event)
}

func kit(id string, price int64) models.CartItemCandidate {
	return models.CartItemCandidate{
		ItemID:      id,
		DisplayName: "Kit " + id,
		UnitPrice:   decimal.NewFromInt(price),
		Category:    "chaat",
		Kind:        models.ItemKindKit,
	}
}

func expectedAmount(lines []models.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

func TestCartStore_RepeatedAddKeepsOneLine(t *testing.T) {
	store := NewCartStore("s1", nil)

	for i := 0; i < 7; i++ {
		_, err := store.AddItem(kit("1", 120))
		require.NoError(t, err)
	}

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 7, store.TotalItems())
	line, ok := store.Line("1")
	assert.True(t, ok)
	assert.Equal(t, 7, line.Quantity)
}

func TestCartStore_AddSameItemTwice(t *testing.T) {
	store := NewCartStore("s1", nil)

	_, _ = store.AddItem(kit("1", 850))
	line, err := store.AddItem(kit("1", 850))

	assert.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, 1, store.Len())
	assert.True(t, decimal.NewFromInt(1700).Equal(store.TotalAmount()))
}

func TestCartStore_RemoveLeavesOtherLines(t *testing.T) {
	store := NewCartStore("s1", nil)

	_, _ = store.AddItem(kit("1", 300))
	_, _ = store.AddItem(kit("2", 450))
	removed := store.RemoveItem("1")

	assert.True(t, removed)
	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "2", lines[0].ItemID)
	assert.True(t, decimal.NewFromInt(450).Equal(store.TotalAmount()))
}

func TestCartStore_TotalsConsistentAfterEveryMutation(t *testing.T) {
	store := NewCartStore("s1", nil)
	check := func() {
		lines := store.Lines()
		assert.True(t, expectedAmount(lines).Equal(store.TotalAmount()))
		n := 0
		for _, l := range lines {
			assert.GreaterOrEqual(t, l.Quantity, 1)
			n += l.Quantity
		}
		assert.Equal(t, n, store.TotalItems())
	}

	_, _ = store.AddItem(kit("a", 99))
	check()
	_, _ = store.AddItem(kit("b", 250))
	check()
	_, _ = store.AddItem(kit("a", 99))
	check()
	_, _ = store.SetQuantity("b", 4)
	check()
	store.RemoveItem("a")
	check()
	_, _ = store.AddItem(models.CartItemCandidate{ItemID: "c", UnitPrice: decimal.RequireFromString("12.50"), Kind: models.ItemKindProduct, UnitLabel: "kg"})
	check()
	_, _ = store.SetQuantity("c", 0)
	check()
	store.Clear()
	check()
}

func TestCartStore_SetQuantityZeroEqualsRemove(t *testing.T) {
	viaSet := NewCartStore("s1", nil)
	viaRemove := NewCartStore("s2", nil)
	for _, s := range []*CartStore{viaSet, viaRemove} {
		_, _ = s.AddItem(kit("1", 300))
		_, _ = s.AddItem(kit("2", 450))
		_, _ = s.AddItem(kit("2", 450))
	}

	_, err := viaSet.SetQuantity("1", 0)
	assert.NoError(t, err)
	viaRemove.RemoveItem("1")

	_, ok := viaSet.Line("1")
	assert.False(t, ok)
	assert.Equal(t, viaRemove.Lines(), viaSet.Lines())
	assert.True(t, viaRemove.TotalAmount().Equal(viaSet.TotalAmount()))
	assert.True(t, decimal.NewFromInt(900).Equal(viaSet.TotalAmount()))
}

func TestCartStore_SetQuantityNegativeRemoves(t *testing.T) {
	store := NewCartStore("s1", nil)
	_, _ = store.AddItem(kit("1", 10))

	_, err := store.SetQuantity("1", -3)

	assert.NoError(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestCartStore_SetQuantityOnMissingLine(t *testing.T) {
	listener := &recordingListener{}
	store := NewCartStore("s1", listener)

	_, err := store.SetQuantity("1", 5)

	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, listener.events)
}

func TestCartStore_SetQuantityUpdatesInPlace(t *testing.T) {
	store := NewCartStore("s1", nil)
	_, _ = store.AddItem(kit("1", 40))
	_, _ = store.AddItem(kit("2", 60))

	line, err := store.SetQuantity("1", 5)

	assert.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, "1", store.Lines()[0].ItemID, "order is preserved")
	assert.Equal(t, 6, store.TotalItems())
	assert.True(t, decimal.NewFromInt(260).Equal(store.TotalAmount()))
}

func TestCartStore_ClearResetsTotals(t *testing.T) {
	store := NewCartStore("s1", nil)
	_, _ = store.AddItem(kit("1", 300))
	_, _ = store.AddItem(kit("2", 450))
	_, _ = store.SetQuantity("2", 9)

	store.Clear()

	assert.Equal(t, 0, store.TotalItems())
	assert.True(t, store.TotalAmount().IsZero())
	assert.Empty(t, store.Lines())
}

func TestCartStore_RemoveIsIdempotent(t *testing.T) {
	listener := &recordingListener{}
	store := NewCartStore("s1", listener)
	_, _ = store.AddItem(kit("1", 300))
	_, _ = store.AddItem(kit("2", 450))

	first := store.RemoveItem("1")
	after := store.Lines()
	eventsAfterFirst := len(listener.events)
	second := store.RemoveItem("1")

	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, after, store.Lines())
	assert.Len(t, listener.events, eventsAfterFirst)
}

func TestCartStore_RejectsInvalidCandidates(t *testing.T) {
	store := NewCartStore("s1", nil)

	t.Run("Negative Price", func(t *testing.T) {
		_, err := store.AddItem(kit("1", -5))
		assert.ErrorIs(t, err, ErrNegativePrice)
	})

	t.Run("Missing ID", func(t *testing.T) {
		_, err := store.AddItem(kit("  ", 5))
		assert.ErrorIs(t, err, ErrInvalidItem)
	})

	assert.Equal(t, 0, store.Len())
}

func TestCartStore_ZeroPriceAllowed(t *testing.T) {
	store := NewCartStore("s1", nil)

	_, err := store.AddItem(kit("free-sample", 0))

	assert.NoError(t, err)
	assert.Equal(t, 1, store.TotalItems())
	assert.True(t, store.TotalAmount().IsZero())
}

func TestCartStore_EmitsEvents(t *testing.T) {
	listener := &recordingListener{}
	store := NewCartStore("s1", listener)

	_, _ = store.AddItem(kit("1", 850))
	_, _ = store.AddItem(kit("1", 850))
	_, _ = store.SetQuantity("1", 3)
	_, _ = store.SetQuantity("1", 3)
	store.RemoveItem("1")
	store.Clear()
	_, _ = store.AddItem(kit("2", 10))
	store.Clear()

	types := make([]models.CartEventType, 0, len(listener.events))
	for _, e := range listener.events {
		assert.Equal(t, "s1", e.SessionID)
		types = append(types, e.EventType)
	}
	assert.Equal(t, []models.CartEventType{
		models.CartItemAdded,
		models.CartItemAdded,
		models.CartQuantityUpdated,
		models.CartItemRemoved,
		models.CartItemAdded,
		models.CartCleared,
	}, types)

	second := listener.events[1]
	assert.Equal(t, 2, second.Quantity)
	assert.Equal(t, 2, second.TotalItems)
	assert.True(t, decimal.NewFromInt(1700).Equal(second.TotalAmount))

	removed := listener.events[3]
	assert.Equal(t, "1", removed.ItemID)
	assert.Equal(t, 0, removed.TotalItems)
}

func TestCartStore_SnapshotIsACopy(t *testing.T) {
	store := NewCartStore("s1", nil)
	_, _ = store.AddItem(kit("1", 100))

	snap := store.Snapshot()
	snap.Lines[0].Quantity = 99

	line, _ := store.Line("1")
	assert.Equal(t, 1, line.Quantity)
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, 1, snap.TotalItems)
	assert.True(t, decimal.NewFromInt(100).Equal(snap.TotalAmount))
}

func TestCartStore_CheckoutHold(t *testing.T) {
	store := NewCartStore("s1", nil)

	snap, err := store.BeginCheckout()
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	_, err = store.BeginCheckout()
	require.NoError(t, err, "an empty cart is never held")

	_, _ = store.AddItem(kit("1", 100))
	snap, err = store.BeginCheckout()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalItems)

	_, err = store.BeginCheckout()
	assert.ErrorIs(t, err, ErrCheckoutPending)

	store.EndCheckout()
	_, err = store.BeginCheckout()
	assert.NoError(t, err)
}

func TestCartStore_ConsumeKeepsLaterAdditions(t *testing.T) {
	listener := &recordingListener{}
	store := NewCartStore("s1", listener)
	_, _ = store.AddItem(kit("1", 100))
	_, _ = store.AddItem(kit("2", 50))
	snap := store.Snapshot()

	_, _ = store.AddItem(kit("1", 100))
	_, _ = store.AddItem(kit("3", 10))
	listener.events = nil
	store.Consume(snap)

	lines := store.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0].ItemID)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, "3", lines[1].ItemID)
	assert.Equal(t, 2, store.TotalItems())
	assert.True(t, decimal.NewFromInt(110).Equal(store.TotalAmount()))

	require.Len(t, listener.events, 2)
	assert.Equal(t, models.CartQuantityUpdated, listener.events[0].EventType)
	assert.Equal(t, models.CartItemRemoved, listener.events[1].EventType)
	assert.Equal(t, "2", listener.events[1].ItemID)
}

func TestCartStore_ConsumeWholeCartClears(t *testing.T) {
	listener := &recordingListener{}
	store := NewCartStore("s1", listener)
	_, _ = store.AddItem(kit("1", 100))
	_, _ = store.AddItem(kit("1", 100))
	snap := store.Snapshot()
	listener.events = nil

	store.Consume(snap)
	assert.Equal(t, 0, store.Len())
	require.Len(t, listener.events, 1)
	assert.Equal(t, models.CartCleared, listener.events[0].EventType)

	store.Consume(snap)
	assert.Len(t, listener.events, 1, "nothing left to consume")
}

func TestCartStore_ConsumeAfterLineRemoved(t *testing.T) {
	store := NewCartStore("s1", nil)
	_, _ = store.AddItem(kit("1", 100))
	_, _ = store.AddItem(kit("2", 100))
	_, _ = store.AddItem(kit("2", 100))
	snap := store.Snapshot()

	store.RemoveItem("1")
	_, _ = store.SetQuantity("2", 1)
	store.Consume(snap)

	assert.Equal(t, 0, store.Len())
}
