package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/streetkit/models"
	"github.com/yashrajoria/streetkit/services"
	"go.uber.org/zap"
)

// manualClock fires After channels only when the test says so.
type manualClock struct {
	now   time.Time
	fire  chan time.Time
	asked chan time.Duration
}

func newManualClock() *manualClock {
	return &manualClock{
		now:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		fire:  make(chan time.Time),
		asked: make(chan time.Duration, 1),
	}
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	c.asked <- d
	return c.fire
}

type instantClock struct{ now time.Time }

func (c instantClock) Now() time.Time { return c.now }

func (c instantClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type mockGateway struct {
	submitted []models.OrderSubmission
	err       error
}

func (g *mockGateway) Submit(_ context.Context, s models.OrderSubmission) (*models.OrderConfirmation, error) {
	g.submitted = append(g.submitted, s)
	if g.err != nil {
		return nil, g.err
	}
	return &models.OrderConfirmation{
		OrderID: s.OrderID, SessionID: s.Cart.SessionID, IdentityID: s.IdentityID,
		Lines: s.Cart.Lines, TotalItems: s.Cart.TotalItems, TotalAmount: s.Cart.TotalAmount,
		Status: models.OrderStatusConfirmed,
	}, nil
}

// blockingGateway holds every submission until release is closed.
type blockingGateway struct {
	mockGateway
	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

func newBlockingGateway() *blockingGateway {
	return &blockingGateway{entered: make(chan struct{}, 4), release: make(chan struct{})}
}

func (g *blockingGateway) Submit(ctx context.Context, s models.OrderSubmission) (*models.OrderConfirmation, error) {
	g.entered <- struct{}{}
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mockGateway.Submit(ctx, s)
}

func (g *blockingGateway) submissions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.submitted)
}

type placed struct {
	conf *models.OrderConfirmation
	err  error
}

func placeAsync(orders services.OrderService, session models.Session) <-chan placed {
	out := make(chan placed, 1)
	go func() {
		conf, err := orders.PlaceOrder(context.Background(), session)
		out <- placed{conf, err}
	}()
	return out
}

type mockQueue struct {
	body  string
	attrs map[string]string
	err   error
}

func (q *mockQueue) SendMessage(_ context.Context, body string, attrs map[string]string) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.body, q.attrs = body, attrs
	return "msg-1", nil
}

func vendorSession(id string) models.Session {
	return models.Session{
		SessionID: id,
		Identity:  models.Identity{ID: "vendor-1", Name: "Ravi", Role: models.RoleVendor, Location: "Chandni Chowk"},
	}
}

func TestSimulatedGateway_WaitsForClock(t *testing.T) {
	clock := newManualClock()
	gw := services.NewSimulatedGateway(clock, 1500*time.Millisecond, 48*time.Hour)
	sub := models.OrderSubmission{OrderID: "o1", IdentityID: "v", Cart: models.CartSnapshot{SessionID: "s1", TotalItems: 2}}

	done := make(chan *models.OrderConfirmation, 1)
	go func() {
		c, err := gw.Submit(context.Background(), sub)
		assert.NoError(t, err)
		done <- c
	}()

	assert.Equal(t, 1500*time.Millisecond, <-clock.asked)
	select {
	case <-done:
		t.Fatal("confirmed before the delay elapsed")
	default:
	}
	clock.fire <- clock.now

	c := <-done
	assert.Equal(t, "o1", c.OrderID)
	assert.Equal(t, models.OrderStatusConfirmed, c.Status)
	assert.Equal(t, clock.now.Add(48*time.Hour), c.EstimatedDelivery)
}

func TestSimulatedGateway_Canceled(t *testing.T) {
	clock := newManualClock()
	gw := services.NewSimulatedGateway(clock, time.Second, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() {
		_, err := gw.Submit(ctx, models.OrderSubmission{OrderID: "o1"})
		errs <- err
	}()
	<-clock.asked
	cancel()

	assert.ErrorIs(t, <-errs, context.Canceled)
}

func TestQueueGateway(t *testing.T) {
	queue := &mockQueue{}
	gw := services.NewQueueGateway(queue, instantClock{now: time.Unix(1_700_000_000, 0)}, 24*time.Hour)
	sub := models.OrderSubmission{OrderID: "o9", IdentityID: "v", Cart: models.CartSnapshot{SessionID: "s1", TotalAmount: decimal.NewFromInt(850)}}

	c, err := gw.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, "o9", c.OrderID)
	assert.Equal(t, "order.submitted", queue.attrs["event_type"])
	assert.Equal(t, "o9", queue.attrs["order_id"])

	var body models.OrderSubmission
	require.NoError(t, json.Unmarshal([]byte(queue.body), &body))
	assert.Equal(t, "order.submitted", body.EventType)
	assert.True(t, decimal.NewFromInt(850).Equal(body.Cart.TotalAmount))

	queue.err = errors.New("queue unavailable")
	_, err = gw.Submit(context.Background(), sub)
	assert.Error(t, err)
}

func TestOrderService_PlaceOrder(t *testing.T) {
	carts := newCartService(nil)
	gw := &mockGateway{}
	orders := services.NewOrderService(carts, gw, nil, zap.NewNop())
	ctx := context.Background()
	session := vendorSession("s1")

	_, err := orders.PlaceOrder(ctx, session)
	assert.Equal(t, http.StatusBadRequest, statusOf(err), "empty cart")
	assert.Empty(t, gw.submitted)

	_, _, _ = carts.AddItem(ctx, "s1", "kit-pani-puri")
	_, _, _ = carts.AddItem(ctx, "s1", "kit-pani-puri")
	_, _, _ = carts.AddItem(ctx, "s1", "prd-onion")

	conf, err := orders.PlaceOrder(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 3, conf.TotalItems)
	assert.True(t, decimal.NewFromInt(1740).Equal(conf.TotalAmount))
	require.Len(t, gw.submitted, 1)
	assert.Equal(t, "vendor-1", gw.submitted[0].IdentityID)
	assert.Equal(t, "Chandni Chowk", gw.submitted[0].Location)
	assert.True(t, carts.GetCart(ctx, "s1").IsEmpty(), "cart is cleared after confirmation")

	_, _, _ = carts.AddItem(ctx, "s1", "kit-vada-pav")
	second, err := orders.PlaceOrder(ctx, session)
	require.NoError(t, err)

	list := orders.ListOrders(ctx, "s1")
	require.Len(t, list, 2)
	assert.Equal(t, second.OrderID, list[0].OrderID, "most recent first")
	assert.Empty(t, orders.ListOrders(ctx, "s2"))

	orders.DiscardOrders("s1")
	assert.Empty(t, orders.ListOrders(ctx, "s1"))
}

func TestOrderService_GatewayFailureKeepsCart(t *testing.T) {
	carts := newCartService(nil)
	gw := &mockGateway{err: errors.New("backend down")}
	orders := services.NewOrderService(carts, gw, nil, zap.NewNop())
	ctx := context.Background()
	_, _, _ = carts.AddItem(ctx, "s1", "kit-pani-puri")

	_, err := orders.PlaceOrder(ctx, vendorSession("s1"))
	assert.Equal(t, http.StatusBadGateway, statusOf(err))
	assert.Equal(t, 1, carts.GetCart(ctx, "s1").TotalItems)
	assert.Empty(t, orders.ListOrders(ctx, "s1"))

	gw.err = context.DeadlineExceeded
	_, err = orders.PlaceOrder(ctx, vendorSession("s1"))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(err))
}

func TestOrderService_ItemsAddedDuringCheckoutStayInCart(t *testing.T) {
	carts := newCartService(nil)
	gw := newBlockingGateway()
	orders := services.NewOrderService(carts, gw, nil, zap.NewNop())
	ctx := context.Background()
	_, _, _ = carts.AddItem(ctx, "s1", "kit-pani-puri")

	result := placeAsync(orders, vendorSession("s1"))
	<-gw.entered
	_, _, _ = carts.AddItem(ctx, "s1", "prd-onion")
	_, _, _ = carts.AddItem(ctx, "s1", "kit-pani-puri")
	close(gw.release)

	res := <-result
	require.NoError(t, res.err)
	require.Len(t, res.conf.Lines, 1)
	assert.Equal(t, "kit-pani-puri", res.conf.Lines[0].ItemID)
	assert.Equal(t, 1, res.conf.TotalItems)

	cart := carts.GetCart(ctx, "s1")
	require.Len(t, cart.Lines, 2)
	assert.Equal(t, "kit-pani-puri", cart.Lines[0].ItemID)
	assert.Equal(t, 1, cart.Lines[0].Quantity)
	assert.Equal(t, "prd-onion", cart.Lines[1].ItemID)
	assert.Equal(t, 2, cart.TotalItems)
}

func TestOrderService_ConcurrentCheckoutConflicts(t *testing.T) {
	carts := newCartService(nil)
	gw := newBlockingGateway()
	orders := services.NewOrderService(carts, gw, nil, zap.NewNop())
	ctx := context.Background()
	_, _, _ = carts.AddItem(ctx, "s1", "kit-pani-puri")

	first := placeAsync(orders, vendorSession("s1"))
	<-gw.entered

	_, err := orders.PlaceOrder(ctx, vendorSession("s1"))
	assert.Equal(t, http.StatusConflict, statusOf(err))
	assert.ErrorIs(t, err, services.ErrCheckoutPending)

	close(gw.release)
	res := <-first
	require.NoError(t, res.err)
	assert.Equal(t, 1, gw.submissions(), "the cart is submitted once")
	assert.Len(t, orders.ListOrders(ctx, "s1"), 1)
	assert.True(t, carts.GetCart(ctx, "s1").IsEmpty())

	_, _, _ = carts.AddItem(ctx, "s1", "kit-vada-pav")
	_, err = orders.PlaceOrder(ctx, vendorSession("s1"))
	require.NoError(t, err, "the hold is released after the order completes")
	assert.Equal(t, 2, gw.submissions())
}

func TestOrderService_RecordsMetrics(t *testing.T) {
	carts := newCartService(nil)
	metrics := newMockMetrics()
	orders := services.NewOrderService(carts, &mockGateway{}, metrics, zap.NewNop())
	ctx := context.Background()
	_, _, _ = carts.AddItem(ctx, "s1", "kit-pani-puri")

	_, err := orders.PlaceOrder(ctx, vendorSession("s1"))
	require.NoError(t, err)
	metrics.wait(t, 1)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.counts["OrdersPlaced"])
}
