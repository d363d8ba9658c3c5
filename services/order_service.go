package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/streetkit/apperrors"
	"github.com/yashrajoria/streetkit/logger"
	"github.com/yashrajoria/streetkit/models"
	aws_pkg "github.com/yashrajoria/streetkit/pkg/aws"
	"go.uber.org/zap"
)

// OrderService turns a session's cart into an order confirmation.
type OrderService interface {
	PlaceOrder(ctx context.Context, session models.Session) (*models.OrderConfirmation, error)
	ListOrders(ctx context.Context, sessionID string) []models.OrderConfirmation
	DiscardOrders(sessionID string)
}

type orderServiceImpl struct {
	carts   CartService
	gateway OrderGateway
	metrics aws_pkg.MetricsRecorder
	logger  *zap.Logger

	mu     sync.Mutex
	orders map[string][]models.OrderConfirmation
}

func NewOrderService(carts CartService, gateway OrderGateway, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) OrderService {
	return &orderServiceImpl{
		carts:   carts,
		gateway: gateway,
		metrics: metrics,
		logger:  logger,
		orders:  make(map[string][]models.OrderConfirmation),
	}
}

// PlaceOrder submits a snapshot of the cart. Only one checkout per session runs at a
// time, and only the submitted quantities leave the cart once the gateway confirms.
func (s *orderServiceImpl) PlaceOrder(ctx context.Context, session models.Session) (*models.OrderConfirmation, error) {
	log := logger.For(ctx, s.logger)
	store := s.carts.Store(session.SessionID)
	snapshot, err := store.BeginCheckout()
	if err != nil {
		return nil, apperrors.New(http.StatusConflict, "An order for this cart is already being placed", err)
	}
	if snapshot.IsEmpty() {
		return nil, apperrors.BadRequest("Cart is empty")
	}
	defer store.EndCheckout()

	submission := models.OrderSubmission{
		OrderID:    uuid.NewString(),
		IdentityID: session.Identity.ID,
		Location:   session.Identity.Location,
		Cart:       snapshot,
	}
	confirmation, err := s.gateway.Submit(ctx, submission)
	if err != nil {
		recordAsync(s.metrics, aws_pkg.MetricOrdersFailed)
		log.Error("Order submission failed", zap.String("order_id", submission.OrderID), zap.Error(err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.New(http.StatusServiceUnavailable, "Order service timed out, please try again", err)
		}
		return nil, apperrors.Upstream("Could not place order, please try again", err)
	}

	store.Consume(snapshot)

	s.mu.Lock()
	s.orders[session.SessionID] = append([]models.OrderConfirmation{*confirmation}, s.orders[session.SessionID]...)
	s.mu.Unlock()

	recordAsync(s.metrics, aws_pkg.MetricOrdersPlaced)
	log.Info("Order placed",
		zap.String("order_id", confirmation.OrderID),
		zap.Int("total_items", confirmation.TotalItems),
		zap.String("total_amount", confirmation.TotalAmount.StringFixed(2)))
	return confirmation, nil
}

// ListOrders returns the confirmations of this session, most recent first.
func (s *orderServiceImpl) ListOrders(_ context.Context, sessionID string) []models.OrderConfirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OrderConfirmation{}, s.orders[sessionID]...)
}

func (s *orderServiceImpl) DiscardOrders(sessionID string) {
	s.mu.Lock()
	delete(s.orders, sessionID)
	s.mu.Unlock()
}

func recordAsync(metrics aws_pkg.MetricsRecorder, name string) {
	if metrics == nil || !metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metrics.RecordCount(ctx, name, map[string]string{"Service": "streetkit"})
	}()
}
