package services

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/yashrajoria/streetkit/apperrors"
	"github.com/yashrajoria/streetkit/logger"
	"github.com/yashrajoria/streetkit/models"
	"go.uber.org/zap"
)

// CartService owns one CartStore per signed-in session.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) models.CartSnapshot
	AddItem(ctx context.Context, sessionID, itemID string) (models.CartLine, models.CartSnapshot, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (bool, models.CartSnapshot)
	SetQuantity(ctx context.Context, sessionID, itemID string, quantity int) (models.CartSnapshot, error)
	ClearCart(ctx context.Context, sessionID string) models.CartSnapshot
	Store(sessionID string) *CartStore
	DiscardCart(sessionID string)
}

type cartServiceImpl struct {
	mu       sync.Mutex
	carts    map[string]*CartStore
	catalog  CatalogService
	listener CartListener
	logger   *zap.Logger
}

// NewCartService creates a CartService. listener receives the events of every cart.
func NewCartService(catalog CatalogService, listener CartListener, logger *zap.Logger) CartService {
	return &cartServiceImpl{
		carts:    make(map[string]*CartStore),
		catalog:  catalog,
		listener: listener,
		logger:   logger,
	}
}

// Store returns the session's cart, creating an empty one on first use.
func (s *cartServiceImpl) Store(sessionID string) *CartStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	store, ok := s.carts[sessionID]
	if !ok {
		store = NewCartStore(sessionID, s.listener)
		s.carts[sessionID] = store
	}
	return store
}

func (s *cartServiceImpl) DiscardCart(sessionID string) {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
}

func (s *cartServiceImpl) GetCart(_ context.Context, sessionID string) models.CartSnapshot {
	return s.Store(sessionID).Snapshot()
}

func (s *cartServiceImpl) AddItem(ctx context.Context, sessionID, itemID string) (models.CartLine, models.CartSnapshot, error) {
	item, err := s.catalog.Get(ctx, itemID)
	if err != nil {
		return models.CartLine{}, models.CartSnapshot{}, err
	}
	if !item.Available {
		return models.CartLine{}, models.CartSnapshot{}, apperrors.Conflict(item.Name + " is currently unavailable")
	}

	store := s.Store(sessionID)
	line, err := store.AddItem(item.Candidate())
	if err != nil {
		logger.For(ctx, s.logger).Warn("Rejected catalog item", zap.String("item_id", itemID), zap.Error(err))
		return models.CartLine{}, models.CartSnapshot{}, cartError(err)
	}
	return line, store.Snapshot(), nil
}

func (s *cartServiceImpl) RemoveItem(_ context.Context, sessionID, itemID string) (bool, models.CartSnapshot) {
	store := s.Store(sessionID)
	removed := store.RemoveItem(itemID)
	return removed, store.Snapshot()
}

func (s *cartServiceImpl) SetQuantity(_ context.Context, sessionID, itemID string, quantity int) (models.CartSnapshot, error) {
	store := s.Store(sessionID)
	if _, err := store.SetQuantity(itemID, quantity); err != nil {
		return models.CartSnapshot{}, cartError(err)
	}
	return store.Snapshot(), nil
}

func (s *cartServiceImpl) ClearCart(_ context.Context, sessionID string) models.CartSnapshot {
	store := s.Store(sessionID)
	store.Clear()
	return store.Snapshot()
}

// cartError maps CartStore sentinels to HTTP-aware errors; the sentinel stays reachable via errors.Is.
func cartError(err error) error {
	switch {
	case errors.Is(err, ErrLineNotFound):
		return apperrors.New(http.StatusNotFound, "Item is not in the cart", err)
	case errors.Is(err, ErrNegativePrice), errors.Is(err, ErrInvalidItem):
		return apperrors.New(http.StatusBadRequest, err.Error(), err)
	}
	return apperrors.Internal("Cart update failed", err)
}
