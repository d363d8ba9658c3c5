package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/yashrajoria/streetkit/apperrors"
	"github.com/yashrajoria/streetkit/models"
	"github.com/yashrajoria/streetkit/repository"
	"go.uber.org/zap"
)

// CatalogService is the read-only kit and product catalog.
type CatalogService interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.CatalogItem, error)
	Get(ctx context.Context, id string) (*models.CatalogItem, error)
}

type catalogServiceImpl struct {
	repo   repository.CatalogRepository
	logger *zap.Logger
}

func NewCatalogService(repo repository.CatalogRepository, logger *zap.Logger) CatalogService {
	return &catalogServiceImpl{repo: repo, logger: logger}
}

func (s *catalogServiceImpl) List(ctx context.Context, filter models.CatalogFilter) ([]models.CatalogItem, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, apperrors.BadRequest("kind must be kit or product")
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list catalog", zap.Error(err))
		return nil, apperrors.Upstream("Catalog is unavailable", err)
	}
	if items == nil {
		items = []models.CatalogItem{}
	}
	return items, nil
}

func (s *catalogServiceImpl) Get(ctx context.Context, id string) (*models.CatalogItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrCatalogItemNotFound) {
		return nil, apperrors.New(http.StatusNotFound, "Catalog item not found", err)
	}
	if err != nil {
		s.logger.Error("Failed to load catalog item", zap.String("item_id", id), zap.Error(err))
		return nil, apperrors.Upstream("Catalog is unavailable", err)
	}
	return item, nil
}
