package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/minimall/api/internal/core/domain"
	"github.com/minimall/api/internal/port"
)

// CatalogService serves the read-only item surface. Option listings
// overlay the cached stock snapshot when one exists; the value shown is
// allowed to be stale.
type CatalogService struct {
	catalog port.CatalogRepository
	cache   port.StockCache
	logger  *zap.Logger
}

func NewCatalogService(catalog port.CatalogRepository, cache port.StockCache, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		cache:   cache,
		logger:  logger.Named("catalog"),
	}
}

func (s *CatalogService) GetItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	return s.catalog.GetItem(ctx, itemID)
}

func (s *CatalogService) ListItems(ctx context.Context, page, size int) ([]domain.Item, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return s.catalog.ListItems(ctx, page, size)
}

func (s *CatalogService) ListOptions(ctx context.Context, itemID int64) ([]domain.ItemOption, error) {
	if _, err := s.catalog.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	options, err := s.catalog.ListOptions(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if s.cache == nil {
		return options, nil
	}

	for i := range options {
		cached, ok, err := s.cache.GetStock(ctx, options[i].ID)
		if err != nil {
			s.logger.Warn("stock cache read failed",
				zap.Int64("option_id", options[i].ID), zap.Error(err))
			continue
		}
		if ok {
			options[i].StockQuantity = cached
		}
	}
	return options, nil
}
