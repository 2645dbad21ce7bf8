package port

import (
	"context"

	"github.com/minimall/api/internal/core/domain"
)

// CatalogRepository is the read surface over items and their options.
// Every method filters soft-deleted items and never takes row locks.
type CatalogRepository interface {
	// FindOptions resolves the given (itemID, optionID) pairs without
	// locking. Pairs with no matching row are simply absent from the
	// result.
	FindOptions(ctx context.Context, keys []domain.OptionKey) ([]domain.ItemOption, error)

	// GetItem returns domain.ErrItemNotFound for absent or soft-deleted items.
	GetItem(ctx context.Context, itemID int64) (*domain.Item, error)

	ListItems(ctx context.Context, page, size int) ([]domain.Item, error)

	ListOptions(ctx context.Context, itemID int64) ([]domain.ItemOption, error)
}
