package port

import "context"

// StockCache holds advisory stock snapshots for display paths. The
// locked database row stays the only authority; a stale or missing
// cache entry is never an error for callers.
type StockCache interface {
	// SetStock records the latest committed stock value for an option.
	SetStock(ctx context.Context, optionID int64, quantity int64) error

	// GetStock returns the cached value and whether a value was cached.
	GetStock(ctx context.Context, optionID int64) (int64, bool, error)
}
