package port

import (
	"context"

	"github.com/minimall/api/internal/core/domain"
)

// OrderRepository persists orders and owns the transactional mutation
// path for both orders and inventory stock.
type OrderRepository interface {
	// InTx runs fn inside one database transaction. If fn returns an
	// error the transaction is rolled back and the error is returned
	// unchanged; otherwise the transaction commits.
	InTx(ctx context.Context, fn func(tx OrderTx) error) error

	// FindByID returns domain.ErrOrderNotFound when absent. The order
	// is loaded together with its line items.
	FindByID(ctx context.Context, orderID string) (*domain.Order, error)

	// FindByIDAndMember is FindByID additionally scoped to one member.
	FindByIDAndMember(ctx context.Context, orderID string, memberID int64) (*domain.Order, error)

	// ListByMember returns the member's orders with line items, oldest
	// first. page starts at 1.
	ListByMember(ctx context.Context, memberID int64, page, size int) ([]domain.Order, error)
}

// OrderTx exposes the locked primitives available inside one
// transaction. All stock mutations must go through these methods so
// that the row-lock discipline cannot be bypassed.
type OrderTx interface {
	// LockOptions re-reads the given pairs with an exclusive row lock.
	// Rows are locked and returned in ascending (item_id, option_id)
	// order regardless of input order; that sort order is the
	// deadlock-avoidance contract, not a cosmetic detail. Soft-deleted
	// items are returned with Deleted set rather than filtered out, so
	// that stock restoration still reaches their rows.
	LockOptions(ctx context.Context, keys []domain.OptionKey) ([]domain.ItemOption, error)

	// AdjustStock adds delta (negative to reserve, positive to
	// restore) to an option's stock counter. The caller must already
	// hold the row lock via LockOptions.
	AdjustStock(ctx context.Context, optionID int64, delta int64) error

	// InsertOrder persists an order and all of its line items.
	InsertOrder(ctx context.Context, order *domain.Order) error

	// LockOrder loads an order with its line items, holding an
	// exclusive lock on the order row. Returns domain.ErrOrderNotFound
	// when absent.
	LockOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// LockOrderForMember is LockOrder scoped to one member.
	LockOrderForMember(ctx context.Context, orderID string, memberID int64) (*domain.Order, error)

	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error
}
