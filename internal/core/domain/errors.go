package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrItemNotFound          = errors.New("item not found")
	ErrOrderAlreadyCompleted = errors.New("order already completed")
	ErrOrderAlreadyCancelled = errors.New("order already cancelled")
	ErrEmptyOrder            = errors.New("order has no lines")
	ErrInvalidQuantity       = errors.New("order quantity must be positive")
	ErrUnknownOrderStatus    = errors.New("unknown order status")

	// ErrStoreContention marks a lock-wait timeout or deadlock abort
	// inside the store. The transaction was rolled back; callers may
	// retry.
	ErrStoreContention = errors.New("store contention")
)

// InvalidReferenceError marks a requested item/option pair that has no
// matching inventory record. One bad reference invalidates the whole
// request.
type InvalidReferenceError struct {
	Key OptionKey
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("item option not found: item %d option %d", e.Key.ItemID, e.Key.OptionID)
}

// ItemNotPublicError marks an item that stopped being purchasable
// between validation and reservation.
type ItemNotPublicError struct {
	ItemID int64
	Status ItemStatus
}

func (e *ItemNotPublicError) Error() string {
	return fmt.Sprintf("item %d is not public: status %s", e.ItemID, e.Status)
}

// OutOfStockError carries the stock value observed under lock.
type OutOfStockError struct {
	OptionID  int64
	Stock     int64
	Requested int64
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("option %d out of stock: %d left, %d requested", e.OptionID, e.Stock, e.Requested)
}
