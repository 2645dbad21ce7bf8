package domain

import "time"

type ItemStatus string

const (
	ItemStatusPublic   ItemStatus = "PUBLIC"
	ItemStatusPrivate  ItemStatus = "PRIVATE"
	ItemStatusReserved ItemStatus = "RESERVED"
)

type Item struct {
	ID          int64
	CategoryID  int64
	Name        string
	Description string
	BasePrice   int64
	Status      ItemStatus
	OpenAt      time.Time
	Thumbnail   string
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemOption is one purchasable variant of an item. StockQuantity is
// authoritative only when the row was read under lock; unlocked reads
// may observe a stale value.
type ItemOption struct {
	ID            int64
	ItemID        int64
	Description   string
	OptionLevel   int
	OptionPrice   int64
	StockQuantity int64

	// Joined from the owning item row.
	ItemStatus ItemStatus
	BasePrice  int64
	Deleted    bool
}

// UnitPrice is the price of one unit of this option at the instant the
// row was read.
func (o ItemOption) UnitPrice() int64 {
	return o.BasePrice + o.OptionPrice
}

// OptionKey identifies an option within its owning item.
type OptionKey struct {
	ItemID   int64
	OptionID int64
}

func (o ItemOption) Key() OptionKey {
	return OptionKey{ItemID: o.ItemID, OptionID: o.ID}
}
