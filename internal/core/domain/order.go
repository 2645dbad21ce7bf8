package domain

import "time"

type OrderStatus string

const (
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// ParseOrderStatus maps a raw status label to an OrderStatus, rejecting
// labels outside the known set.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch s := OrderStatus(raw); s {
	case OrderStatusAccepted, OrderStatusPreparing, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled:
		return s, nil
	default:
		return "", ErrUnknownOrderStatus
	}
}

type Order struct {
	ID         string
	MemberID   int64
	Status     OrderStatus
	TotalPrice int64
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// EnsureMutable returns the conflict error matching the order's terminal
// state, or nil when the order can still transition.
func (o *Order) EnsureMutable() error {
	switch o.Status {
	case OrderStatusCompleted:
		return ErrOrderAlreadyCompleted
	case OrderStatusCancelled:
		return ErrOrderAlreadyCancelled
	default:
		return nil
	}
}

// OrderItem is one item+option+quantity line within an order. Price is
// the unit price captured at reservation time and never recomputed.
type OrderItem struct {
	ID       string
	OrderID  string
	ItemID   int64
	OptionID int64
	Quantity int64
	Price    int64
}

// OrderLine is one requested line of a not-yet-validated order.
type OrderLine struct {
	ItemID   int64
	OptionID int64
	Quantity int64
}

func (l OrderLine) Key() OptionKey {
	return OptionKey{ItemID: l.ItemID, OptionID: l.OptionID}
}

// MemberPayload is the authenticated caller identity supplied by the
// external identity provider. The core trusts it as-is.
type MemberPayload struct {
	ID    int64
	Admin bool
}
