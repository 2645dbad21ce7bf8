package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minimall/api/internal/core/domain"
	"github.com/minimall/api/internal/port"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	eventOrderCreated       = "order.created"
	eventOrderCancelled     = "order.cancelled"
	eventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the payload published after a committed order mutation.
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    string             `json:"order_id"`
	MemberID   int64              `json:"member_id"`
	Status     domain.OrderStatus `json:"status"`
	TotalPrice int64              `json:"total_price"`
	OccurredAt time.Time          `json:"occurred_at"`
}

type OrderService struct {
	orders  port.OrderRepository
	catalog port.CatalogRepository
	cache   port.StockCache
	events  port.Publisher
	logger  *zap.Logger
}

// NewOrderService wires the order workflow. cache and events may be nil
// when the deployment runs without Redis or Kafka.
func NewOrderService(orders port.OrderRepository, catalog port.CatalogRepository,
	cache port.StockCache, events port.Publisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		orders:  orders,
		catalog: catalog,
		cache:   cache,
		events:  events,
		logger:  logger.Named("order"),
	}
}

// CreateOrder turns the requested lines into a persisted order.
//
// It runs in two phases: a lock-free validation pass that resolves all
// referenced options in one batch read and rejects malformed requests,
// then a reservation pass that re-reads the same rows under FOR UPDATE,
// re-checks item status and stock against the locked state, decrements
// stock and persists the order atomically. Nothing is mutated unless
// every line passes.
func (s *OrderService) CreateOrder(ctx context.Context, memberID int64, lines []domain.OrderLine) (*domain.Order, error) {
	keys, err := validateLines(lines)
	if err != nil {
		return nil, err
	}

	// Phase one: cheap existence check before any lock is taken.
	found, err := s.catalog.FindOptions(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("resolve item options: %w", err)
	}
	resolved := indexByKey(found)
	for _, ln := range lines {
		if _, ok := resolved[ln.Key()]; !ok {
			return nil, &domain.InvalidReferenceError{Key: ln.Key()}
		}
	}

	order := &domain.Order{
		ID:       uuid.NewString(),
		MemberID: memberID,
		Status:   domain.OrderStatusAccepted,
	}

	// Phase two: locked re-validation, stock decrement and persist.
	var stocks map[int64]int64
	err = s.orders.InTx(ctx, func(tx port.OrderTx) error {
		locked, err := tx.LockOptions(ctx, keys)
		if err != nil {
			return err
		}
		byKey := indexByKey(locked)

		stocks = make(map[int64]int64, len(locked))
		for _, opt := range locked {
			stocks[opt.ID] = opt.StockQuantity
		}

		now := time.Now()
		items := make([]domain.OrderItem, 0, len(lines))
		var total int64
		for _, ln := range lines {
			opt, ok := byKey[ln.Key()]
			if !ok || opt.Deleted {
				// Row disappeared or was soft-deleted between
				// validation and lock.
				return &domain.InvalidReferenceError{Key: ln.Key()}
			}
			if opt.ItemStatus != domain.ItemStatusPublic {
				return &domain.ItemNotPublicError{ItemID: opt.ItemID, Status: opt.ItemStatus}
			}
			rest := stocks[opt.ID] - ln.Quantity
			if rest < 0 {
				return &domain.OutOfStockError{OptionID: opt.ID, Stock: stocks[opt.ID], Requested: ln.Quantity}
			}
			stocks[opt.ID] = rest

			if err := tx.AdjustStock(ctx, opt.ID, -ln.Quantity); err != nil {
				return err
			}

			price := opt.UnitPrice()
			items = append(items, domain.OrderItem{
				ID:       uuid.NewString(),
				OrderID:  order.ID,
				ItemID:   ln.ItemID,
				OptionID: ln.OptionID,
				Quantity: ln.Quantity,
				Price:    price,
			})
			total += price * ln.Quantity
		}

		order.Items = items
		order.TotalPrice = total
		order.CreatedAt = now
		order.UpdatedAt = now
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.refreshStockCache(ctx, stocks)
	s.publish(ctx, eventOrderCreated, order)
	return order, nil
}

// CancelOrder restores every line's stock and flips the order to
// CANCELLED, all in one transaction. Non-admin callers can only cancel
// their own orders; a terminal order is a conflict, not a no-op.
func (s *OrderService) CancelOrder(ctx context.Context, caller domain.MemberPayload, orderID string) error {
	var (
		order  *domain.Order
		stocks map[int64]int64
	)
	err := s.orders.InTx(ctx, func(tx port.OrderTx) error {
		var err error
		if caller.Admin {
			order, err = tx.LockOrder(ctx, orderID)
		} else {
			order, err = tx.LockOrderForMember(ctx, orderID, caller.ID)
		}
		if err != nil {
			return err
		}
		if err := order.EnsureMutable(); err != nil {
			return err
		}

		// Restoring stock races with concurrent reservations, so the
		// inventory rows need the same lock discipline here.
		keys := make([]domain.OptionKey, 0, len(order.Items))
		for _, it := range order.Items {
			keys = append(keys, domain.OptionKey{ItemID: it.ItemID, OptionID: it.OptionID})
		}
		locked, err := tx.LockOptions(ctx, keys)
		if err != nil {
			return err
		}

		stocks = make(map[int64]int64, len(locked))
		for _, opt := range locked {
			stocks[opt.ID] = opt.StockQuantity
		}
		for _, it := range order.Items {
			if _, ok := stocks[it.OptionID]; !ok {
				return fmt.Errorf("restore stock: option %d missing for order %s", it.OptionID, orderID)
			}
			if err := tx.AdjustStock(ctx, it.OptionID, it.Quantity); err != nil {
				return err
			}
			stocks[it.OptionID] += it.Quantity
		}

		return tx.UpdateOrderStatus(ctx, orderID, domain.OrderStatusCancelled)
	})
	if err != nil {
		return err
	}

	order.Status = domain.OrderStatusCancelled
	s.refreshStockCache(ctx, stocks)
	s.publish(ctx, eventOrderCancelled, order)
	return nil
}

// UpdateStatus overwrites the order status. Terminal states reject any
// further transition; stock is never touched.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	var order *domain.Order
	err := s.orders.InTx(ctx, func(tx port.OrderTx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.EnsureMutable(); err != nil {
			return err
		}
		return tx.UpdateOrderStatus(ctx, orderID, status)
	})
	if err != nil {
		return nil, err
	}

	order.Status = status
	s.publish(ctx, eventOrderStatusChanged, order)
	return order, nil
}

// GetOrder loads one order. Non-admin callers only see their own.
func (s *OrderService) GetOrder(ctx context.Context, caller domain.MemberPayload, orderID string) (*domain.Order, error) {
	if caller.Admin {
		return s.orders.FindByID(ctx, orderID)
	}
	return s.orders.FindByIDAndMember(ctx, orderID, caller.ID)
}

// ListOrders pages through a member's orders, oldest first. Admin
// callers may list any member's orders; everyone else is scoped to
// their own.
func (s *OrderService) ListOrders(ctx context.Context, caller domain.MemberPayload, memberID int64, page, size int) ([]domain.Order, error) {
	if !caller.Admin {
		memberID = caller.ID
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return s.orders.ListByMember(ctx, memberID, page, size)
}

// validateLines checks the request shape and returns the distinct
// option keys in ascending (itemID, optionID) order.
func validateLines(lines []domain.OrderLine) ([]domain.OptionKey, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	seen := make(map[domain.OptionKey]struct{}, len(lines))
	keys := make([]domain.OptionKey, 0, len(lines))
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		if _, ok := seen[ln.Key()]; ok {
			continue
		}
		seen[ln.Key()] = struct{}{}
		keys = append(keys, ln.Key())
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ItemID != keys[j].ItemID {
			return keys[i].ItemID < keys[j].ItemID
		}
		return keys[i].OptionID < keys[j].OptionID
	})
	return keys, nil
}

func indexByKey(options []domain.ItemOption) map[domain.OptionKey]domain.ItemOption {
	byKey := make(map[domain.OptionKey]domain.ItemOption, len(options))
	for _, opt := range options {
		byKey[opt.Key()] = opt
	}
	return byKey
}

// refreshStockCache pushes committed stock values to the display cache.
// Failures are logged and swallowed; the cache is advisory.
func (s *OrderService) refreshStockCache(ctx context.Context, stocks map[int64]int64) {
	if s.cache == nil {
		return
	}
	for optionID, qty := range stocks {
		if err := s.cache.SetStock(ctx, optionID, qty); err != nil {
			s.logger.Warn("stock cache refresh failed",
				zap.Int64("option_id", optionID), zap.Error(err))
		}
	}
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *domain.Order) {
	if s.events == nil {
		return
	}
	event := OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		MemberID:   order.MemberID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		OccurredAt: time.Now(),
	}
	if err := s.events.PublishEvent(ctx, order.ID, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event", eventType), zap.String("order_id", order.ID), zap.Error(err))
	}
}
