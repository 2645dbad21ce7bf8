package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/minimall/api/internal/core/domain"
	"github.com/minimall/api/internal/port"
)

// MySQLAdapter implements port.CatalogRepository and
// port.OrderRepository on top of database/sql.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

const optionColumns = `o.id, o.item_id, o.description, o.option_level, o.option_price, o.stock_quantity,
	i.item_status, i.base_price, i.deleted`

// optionPairsClause builds a `(o.item_id, o.id) IN ((?,?),...)` clause
// for the given keys.
func optionPairsClause(keys []domain.OptionKey) (string, []any) {
	pairs := make([]string, len(keys))
	args := make([]any, 0, len(keys)*2)
	for i, k := range keys {
		pairs[i] = "(?, ?)"
		args = append(args, k.ItemID, k.OptionID)
	}
	return "(o.item_id, o.id) IN (" + strings.Join(pairs, ", ") + ")", args
}

func scanOptions(rows *sql.Rows) ([]domain.ItemOption, error) {
	var options []domain.ItemOption
	for rows.Next() {
		var opt domain.ItemOption
		if err := rows.Scan(&opt.ID, &opt.ItemID, &opt.Description, &opt.OptionLevel,
			&opt.OptionPrice, &opt.StockQuantity, &opt.ItemStatus, &opt.BasePrice, &opt.Deleted); err != nil {
			return nil, fmt.Errorf("scan item option: %w", err)
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

func (m *MySQLAdapter) FindOptions(ctx context.Context, keys []domain.OptionKey) ([]domain.ItemOption, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	clause, args := optionPairsClause(keys)
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+optionColumns+`
		FROM item_option o
		JOIN item i ON i.id = o.item_id
		WHERE i.deleted = FALSE AND `+clause+`
		ORDER BY o.item_id, o.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query item options: %w", err)
	}
	defer rows.Close()
	return scanOptions(rows)
}

func (m *MySQLAdapter) GetItem(ctx context.Context, itemID int64) (*domain.Item, error) {
	var item domain.Item
	err := m.db.QueryRowContext(ctx, `
		SELECT id, category_id, name, description, base_price, item_status, open_at, thumbnail, created_at, updated_at
		FROM item WHERE id = ? AND deleted = FALSE`, itemID,
	).Scan(&item.ID, &item.CategoryID, &item.Name, &item.Description, &item.BasePrice,
		&item.Status, &item.OpenAt, &item.Thumbnail, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item: %w", err)
	}
	return &item, nil
}

func (m *MySQLAdapter) ListItems(ctx context.Context, page, size int) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, category_id, name, description, base_price, item_status, open_at, thumbnail, created_at, updated_at
		FROM item WHERE deleted = FALSE
		ORDER BY id
		LIMIT ? OFFSET ?`, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var item domain.Item
		if err := rows.Scan(&item.ID, &item.CategoryID, &item.Name, &item.Description, &item.BasePrice,
			&item.Status, &item.OpenAt, &item.Thumbnail, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) ListOptions(ctx context.Context, itemID int64) ([]domain.ItemOption, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT `+optionColumns+`
		FROM item_option o
		JOIN item i ON i.id = o.item_id
		WHERE i.deleted = FALSE AND o.item_id = ?
		ORDER BY o.option_level, o.id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query item options: %w", err)
	}
	defer rows.Close()
	return scanOptions(rows)
}

func (m *MySQLAdapter) InTx(ctx context.Context, fn func(tx port.OrderTx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&mysqlTx{tx: tx}); err != nil {
		return mapContention(err)
	}
	if err := tx.Commit(); err != nil {
		return mapContention(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// mapContention surfaces lock-wait timeouts (1205) and deadlock aborts
// (1213) as a retryable sentinel.
func mapContention(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == 1205 || myErr.Number == 1213) {
		return fmt.Errorf("%w: %v", domain.ErrStoreContention, err)
	}
	return err
}

func (m *MySQLAdapter) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return queryOrder(ctx, m.db, orderID, nil, false)
}

func (m *MySQLAdapter) FindByIDAndMember(ctx context.Context, orderID string, memberID int64) (*domain.Order, error) {
	return queryOrder(ctx, m.db, orderID, &memberID, false)
}

func (m *MySQLAdapter) ListByMember(ctx context.Context, memberID int64, page, size int) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, member_id, status, total_price, created_at, updated_at
		FROM orders WHERE member_id = ?
		ORDER BY created_at, id
		LIMIT ? OFFSET ?`, memberID, size, (page-1)*size)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.MemberID, &o.Status, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := queryOrderItems(ctx, m.db, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// querier covers *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryOrder(ctx context.Context, q querier, orderID string, memberID *int64, forUpdate bool) (*domain.Order, error) {
	query := `
		SELECT id, member_id, status, total_price, created_at, updated_at
		FROM orders WHERE id = ?`
	args := []any{orderID}
	if memberID != nil {
		query += " AND member_id = ?"
		args = append(args, *memberID)
	}
	if forUpdate {
		query += " FOR UPDATE"
	}

	var o domain.Order
	err := q.QueryRowContext(ctx, query, args...).Scan(
		&o.ID, &o.MemberID, &o.Status, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	items, err := queryOrderItems(ctx, q, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func queryOrderItems(ctx context.Context, q querier, orderID string) ([]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, item_id, item_option_id, order_count, price
		FROM order_item WHERE order_id = ?
		ORDER BY item_id, item_option_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.OptionID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type mysqlTx struct {
	tx *sql.Tx
}

func (t *mysqlTx) LockOptions(ctx context.Context, keys []domain.OptionKey) ([]domain.ItemOption, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	clause, args := optionPairsClause(keys)
	// ORDER BY fixes the lock acquisition sequence so concurrent
	// transactions sharing rows cannot deadlock. No deleted filter:
	// cancellation must still reach the rows of a soft-deleted item to
	// restore its stock, so callers check the Deleted flag themselves.
	rows, err := t.tx.QueryContext(ctx, `
		SELECT `+optionColumns+`
		FROM item_option o
		JOIN item i ON i.id = o.item_id
		WHERE `+clause+`
		ORDER BY o.item_id, o.id
		FOR UPDATE`, args...)
	if err != nil {
		return nil, fmt.Errorf("lock item options: %w", err)
	}
	defer rows.Close()
	return scanOptions(rows)
}

func (t *mysqlTx) AdjustStock(ctx context.Context, optionID int64, delta int64) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE item_option SET stock_quantity = stock_quantity + ?, updated_at = NOW()
		WHERE id = ?`, delta, optionID)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("adjust stock: option %d not found", optionID)
	}
	return nil
}

func (t *mysqlTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (id, member_id, status, total_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.MemberID, order.Status, order.TotalPrice, order.CreatedAt, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range order.Items {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO order_item (id, order_id, item_id, item_option_id, order_count, price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			it.ID, it.OrderID, it.ItemID, it.OptionID, it.Quantity, it.Price)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (t *mysqlTx) LockOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return queryOrder(ctx, t.tx, orderID, nil, true)
}

func (t *mysqlTx) LockOrderForMember(ctx context.Context, orderID string, memberID int64) (*domain.Order, error) {
	return queryOrder(ctx, t.tx, orderID, &memberID, true)
}

func (t *mysqlTx) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`, status, orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}
