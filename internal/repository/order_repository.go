package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-chatbot/internal/model"
)

// OrderRepo is the SQL-backed order store.  It owns two tables: sessions,
// which holds each device's current order as serialized lines, and orders,
// an append-only log of placed orders.  All timestamps are written in UTC.
//
// Read-modify-write operations on a device's current order (AddLine and
// PlaceOrder) are serialized per device identifier with an in-process lock
// and run inside a transaction, so concurrent messages for the same device
// never lose an update and a placed order is never recorded without the
// current order being cleared (or the other way round).
type OrderRepo struct {
	db    *sql.DB
	locks *keyLock
	now   func() time.Time
}

// NewOrderRepo returns a new OrderRepo bound to the provided database.
func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db, locks: newKeyLock(), now: time.Now}
}

// EnsureSession creates an empty session row for deviceID if none exists.
// An existing row, including its current order, is left untouched.
func (r *OrderRepo) EnsureSession(ctx context.Context, deviceID string) error {
	unlock := r.locks.Lock(deviceID)
	defer unlock()

	exists, err := r.SessionExists(ctx, deviceID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	empty, err := encodeLines(nil)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (device_id, current_order, created_at) VALUES (?, ?, ?)`,
		deviceID, empty, r.now().UTC())
	// a duplicate means another instance created the row after our check
	if err != nil && !isDuplicateKey(err) {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SessionExists reports whether a session row exists for deviceID.
func (r *OrderRepo) SessionExists(ctx context.Context, deviceID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE device_id = ?`, deviceID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup session: %w", err)
	}
	return true, nil
}

// GetCurrentOrder returns the device's current order lines.  A device with
// no session row has an empty order.
func (r *OrderRepo) GetCurrentOrder(ctx context.Context, deviceID string) ([]model.OrderLine, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT current_order FROM sessions WHERE device_id = ?`, deviceID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []model.OrderLine{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select current order: %w", err)
	}
	return decodeLines(raw)
}

// AddLine adds one unit of (itemID, name) to the device's current order and
// returns the updated lines.  A line with the same item and name has its
// quantity incremented; otherwise a new line with quantity 1 is appended.
// ErrSessionNotFound is returned when the device has no session row.
func (r *OrderRepo) AddLine(ctx context.Context, deviceID string, itemID int, name string, price decimal.Decimal) ([]model.OrderLine, error) {
	unlock := r.locks.Lock(deviceID)
	defer unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	lines, err := currentOrderTx(ctx, tx, deviceID)
	if err != nil {
		return nil, err
	}
	lines = model.MergeLine(lines, itemID, name, price)
	if err := writeCurrentOrderTx(ctx, tx, deviceID, lines); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return lines, nil
}

// ClearCurrentOrder empties the device's current order.
func (r *OrderRepo) ClearCurrentOrder(ctx context.Context, deviceID string) error {
	unlock := r.locks.Lock(deviceID)
	defer unlock()

	empty, err := encodeLines(nil)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `UPDATE sessions SET current_order = ? WHERE device_id = ?`, empty, deviceID); err != nil {
		return fmt.Errorf("clear current order: %w", err)
	}
	return nil
}

// PlaceOrder snapshots the device's current order into the orders table
// with status PLACED and clears the current order, in one transaction.
// It returns ErrEmptyOrder when there is nothing to place.
func (r *OrderRepo) PlaceOrder(ctx context.Context, deviceID string) (model.PlacedOrder, error) {
	unlock := r.locks.Lock(deviceID)
	defer unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PlacedOrder{}, fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	lines, err := currentOrderTx(ctx, tx, deviceID)
	if err != nil {
		return model.PlacedOrder{}, err
	}
	if len(lines) == 0 {
		return model.PlacedOrder{}, ErrEmptyOrder
	}
	items, err := encodeLines(lines)
	if err != nil {
		return model.PlacedOrder{}, err
	}
	createdAt := r.now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (device_id, items, status, created_at) VALUES (?, ?, ?, ?)`,
		deviceID, items, model.OrderStatusPlaced, createdAt)
	if err != nil {
		return model.PlacedOrder{}, fmt.Errorf("insert order: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.PlacedOrder{}, fmt.Errorf("order id: %w", err)
	}
	if err := writeCurrentOrderTx(ctx, tx, deviceID, nil); err != nil {
		return model.PlacedOrder{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.PlacedOrder{}, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return model.PlacedOrder{
		ID:        uint64(id),
		DeviceID:  deviceID,
		Lines:     lines,
		Status:    model.OrderStatusPlaced,
		CreatedAt: createdAt,
	}, nil
}

// ListPlacedOrders returns up to HistoryLimit placed orders for the device,
// newest first.
func (r *OrderRepo) ListPlacedOrders(ctx context.Context, deviceID string) ([]model.PlacedOrder, error) {
	const q = `SELECT id, items, status, created_at
               FROM orders
               WHERE device_id = ? AND status = ?
               ORDER BY id DESC
               LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, deviceID, model.OrderStatusPlaced, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()
	orders := make([]model.PlacedOrder, 0, HistoryLimit)
	for rows.Next() {
		var (
			o   model.PlacedOrder
			raw string
			at  dbTime
		)
		if err := rows.Scan(&o.ID, &raw, &o.Status, &at); err != nil {
			return nil, err
		}
		if o.Lines, err = decodeLines(raw); err != nil {
			return nil, err
		}
		o.DeviceID = deviceID
		o.CreatedAt = at.t
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// PurgeSessionsBefore deletes session rows created before cutoff and
// returns how many were removed.  Placed orders are not affected.
func (r *OrderRepo) PurgeSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

// currentOrderTx reads the current order inside tx.  The caller holds the
// device lock.
func currentOrderTx(ctx context.Context, tx *sql.Tx, deviceID string) ([]model.OrderLine, error) {
	var raw string
	err := tx.QueryRowContext(ctx, `SELECT current_order FROM sessions WHERE device_id = ?`, deviceID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select current order: %w", err)
	}
	return decodeLines(raw)
}

func writeCurrentOrderTx(ctx context.Context, tx *sql.Tx, deviceID string, lines []model.OrderLine) error {
	raw, err := encodeLines(lines)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET current_order = ? WHERE device_id = ?`, raw, deviceID); err != nil {
		return fmt.Errorf("update current order: %w", err)
	}
	return nil
}
