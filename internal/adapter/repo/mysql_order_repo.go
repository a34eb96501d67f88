package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

// CreateWithOutbox inserts the order and its outbox row atomically.
func (r *MySQLOrderRepo) CreateWithOutbox(ctx context.Context, o *usecase.OrderRecord, channel string, payload []byte) error {
	return execTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO orders (id,session_id,user_id,status,method,payment_ref,currency,items_json,subtotal,shipping,total,points_earned,idempotency_key,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
`, o.ID, o.SessionID, o.UserID, o.Status, o.Method, o.PaymentRef, o.Currency, o.ItemsJSON,
			o.Subtotal, o.Shipping, o.Total, o.PointsEarned, o.IdempotencyKey, o.CreatedAt, o.CreatedAt)
		if err != nil {
			if isDuplicate(err) {
				return fmt.Errorf("%w: %s", usecase.ErrDuplicate, o.IdempotencyKey)
			}
			return fmt.Errorf("insert order: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO outbox (channel,payload,status,retry_count,next_attempt_at,created_at)
VALUES (?, ?, 'PENDING', 0, NOW(), NOW())
`, channel, payload); err != nil {
			return fmt.Errorf("insert outbox: %w", err)
		}
		return nil
	})
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*usecase.OrderRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id,session_id,user_id,status,method,payment_ref,currency,items_json,subtotal,shipping,total,points_earned,idempotency_key,created_at
FROM orders WHERE id=?`, id)
	var rec usecase.OrderRecord
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.UserID, &rec.Status, &rec.Method, &rec.PaymentRef,
		&rec.Currency, &rec.ItemsJSON, &rec.Subtotal, &rec.Shipping, &rec.Total, &rec.PointsEarned,
		&rec.IdempotencyKey, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, id string, fromStatus, toStatus string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE orders
        SET status = ?, updated_at = NOW()
        WHERE id = ? AND status = ?`,
		toStatus, id, fromStatus,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// rows == 0 → nothing matched (either not found or status mismatch)
	return rows > 0, nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
