package repo

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func orderRecord() *usecase.OrderRecord {
	return &usecase.OrderRecord{
		ID:             "o-1",
		SessionID:      "s-1",
		Status:         "completed",
		Method:         "cash_on_delivery",
		Currency:       "MXN",
		ItemsJSON:      `[{"productId":"p1","quantity":2}]`,
		IdempotencyKey: "s-1:0:abc",
		Subtotal:       decimal.RequireFromString("240"),
		Shipping:       decimal.RequireFromString("50"),
		Total:          decimal.RequireFromString("290"),
		PointsEarned:   290,
		CreatedAt:      time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestOrderRepo_CreateWithOutboxCommits(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs("o-1", "s-1", "", "completed", "cash_on_delivery", "", "MXN", sqlmock.AnyArg(),
			"240", "50", "290", int64(290), "s-1:0:abc", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox")).
		WithArgs("orders.created.v1", []byte(`{"orderId":"o-1"}`)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	require.NoError(t, r.CreateWithOutbox(context.Background(), orderRecord(), "orders.created.v1", []byte(`{"orderId":"o-1"}`)))
}

func TestOrderRepo_CreateWithOutboxRollsBack(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := r.CreateWithOutbox(context.Background(), orderRecord(), "orders.created.v1", []byte(`{}`))
	assert.ErrorContains(t, err, "insert outbox")
}

func TestOrderRepo_DuplicateKey(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err := r.CreateWithOutbox(context.Background(), orderRecord(), "orders.created.v1", []byte(`{}`))
	assert.ErrorIs(t, err, usecase.ErrDuplicate)
}

func TestOrderRepo_GetByID(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)
	created := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	cols := []string{"id", "session_id", "user_id", "status", "method", "payment_ref", "currency", "items_json",
		"subtotal", "shipping", "total", "points_earned", "idempotency_key", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id=?")).
		WithArgs("o-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("o-1", "s-1", "", "pending", "card", "pi_1", "MXN", "[]",
			"240.00", "50.00", "290.00", int64(290), "s-1:0:abc", created))

	rec, err := r.GetByID(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", rec.Status)
	assert.Equal(t, "pi_1", rec.PaymentRef)
	assert.True(t, decimal.RequireFromString("290").Equal(rec.Total))
	assert.Equal(t, created, rec.CreatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id=?")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = r.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, usecase.ErrOrderNotFound)
}

func TestOrderRepo_UpdateStatusIf(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOrderRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs("completed", "o-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := r.UpdateStatusIf(context.Background(), "o-1", "pending", "completed")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs("completed", "o-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = r.UpdateStatusIf(context.Background(), "o-1", "pending", "completed")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOutboxRepo(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLOutboxRepo(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("FROM outbox")).
		WithArgs("orders.created.v1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "channel", "payload", "retry_count"}).
			AddRow(int64(1), "orders.created.v1", []byte(`{"orderId":"o-1"}`), 0).
			AddRow(int64(2), "orders.created.v1", []byte(`{"orderId":"o-2"}`), 3))
	rows, err := r.FetchPending(ctx, "orders.created.v1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 3, rows[1].RetryCount)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox SET status = 'SENT'")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.MarkSent(ctx, 1))

	next := time.Date(2024, 5, 10, 12, 0, 8, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("retry_count = retry_count + 1")).
		WithArgs(next, int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.MarkRetry(ctx, 2, next))
}

func TestProductRepo_ListFilters(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLProductRepo(db)

	cols := []string{"id", "name", "category", "retail_price", "wholesale_price", "image_url", "description", "specs_json"}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE active = 1 AND category = ? AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?) ORDER BY name LIMIT ?")).
		WithArgs("cars", `%50\%%`, `%50\%%`, 100).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p1", "Balatas 50%", "cars", "120.00", nil, nil, "Juego delantero", `{"material":"cerámica"}`).
			AddRow("p2", "Filtro", "cars", "100.00", "70.00", "https://cdn/img.png", nil, nil))

	ps, err := r.List(context.Background(), usecase.ProductFilter{Category: domain.CategoryCars, Search: "50%", Limit: 100})
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.True(t, ps[0].WholesalePrice.IsZero())
	assert.Equal(t, "cerámica", ps[0].Specs["material"])
	assert.True(t, decimal.RequireFromString("70").Equal(ps[1].PriceFor(true)))
	assert.Equal(t, "https://cdn/img.png", ps[1].ImageURL)
}

func TestProductRepo_GetNotFound(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLProductRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE id = ?")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)
	_, err := r.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)
}

func TestWholesaleRepo_Authenticate(t *testing.T) {
	db, mock := newMock(t)
	r := NewMySQLWholesaleRepo(db)
	sum := sha256.Sum256([]byte("MAYOREO-1"))
	hash := hex.EncodeToString(sum[:])

	mock.ExpectQuery(regexp.QuoteMeta("FROM wholesale_accounts")).
		WithArgs("taller@example.com", hash).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}).AddRow("u-7", "taller@example.com", "Taller Norte"))
	u, err := r.Authenticate(context.Background(), "MAYOREO-1", "taller@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-7", u.ID)
	assert.True(t, u.Wholesale)

	mock.ExpectQuery(regexp.QuoteMeta("FROM wholesale_accounts")).
		WithArgs("taller@example.com", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	_, err = r.Authenticate(context.Background(), "WRONG", "taller@example.com")
	assert.ErrorIs(t, err, usecase.ErrInvalidWholesaleCredentials)
}
