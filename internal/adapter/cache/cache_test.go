package cache

import (
	"context"
	"testing"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisCache_Status(t *testing.T) {
	mr, rdb := newRedis(t)
	c := NewRedisCache(rdb, time.Hour)
	ctx := context.Background()

	_, ok, err := c.GetStatus(ctx, "o-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetStatus(ctx, "o-1", "pending"))
	st, ok, err := c.GetStatus(ctx, "o-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "pending", st)
	assert.Equal(t, time.Hour, mr.TTL("order:status:o-1"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.GetStatus(ctx, "o-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisIdempotencyStore(t *testing.T) {
	_, rdb := newRedis(t)
	s := NewRedisIdempotencyStore(rdb, time.Minute)
	ctx := context.Background()

	ok, err := s.TryLock(ctx, "sess", "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.TryLock(ctx, "sess", "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Release(ctx, "sess", "k1"))
	ok, err = s.TryLock(ctx, "sess", "k1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, found, err := s.Recall(ctx, "sess", "k1")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, s.Remember(ctx, "sess", "k1", `{"id":"o-1"}`))
	v, found, err := s.Recall(ctx, "sess", "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"id":"o-1"}`, v)
}

func TestRedisSessionStore_RoundTripAndSlidingTTL(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisSessionStore(rdb, 10*time.Minute)
	ctx := context.Background()

	_, err := s.Load(ctx, "nope")
	assert.ErrorIs(t, err, usecase.ErrSessionNotFound)

	sess := domain.NewSession("s-1", time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	sess.Wholesale = true
	sess.Points = 42
	sess.Cart.Items = []domain.LineItem{{ProductID: "p1", Name: "Balatas", UnitPrice: decimal.RequireFromString("199.90"), Quantity: 2}}
	sess.Checkout = domain.CheckoutState{
		Stage:   domain.StageRedirectToHostedPayment,
		Method:  domain.PaymentCard,
		Pending: &domain.PendingPayment{IntentID: "pi_1", Amount: decimal.RequireFromString("449.80")},
	}
	require.NoError(t, s.Save(ctx, sess))

	mr.FastForward(9 * time.Minute)
	got, err := s.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, mr.TTL("session:s-1"), "read refreshes expiry")

	assert.True(t, got.Wholesale)
	assert.Equal(t, domain.Points(42), got.Points)
	require.Len(t, got.Cart.Items, 1)
	assert.True(t, decimal.RequireFromString("199.90").Equal(got.Cart.Items[0].UnitPrice))
	require.NotNil(t, got.Checkout.Pending)
	assert.Equal(t, "pi_1", got.Checkout.Pending.IntentID)
	assert.True(t, decimal.RequireFromString("449.80").Equal(got.Cart.Totals().Total))

	mr.FastForward(11 * time.Minute)
	_, err = s.Load(ctx, "s-1")
	assert.ErrorIs(t, err, usecase.ErrSessionNotFound)
}

func TestRedisSessionStore_CorruptDocument(t *testing.T) {
	mr, rdb := newRedis(t)
	s := NewRedisSessionStore(rdb, time.Minute)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := s.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, usecase.ErrSessionNotFound)
}
