package usecase

import (
	"context"
	"fmt"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
)

const ledgerScope = "points"

// Ledger applies point movements to a session. Keyed credits go through the
// idempotency store so a redelivered event or a replayed request pays once.
type Ledger struct {
	idem    IdempotencyStore
	metrics Metrics
}

func NewLedger(idem IdempotencyStore, opts ...Option) *Ledger {
	o := resolve(opts)
	return &Ledger{idem: idem, metrics: o.metrics}
}

func (l *Ledger) Credit(s *domain.Session, amount int64, reason string) {
	if amount <= 0 {
		return
	}
	s.Points = s.Points.Credit(amount)
	l.metrics.PointsCredited(reason, amount)
}

func (l *Ledger) Debit(s *domain.Session, amount int64) {
	s.Points = s.Points.Debit(amount)
}

// CreditOnce credits amount unless key was already claimed. If the caller then
// fails to persist the session it must call Forget(key).
func (l *Ledger) CreditOnce(ctx context.Context, s *domain.Session, key string, amount int64, reason string) (bool, error) {
	ok, err := l.idem.TryLock(ctx, ledgerScope, key)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	l.Credit(s, amount, reason)
	return true, nil
}

func (l *Ledger) Forget(ctx context.Context, key string) {
	_ = l.idem.Release(context.WithoutCancel(ctx), ledgerScope, key)
}
