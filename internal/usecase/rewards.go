package usecase

import (
	"context"
	"fmt"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
)

type Rewards struct {
	sessions SessionStore
	ledger   *Ledger
	loc      *time.Location
	now      func() time.Time
}

// NewRewards counts calendar days in loc (UTC when nil).
func NewRewards(sessions SessionStore, ledger *Ledger, loc *time.Location, opts ...Option) *Rewards {
	o := resolve(opts)
	if loc == nil {
		loc = time.UTC
	}
	return &Rewards{sessions: sessions, ledger: ledger, loc: loc, now: o.now}
}

func (uc *Rewards) Balance(ctx context.Context, sid string) (int64, error) {
	s, err := uc.sessions.Load(ctx, sid)
	if err != nil {
		return 0, err
	}
	return int64(s.Points), nil
}

// Debit spends points on a discount. It never takes the balance below zero.
func (uc *Rewards) Debit(ctx context.Context, sid string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: negative debit", ErrInvalidInput)
	}
	s, err := update(ctx, uc.sessions, sid, uc.now, func(s *domain.Session) error {
		uc.ledger.Debit(s, amount)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(s.Points), nil
}

// DailyVisit pays the visit reward on the first call of each calendar day.
func (uc *Rewards) DailyVisit(ctx context.Context, sid string) (bool, int64, error) {
	day := uc.today()
	credited := false
	s, err := update(ctx, uc.sessions, sid, uc.now, func(s *domain.Session) error {
		if s.LastVisitDay == day {
			return nil
		}
		s.LastVisitDay = day
		uc.ledger.Credit(s, domain.DailyVisitPoints, "daily_visit")
		credited = true
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return credited, int64(s.Points), nil
}

// ClaimGame pays a mini-game's fixed reward once per game per day.
func (uc *Rewards) ClaimGame(ctx context.Context, sid, game string) (int64, error) {
	g, err := domain.ParseGame(game)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	s, err := uc.sessions.Load(ctx, sid)
	if err != nil {
		return 0, err
	}
	key := fmt.Sprintf("game:%s:%s:%s", s.ID, g, uc.today())
	ok, err := uc.ledger.CreditOnce(ctx, s, key, g.Reward(), "game_"+string(g))
	if err != nil {
		return 0, err
	}
	if !ok {
		return int64(s.Points), ErrRewardRedeemed
	}
	s.UpdatedAt = uc.now()
	if err := uc.sessions.Save(ctx, s); err != nil {
		uc.ledger.Forget(ctx, key)
		logging.FromCtx(ctx).Warn("game reward not saved", "session", s.ID, "game", g, "err", err)
		return 0, err
	}
	return int64(s.Points), nil
}

func (uc *Rewards) today() string {
	return uc.now().In(uc.loc).Format(time.DateOnly)
}
