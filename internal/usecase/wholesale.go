package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
)

// WholesaleGate switches a session to wholesale pricing after a successful
// code check. Lines already in the cart keep the price they were added at.
type WholesaleGate struct {
	sessions SessionStore
	auth     WholesaleAuthenticator
	timeout  time.Duration
	now      func() time.Time
}

func NewWholesaleGate(sessions SessionStore, auth WholesaleAuthenticator, opts ...Option) *WholesaleGate {
	o := resolve(opts)
	return &WholesaleGate{sessions: sessions, auth: auth, timeout: o.callTimeout, now: o.now}
}

func (uc *WholesaleGate) Activate(ctx context.Context, sid, code, email string) (domain.User, error) {
	code = strings.TrimSpace(code)
	email = strings.ToLower(strings.TrimSpace(email))
	if code == "" || email == "" {
		return domain.User{}, ErrInvalidWholesaleCredentials
	}

	var user domain.User
	_, err := update(ctx, uc.sessions, sid, uc.now, func(s *domain.Session) error {
		callCtx, cancel := context.WithTimeout(ctx, uc.timeout)
		defer cancel()
		u, err := uc.auth.Authenticate(callCtx, code, email)
		if err != nil {
			if errors.Is(err, ErrInvalidWholesaleCredentials) {
				return err
			}
			logging.FromCtx(ctx).Warn("wholesale auth unavailable", "session", sid, "err", err)
			return fmt.Errorf("%w: %w", ErrInvalidWholesaleCredentials, err)
		}
		u.Wholesale = true
		s.User = &u
		s.Wholesale = true
		user = u
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
