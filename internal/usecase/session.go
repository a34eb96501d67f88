package usecase

import (
	"context"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/google/uuid"
)

type Sessions struct {
	store SessionStore
	now   func() time.Time
}

func NewSessions(store SessionStore, opts ...Option) *Sessions {
	o := resolve(opts)
	return &Sessions{store: store, now: o.now}
}

// Start opens a fresh session with an empty cart and zero points.
func (uc *Sessions) Start(ctx context.Context) (*domain.Session, error) {
	s := domain.NewSession(uuid.NewString(), uc.now())
	if err := uc.store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (uc *Sessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	return uc.store.Load(ctx, id)
}

// update loads a session, applies fn and saves it when fn succeeds.
func update(ctx context.Context, store SessionStore, id string, now func() time.Time, fn func(s *domain.Session) error) (*domain.Session, error) {
	s, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = now()
	if err := store.Save(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}
