package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
)

const maxRelayBackoff = 5 * time.Minute

// OutboxRelay publishes order.created rows written alongside each order.
type OutboxRelay struct {
	out      OutboxRepo
	events   OrderEvents
	batch    int
	interval time.Duration
	now      func() time.Time
}

func NewOutboxRelay(out OutboxRepo, events OrderEvents, batch int, interval time.Duration, opts ...Option) *OutboxRelay {
	o := resolve(opts)
	if batch <= 0 {
		batch = 50
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelay{out: out, events: events, batch: batch, interval: interval, now: o.now}
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	log := logging.New("outbox-relay")
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		if _, err := r.RunOnce(ctx); err != nil {
			log.Error("relay batch", "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// RunOnce publishes one batch and returns how many rows were sent.
func (r *OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	rows, err := r.out.FetchPending(ctx, OrderCreatedChannel, r.batch)
	if err != nil {
		return 0, err
	}
	log := logging.FromCtx(ctx)
	sent := 0
	for _, row := range rows {
		var msg CreatedMsg
		if err := json.Unmarshal(row.Payload, &msg); err != nil {
			// poison row; drop it
			log.Error("bad outbox payload", "outbox_id", row.ID, "err", err)
			_ = r.out.MarkSent(ctx, row.ID)
			continue
		}
		if err := r.events.PublishCreated(ctx, msg); err != nil {
			next := r.now().Add(backoff(row.RetryCount))
			log.Warn("publish order.created", "outbox_id", row.ID, "order_id", msg.OrderID, "retry", row.RetryCount+1, "err", err)
			if err := r.out.MarkRetry(ctx, row.ID, next); err != nil {
				return sent, err
			}
			continue
		}
		if err := r.out.MarkSent(ctx, row.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func backoff(retries int) time.Duration {
	if retries > 8 {
		return maxRelayBackoff
	}
	d := time.Second << retries
	if d > maxRelayBackoff {
		return maxRelayBackoff
	}
	return d
}
