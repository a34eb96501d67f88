package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const OrderCreatedChannel = "orders.created.v1"

// OrderSubmission is the payload the checkout sends to the order service.
type OrderSubmission struct {
	SessionID      string               `json:"sessionId"`
	Buyer          *domain.User         `json:"buyer"`
	Wholesale      bool                 `json:"wholesale"`
	Items          []domain.LineItem    `json:"items"`
	Total          decimal.Decimal      `json:"total"`
	Method         domain.PaymentMethod `json:"method"`
	Status         domain.Status        `json:"status"`
	PaymentRef     string               `json:"paymentRef,omitempty"`
	PointsEarned   int64                `json:"pointsEarned"`
	IdempotencyKey string               `json:"-"`
}

type OrderReceipt struct {
	OrderID      string        `json:"id"`
	PointsEarned int64         `json:"pointsEarned"`
	Status       domain.Status `json:"status"`
}

type OrderView struct {
	ID           string               `json:"id"`
	Status       domain.Status        `json:"status"`
	Method       domain.PaymentMethod `json:"method"`
	Items        []domain.LineItem    `json:"items"`
	Subtotal     decimal.Decimal      `json:"subtotal"`
	Shipping     decimal.Decimal      `json:"shipping"`
	Total        decimal.Decimal      `json:"total"`
	Currency     string               `json:"currency"`
	PointsEarned int64                `json:"pointsEarned"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// PlaceOrder is the server side of order creation. It never trusts client
// prices or totals: every line is re-priced against the catalog.
type PlaceOrder struct {
	repo          OrderRepo
	catalog       ProductRepo
	idem          IdempotencyStore
	cache         OrderCache
	currency      string
	maxConcurrent int
	metrics       Metrics
	now           func() time.Time
}

func NewPlaceOrder(repo OrderRepo, catalog ProductRepo, idem IdempotencyStore, cache OrderCache, currency string, opts ...Option) *PlaceOrder {
	o := resolve(opts)
	return &PlaceOrder{
		repo:          repo,
		catalog:       catalog,
		idem:          idem,
		cache:         cache,
		currency:      currency,
		maxConcurrent: o.maxConcurrent,
		metrics:       o.metrics,
		now:           o.now,
	}
}

var _ OrderService = (*PlaceOrder)(nil)

func (uc *PlaceOrder) Submit(ctx context.Context, in OrderSubmission) (OrderReceipt, error) {
	if err := validateSubmission(in); err != nil {
		return OrderReceipt{}, err
	}
	log := logging.FromCtx(ctx).With("session", in.SessionID, "idem_key", in.IdempotencyKey)

	// Fast path: same key already produced a receipt.
	if raw, ok, err := uc.idem.Recall(ctx, in.SessionID, in.IdempotencyKey); err != nil {
		log.Warn("recall receipt", "err", err)
	} else if ok {
		var r OrderReceipt
		if err := json.Unmarshal([]byte(raw), &r); err == nil {
			return r, nil
		}
	}

	items, err := uc.reprice(ctx, in.Items, in.Wholesale)
	if err != nil {
		return OrderReceipt{}, err
	}
	totals := domain.ComputeTotals(items)
	if !totals.Total.Equal(in.Total) {
		return OrderReceipt{}, fmt.Errorf("%w: claimed %s, computed %s", ErrTotalMismatch, in.Total, totals.Total)
	}

	ok, err := uc.idem.TryLock(ctx, in.SessionID, in.IdempotencyKey)
	if err != nil {
		return OrderReceipt{}, fmt.Errorf("idempotency lock: %w", err)
	}
	if !ok {
		return OrderReceipt{}, ErrDuplicate
	}

	order := domain.Order{
		ID:             uuid.NewString(),
		SessionID:      in.SessionID,
		Status:         in.Status,
		Method:         in.Method,
		PaymentRef:     in.PaymentRef,
		Currency:       uc.currency,
		Items:          items,
		Totals:         totals,
		PointsEarned:   domain.PointsFor(totals.Total),
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      uc.now().UTC(),
	}
	if in.Buyer != nil {
		order.UserID = in.Buyer.ID
	}
	if err := order.Validate(); err != nil {
		uc.release(ctx, in)
		return OrderReceipt{}, fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}

	rec, err := toRecord(order)
	if err != nil {
		uc.release(ctx, in)
		return OrderReceipt{}, err
	}
	payload, err := json.Marshal(CreatedMsg{
		OrderID:      order.ID,
		SessionID:    order.SessionID,
		UserID:       order.UserID,
		Method:       string(order.Method),
		Status:       string(order.Status),
		Total:        order.Totals.Total.StringFixed(2),
		Currency:     order.Currency,
		PointsEarned: order.PointsEarned,
	})
	if err != nil {
		uc.release(ctx, in)
		return OrderReceipt{}, err
	}
	if err := uc.repo.CreateWithOutbox(ctx, rec, OrderCreatedChannel, payload); err != nil {
		uc.release(ctx, in)
		return OrderReceipt{}, fmt.Errorf("create order: %w", err)
	}

	receipt := OrderReceipt{OrderID: order.ID, PointsEarned: order.PointsEarned, Status: order.Status}
	if b, err := json.Marshal(receipt); err == nil {
		if err := uc.idem.Remember(ctx, in.SessionID, in.IdempotencyKey, string(b)); err != nil {
			log.Warn("remember receipt", "order_id", order.ID, "err", err)
		}
	}
	if err := uc.cache.SetStatus(ctx, order.ID, string(order.Status)); err != nil {
		log.Warn("cache order status", "order_id", order.ID, "err", err)
	}
	uc.metrics.OrderPlaced(string(order.Method))
	log.Info("order placed", "order_id", order.ID, "method", order.Method, "total", order.Totals.Total.StringFixed(2))
	return receipt, nil
}

// MarkPaymentResult settles a pending card order. Unknown orders and orders
// whose status may not move to the result are left alone, so redelivered
// events are harmless.
func (uc *PlaceOrder) MarkPaymentResult(ctx context.Context, orderID string, succeeded bool) error {
	to := domain.StatusFailed
	if succeeded {
		to = domain.StatusCompleted
	}
	rec, err := uc.repo.GetByID(ctx, orderID)
	if errors.Is(err, ErrOrderNotFound) {
		logging.FromCtx(ctx).Warn("payment result for unknown order", "order_id", orderID, "status", to)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}
	from := domain.Status(rec.Status)
	if !from.CanTransition(to) {
		logging.FromCtx(ctx).Info("ignoring payment result", "order_id", orderID, "from", from, "to", to)
		return nil
	}

	// the guarded update loses to a concurrent settlement
	changed, err := uc.repo.UpdateStatusIf(ctx, orderID, string(from), string(to))
	if err != nil {
		return fmt.Errorf("update order %s: %w", orderID, err)
	}
	if !changed {
		logging.FromCtx(ctx).Info("order not pending, ignoring payment result", "order_id", orderID, "status", to)
		return nil
	}
	if err := uc.cache.SetStatus(ctx, orderID, string(to)); err != nil {
		logging.FromCtx(ctx).Warn("cache order status", "order_id", orderID, "err", err)
	}
	return nil
}

// Get returns an order owned by sid. The status comes from the cache when
// it has one.
func (uc *PlaceOrder) Get(ctx context.Context, sid, orderID string) (OrderView, error) {
	rec, err := uc.repo.GetByID(ctx, orderID)
	if err != nil {
		return OrderView{}, err
	}
	if rec.SessionID != sid {
		return OrderView{}, ErrOrderNotFound
	}
	v := OrderView{
		ID:           rec.ID,
		Status:       domain.Status(rec.Status),
		Method:       domain.PaymentMethod(rec.Method),
		Subtotal:     rec.Subtotal,
		Shipping:     rec.Shipping,
		Total:        rec.Total,
		Currency:     rec.Currency,
		PointsEarned: rec.PointsEarned,
		CreatedAt:    rec.CreatedAt,
	}
	if err := json.Unmarshal([]byte(rec.ItemsJSON), &v.Items); err != nil {
		return OrderView{}, fmt.Errorf("decode items of %s: %w", rec.ID, err)
	}
	if st, ok, err := uc.cache.GetStatus(ctx, orderID); err == nil && ok {
		v.Status = domain.Status(st)
	}
	return v, nil
}

func (uc *PlaceOrder) reprice(ctx context.Context, items []domain.LineItem, wholesale bool) ([]domain.LineItem, error) {
	out := make([]domain.LineItem, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.maxConcurrent)
	for i := range items {
		g.Go(func() error {
			it := items[i]
			p, err := uc.catalog.Get(gctx, it.ProductID)
			if err != nil {
				if errors.Is(err, ErrProductNotFound) {
					return fmt.Errorf("%w: %s: %w", ErrInvalidOrder, it.ProductID, err)
				}
				return err
			}
			// A retail price stays acceptable for a wholesale buyer: lines keep
			// the price they were added at.
			if !it.UnitPrice.Equal(p.RetailPrice) && !it.UnitPrice.Equal(p.PriceFor(wholesale)) {
				return fmt.Errorf("%w: %s has %s, catalog %s", ErrPriceMismatch, it.ProductID, it.UnitPrice, p.PriceFor(wholesale))
			}
			out[i] = domain.LineItem{ProductID: p.ID, Name: p.Name, UnitPrice: it.UnitPrice, Quantity: it.Quantity}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *PlaceOrder) release(ctx context.Context, in OrderSubmission) {
	_ = uc.idem.Release(context.WithoutCancel(ctx), in.SessionID, in.IdempotencyKey)
}

func validateSubmission(in OrderSubmission) error {
	switch {
	case in.SessionID == "" || in.IdempotencyKey == "":
		return fmt.Errorf("%w: session and idempotency key are required", ErrInvalidOrder)
	case len(in.Items) == 0:
		return fmt.Errorf("%w: %w", ErrInvalidOrder, domain.ErrNoItems)
	case !in.Method.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidOrder, domain.ErrUnknownPaymentMethod)
	case in.Status != in.Method.InitialStatus():
		return fmt.Errorf("%w: status %q does not match method %s", ErrInvalidOrder, in.Status, in.Method)
	case !in.Total.IsPositive():
		return fmt.Errorf("%w: %w", ErrInvalidOrder, domain.ErrInvalidAmount)
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			return fmt.Errorf("%w: %w", ErrInvalidOrder, domain.ErrBadQuantity)
		}
	}
	return nil
}

func toRecord(o domain.Order) (*OrderRecord, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	return &OrderRecord{
		ID:             o.ID,
		SessionID:      o.SessionID,
		UserID:         o.UserID,
		Status:         string(o.Status),
		Method:         string(o.Method),
		PaymentRef:     o.PaymentRef,
		Currency:       o.Currency,
		ItemsJSON:      string(items),
		IdempotencyKey: o.IdempotencyKey,
		Subtotal:       o.Totals.Subtotal,
		Shipping:       o.Totals.Shipping,
		Total:          o.Totals.Total,
		PointsEarned:   o.PointsEarned,
		CreatedAt:      o.CreatedAt,
	}, nil
}
