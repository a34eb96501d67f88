package queue

import (
	"context"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
)

// OrderCreatedHandler projects order.created events into the order status
// cache. A status already cached (for example a settled card payment that
// arrived first) is never overwritten by the older creation event.
type OrderCreatedHandler struct {
	cache usecase.OrderCache
}

func NewOrderCreatedHandler(cache usecase.OrderCache) *OrderCreatedHandler {
	return &OrderCreatedHandler{cache: cache}
}

// HandleCreate is intended to be used with the JSON adapter (queue.JSONHandler[CreatedMsg]).
func (h *OrderCreatedHandler) HandleCreate(ctx context.Context, msg usecase.CreatedMsg) error {
	if msg.OrderID == "" || msg.Status == "" {
		return ErrPoison
	}
	if _, ok, err := h.cache.GetStatus(ctx, msg.OrderID); err != nil {
		return err
	} else if ok {
		return nil
	}
	if err := h.cache.SetStatus(ctx, msg.OrderID, msg.Status); err != nil {
		return err
	}
	logging.FromCtx(ctx).Info("order created",
		"order_id", msg.OrderID, "method", msg.Method, "total", msg.Total, "currency", msg.Currency,
		"points", msg.PointsEarned)
	return nil
}
