package kafka

import (
	"context"
	"strings"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
)

// PaymentSettler applies the processor's final word on a pending card order.
type PaymentSettler interface {
	MarkPaymentResult(ctx context.Context, orderID string, succeeded bool) error
}

type PaymentStatusHandler struct {
	orders PaymentSettler
}

func NewPaymentStatusHandler(orders PaymentSettler) *PaymentStatusHandler {
	return &PaymentStatusHandler{orders: orders}
}

func (h *PaymentStatusHandler) Handle(ctx context.Context, ev usecase.PaymentStatusMsg) error {
	if ev.OrderID == "" {
		logging.FromCtx(ctx).Warn("payment status without order id", "intent", ev.PaymentIntentID)
		return nil
	}

	// Map external status -> internal
	var succeeded bool
	switch strings.ToUpper(ev.Status) {
	case "SUCCEEDED", "SUCCESS", "CAPTURED":
		succeeded = true
	case "FAILED", "CANCELED", "CANCELLED", "EXPIRED":
		succeeded = false
	default:
		logging.FromCtx(ctx).Debug("payment status not final", "order_id", ev.OrderID, "status", ev.Status)
		return nil
	}
	return h.orders.MarkPaymentResult(ctx, ev.OrderID, succeeded)
}
