package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/gin-gonic/gin"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

type PaymentWebhookHandler struct {
	checkout *usecase.Checkout
	timeout  time.Duration
}

func NewPaymentWebhookHandler(checkout *usecase.Checkout, timeout time.Duration) *PaymentWebhookHandler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PaymentWebhookHandler{checkout: checkout, timeout: timeout}
}

type paymentEvent struct {
	Type            string `json:"type" binding:"required"`
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
	SessionID       string `json:"sessionId" binding:"required"`
	Amount          int64  `json:"amount"` // minor units
	Error           string `json:"error"`
}

type webhookResp struct {
	Status  string `json:"status"`
	OrderID string `json:"orderId,omitempty"`
}

// HandleEvent POST /v1/payments/webhook. The processor redelivers anything
// that is not 2xx, so stale or already-applied events answer 200 "ignored".
func (h *PaymentWebhookHandler) HandleEvent(c *gin.Context) {
	var ev paymentEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c)
		return
	}
	l := logging.From(c).With("event", ev.Type, "intent", ev.PaymentIntentID, "session", ev.SessionID)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	switch ev.Type {
	case EventPaymentSucceeded:
		res, err := h.checkout.ConfirmHostedPayment(ctx, ev.SessionID, ev.PaymentIntentID, domain.FromMinorUnits(ev.Amount))
		switch {
		case err == nil:
			c.JSON(http.StatusOK, webhookResp{Status: "confirmed", OrderID: res.Receipt.OrderID})
		case stale(err):
			l.Info("payment event ignored", "err", err)
			c.JSON(http.StatusOK, webhookResp{Status: "ignored"})
		default:
			writeError(c, err)
		}

	case EventPaymentFailed:
		err := h.checkout.FailHostedPayment(ctx, ev.SessionID, ev.PaymentIntentID, ev.Error)
		switch {
		case errors.Is(err, usecase.ErrHostedPaymentFailed):
			c.JSON(http.StatusOK, webhookResp{Status: "recorded"})
		case stale(err):
			l.Info("payment event ignored", "err", err)
			c.JSON(http.StatusOK, webhookResp{Status: "ignored"})
		default:
			writeError(c, err)
		}

	default:
		l.Debug("unhandled payment event")
		c.JSON(http.StatusOK, webhookResp{Status: "ignored"})
	}
}

func stale(err error) bool {
	return errors.Is(err, usecase.ErrInvalidTransition) ||
		errors.Is(err, usecase.ErrPaymentMismatch) ||
		errors.Is(err, usecase.ErrSessionNotFound)
}
