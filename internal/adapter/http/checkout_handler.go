package http

import (
	"context"
	"net/http"
	"time"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/http/middleware"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	checkout *usecase.Checkout
	timeout  time.Duration
}

// NewCheckoutHandler: timeout bounds a whole submit, including the order
// service and payment processor calls.
func NewCheckoutHandler(checkout *usecase.Checkout, timeout time.Duration) *CheckoutHandler {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CheckoutHandler{checkout: checkout, timeout: timeout}
}

type selectMethodReq struct {
	Method string `json:"method" binding:"required"`
}

func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	v, err := h.checkout.View(ctx, middleware.SessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Open POST /v1/checkout
func (h *CheckoutHandler) Open(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	v, err := h.checkout.Open(ctx, middleware.SessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *CheckoutHandler) SelectMethod(c *gin.Context) {
	var req selectMethodReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	v, err := h.checkout.SelectMethod(ctx, middleware.SessionID(c), req.Method)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Submit POST /v1/checkout/submit. Card payments answer 202 with the hosted
// payment client secret; every other method answers 201 with the receipt.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.checkout.Submit(ctx, middleware.SessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Receipt == nil {
		c.JSON(http.StatusAccepted, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *CheckoutHandler) Cancel(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	v, err := h.checkout.Cancel(ctx, middleware.SessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
