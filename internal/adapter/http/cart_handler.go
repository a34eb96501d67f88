package http

import (
	"context"
	"net/http"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/http/middleware"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	cart *usecase.CartService
}

func NewCartHandler(cart *usecase.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type addItemReq struct {
	ProductID string `json:"productId" binding:"required"`
}

type setQuantityReq struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *CartHandler) GetCart(c *gin.Context) {
	h.run(c, func(ctx context.Context, sid string) (usecase.CartView, error) {
		return h.cart.View(ctx, sid)
	})
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	h.run(c, func(ctx context.Context, sid string) (usecase.CartView, error) {
		return h.cart.AddItem(ctx, sid, req.ProductID)
	})
}

// SetQuantity PUT /v1/cart/items/:productId; zero or negative removes the line.
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req setQuantityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	h.run(c, func(ctx context.Context, sid string) (usecase.CartView, error) {
		return h.cart.SetQuantity(ctx, sid, c.Param("productId"), *req.Quantity)
	})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	h.run(c, func(ctx context.Context, sid string) (usecase.CartView, error) {
		return h.cart.RemoveItem(ctx, sid, c.Param("productId"))
	})
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	h.run(c, func(ctx context.Context, sid string) (usecase.CartView, error) {
		return h.cart.Clear(ctx, sid)
	})
}

func (h *CartHandler) run(c *gin.Context, fn func(ctx context.Context, sid string) (usecase.CartView, error)) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	view, err := fn(ctx, middleware.SessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
