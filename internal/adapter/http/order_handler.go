package http

import (
	"context"
	"net/http"
	"time"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/http/middleware"
	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderHandler exposes the order service directly. The checkout flow calls
// the same use case in process; loyalty points are credited only there.
type OrderHandler struct {
	orders   *usecase.PlaceOrder
	sessions *usecase.Sessions
	timeout  time.Duration
}

// NewOrderHandler bounds order creation by timeout; reads use defaultTimeout.
func NewOrderHandler(orders *usecase.PlaceOrder, sessions *usecase.Sessions, timeout time.Duration) *OrderHandler {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &OrderHandler{orders: orders, sessions: sessions, timeout: timeout}
}

type orderItemReq struct {
	ProductID string          `json:"productId" binding:"required"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
}

type createOrderReq struct {
	Items      []orderItemReq  `json:"items" binding:"required,min=1,dive"`
	Total      decimal.Decimal `json:"total"`
	Method     string          `json:"method" binding:"required"`
	PaymentRef string          `json:"paymentRef"`
}

// CreateOrder handler: translate to use case input
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated requests
	if idemKey == "" {
		badRequest(c)
		return
	}
	method, err := domain.ParsePaymentMethod(req.Method)
	if err != nil {
		writeError(c, usecase.ErrInvalidPaymentMethod)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	s, err := h.sessions.Get(ctx, middleware.SessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}

	out, err := h.orders.Submit(ctx, usecase.OrderSubmission{
		SessionID:      s.ID,
		Buyer:          s.User,
		Wholesale:      s.Wholesale,
		Items:          items,
		Total:          req.Total,
		Method:         method,
		Status:         method.InitialStatus(),
		PaymentRef:     req.PaymentRef,
		PointsEarned:   domain.PointsFor(req.Total),
		IdempotencyKey: idemKey,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultTimeout)
	defer cancel()

	v, err := h.orders.Get(ctx, middleware.SessionID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}
