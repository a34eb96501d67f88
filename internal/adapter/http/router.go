package http

import (
	"log/slog"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/http/middleware"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Sessions  *SessionHandler
	Catalog   *CatalogHandler
	Cart      *CartHandler
	Checkout  *CheckoutHandler
	Webhook   *PaymentWebhookHandler
	Orders    *OrderHandler
	Wholesale *WholesaleHandler
	Points    *PointsHandler
}

type RouterDeps struct {
	Authz    *middleware.Authz
	Webhook  *middleware.WebhookVerify
	Metrics  *middleware.HTTPMetrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

func NewRouter(h Handlers, d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), d.Metrics.Middleware())
	r.Use(middleware.Logging(d.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Debug("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	{
		v1.POST("/sessions", h.Sessions.StartSession)
		v1.POST("/payments/webhook", d.Webhook.Verify(), h.Webhook.HandleEvent)

		auth := v1.Group("", d.Authz.Require())

		auth.GET("/products", h.Catalog.ListProducts)
		auth.GET("/products/:id", h.Catalog.GetProduct)

		auth.GET("/cart", h.Cart.GetCart)
		auth.DELETE("/cart", h.Cart.ClearCart)
		auth.POST("/cart/items", h.Cart.AddItem)
		auth.PUT("/cart/items/:productId", h.Cart.SetQuantity)
		auth.DELETE("/cart/items/:productId", h.Cart.RemoveItem)

		auth.GET("/checkout", h.Checkout.GetCheckout)
		auth.POST("/checkout", h.Checkout.Open)
		auth.PUT("/checkout/method", h.Checkout.SelectMethod)
		auth.POST("/checkout/submit", h.Checkout.Submit)
		auth.POST("/checkout/cancel", h.Checkout.Cancel)

		auth.POST("/orders", h.Orders.CreateOrder)
		auth.GET("/orders/:id", h.Orders.GetOrderByID)

		auth.POST("/wholesale/auth", h.Wholesale.Authenticate)

		auth.GET("/points", h.Points.Balance)
		auth.POST("/points/daily-visit", h.Points.DailyVisit)
		auth.POST("/points/games/:game", h.Points.ClaimGame)
		auth.POST("/points/redeem", h.Points.Redeem)
	}

	return r
}
