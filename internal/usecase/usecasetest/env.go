package usecasetest

import (
	"context"
	"sync"
	"time"

	domain "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/entity"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/shopspring/decimal"
)

// Env wires every use case over the in-memory fakes with a controllable clock.
type Env struct {
	Sessions  *Sessions
	Products  *Products
	Idem      *Idem
	Locks     *Idem
	Orders    *Orders
	Cache     *StatusCache
	Events    *Events
	Intents   *Intents
	OrderSvc  *OrderService
	Wholesale *Wholesale
	Metrics   *Metrics

	Ledger     *usecase.Ledger
	SessionsUC *usecase.Sessions
	Catalog    *usecase.Catalog
	Cart       *usecase.CartService
	Checkout   *usecase.Checkout
	PlaceOrder *usecase.PlaceOrder
	Rewards    *usecase.Rewards
	Gate       *usecase.WholesaleGate
	Relay      *usecase.OutboxRelay

	mu  sync.Mutex
	now time.Time
}

func NewEnv(products ...domain.Product) *Env {
	e := &Env{
		Sessions:  NewSessions(),
		Products:  NewProducts(products...),
		Idem:      NewIdem(),
		Locks:     NewIdem(),
		Orders:    NewOrders(),
		Cache:     NewStatusCache(),
		Events:    &Events{},
		Intents:   &Intents{},
		Wholesale: &Wholesale{Users: map[string]domain.User{}},
		Metrics:   NewMetrics(),
		now:       time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	opts := []usecase.Option{usecase.WithClock(e.Now), usecase.WithMetrics(e.Metrics), usecase.WithCallTimeout(time.Second)}

	e.Ledger = usecase.NewLedger(e.Idem, opts...)
	e.PlaceOrder = usecase.NewPlaceOrder(e.Orders, e.Products, e.Idem, e.Cache, "MXN", opts...)
	e.OrderSvc = &OrderService{Next: e.PlaceOrder}
	e.SessionsUC = usecase.NewSessions(e.Sessions, opts...)
	e.Catalog = usecase.NewCatalog(e.Products)
	e.Cart = usecase.NewCartService(e.Sessions, e.Products, e.Ledger, opts...)
	e.Checkout = usecase.NewCheckout(e.Sessions, e.OrderSvc, e.Intents, e.Ledger, e.Locks, "MXN", opts...)
	e.Rewards = usecase.NewRewards(e.Sessions, e.Ledger, time.UTC, opts...)
	e.Gate = usecase.NewWholesaleGate(e.Sessions, e.Wholesale, opts...)
	e.Relay = usecase.NewOutboxRelay(e.Orders, e.Events, 10, time.Second, opts...)
	return e
}

func (e *Env) Now() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *Env) Advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

// NewSession starts a session through the Sessions use case.
func (e *Env) NewSession() string {
	s, err := e.SessionsUC.Start(context.Background())
	if err != nil {
		panic(err)
	}
	return s.ID
}

// Product builds a catalog product; wholesale may be empty.
func Product(id, retail, wholesale string) domain.Product {
	p := domain.Product{
		ID:          id,
		Name:        "Producto " + id,
		Category:    domain.CategoryCars,
		RetailPrice: decimal.RequireFromString(retail),
	}
	if wholesale != "" {
		p.WholesalePrice = decimal.RequireFromString(wholesale)
	}
	return p
}
