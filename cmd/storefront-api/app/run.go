package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	nethttp "net/http"
	"time"

	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/configs"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/cache"
	grpcadapter "github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/grpc"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/http"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/http/middleware"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/kafka"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/observ"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/payment"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/queue"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/adapter/repo"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/logging"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/security"
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg      configs.Config
	log      *slog.Logger
	server   *nethttp.Server
	health   *grpcadapter.HealthServer
	relay    *usecase.OutboxRelay
	rmq      *queue.Router
	payments *kafka.Consumer
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	log := logging.Init(logging.Options{Component: cfg.App.Name, Level: cfg.App.LogLevel, File: cfg.App.LogFile})
	log.Info("storefront-api: Starting up...")

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return fail(err)
	}

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = db.Close() })
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fail(fmt.Errorf("mysql ping: %w", err))
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closers = append(closers, func() { _ = rdb.Close() })
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fail(fmt.Errorf("redis ping: %w", err))
	}

	// init rabbitmq: one channel publishes with confirms, one consumes
	conn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		return fail(fmt.Errorf("rabbitmq dial: %w", err))
	}
	closers = append(closers, func() { _ = conn.Close() })
	pubCh, err := conn.Channel()
	if err != nil {
		return fail(err)
	}
	topology := queue.Topology{Exchange: cfg.Rabbit.Exchange, RoutingKey: cfg.Rabbit.RoutingKey, Queue: cfg.Rabbit.Queue}
	if err := queue.DeclareTopology(pubCh, topology); err != nil {
		return fail(err)
	}
	subCh, err := conn.Channel()
	if err != nil {
		return fail(err)
	}

	// kafka: payment settlement stream
	group, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.App.Name)
	if err != nil {
		return fail(fmt.Errorf("kafka group: %w", err))
	}
	closers = append(closers, func() { _ = group.Close() })

	// load webhook keys
	km, err := security.LoadKeyMaterial(cfg.Payments.WebhookPubKeyPEM, "")
	if err != nil {
		return fail(fmt.Errorf("webhook key: %w", err))
	}
	signer, err := security.NewRSASigner(km)
	if err != nil {
		return fail(err)
	}
	tokens := security.NewSessionTokens(cfg.Security.JWTSecret, cfg.Security.Issuer, cfg.Security.Audience, cfg.Security.TTL)

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	domainMetrics := observ.NewMetrics(reg)

	// infra
	sessionStore := cache.NewRedisSessionStore(rdb, cfg.Session.TTL)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	locks := cache.NewRedisIdempotencyStore(rdb, cfg.Checkout.LockTTL)
	statusCache := cache.NewRedisCache(rdb, cfg.OrderCache.TTL)
	orderRepo := repo.NewMySQLOrderRepo(db)
	outboxRepo := repo.NewMySQLOutboxRepo(db)
	productRepo := repo.NewMySQLProductRepo(db)
	wholesaleRepo := repo.NewMySQLWholesaleRepo(db)
	intents := payment.NewHostedClient(cfg.Payments.BaseURL, cfg.Payments.SecretKey, cfg.Checkout.CallTimeout)
	producer := queue.NewRabbitProducer(pubCh, topology)

	// use cases
	opts := []usecase.Option{
		usecase.WithMetrics(domainMetrics),
		usecase.WithCallTimeout(cfg.Checkout.CallTimeout),
		usecase.WithMaxConcurrent(cfg.Checkout.MaxConcurrent),
	}
	ledger := usecase.NewLedger(idem, opts...)
	placeOrder := usecase.NewPlaceOrder(orderRepo, productRepo, idem, statusCache, cfg.App.Currency, opts...)
	sessions := usecase.NewSessions(sessionStore, opts...)
	catalog := usecase.NewCatalog(productRepo)
	cart := usecase.NewCartService(sessionStore, productRepo, ledger, opts...)
	checkout := usecase.NewCheckout(sessionStore, placeOrder, intents, ledger, locks, cfg.App.Currency, opts...)
	rewards := usecase.NewRewards(sessionStore, ledger, loc, opts...)
	gate := usecase.NewWholesaleGate(sessionStore, wholesaleRepo, opts...)
	relay := usecase.NewOutboxRelay(outboxRepo, producer, cfg.Outbox.Batch, cfg.Outbox.Interval, opts...)

	// register queue-handler
	created := queue.NewOrderCreatedHandler(statusCache)
	rmq := queue.NewRouter(subCh, queue.WithPrefetch(cfg.Rabbit.Prefetch))
	rmq.Register(cfg.Rabbit.Queue, queue.JSONHandler[usecase.CreatedMsg]{HandleFunc: created.HandleCreate})

	// register kafka-listener
	settle := kafka.NewPaymentStatusHandler(placeOrder)
	consumer := kafka.NewConsumer(group, []string{cfg.Kafka.TopicPayments}, settle.Handle)

	// init handlers + routers + middleware
	submitTimeout := 2*cfg.Checkout.CallTimeout + 2*time.Second
	router := http.NewRouter(http.Handlers{
		Sessions:  http.NewSessionHandler(sessions, rewards, tokens),
		Catalog:   http.NewCatalogHandler(catalog),
		Cart:      http.NewCartHandler(cart),
		Checkout:  http.NewCheckoutHandler(checkout, submitTimeout),
		Webhook:   http.NewPaymentWebhookHandler(checkout, submitTimeout),
		Orders:    http.NewOrderHandler(placeOrder, sessions, submitTimeout),
		Wholesale: http.NewWholesaleHandler(gate),
		Points:    http.NewPointsHandler(rewards),
	}, http.RouterDeps{
		Authz:    middleware.NewAuthz(tokens),
		Webhook:  middleware.NewWebhookVerify(signer),
		Metrics:  middleware.NewHTTPMetrics(reg),
		Gatherer: reg,
		Logger:   logging.New("http"),
	})

	health := grpcadapter.NewHealthServer(map[string]grpcadapter.Check{
		"mysql": db.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		"rabbitmq": func(context.Context) error {
			if conn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		},
	})

	return &App{
		cfg: cfg,
		log: log,
		server: &nethttp.Server{
			Addr:         cfg.App.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		},
		health:   health,
		relay:    relay,
		rmq:      rmq,
		payments: consumer,
	}, cleanup, nil
}

// Run serves HTTP and gRPC health and runs the background workers until ctx
// is cancelled, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.cfg.GRPC.HealthAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	if err := a.rmq.Start(ctx); err != nil {
		_ = lis.Close()
		return fmt.Errorf("rabbitmq consumers: %w", err)
	}
	g.Go(func() error {
		a.rmq.Wait()
		return nil
	})

	g.Go(func() error {
		a.log.Info("http listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.log.Info("grpc health listening", "addr", a.cfg.GRPC.HealthAddr)
		return a.health.Serve(lis)
	})
	g.Go(func() error {
		a.health.Watch(ctx, 10*time.Second)
		return nil
	})

	g.Go(func() error {
		if err := a.relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox relay: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.payments.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.health.Stop()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
