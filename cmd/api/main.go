package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketly/marketly-backend/api/routes"
	"github.com/marketly/marketly-backend/internal/addresses"
	"github.com/marketly/marketly-backend/internal/auth"
	"github.com/marketly/marketly-backend/internal/cart"
	"github.com/marketly/marketly-backend/internal/checkout"
	"github.com/marketly/marketly-backend/internal/events"
	"github.com/marketly/marketly-backend/internal/messages"
	"github.com/marketly/marketly-backend/internal/orders"
	"github.com/marketly/marketly-backend/internal/payments"
	"github.com/marketly/marketly-backend/internal/products"
	"github.com/marketly/marketly-backend/internal/realtime"
	"github.com/marketly/marketly-backend/internal/stores"
	"github.com/marketly/marketly-backend/internal/users"
	pkgAuth "github.com/marketly/marketly-backend/pkg/auth"
	"github.com/marketly/marketly-backend/pkg/auth/session"
	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/db"
	"github.com/marketly/marketly-backend/pkg/logger"
	"github.com/marketly/marketly-backend/pkg/metrics"
	"github.com/marketly/marketly-backend/pkg/migrate"
	"github.com/marketly/marketly-backend/pkg/pubsub"
	"github.com/marketly/marketly-backend/pkg/redis"
	pkgstripe "github.com/marketly/marketly-backend/pkg/stripe"
)

const (
	shutdownTimeout = 15 * time.Second
	webhookEventTTL = 72 * time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer closeResource(logg, "database", dbClient.Close)

	requireResource(ctx, logg, "migrations", migrate.MaybeRun(ctx, cfg, logg, dbClient))

	var (
		redisClient *redis.Client
		sessions    pkgAuth.SessionChecker
		authParams  = auth.ServiceParams{JWTConfig: cfg.JWT, PasswordConfig: cfg.Password}
		guard       *payments.EventGuard
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer closeResource(logg, "redis", redisClient.Close)

		manager, err := session.NewManager(redisClient, cfg.JWT)
		requireResource(ctx, logg, "session manager", err)
		sessions = manager
		authParams.SessionManager = manager

		guard, err = payments.NewEventGuard(redisClient, webhookEventTTL)
		requireResource(ctx, logg, "webhook guard", err)
	} else {
		logg.Warn(ctx, "redis not configured: sessions, idempotency replay and auth rate limits are disabled")
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		defer closeResource(logg, "pubsub", psClient.Close)

		pub, err := events.NewPubSubPublisher(psClient.OrdersPublisher(), logg)
		requireResource(ctx, logg, "order events publisher", err)
		publisher = pub
	}

	var (
		gateway       payments.Gateway
		verifier      checkout.PaymentVerifier
		webhookSecret string
	)
	if cfg.Stripe.Configured() {
		stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
		requireResource(ctx, logg, "stripe", err)
		gateway = stripeClient
		webhookSecret = stripeClient.SigningSecret()

		v, err := payments.NewVerifier(stripeClient)
		requireResource(ctx, logg, "stripe verifier", err)
		verifier = v
	} else {
		logg.Warn(ctx, "stripe not configured: card payments are disabled")
	}

	shipping, err := cfg.Checkout.ShippingCostDecimal()
	requireResource(ctx, logg, "shipping cost", err)

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	storeRepo := stores.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)

	authParams.UserRepo = userRepo
	authService, err := auth.NewService(authParams)
	requireResource(ctx, logg, "auth service", err)

	userService, err := users.NewService(userRepo, dbClient)
	requireResource(ctx, logg, "users service", err)

	storeService, err := stores.NewService(storeRepo, productRepo, userRepo, dbClient)
	requireResource(ctx, logg, "stores service", err)

	productService, err := products.NewService(productRepo, storeRepo, dbClient)
	requireResource(ctx, logg, "products service", err)

	cartService, err := cart.NewService(cartRepo, productRepo, shipping)
	requireResource(ctx, logg, "cart service", err)

	orderService, err := orders.NewService(orders.NewRepository(gormDB), storeRepo, dbClient, publisher, logg)
	requireResource(ctx, logg, "orders service", err)

	addressService, err := addresses.NewService(addresses.NewRepository(gormDB), dbClient)
	requireResource(ctx, logg, "addresses service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Carts:     cartRepo,
		Products:  productRepo,
		Stores:    storeRepo,
		Orders:    orderService,
		Addresses: addressService,
		Payments:  verifier,
		Shipping:  shipping,
		Logger:    logg,
	})
	requireResource(ctx, logg, "checkout service", err)

	paymentService, err := payments.NewService(payments.ServiceParams{
		Gateway: gateway,
		Quotes:  checkoutService,
		Orders:  orderService,
		Logger:  logg,
	})
	requireResource(ctx, logg, "payments service", err)

	messageService, err := messages.NewService(messages.NewRepository(gormDB), userRepo)
	requireResource(ctx, logg, "messages service", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dispatcher, err := realtime.NewDispatcher(realtime.NewRegistry(), messageService, logg, metrics.NewRealtimeMetrics(registry))
	requireResource(ctx, logg, "realtime dispatcher", err)

	socketGateway, err := realtime.NewGateway(dispatcher, cfg.Realtime, logg)
	requireResource(ctx, logg, "realtime gateway", err)

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:             dbClient,
		Redis:          redisClient,
		Sessions:       sessions,
		Metrics:        metrics.NewHTTPMetrics(registry),
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Auth:           authService,
		Users:          userService,
		Stores:         storeService,
		Products:       productService,
		Cart:           cartService,
		Checkout:       checkoutService,
		Orders:         orderService,
		Addresses:      addressService,
		Messages:       messageService,
		Sender:         dispatcher,
		Payments:       paymentService,
		WebhookGuard:   guard,
		WebhookSecret:  webhookSecret,
		Realtime:       socketGateway,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}

func closeResource(logg *logger.Logger, resource string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), fmt.Sprintf("error closing %s", resource), err)
	}
}
