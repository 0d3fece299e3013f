package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marketly/marketly-backend/api/controllers"
	"github.com/marketly/marketly-backend/api/middleware"
	"github.com/marketly/marketly-backend/internal/addresses"
	"github.com/marketly/marketly-backend/internal/auth"
	"github.com/marketly/marketly-backend/internal/cart"
	"github.com/marketly/marketly-backend/internal/checkout"
	"github.com/marketly/marketly-backend/internal/messages"
	"github.com/marketly/marketly-backend/internal/orders"
	"github.com/marketly/marketly-backend/internal/payments"
	"github.com/marketly/marketly-backend/internal/products"
	"github.com/marketly/marketly-backend/internal/realtime"
	"github.com/marketly/marketly-backend/internal/stores"
	"github.com/marketly/marketly-backend/internal/users"
	pkgAuth "github.com/marketly/marketly-backend/pkg/auth"
	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/logger"
	"github.com/marketly/marketly-backend/pkg/metrics"
	"github.com/marketly/marketly-backend/pkg/redis"
)

// Dependencies carries everything the router mounts. Redis, Sessions,
// WebhookGuard, Metrics and MetricsHandler are optional.
type Dependencies struct {
	DB             controllers.Pinger
	Redis          *redis.Client
	Sessions       pkgAuth.SessionChecker
	Metrics        *metrics.HTTPMetrics
	MetricsHandler http.Handler

	Auth         auth.Service
	Users        users.Service
	Stores       stores.Service
	Products     products.Service
	Cart         cart.Service
	Checkout     checkout.Service
	Orders       orders.Service
	Addresses    addresses.Service
	Messages     messages.Service
	Sender       controllers.MessageSender
	Payments     payments.Service
	WebhookGuard *payments.EventGuard
	Realtime     *realtime.Gateway

	// WebhookSecret verifies Stripe-Signature. Empty reports the webhook as not configured.
	WebhookSecret string
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(deps.Metrics),
	)

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit)
	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	idempotent := idempotency(deps.Redis, logg)

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	var cache controllers.Pinger
	if deps.Redis != nil {
		cache = deps.Redis
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", controllers.Health(cfg))
		r.Get("/db-status", controllers.DBStatus(deps.DB, cache))

		r.Route("/auth", func(r chi.Router) {
			r.With(authRateLimit(registerPolicy, deps.Redis, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(authRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
				r.Get("/profile", controllers.ProfileGet(deps.Users, logg))
				r.Put("/profile", controllers.ProfileUpdate(deps.Users, logg))
				r.Post("/follow/{userId}", controllers.UserFollow(deps.Users, logg))
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/featured", controllers.ProductFeatured(deps.Products, logg))
			r.Get("/{id}", controllers.ProductGet(deps.Products, logg))
			r.With(requireAuth).Post("/{id}/like", controllers.ProductLike(deps.Products, logg))
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/{id}", controllers.StoreGet(deps.Stores, logg))
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", controllers.StoreCreate(deps.Stores, logg))
				r.Put("/{id}", controllers.StoreUpdate(deps.Stores, logg))
				r.Post("/{id}/follow", controllers.StoreFollow(deps.Stores, logg))
				r.Post("/{id}/products", controllers.StoreAddProduct(deps.Stores, logg))
				r.Put("/{id}/products/{productId}", controllers.StoreUpdateProduct(deps.Stores, logg))
				r.Delete("/{id}/products/{productId}", controllers.StoreDeleteProduct(deps.Stores, logg))
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{productId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.With(idempotent).Post("/checkout", controllers.CartCheckout(deps.Checkout, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", controllers.AddressList(deps.Addresses, logg))
			r.Post("/", controllers.AddressCreate(deps.Addresses, logg))
			r.Put("/{id}", controllers.AddressUpdate(deps.Addresses, logg))
			r.Delete("/{id}", controllers.AddressDelete(deps.Addresses, logg))
			r.Post("/{id}/default", controllers.AddressSetDefault(deps.Addresses, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.With(idempotent).Post("/", controllers.OrderSubmit(deps.Checkout, logg))
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/store", controllers.OrderListStore(deps.Orders, logg))
			r.Get("/{id}", controllers.OrderGet(deps.Orders, logg))
			r.Put("/{id}/status", controllers.OrderUpdateStatus(deps.Orders, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.With(requireAuth, idempotent).Post("/create-intent", controllers.PaymentCreateIntent(deps.Payments, logg))
			r.Post("/webhook", controllers.PaymentWebhook(deps.Payments, deps.WebhookSecret, webhookGuard(deps.WebhookGuard), logg))
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", controllers.MessageSend(deps.Sender, logg))
			r.Get("/conversations", controllers.MessageConversations(deps.Messages, logg))
			r.Get("/unread-count", controllers.MessageUnreadCount(deps.Messages, logg))
			r.Get("/{userId}", controllers.MessageThread(deps.Messages, logg))
			r.Put("/{userId}/read", controllers.MessageMarkRead(deps.Messages, logg))
		})

		if deps.Realtime != nil {
			r.Get("/realtime", controllers.Realtime(deps.Realtime, cfg.JWT, deps.Sessions, logg))
		}
	})

	return r
}

// The helpers below keep a nil *redis.Client from becoming a non-nil interface.

func idempotency(client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return passthrough
	}
	return middleware.Idempotency(client, logg)
}

func authRateLimit(policy middleware.AuthRateLimitPolicy, client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return passthrough
	}
	return middleware.AuthRateLimit(policy, client, logg)
}

func webhookGuard(guard *payments.EventGuard) controllers.WebhookGuard {
	if guard == nil {
		return nil
	}
	return guard
}

func passthrough(next http.Handler) http.Handler { return next }
