package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hmoralesdev/retailpoint-backend/api/controllers"
	"github.com/hmoralesdev/retailpoint-backend/api/middleware"
	authsvc "github.com/hmoralesdev/retailpoint-backend/internal/auth"
	"github.com/hmoralesdev/retailpoint-backend/internal/cart"
	checkoutsvc "github.com/hmoralesdev/retailpoint-backend/internal/checkout"
	"github.com/hmoralesdev/retailpoint-backend/internal/orders"
	"github.com/hmoralesdev/retailpoint-backend/internal/products"
	"github.com/hmoralesdev/retailpoint-backend/internal/stockrequests"
	"github.com/hmoralesdev/retailpoint-backend/internal/tasks"
	"github.com/hmoralesdev/retailpoint-backend/internal/users"
	"github.com/hmoralesdev/retailpoint-backend/pkg/auth/session"
	"github.com/hmoralesdev/retailpoint-backend/pkg/config"
	"github.com/hmoralesdev/retailpoint-backend/pkg/db"
	"github.com/hmoralesdev/retailpoint-backend/pkg/enums"
	"github.com/hmoralesdev/retailpoint-backend/pkg/logger"
	"github.com/hmoralesdev/retailpoint-backend/pkg/metrics"
	pkgredis "github.com/hmoralesdev/retailpoint-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	httpMetrics *metrics.HTTPMetrics,
	sessions session.AccessSessionChecker,
	authService authsvc.Service,
	usersService users.Service,
	productService products.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
	tasksService tasks.Service,
	stockRequestsService stockrequests.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	// Typed-nil guards so the router can be exercised without a live
	// Redis connection.
	var idemStore pkgredis.IdempotencyStore
	var redisP pkgredis.Pinger
	if redisClient != nil {
		idemStore = redisClient
		redisP = redisClient
	}
	authLimiter := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if redisClient == nil {
			return middleware.AuthRateLimit(policy, nil, logg)
		}
		return middleware.AuthRateLimit(policy, redisClient, logg)
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(
				authLimiter(registerPolicy),
				middleware.Idempotency(idemStore, logg),
			).Post("/register", controllers.AuthRegister(authService, logg))
			r.With(authLimiter(loginPolicy)).Post("/login", controllers.AuthLogin(authService, logg))
			r.With(middleware.Auth(cfg.JWT, sessions, logg)).Post("/logout", controllers.AuthLogout(authService, logg))
		})

		// Browse surface. No token needed; hidden products stay hidden
		// because the guest role never widens visibility.
		r.Get("/products", controllers.ProductList(productService, logg))
		r.Get("/products/{productID}", controllers.ProductDetail(productService, logg))
		r.Get("/categories", controllers.CategoryList(productService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Use(middleware.Idempotency(idemStore, logg))

			staffOnly := middleware.RequireRole(logg, enums.RoleStaff, enums.RoleAdmin)
			adminOnly := middleware.RequireRole(logg, enums.RoleAdmin)

			r.Route("/users", func(r chi.Router) {
				r.Get("/me", controllers.Me(usersService, logg))
				r.Patch("/me", controllers.MeUpdate(usersService, logg))
				r.Post("/me/password", controllers.ChangePassword(usersService, logg))

				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Get("/", controllers.UserList(usersService, logg))
					r.Delete("/{userID}", controllers.UserDelete(usersService, logg))
					r.Post("/{userID}/reset-password", controllers.UserResetPassword(usersService, logg))
					r.Post("/{userID}/role", controllers.UserSetRole(usersService, logg))
				})
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartList(cartService, logg))
				r.Post("/", controllers.CartAdd(cartService, logg))
				r.Get("/count", controllers.CartCount(cartService, logg))
				r.Patch("/items/{cartItemID}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{cartItemID}", controllers.CartRemoveItem(cartService, logg))
			})

			r.Post("/checkout", controllers.Checkout(checkoutService, logg))
			r.With(staffOnly).Post("/pos/checkout", controllers.POSCheckout(checkoutService, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(ordersService, logg))
				r.Get("/{orderID}", controllers.OrderDetail(ordersService, logg))
				r.With(staffOnly).Post("/{orderID}/status", controllers.OrderSetStatus(ordersService, logg))
				r.With(staffOnly).Post("/{orderID}/payment", controllers.OrderSetPayment(ordersService, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(staffOnly)
				r.Get("/products/low-stock", controllers.ProductLowStock(productService, logg))
				r.Post("/products", controllers.ProductCreate(productService, logg))
				r.Patch("/products/{productID}", controllers.ProductUpdate(productService, logg))
				r.Delete("/products/{productID}", controllers.ProductDelete(productService, logg))
				r.Get("/suppliers", controllers.SupplierList(productService, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/categories", controllers.CategoryCreate(productService, logg))
				r.Patch("/categories/{categoryID}", controllers.CategoryUpdate(productService, logg))
				r.Delete("/categories/{categoryID}", controllers.CategoryDelete(productService, logg))
				r.Post("/suppliers", controllers.SupplierCreate(productService, logg))
				r.Patch("/suppliers/{supplierID}", controllers.SupplierUpdate(productService, logg))
				r.Delete("/suppliers/{supplierID}", controllers.SupplierDelete(productService, logg))
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Use(staffOnly)
				r.Get("/mine", controllers.TaskListMine(tasksService, logg))
				r.Get("/stats", controllers.TaskStats(tasksService, logg))
				r.Post("/{taskID}/status", controllers.TaskSetStatus(tasksService, logg))

				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Get("/", controllers.TaskList(tasksService, logg))
					r.Post("/", controllers.TaskCreate(tasksService, logg))
					r.Patch("/{taskID}", controllers.TaskUpdate(tasksService, logg))
					r.Delete("/{taskID}", controllers.TaskDelete(tasksService, logg))
				})
			})

			r.Route("/stock-requests", func(r chi.Router) {
				r.Use(staffOnly)
				r.Get("/", controllers.StockRequestList(stockRequestsService, logg))
				r.Post("/", controllers.StockRequestFile(stockRequestsService, logg))

				r.Group(func(r chi.Router) {
					r.Use(adminOnly)
					r.Post("/{requestID}/approve", controllers.StockRequestApprove(stockRequestsService, logg))
					r.Post("/{requestID}/reject", controllers.StockRequestReject(stockRequestsService, logg))
					r.Delete("/{requestID}", controllers.StockRequestDelete(stockRequestsService, logg))
				})
			})
		})
	})

	return r
}
