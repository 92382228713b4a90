package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fairshop/fairpos-backend/api/controllers"
	"github.com/fairshop/fairpos-backend/api/middleware"
	"github.com/fairshop/fairpos-backend/internal/auth"
	"github.com/fairshop/fairpos-backend/internal/catalog"
	"github.com/fairshop/fairpos-backend/internal/receipt"
	"github.com/fairshop/fairpos-backend/internal/register"
	"github.com/fairshop/fairpos-backend/internal/settings"
	"github.com/fairshop/fairpos-backend/internal/transactions"
	"github.com/fairshop/fairpos-backend/pkg/auth/session"
	"github.com/fairshop/fairpos-backend/pkg/config"
	"github.com/fairshop/fairpos-backend/pkg/db"
	"github.com/fairshop/fairpos-backend/pkg/logger"
	"github.com/fairshop/fairpos-backend/pkg/metrics"
	"github.com/fairshop/fairpos-backend/pkg/redis"
)

// Dependencies are the services and infrastructure the HTTP API is built from.
type Dependencies struct {
	DB           db.Pinger
	Redis        redis.Pinger
	Idempotency  redis.IdempotencyStore
	Sessions     session.AccessSessionChecker
	Metrics      *metrics.HTTP
	Auth         auth.Service
	Catalog      catalog.Service
	Register     register.Service
	Transactions transactions.Service
	Receipts     receipt.Service
	Settings     settings.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(
		middleware.SecureHeaders(cfg.App.IsDev()),
		middleware.CORS(cfg.HTTP.CORSOrigins),
		middleware.RateLimit(cfg.HTTP.RateLimitPerMinute, logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	maxUpload := cfg.Media.MaxUploadBytes()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/google", controllers.AuthGoogle(deps.Auth, logg))
		r.Post("/auth/refresh", controllers.AuthRefresh(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Idempotency, maxUpload, logg))

			r.Post("/auth/logout", controllers.AuthLogout(deps.Auth, logg))
			r.Get("/auth/me", controllers.AuthMe(deps.Auth, logg))
			r.Put("/auth/drive-token", controllers.AuthDriveToken(deps.Auth, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(deps.Catalog, logg))
				r.Post("/", controllers.CreateProduct(deps.Catalog, maxUpload, logg))
				r.Get("/lookup", controllers.LookupProduct(deps.Catalog, logg))
				r.Get("/draft", controllers.ProductDraft(deps.Catalog, logg))
				r.Get("/{productId}", controllers.GetProduct(deps.Catalog, logg))
				r.Patch("/{productId}", controllers.UpdateProduct(deps.Catalog, maxUpload, logg))
				r.Delete("/{productId}", controllers.DeleteProduct(deps.Catalog, logg))
			})

			r.Route("/register", func(r chi.Router) {
				r.Get("/", controllers.RegisterState(deps.Register, logg))
				r.Delete("/", controllers.RegisterClear(deps.Register, logg))
				r.Post("/items", controllers.RegisterAddItem(deps.Register, logg))
				r.Put("/items/{productId}", controllers.RegisterSetQuantity(deps.Register, logg))
				r.Post("/scan", controllers.RegisterScan(deps.Register, logg))
				r.Put("/discount", controllers.RegisterSetDiscount(deps.Register, logg))
				r.Post("/confirm", controllers.RegisterConfirm(deps.Register, logg))
				r.Post("/payment", controllers.RegisterConfirmPayment(deps.Register, logg))
				r.Post("/payment/cancel", controllers.RegisterCancelPayment(deps.Register, logg))
				r.Post("/cancel-edit", controllers.RegisterCancelEdit(deps.Register, logg))
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", controllers.ListTransactions(deps.Transactions, logg))
				r.Get("/{transactionId}", controllers.GetTransaction(deps.Transactions, logg))
				r.Post("/{transactionId}/edit", controllers.EditTransaction(deps.Register, logg))
				r.Post("/{transactionId}/receipt", controllers.ReprintReceipt(deps.Receipts, logg))
			})

			r.Get("/receipt", controllers.CurrentReceipt(deps.Receipts, logg))

			r.Get("/settings/payment", controllers.PaymentSettings(deps.Settings, logg))
			r.Put("/settings/payment/qr", controllers.ReplacePaymentQR(deps.Settings, maxUpload, logg))
		})
	})

	return r
}
