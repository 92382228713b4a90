package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/fairshop/fairpos-backend/api/routes"
	"github.com/fairshop/fairpos-backend/internal/auth"
	"github.com/fairshop/fairpos-backend/internal/catalog"
	"github.com/fairshop/fairpos-backend/internal/handoff"
	"github.com/fairshop/fairpos-backend/internal/receipt"
	"github.com/fairshop/fairpos-backend/internal/register"
	"github.com/fairshop/fairpos-backend/internal/settings"
	"github.com/fairshop/fairpos-backend/internal/transactions"
	pkgAuth "github.com/fairshop/fairpos-backend/pkg/auth"
	"github.com/fairshop/fairpos-backend/pkg/auth/session"
	"github.com/fairshop/fairpos-backend/pkg/config"
	"github.com/fairshop/fairpos-backend/pkg/db"
	"github.com/fairshop/fairpos-backend/pkg/db/models"
	"github.com/fairshop/fairpos-backend/pkg/logger"
	"github.com/fairshop/fairpos-backend/pkg/metrics"
	"github.com/fairshop/fairpos-backend/pkg/migrate"
	"github.com/fairshop/fairpos-backend/pkg/redis"
	"github.com/fairshop/fairpos-backend/pkg/storage/drive"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT, cfg.Google)
	if err != nil {
		return err
	}
	verifier, err := pkgAuth.NewGoogleVerifier(cfg.Google.ClientID)
	if err != nil {
		return err
	}
	files, err := drive.NewClient(cfg.Google, logg)
	if err != nil {
		return err
	}

	httpMetrics := metrics.NewHTTP()
	commitMetrics := metrics.NewCommitMetrics(httpMetrics.Registerer())
	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	barcodes := handoff.NewSlot[string](redisClient, handoff.ScannedBarcode, cfg.Register.HandoffTTL)
	receipts := handoff.NewSlot[receipt.Snapshot](redisClient, handoff.Receipt, cfg.Register.HandoffTTL)
	edits := handoff.NewSlot[models.Transaction](redisClient, handoff.EditTransaction, cfg.Register.HandoffTTL)

	states, err := register.NewStateStore(redisClient, cfg.Register.StateTTL)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Verifier:  verifier,
		Sessions:  sessionManager,
		Registers: states,
		JWTConfig: cfg.JWT,
		Google:    cfg.Google,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	catalogService, err := catalog.NewService(catalog.Deps{
		Repo:     catalog.NewRepository(dbClient.DB()),
		Files:    files,
		Tokens:   sessionManager,
		Barcodes: barcodes,
		Metrics:  commitMetrics,
		Logger:   logg,
		Location: loc,
	})
	if err != nil {
		return err
	}

	settingsService, err := settings.NewService(settings.Deps{
		Repo:     settings.NewRepository(dbClient.DB()),
		Files:    files,
		Tokens:   sessionManager,
		Metrics:  commitMetrics,
		Logger:   logg,
		Location: loc,
	})
	if err != nil {
		return err
	}

	transactionService, err := transactions.NewService(transactions.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	registerService, err := register.NewService(register.Deps{
		States:       states,
		Products:     catalogService,
		Transactions: transactionService,
		Settings:     settingsService,
		Locks:        register.NewCommitLocks(redisClient, cfg.Register.CommitLockTTL),
		Barcodes:     barcodes,
		Receipts:     receipts,
		Edits:        edits,
		Metrics:      commitMetrics,
		Logger:       logg,
	})
	if err != nil {
		return err
	}

	receiptService, err := receipt.NewService(receipts, transactionService, receipt.Header{
		ShopName: cfg.App.ShopName,
		Footer:   cfg.App.ShopFooter,
	}, loc)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:           dbClient,
			Redis:        redisClient,
			Idempotency:  redisClient,
			Sessions:     sessionManager,
			Metrics:      httpMetrics,
			Auth:         authService,
			Catalog:      catalogService,
			Register:     registerService,
			Transactions: transactionService,
			Receipts:     receiptService,
			Settings:     settingsService,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
