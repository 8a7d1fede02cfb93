package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"bookstore/auth"
	"bookstore/cart"
	"bookstore/catalog"
	"bookstore/checkout"
	"bookstore/config"
	"bookstore/controllers"
	"bookstore/database"
	"bookstore/locks"
	"bookstore/logging"
	"bookstore/routes"

	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(c.Context, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, nil)
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.WithError(err).Warn("closing store")
		}
	}()

	var (
		idempotency checkout.IdempotencyStore = checkout.NewMemoryIdempotency()
		revocations auth.RevocationList       = auth.NewMemoryRevocations()
	)
	if cfg.RedisAddr != "" {
		rdb, err := database.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer rdb.Close()
		idempotency = checkout.NewRedisIdempotency(rdb)
		revocations = auth.NewRedisRevocations(rdb)
		logger.WithField("addr", cfg.RedisAddr).Info("connected to redis")
	}

	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY is empty, checkout sessions will fail")
	}
	gateway := checkout.NewStripeGateway(cfg.StripeSecretKey, &http.Client{Timeout: cfg.GatewayTimeout})

	lk := locks.NewKeyed()
	catalogSvc := catalog.NewService(store.Products(), lk, catalog.NewEngine(cfg.CatalogLocale), logging.Component(logger, "catalog"))
	cartMgr := cart.NewManager(store.Carts(), store.Products(), lk, logging.Component(logger, "cart"))
	authSvc := auth.NewService(store.Users(), auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL), revocations, logging.Component(logger, "auth"))
	orch := checkout.NewOrchestrator(gateway, cartMgr, idempotency, checkout.Config{
		Currency:       cfg.Currency,
		ShippingName:   cfg.ShippingName,
		ShippingFee:    cfg.ShippingFeeMinor,
		Timeout:        cfg.GatewayTimeout,
		IdempotencyTTL: cfg.IdempotencyTTL,
		PublicURL:      cfg.PublicURL,
	}, logging.Component(logger, "checkout"))

	h := routes.Handlers{
		Info:     controllers.NewInfoController(store, cfg.RequestTimeout),
		Products: controllers.NewProductController(catalogSvc, cfg.RequestTimeout),
		Cart:     controllers.NewCartController(cartMgr, cfg.RequestTimeout),
		Checkout: controllers.NewCheckoutController(orch, cfg.GatewayTimeout+cfg.RequestTimeout),
		Auth:     controllers.NewAuthController(authSvc, cfg.RequestTimeout),
	}
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: routes.NewRouter(h, authSvc, logger, cfg.AllowedOrigins()),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("bookstore API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return pkgerrors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.Wrap(err, "shutdown")
	}
	logger.Info("bookstore API stopped")
	return nil
}

// openStore connects the configured persistence backend.
func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (database.Store, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("using the in-memory store, data is lost on exit")
		return database.NewMemory(), nil
	}

	m, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		return nil, err
	}
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = m.Close(context.Background())
		return nil, err
	}
	logger.WithField("db", cfg.DBName).Info("connected to mongo")
	return m, nil
}
