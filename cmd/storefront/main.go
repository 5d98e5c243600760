package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/config"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/session"
	"github.com/fjod/storefront/internal/settlement"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg, err := config.Load(getEnv("CONFIG_DIR", "configs"), getEnv("APP_ENV", "dev"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init(logging.Options{Component: cfg.App.Name, FilePath: cfg.App.LogFile, Level: cfg.App.LogLevel})
	log := logging.New("storefront")

	ctx := context.Background()
	repo, closeRepo, err := openCartRepository(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open cart storage", "storage", cfg.Cart.Storage, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	var orders settlement.Client
	if cfg.Settlement.Endpoint == "" {
		log.Info("settling orders in-process")
		orders = settlement.NewProcessor(logging.New("orders"))
	} else {
		log.Info("settling orders over http", "endpoint", cfg.Settlement.Endpoint)
		orders = settlement.NewHTTPClient(cfg.Settlement.Endpoint, cfg.Settlement.Timeout, settlement.BreakerSettings{
			MaxRequests:      cfg.Settlement.Breaker.MaxRequests,
			Interval:         cfg.Settlement.Breaker.Interval,
			OpenTimeout:      cfg.Settlement.Breaker.OpenTimeout,
			FailureThreshold: cfg.Settlement.Breaker.FailureThreshold,
		}, logging.New("settlement"))
	}

	var authorizer payment.Authorizer = payment.AlwaysApprove{}
	if cfg.Payment.CardDeclines {
		authorizer = payment.RandomAuthorizer{}
	}
	paymentLog := logging.New("payment")
	dispatcher := payment.NewDispatcher(
		payment.NewMobileMoney(cfg.Payment.Latency, paymentLog),
		payment.NewCard(cfg.Payment.Latency, authorizer, paymentLog),
		orders,
		paymentLog,
	)

	sessions := session.NewManager(
		cart.NewRegistry(repo, logging.New("cart")),
		dispatcher,
		checkout.Options{
			DeliveryFee:       decimal.NewFromFloat(cfg.Checkout.DeliveryFee),
			SettlementTimeout: cfg.Checkout.SettlementTimeout,
			Log:               logging.New("checkout"),
		},
		log,
	)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go sessions.RunJanitor(janitorCtx, cfg.Cart.SweepInterval, cfg.Cart.IdleTTL)

	tokens := auth.NewTokens(cfg.Security.JWTSecret, cfg.Security.Issuer, cfg.Security.TTL)
	router := h.NewStorefrontRouter(h.StorefrontDeps{
		Cart:           h.NewCartHandler(sessions, cfg.HTTP.RequestTimeout),
		Checkout:       h.NewCheckoutHandler(sessions, cfg.HTTP.RequestTimeout),
		Session:        h.NewSessionHandler(tokens, cfg.Security.TTL),
		Tokens:         tokens,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		MaxBodySize:    cfg.HTTP.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("storefront starting", "addr", cfg.HTTP.Addr, "cart_storage", cfg.Cart.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}

func openCartRepository(ctx context.Context, cfg config.Config, log *slog.Logger) (repository.CartRepository, func(), error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.Cart.Storage {
	case config.StorageRedis:
		client, err := repository.ConnectRedis(connectCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisRepository(client, cfg.Cart.TTL), func() { _ = client.Close() }, nil

	case config.StorageMongo:
		db, err := repository.ConnectMongoDB(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoRepository(db, cfg.Cart.TTL)
		if err := repo.CreateIndexes(connectCtx); err != nil {
			log.Warn("failed to create cart indexes", "error", err)
		}
		return repo, func() { _ = db.Client().Disconnect(context.Background()) }, nil

	default:
		return repository.NewMemoryRepository(), func() {}, nil
	}
}
