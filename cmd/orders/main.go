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

	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/events"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/idempotency"
	"github.com/fjod/storefront/internal/logging"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/settlement"
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

	logging.Init(logging.Options{Component: "orders", FilePath: cfg.App.LogFile, Level: cfg.App.LogLevel})
	log := logging.New("orders")

	var idem h.IdempotencyStore
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	rdb, err := repository.ConnectRedis(pingCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	cancel()
	if err != nil {
		log.Warn("redis unavailable, duplicate orders will not be detected", "addr", cfg.Redis.Addr, "error", err)
	} else {
		defer rdb.Close()
		idem = idempotency.NewRedisStore(rdb, cfg.Idempotency.TTL)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		log.Info("publishing order events", "topic", cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	}
	defer publisher.Close()

	handler := h.NewOrdersHandler(settlement.NewProcessor(log), idem, publisher, cfg.HTTP.RequestTimeout)
	srv := &http.Server{
		Addr:         cfg.Orders.Addr,
		Handler:      otelhttp.NewHandler(h.NewOrdersRouter(handler, cfg.HTTP.RequestTimeout, cfg.HTTP.MaxRequestBodySize), "orders"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("order endpoint starting", "addr", cfg.Orders.Addr)
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
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}
