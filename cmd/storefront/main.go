package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/stylino-storefront/internal/config"
	"example.com/stylino-storefront/internal/infra/persistence/memory"
	"example.com/stylino-storefront/internal/infra/persistence/mysql"
	"example.com/stylino-storefront/internal/infra/persistence/postgres"
	"example.com/stylino-storefront/internal/infra/persistence/redis"
	"example.com/stylino-storefront/internal/infra/security"
	"example.com/stylino-storefront/internal/infra/storeapi"
	apihttp "example.com/stylino-storefront/internal/interface/http"
	"example.com/stylino-storefront/internal/metrics"
	cartuc "example.com/stylino-storefront/internal/usecase/cart"
	checkoutuc "example.com/stylino-storefront/internal/usecase/checkout"
	"example.com/stylino-storefront/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.Environment)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	repo, closeRepo, err := openSlotRepository(ctx, cfg)
	if err != nil {
		logger.Fatal("cart store unavailable", map[string]interface{}{
			"store": cfg.CartStore,
			"error": err.Error(),
		})
	}
	defer closeRepo()

	cartSvc, err := cartuc.NewService(repo, cfg.CartSessionCacheSize, m)
	if err != nil {
		logger.Fatal("cart service init failed", map[string]interface{}{"error": err.Error()})
	}

	store := storeapi.NewClient(cfg.StoreAPIBase, cfg.StoreAPITimeout)
	checkoutSvc := checkoutuc.NewService(store, store, store, security.NewTokenInspector(cfg.SessionTokenSecret), m, checkoutuc.Config{
		AuthEntryURL:      cfg.AuthEntryURL,
		ReturnPath:        cfg.CheckoutReturnPath,
		DescriptionFormat: cfg.PaymentDescriptionFormat,
	})

	deps := apihttp.Dependencies{
		CartService:     cartSvc,
		CheckoutService: checkoutSvc,
		SlotKeys:        security.NewSlotKeys(cfg.CartSlotPrefix),
		CookieName:      cfg.SessionCookieName,
		CookieSecure:    cfg.SessionCookieSecure,
	}
	if cfg.EnableMetrics {
		deps.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apihttp.NewAPI(deps).Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.StoreAPITimeout*2 + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", map[string]interface{}{
			"port":       cfg.Port,
			"cart_store": cfg.CartStore,
			"store_api":  cfg.StoreAPIBase,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "graceful shutdown failed", nil)
	}
	cartSvc.Shutdown()
}

// openSlotRepository connects the configured cart store. The returned func
// releases its connections.
func openSlotRepository(ctx context.Context, cfg *config.Config) (cartuc.SlotRepository, func(), error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch cfg.CartStore {
	case config.StoreMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("mysql open: %w", err)
		}
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("mysql ping: %w", err)
		}
		repo := mysql.NewSlotRepository(db)
		if err := repo.EnsureSchema(pingCtx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("mysql schema: %w", err)
		}
		return repo, func() { db.Close() }, nil

	case config.StorePostgres:
		pool, err := pgxpool.New(pingCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("pg connect: %w", err)
		}
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pg ping: %w", err)
		}
		repo := postgres.NewSlotRepository(pool)
		if err := repo.EnsureSchema(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pg schema: %w", err)
		}
		return repo, pool.Close, nil

	case config.StoreRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return redis.NewSlotRepository(client), func() { _ = client.Close() }, nil

	default:
		logger.Warn("using in-memory cart store; carts are lost on restart", nil)
		return memory.NewSlotRepository(), func() {}, nil
	}
}
