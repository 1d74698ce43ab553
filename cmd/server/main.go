package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/advance/internal/cache"
	"github.com/Simplici0/advance/internal/config"
	"github.com/Simplici0/advance/internal/db"
	"github.com/Simplici0/advance/internal/migrations"
	"github.com/Simplici0/advance/internal/seed"
	"github.com/Simplici0/advance/internal/store"
)

func main() {
	if err := run(); err != nil {
		zap.L().Error("server stopped", zap.Error(err))
		_ = zap.L().Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer func() { _ = zap.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(ctx, database, cfg.MigrationsDir); err != nil {
			return err
		}
	}

	schedule, err := cfg.Fees.Schedule()
	if err != nil {
		return err
	}
	stats, err := seed.Run(ctx, database, seed.Config{FeeScheduleName: cfg.Fees.Name, FeeSchedule: schedule})
	if err != nil {
		return err
	}
	zap.L().Info("startup seed finished", zap.Int("inserts", stats.Inserts), zap.Int("mismatches", stats.Mismatches))

	disclosures, closeCache := newCache(ctx, cfg.Redis)
	defer closeCache()

	srv := &server{store: store.New(database), cache: disclosures, now: time.Now}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("listening", zap.String("addr", httpServer.Addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	zap.L().Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

// newCache selects Redis when an address is configured, falling back to an
// in-memory cache if it is unreachable.
func newCache(ctx context.Context, cfg config.RedisConfig) (cache.Cache, func()) {
	ttl := time.Duration(cfg.TTLMinutes) * time.Minute
	if cfg.Addr == "" {
		return cache.NewMemoryCache(ttl), func() {}
	}

	rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		TTL:      ttl,
	})
	if err != nil {
		zap.L().Warn("redis unavailable, using in-memory disclosure cache", zap.Error(err))
		return cache.NewMemoryCache(ttl), func() {}
	}
	return rc, func() { _ = rc.Close() }
}
