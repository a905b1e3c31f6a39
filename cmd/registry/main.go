package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adeilh/employee-registry/api"
	"github.com/adeilh/employee-registry/cache"
	"github.com/adeilh/employee-registry/cache/memory"
	cacheredis "github.com/adeilh/employee-registry/cache/redis"
	"github.com/adeilh/employee-registry/config"
	"github.com/adeilh/employee-registry/db/sql/postgres"
	"github.com/adeilh/employee-registry/employee"
	"github.com/adeilh/employee-registry/httpx"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "registry:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(
		postgres.WithDSN(cfg.Postgres.DSN),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
	)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.ApplyMigrations(ctx, db, employee.DefaultSchema); err != nil {
		return err
	}

	var listCache cache.Store
	cacheCheck := api.HealthCheck(func(context.Context) error { return nil })
	if cfg.Redis.Addr != "" {
		redisCache := cacheredis.NewStore(cacheredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisCache.Close()
		listCache = redisCache
		cacheCheck = redisCache.Ping
		log.Info("using redis list cache", "addr", cfg.Redis.Addr)
	} else {
		listCache = memory.NewStore()
		log.Info("no redis address configured, using in-process list cache")
	}

	repo, err := employee.NewRepository(employee.RepositoryConfig{
		Store:  postgres.NewEmployeeStore(db),
		Cache:  listCache,
		TTL:    cfg.Cache.ListTTL.Std(),
		Logger: log,
	})
	if err != nil {
		return err
	}

	handler := api.NewHandler(repo)
	handler.AddHealthCheck("postgres", db.PingContext)
	handler.AddHealthCheck("cache", cacheCheck)

	serverOpts := []httpx.ServerOption{
		httpx.WithAddress(cfg.HTTP.Addr),
		httpx.WithTimeouts(cfg.HTTP.ReadTimeout.Std(), cfg.HTTP.WriteTimeout.Std()),
	}
	if cfg.HTTP.EnableCORS {
		serverOpts = append(serverOpts, httpx.WithCORS(nil))
	}

	server := httpx.NewServer(serverOpts...)
	server.RegisterRoutes(handler.Register)

	log.Info("employee registry listening", "addr", cfg.HTTP.Addr)
	return server.Start(ctx, httpx.WithShutdownTimeout(10*time.Second))
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
