package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codecrack/catalog-server/internal/api"
	"github.com/codecrack/catalog-server/internal/catalog"
	"github.com/codecrack/catalog-server/internal/platform/cache"
	"github.com/codecrack/catalog-server/internal/platform/config"
	"github.com/codecrack/catalog-server/internal/platform/database"
	"github.com/codecrack/catalog-server/internal/progress"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	sources, err := loadSources(cfg.Catalog)
	if err != nil {
		slog.Error("failed to resolve partition sources", "error", err)
		os.Exit(1)
	}
	if len(sources) == 0 {
		slog.Error("no partition sources found", "data_dir", cfg.Catalog.DataDir)
		os.Exit(1)
	}

	buildOpts := catalog.BuildOptions{
		PartitionTimeout: cfg.Catalog.PartitionTimeout,
		Concurrency:      cfg.Catalog.Concurrency,
	}
	snap := catalog.NewSnapshot(catalog.Build(ctx, sources, buildOpts))
	go snap.Refresh(ctx, cfg.Catalog.RefreshInterval,
		func(ctx context.Context) (*catalog.Catalog, *catalog.BuildReport) {
			return catalog.Build(ctx, sources, buildOpts)
		})

	checks := map[string]api.HealthCheck{}

	var store progress.Store
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := progress.EnsureSchema(ctx, db.Pool); err != nil {
			slog.Error("failed to prepare ledger schema", "error", err)
			os.Exit(1)
		}
		store, err = progress.NewPostgresStore(db.Pool)
		if err != nil {
			slog.Error("failed to create ledger store", "error", err)
			os.Exit(1)
		}
		checks["database"] = db.HealthCheck
		slog.Info("ledger store: postgres")
	} else {
		store = progress.NewMemoryStore()
		slog.Info("ledger store: memory")
	}

	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			slog.Error("failed to connect to cache", "error", err)
			os.Exit(1)
		}
		defer c.Close()
		store = progress.NewCachedStore(store, c.Client)
		checks["cache"] = c.HealthCheck
		slog.Info("ledger cache enabled")
	}

	tracker := progress.NewTracker(store, snap)
	server := api.NewServer(snap, tracker, checks)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

// loadSources resolves the partition list, preferring an explicit manifest
// over a directory scan.
func loadSources(cfg config.CatalogConfig) ([]catalog.Source, error) {
	if cfg.ManifestPath != "" {
		return catalog.LoadManifest(cfg.ManifestPath)
	}
	return catalog.DiscoverSources(cfg.DataDir)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
