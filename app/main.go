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

	"github.com/geobrief/geobrief/app/api"
	"github.com/geobrief/geobrief/app/cache"
	"github.com/geobrief/geobrief/app/cfg"
	"github.com/geobrief/geobrief/app/database"
	"github.com/geobrief/geobrief/app/feed"
	"github.com/geobrief/geobrief/app/providers"
	"github.com/geobrief/geobrief/app/summarizer"
	"github.com/geobrief/geobrief/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully.
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting GeoBrief server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	registry := feed.NewRegistry(appCfg.SourcesFile)
	if err := registry.Run(); err != nil {
		slog.Error("Failed to load source registry", "file", appCfg.SourcesFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Source registry loaded", "sources", registry.GetSourceCount())

	httpClient := &http.Client{Timeout: 30 * time.Second}

	fetcher := feed.NewFetcher(httpClient, appCfg.UserAgent)
	biasIndex := feed.NewBiasIndex(registry.BiasOverrides())
	balancer := feed.NewBalancer(biasIndex, feed.FallbackPool())

	var backups []feed.RawSource
	if appCfg.GNewsAPIKey != "" {
		backups = append(backups, providers.NewGNewsProvider(appCfg.GNewsAPIKey, httpClient))
	}
	if appCfg.NewsDataAPIKey != "" {
		backups = append(backups, providers.NewNewsDataProvider(appCfg.NewsDataAPIKey, httpClient))
	}
	if appCfg.CurrentsAPIKey != "" {
		backups = append(backups, providers.NewCurrentsProvider(appCfg.CurrentsAPIKey, httpClient))
	}
	slog.Info("Backup providers configured", "count", len(backups))

	session := cache.NewSessionStore(2 * time.Duration(appCfg.RefreshInterval) * time.Second)
	snapshotRepo := database.NewSnapshotRepository(db, appCfg.HistoryDays)

	var edge cache.EdgeCache
	if appCfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(appCfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to redis", "addr", appCfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer redisCache.Close()
		edge = redisCache
		slog.Info("Edge cache backed by redis", "addr", appCfg.RedisAddr)
	} else {
		edge = cache.NewMemoryCache()
		slog.Info("Edge cache in memory (REDIS_ADDR not set)")
	}

	// Cached-briefing fallback: the session tier first, then the most
	// recent persisted snapshot.
	lastGood := func() *feed.Briefing {
		if briefing, freshness := session.Current(); freshness != cache.FreshnessNone {
			return briefing
		}
		snapshot, err := snapshotRepo.GetLatestSnapshot()
		if err != nil || snapshot == nil {
			return nil
		}
		return &feed.Briefing{
			Articles:    snapshot.Articles,
			GeneratedAt: snapshot.SavedAt,
			Origin:      feed.OriginCached,
		}
	}

	pipeline := feed.NewPipeline(registry, fetcher, backups, balancer, lastGood)
	summarySvc := summarizer.New(appCfg.AnthropicAPIKey, appCfg.SummaryModel)
	if !summarySvc.Enabled() {
		slog.Info("Summarization disabled (ANTHROPIC_API_KEY not set)")
	}

	scheduler := tasks.NewScheduler(pipeline, session, edge, summarySvc, snapshotRepo)
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "refresh_interval", appCfg.RefreshInterval, "edge_warm_interval", appCfg.EdgeWarmInterval)

	handler := api.NewHandler(registry, fetcher, session, edge, snapshotRepo, summarySvc, scheduler)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer.
	slog.Info("Shutdown complete")
}
