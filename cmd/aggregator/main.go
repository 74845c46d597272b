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

	"github.com/MinorTermite/prizmbet-v2/internal/parser/adapters"
	"github.com/MinorTermite/prizmbet-v2/internal/parser/aggregator"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/cache"
	pkgconfig "github.com/MinorTermite/prizmbet-v2/internal/pkg/config"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/httpclient"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/logging"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/notify"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/proxy"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/publish"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/ratelimit"
	"github.com/MinorTermite/prizmbet-v2/internal/pkg/storage"

	// Register all adapters via init().
	_ "github.com/MinorTermite/prizmbet-v2/internal/parser/adapters/all"
)

const defaultConfigPath = "configs/production.yaml"

type flags struct {
	configPath string
	once       bool
	interval   time.Duration
}

func main() {
	if err := run(); err != nil {
		slog.Error("Aggregator failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	f := parseFlags()

	cfg, err := pkgconfig.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.SetupLogger(cfg.Logging.Level, "aggregator")
	slog.Info("Config loaded", "path", f.configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agg, cleanup, err := buildPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	interval := cfg.Aggregator.Interval
	if f.interval > 0 {
		interval = f.interval
	}
	if f.once || interval <= 0 {
		_, err := agg.RunOnce(ctx)
		return err
	}

	slog.Info("Starting aggregation loop", "interval", interval)
	for {
		if _, err := agg.RunOnce(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			// A failed cycle is retried next tick; the previous snapshot
			// stays in place for readers.
			slog.Error("Aggregation cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("Shutting down")
			return nil
		case <-time.After(interval):
		}
	}
}

// buildPipeline wires the shared services and returns the aggregator with
// a cleanup closing the optional sinks.
func buildPipeline(ctx context.Context, cfg *pkgconfig.Config) (*aggregator.Aggregator, func(), error) {
	var proxies *proxy.Manager
	if cfg.Proxy.Enabled && cfg.Proxy.StaticURL == "" {
		proxies = proxy.NewManager(cfg.Proxy.Sources)
		proxies.Refresh(ctx)
	}

	limiter := ratelimit.NewLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	client := httpclient.New(limiter, proxies, cfg.Proxy.StaticURL, cfg.Aggregator.Timeout)

	notifier := notify.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	seen := cache.NewSeenCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.SeenTTL)

	store, err := storage.NewMatchStore(cfg.Postgres.DSN)
	if err != nil {
		// File-only mode still works without the relational sink.
		slog.Warn("Postgres unavailable, continuing without persistence", "error", err)
	}

	deps := adapters.Deps{Config: cfg, Client: client}
	agg := aggregator.New(cfg, deps, publish.NewPublisher(cfg.Snapshot.Path), notifier, seen, store)

	cleanup := func() {
		if seen != nil {
			seen.Close()
		}
		if store != nil {
			store.Close()
		}
	}
	return agg, cleanup, nil
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", defaultConfigPath, "Path to YAML config")
	flag.BoolVar(&f.once, "once", false, "Run a single aggregation cycle and exit")
	flag.DurationVar(&f.interval, "interval", 0, "Override the run interval from config")
	flag.Parse()
	return f
}
