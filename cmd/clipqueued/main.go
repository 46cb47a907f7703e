package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"clipqueue/internal/analytics"
	"clipqueue/internal/api"
	"clipqueue/internal/config"
	"clipqueue/internal/extract"
	"clipqueue/internal/logger"
	"clipqueue/internal/model"
	"clipqueue/internal/notify"
	"clipqueue/internal/ratelimit"
	"clipqueue/internal/registry"
	"clipqueue/internal/scheduler"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "clipqueued: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional, environment variables may be set directly
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("clipqueued starting",
		zap.String("version", version),
		zap.Int("rate_limit", cfg.Limits.RequestsPerWindow),
		zap.Duration("rate_window", cfg.Window()),
		zap.Int("max_concurrent", cfg.Limits.MaxConcurrent),
		zap.Int64("max_file_size", cfg.MaxFileSize()),
		zap.Duration("max_duration", cfg.MaxVideoDuration()),
		zap.String("analytics_backend", cfg.Analytics.Backend),
	)

	if err := os.MkdirAll(cfg.Downloads.Dir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := analytics.NewCollector(ctx, store, log)
	limiter := ratelimit.New(cfg.Limits.RequestsPerWindow, cfg.Window())
	reg := registry.New(cfg.Queue.RetainedJobs)
	extractor := extract.NewYtDlp(cfg.Downloads.Dir, log)
	notifier := notify.NewLogNotifier(log)
	relay := notify.NewRelay(notifier, cfg.Notify.BufferSize, log)

	cookiePaths := make(map[model.Platform]string)
	for name, path := range cfg.Cookies {
		p := model.Platform(name)
		if !p.Supported() {
			log.Warn("ignoring cookie entry for unknown platform", zap.String("platform", name))
			continue
		}
		cookiePaths[p] = path
		log.Info("cookie file configured", zap.String("platform", name), zap.String("path", path))
	}

	sched := scheduler.New(scheduler.Config{
		MaxConcurrent:      cfg.Limits.MaxConcurrent,
		MaxAttempts:        cfg.Limits.MaxAttempts,
		MaxFileSize:        cfg.MaxFileSize(),
		MaxVideoDuration:   cfg.MaxVideoDuration(),
		AttemptTimeout:     cfg.AttemptTimeout(),
		RetryDelay:         cfg.RetryDelay(),
		QueueCapacity:      cfg.Queue.Capacity,
		DefaultJobDuration: cfg.DefaultJobDurationValue(),
		CookiePaths:        cookiePaths,
	}, limiter, reg, collector, extractor, notifier, relay, log)

	relay.Start()
	sched.Start(ctx)

	server := api.New(sched, reg, limiter, collector, cfg.IsAdmin, log)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		log.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("http server listening", zap.String("addr", cfg.Server.ListenAddr))
	if err := server.Run(ctx, cfg.Server.ListenAddr); err != nil {
		log.Error("http server failed", zap.Error(err))
		cancel()
	}

	// In-flight jobs post their terminal events during Wait; only then
	// may the relay stop consuming.
	sched.Wait()
	relay.Close()
	<-relay.Done()
	collector.Flush()

	log.Info("clipqueued stopped")
	return nil
}

// buildStore selects the analytics persistence backend
func buildStore(cfg *config.Config) (analytics.Store, func(), error) {
	switch cfg.Analytics.Backend {
	case "redis":
		store, err := analytics.NewRedisStore(cfg.Analytics.Redis.Addr, cfg.Analytics.Redis.Password, cfg.Analytics.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return analytics.NewFileStore(cfg.Analytics.File), func() {}, nil
	}
}
