package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/memento/internal/config"
	"github.com/MrSnakeDoc/memento/internal/domain"
	"github.com/MrSnakeDoc/memento/internal/httpserver"
	"github.com/MrSnakeDoc/memento/internal/httpserver/deps"
	"github.com/MrSnakeDoc/memento/internal/index"
	"github.com/MrSnakeDoc/memento/internal/linker"
	"github.com/MrSnakeDoc/memento/internal/logger"
	"github.com/MrSnakeDoc/memento/internal/scheduler"
	boltstore "github.com/MrSnakeDoc/memento/internal/store/bolt"
	redisstore "github.com/MrSnakeDoc/memento/internal/store/redis"
	"github.com/MrSnakeDoc/memento/internal/utils"
	"github.com/MrSnakeDoc/memento/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	archive  domain.Archive
	reloader *scheduler.ArchiveReloader
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Open the archive early - fail fast if unavailable
	archive, err := openArchive(cfg, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open %s archive: %v", cfg.StoreBackend, err)
		os.Exit(1)
	}
	loggerClient.Info("archive initialized", logger.String("backend", cfg.StoreBackend))

	negotiator, err := domain.NewNegotiator(archive)
	if err != nil {
		loggerClient.Errorf("Failed to build negotiator: %v", err)
		os.Exit(1)
	}

	links, err := linker.New(cfg.PublicURL, cfg.TrustProxy)
	if err != nil {
		loggerClient.Errorf("Invalid MEMENTO_PUBLIC_URL: %v", err)
		os.Exit(1)
	}

	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		IngestToken:     cfg.IngestToken,
		Archive:         archive,
		Backend:         cfg.StoreBackend,
		Negotiator:      negotiator,
		Linker:          links,
		TimeMapPageSize: cfg.TimeMapPageSize,
		IncludeTimeGate: cfg.IncludeTimeGate,
		RateBurst:       cfg.RateBurst,
		RatePerMin:      cfg.RatePerMin,
	}

	// Manifest reloader (if a manifest file is configured)
	var reloader *scheduler.ArchiveReloader
	if cfg.ArchiveFile != "" {
		loggerClient.Info("archive manifest configured, initializing reloader",
			logger.String("file", cfg.ArchiveFile))
		reloadTrigger := make(chan struct{}, 1)
		reloader = scheduler.NewArchiveReloader(
			cfg.ArchiveFile,
			archive,
			loggerClient,
			cfg.ReloadInterval,
			reloadTrigger,
		)
		d.ReloadTrigger = reloadTrigger
		d.Reloader = reloader
	} else {
		loggerClient.Info("archive manifest not configured, mementos come from POST /mementos only")
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   server,
		archive:  archive,
		reloader: reloader,
	}
}

func openArchive(cfg *config.Config, log logger.Logger) (domain.Archive, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redisstore.Connect(context.Background(), redisstore.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client), nil
	case config.BackendBolt:
		log.Info("opening bolt archive", logger.String("path", cfg.BoltPath))
		store, err := boltstore.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return index.NewMemoryIndex(), nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Memento v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Memento %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start archive reloader: %w", err)
		}
		a.logger.Info("archive reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.reloader != nil {
		a.reloader.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	utils.CloseLogged(a.archive, a.cfg.StoreBackend+" archive", a.logger)

	a.logger.Info("✅ Memento stopped cleanly")
	return nil
}
