package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sweetlive/backend/internal/archive"
	"sweetlive/backend/internal/cache"
	"sweetlive/backend/internal/config"
	"sweetlive/backend/internal/httpapi"
	"sweetlive/backend/internal/insights"
	"sweetlive/backend/internal/metrics"
	"sweetlive/backend/internal/scheduler"
	"sweetlive/backend/internal/service"
	"sweetlive/backend/internal/store"
	"sweetlive/backend/internal/store/memory"
	mongostore "sweetlive/backend/internal/store/mongo"
	pgstore "sweetlive/backend/internal/store/postgres"
	"sweetlive/backend/pkg/logger"
)

// workspaceLister is implemented by gateways that can enumerate stored
// workspaces.
type workspaceLister interface {
	Workspaces(ctx context.Context) ([]string, error)
}

func main() {
	envFile := flag.String("env", "", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Must(logger.New(cfg.Development))
	defer func() { _ = log.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatal("invalid security configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 4)
	gateway, err := openGateway(ctx, cfg, log, &closers)
	if err != nil {
		log.Fatal("snapshot store unavailable", zap.String("backend", cfg.SnapshotBackend), zap.Error(err))
	}

	m := metrics.New()

	insightCache := cache.InsightCache(cache.NoopInsightCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisInsightCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("redis unavailable, using noop cache", zap.Error(err))
		} else {
			insightCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Info("insight cache: redis")
		}
	}

	var generator insights.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := insights.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Warn("gemini unavailable, insights will use the fallback text", zap.Error(err))
		} else {
			generator = gemini
			closers = append(closers, gemini.Close)
			log.Info("insights: gemini")
		}
	}
	advisor := insights.NewAdvisor(generator, insightCache, insights.Options{
		BusinessName: cfg.BusinessName,
		Timeout:      cfg.InsightTimeout(),
		CacheTTL:     cfg.InsightCacheTTL(),
		Logger:       logger.Named(log, "insights"),
		OnResult: func(result string) {
			m.InsightRequests.WithLabelValues(result).Inc()
		},
	})

	archiver := archive.Archiver(archive.NoopArchiver{})
	if cfg.ArchiveEnabled() {
		s3Archiver, err := archive.NewS3Archiver(ctx, archive.S3Config{
			Endpoint:     cfg.ArchiveEndpoint,
			Region:       cfg.ArchiveRegion,
			Bucket:       cfg.ArchiveBucket,
			AccessKey:    cfg.ArchiveAccessKey,
			SecretKey:    cfg.ArchiveSecretKey,
			Prefix:       cfg.ArchivePrefix,
			UsePathStyle: cfg.ArchivePathStyle,
		}, logger.Named(log, "archive"))
		if err != nil {
			log.Warn("snapshot archive disabled", zap.Error(err))
		} else {
			archiver = s3Archiver
			log.Info("snapshot archive: s3", zap.String("bucket", cfg.ArchiveBucket))
		}
	}

	loc := cfg.Location()
	svc := service.New(gateway, service.Options{
		Archiver: archiver,
		Advisor:  advisor,
		Metrics:  m,
		Logger:   logger.Named(log, "service"),
		Clock:    func() time.Time { return time.Now().In(loc) },
	})
	preloadWorkspaces(ctx, gateway, svc, log)

	jobs := scheduler.New(cfg.ArchiveCron, svc, archiver, logger.Named(log, "scheduler"))
	if err := jobs.Start(); err != nil {
		log.Fatal("invalid ARCHIVE_CRON", zap.String("spec", cfg.ArchiveCron), zap.Error(err))
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), cfg.AccessPIN)
	api := httpapi.New(svc, auth, httpapi.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        m,
		Logger:         logger.Named(log, "http"),
	})

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.InsightTimeout() + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("bakery ledger listening", zap.String("addr", cfg.Address()), zap.String("backend", cfg.SnapshotBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	jobs.Stop(shutdownCtx)

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Error("close error", zap.Error(err))
		}
	}

	log.Info("server stopped")
}

func openGateway(ctx context.Context, cfg config.Config, log *zap.Logger, closers *[]func() error) (store.Gateway, error) {
	switch cfg.SnapshotBackend {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres backend")
		}
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, pg.Close)
		log.Info("snapshot store: postgres")
		return pg, nil
	case "mongo":
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGO_URI is required for the mongo backend")
		}
		mg, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, func() error {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return mg.Close(closeCtx)
		})
		log.Info("snapshot store: mongo", zap.String("db", cfg.MongoDB))
		return mg, nil
	default:
		log.Warn("snapshot store: in-memory, data is lost on restart")
		return memory.NewSeeded(cfg.SeedWorkspaces...), nil
	}
}

// preloadWorkspaces opens every stored workspace so the nightly archive
// covers shops nobody has signed in to since the restart.
func preloadWorkspaces(ctx context.Context, gateway store.Gateway, svc *service.Service, log *zap.Logger) {
	var workspaces []string
	if lister, ok := gateway.(workspaceLister); ok {
		listed, err := lister.Workspaces(ctx)
		if err != nil {
			log.Warn("failed to list stored workspaces", zap.Error(err))
		}
		workspaces = listed
	}
	for _, ws := range workspaces {
		if err := svc.Open(ctx, ws); err != nil {
			log.Warn("failed to preload workspace", zap.String("workspace", ws), zap.Error(err))
		}
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.AccessPIN) < 6 {
		return fmt.Errorf("ACCESS_PIN must be set and at least 6 digits")
	}
	if err := validatePINStrength(cfg.AccessPIN); err != nil {
		return fmt.Errorf("ACCESS_PIN is too weak: %w", err)
	}
	return nil
}

// validatePINStrength rejects PINs that are all the same digit,
// sequential, or on a known-weak list.
func validatePINStrength(pin string) error {
	known := map[string]bool{
		"123456": true, "654321": true, "000000": true, "111111": true,
		"121212": true, "112233": true, "123123": true, "696969": true,
	}
	if known[pin] {
		return fmt.Errorf("common PIN not allowed")
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("all-same-digit PIN not allowed")
	}

	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential PIN not allowed")
	}
	return nil
}
