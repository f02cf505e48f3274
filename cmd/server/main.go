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

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/simple-feed/pkg/simplefeed"
	"github.com/tendant/simple-feed/pkg/simplefeed/api"
	"github.com/tendant/simple-feed/pkg/simplefeed/auth"
	"github.com/tendant/simple-feed/pkg/simplefeed/realtime"
	memoryrepo "github.com/tendant/simple-feed/pkg/simplefeed/repo/memory"
	postgresrepo "github.com/tendant/simple-feed/pkg/simplefeed/repo/postgres"
	fsstorage "github.com/tendant/simple-feed/pkg/simplefeed/storage/fs"
	memorystorage "github.com/tendant/simple-feed/pkg/simplefeed/storage/memory"
	s3storage "github.com/tendant/simple-feed/pkg/simplefeed/storage/s3"
)

type Config struct {
	Port        string        `env:"PORT" env-default:"8080"`
	Environment string        `env:"ENVIRONMENT" env-default:"development"`
	JWTSecret   string        `env:"JWT_SECRET" env-default:"dev-secret-change-me"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" env-default:"1h"`

	// Empty DATABASE_URL selects the in-memory repository.
	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	Storage StorageConfig
}

type StorageConfig struct {
	// fs, memory, or s3
	Backend  string `env:"STORAGE_BACKEND" env-default:"fs"`
	ImageDir string `env:"IMAGE_DIR" env-default:"./data"`
	S3       S3Config
}

type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	Bucket          string `env:"AWS_S3_BUCKET" env-default:"feed-images"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"true"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, cleanup, err := buildRepository(ctx, cfg)
	if err != nil {
		logger.Error("failed to build repository", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	images, err := buildImageStore(cfg.Storage)
	if err != nil {
		logger.Error("failed to build image store", "error", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)

	hub := realtime.NewHub(logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	svc, err := simplefeed.New(
		simplefeed.WithRepository(repo),
		simplefeed.WithImageStore(images),
		simplefeed.WithEventSink(hub),
		simplefeed.WithTokens(tokens),
		simplefeed.WithLogger(logger),
	)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(svc, images, tokens, hub, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: handler.Routes(),
	}

	go func() {
		logger.Info("simple-feed server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"storage", cfg.Storage.Backend)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	stopHub()

	logger.Info("server exiting")
}

func buildRepository(ctx context.Context, cfg Config) (simplefeed.Repository, func(), error) {
	if cfg.DatabaseURL == "" {
		return memoryrepo.New(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return postgresrepo.NewWithPool(pool), pool.Close, nil
}

func buildImageStore(cfg StorageConfig) (simplefeed.ImageStore, error) {
	switch cfg.Backend {
	case "memory":
		return memorystorage.New(), nil
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 cfg.S3.Region,
			Bucket:                 cfg.S3.Bucket,
			AccessKeyID:            cfg.S3.AccessKeyID,
			SecretAccessKey:        cfg.S3.SecretAccessKey,
			Endpoint:               cfg.S3.Endpoint,
			UsePathStyle:           cfg.S3.UsePathStyle,
			CreateBucketIfNotExist: cfg.S3.CreateBucket,
		})
	case "fs", "":
		return fsstorage.New(fsstorage.Config{BaseDir: cfg.ImageDir})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
