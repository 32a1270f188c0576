package main

import (
	"context"
	"fmt"

	"github.com/jonathan/showcase-forge/internal/cache"
	"github.com/jonathan/showcase-forge/internal/config"
	"github.com/jonathan/showcase-forge/internal/llm"
	"github.com/jonathan/showcase-forge/internal/observability"
	"github.com/jonathan/showcase-forge/internal/pipeline"
	"github.com/jonathan/showcase-forge/internal/runner"
	"github.com/jonathan/showcase-forge/internal/schemas"
	"github.com/jonathan/showcase-forge/internal/stages"
	"github.com/jonathan/showcase-forge/internal/storage"
)

// newBackend is replaced in tests
var newBackend = func(ctx context.Context, models *llm.Config, apiKey string) (llm.Backend, error) {
	return llm.NewBackend(ctx, models, apiKey)
}

// app holds the collaborators shared by the run and serve commands.
type app struct {
	pipeline *pipeline.Pipeline
	cache    *cache.Cache
	metrics  *observability.Metrics
	backend  llm.Backend
}

func (a *app) Close() {
	if a.backend != nil {
		_ = a.backend.Close()
	}
}

// loadConfig resolves the effective configuration: config file, then the
// caller's overrides, then built-in defaults and the environment.
func loadConfig(path string, override func(*config.Config)) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}
	if override != nil {
		override(&cfg)
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newApp builds the stage runner and pipeline for a configuration.
func newApp(ctx context.Context, cfg config.Config, logger observability.Logger) (*app, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required (use --api-key or set GEMINI_API_KEY)")
	}

	registry, err := stages.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load stage contracts: %w", err)
	}
	validator, err := schemas.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load stage schemas: %w", err)
	}

	metrics := observability.NewMetrics()
	contentCache, err := cache.New(cfg.CacheConfig(), cache.WithObserver(metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	models, err := llm.DefaultConfig().WithModels(cfg.Models)
	if err != nil {
		return nil, err
	}
	backend, err := newBackend(ctx, models, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend: %w", err)
	}

	r := runner.New(registry, validator, backend,
		runner.WithCache(contentCache),
		runner.WithLogger(logger),
		runner.WithMetrics(metrics),
		runner.WithRetryPolicy(cfg.Retries(), cfg.RetryBackoff()),
		runner.WithTimeouts(cfg.Timeouts()),
	)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
		pipeline.WithImageConcurrency(cfg.ImageConcurrency),
	}
	store, err := newAssetStore(ctx, cfg)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	if store != nil {
		opts = append(opts, pipeline.WithAssetStore(store))
	}

	return &app{
		pipeline: pipeline.New(r, opts...),
		cache:    contentCache,
		metrics:  metrics,
		backend:  backend,
	}, nil
}

// newAssetStore returns the configured image destination, or nil when
// images stay inline.
func newAssetStore(ctx context.Context, cfg config.Config) (storage.AssetStore, error) {
	switch {
	case cfg.S3Bucket != "":
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:  cfg.S3Bucket,
			Region:  cfg.S3Region,
			Prefix:  cfg.S3Prefix,
			BaseURL: cfg.AssetURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 asset store: %w", err)
		}
		return store, nil
	case cfg.AssetDir != "":
		store, err := storage.NewFileStore(cfg.AssetDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create asset directory: %w", err)
		}
		return store, nil
	default:
		return nil, nil
	}
}
