// Package config provides configuration loading and validation for the CLI
// and the HTTP server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/showcase-forge/internal/cache"
	"github.com/jonathan/showcase-forge/internal/llm"
	"github.com/jonathan/showcase-forge/internal/types"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Idea defaults
	Idea     string `json:"idea,omitempty"`     // Product idea to showcase
	Platform string `json:"platform,omitempty"` // Target platform hint (mobile, web, desktop)
	Industry string `json:"industry,omitempty"` // Industry hint
	Tone     string `json:"tone,omitempty"`     // Brand tone hint
	Audience string `json:"audience,omitempty"` // Target audience hint

	// Backends; models overrides the model per tier (lite, standard, advanced, image)
	APIKey      string            `json:"api_key,omitempty"`
	DatabaseURL string            `json:"database_url,omitempty" validate:"omitempty,url"`
	Models      map[string]string `json:"models,omitempty"`

	// Rendered images go to AssetDir or S3Bucket, never both
	AssetDir string `json:"asset_dir,omitempty" validate:"excluded_with=S3Bucket"`
	S3Bucket string `json:"s3_bucket,omitempty" validate:"omitempty,min=3,max=63"`
	S3Region string `json:"s3_region,omitempty"`
	S3Prefix string `json:"s3_prefix,omitempty"`
	AssetURL string `json:"asset_base_url,omitempty" validate:"omitempty,url"`

	// Cache
	CacheTTLSeconds int `json:"cache_ttl_seconds,omitempty" validate:"gte=0"`
	CacheMaxEntries int `json:"cache_max_entries,omitempty" validate:"gte=0"`

	// Stage runner; timeouts are seconds per stage and override the contracts.
	// MaxRetries is a pointer so an explicit 0 disables retries.
	MaxRetries       *int           `json:"max_retries,omitempty" validate:"omitempty,gte=0,lte=5"`
	RetryBackoffMS   int            `json:"retry_backoff_ms,omitempty" validate:"gte=0"`
	StageTimeouts    map[string]int `json:"stage_timeouts,omitempty" validate:"dive,gt=0"`
	ImageConcurrency int            `json:"image_concurrency,omitempty" validate:"gte=0,lte=16"`

	// Behavior
	RenderScreens bool   `json:"render_screens,omitempty"` // Render one image per screen
	NoCache       bool   `json:"no_cache,omitempty"`       // Bypass the content cache
	Verbose       bool   `json:"verbose,omitempty"`        // Print detailed debug information
	AppEnv        string `json:"app_env,omitempty" validate:"omitempty,oneof=development production test"`
	Port          int    `json:"port,omitempty" validate:"gte=0,lte=65535"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		CacheTTLSeconds:  int(cache.DefaultTTL / time.Second),
		CacheMaxEntries:  cache.DefaultMaxEntries,
		MaxRetries:       Int(1),
		RetryBackoffMS:   500,
		ImageConcurrency: 3,
		AppEnv:           "production",
		Port:             8080,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// envLookup is replaced in tests
var envLookup = os.LookupEnv

// ApplyEnv fills empty fields from the environment.
func (c *Config) ApplyEnv() {
	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, key := range keys {
			if v, ok := envLookup(key); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}
	setString(&c.APIKey, "GEMINI_API_KEY", "GOOGLE_API_KEY")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.AssetDir, "SHOWCASE_ASSET_DIR")
	setString(&c.S3Bucket, "SHOWCASE_S3_BUCKET")
	setString(&c.S3Region, "SHOWCASE_S3_REGION", "AWS_REGION")
	setString(&c.S3Prefix, "SHOWCASE_S3_PREFIX")
	setString(&c.AssetURL, "SHOWCASE_ASSET_BASE_URL")
	setString(&c.AppEnv, "APP_ENV")

	if c.Port == 0 {
		if v, ok := envLookup("PORT"); ok {
			if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				c.Port = port
			}
		}
	}
}

var configValidator = validator.New()

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' check", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	for tier := range c.Models {
		if _, err := llm.ParseModelTier(tier); err != nil {
			return fmt.Errorf("config error: models: %w", err)
		}
	}
	for stage := range c.StageTimeouts {
		if _, err := types.ParseStageID(stage); err != nil {
			return fmt.Errorf("config error: stage_timeouts: %w", err)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	mergeString(&result.Idea, defaults.Idea)
	mergeString(&result.Platform, defaults.Platform)
	mergeString(&result.Industry, defaults.Industry)
	mergeString(&result.Tone, defaults.Tone)
	mergeString(&result.Audience, defaults.Audience)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.S3Region, defaults.S3Region)
	mergeString(&result.S3Prefix, defaults.S3Prefix)
	mergeString(&result.AssetURL, defaults.AssetURL)
	mergeString(&result.AppEnv, defaults.AppEnv)
	// Asset destinations are exclusive; only inherit when neither is set
	if result.AssetDir == "" && result.S3Bucket == "" {
		result.AssetDir = defaults.AssetDir
		result.S3Bucket = defaults.S3Bucket
	}

	// Int fields: use default if zero
	mergeInt := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}
	mergeInt(&result.CacheTTLSeconds, defaults.CacheTTLSeconds)
	mergeInt(&result.CacheMaxEntries, defaults.CacheMaxEntries)
	if result.MaxRetries == nil && defaults.MaxRetries != nil {
		result.MaxRetries = Int(*defaults.MaxRetries)
	}
	mergeInt(&result.RetryBackoffMS, defaults.RetryBackoffMS)
	mergeInt(&result.ImageConcurrency, defaults.ImageConcurrency)
	mergeInt(&result.Port, defaults.Port)

	result.StageTimeouts = mergeMap(defaults.StageTimeouts, result.StageTimeouts)
	result.Models = mergeMap(defaults.Models, result.Models)

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// mergeMap overlays values on defaults without touching either map.
func mergeMap[V any](defaults, values map[string]V) map[string]V {
	if len(defaults) == 0 {
		return values
	}
	merged := make(map[string]V, len(defaults)+len(values))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	return merged
}

// CacheConfig converts the cache settings.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		TTL:        time.Duration(c.CacheTTLSeconds) * time.Second,
		MaxEntries: c.CacheMaxEntries,
	}
}

// Timeouts converts per-stage timeout overrides.
func (c *Config) Timeouts() map[types.StageID]time.Duration {
	out := make(map[types.StageID]time.Duration, len(c.StageTimeouts))
	for stage, seconds := range c.StageTimeouts {
		if seconds > 0 {
			out[types.StageID(stage)] = time.Duration(seconds) * time.Second
		}
	}
	return out
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Retries returns the retry budget per stage attempt; unset means one retry.
func (c *Config) Retries() int {
	if c.MaxRetries == nil {
		return 1
	}
	return *c.MaxRetries
}

// RetryBackoff returns the pause between stage attempts.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMS) * time.Millisecond
}

// IdeaContext builds the hint bag passed to the pipeline.
func (c *Config) IdeaContext() map[string]any {
	ctx := make(map[string]any)
	for key, value := range map[string]string{
		"platform": c.Platform,
		"industry": c.Industry,
		"tone":     c.Tone,
		"audience": c.Audience,
	} {
		if strings.TrimSpace(value) != "" {
			ctx[key] = value
		}
	}
	return ctx
}
