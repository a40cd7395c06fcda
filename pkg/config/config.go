package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"md2rt/pkg/errors"
	"md2rt/pkg/filter"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const AppName = "md2rt"

const (
	DefaultInterval        = 300 * time.Millisecond
	MinInterval            = 50 * time.Millisecond
	DefaultRendererTimeout = 10 * time.Second
	DefaultCacheTTL        = 24 * time.Hour
	DefaultEndpoint        = "https://hook.us1.make.com/2jf9wjjs1oupgxbt5t8w5brrkqt7gjxv"
	DefaultUserAgent       = "md2rt/1.0 (+clipboard markdown converter)"
	DefaultReferer         = "https://www.switchlabs.dev/"
	DefaultConvertJobs     = 4
)

// Renderer kinds.
const (
	RendererRemote = "remote"
	RendererLocal  = "local"
)

// Fallback strategies used when the renderer fails.
const (
	FallbackParagraph = "paragraph"
	FallbackLocal     = "local"
)

// Config holds the complete md2rt configuration.
type Config struct {
	Watch    WatchConfig    `yaml:"watch"`
	Renderer RendererConfig `yaml:"renderer"`
	Cache    CacheConfig    `yaml:"cache"`
	LogLevel string         `yaml:"log_level,omitempty"`
}

type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
	DryRun   bool          `yaml:"dry_run"`
	SkipHTML bool          `yaml:"skip_html"`
	Ignore   []string      `yaml:"ignore,omitempty"`
}

type RendererConfig struct {
	Kind      string        `yaml:"kind"`
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent,omitempty"`
	Referer   string        `yaml:"referer,omitempty"`
	Fallback  string        `yaml:"fallback"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
	Dir     string        `yaml:"dir,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Watch: WatchConfig{
			Interval: DefaultInterval,
		},
		Renderer: RendererConfig{
			Kind:      RendererRemote,
			Endpoint:  DefaultEndpoint,
			Timeout:   DefaultRendererTimeout,
			UserAgent: DefaultUserAgent,
			Referer:   DefaultReferer,
			Fallback:  FallbackParagraph,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     DefaultCacheTTL,
		},
		LogLevel: "info",
	}
}

// Load reads the config file at path, or the default location when path is
// empty, then applies MD2RT_* environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, errors.NewWithError(errors.ExitCodeConfig, "failed to get config path", err)
		}
		path = p
	}
	return loadFromPath(path)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	if dir := xdg.ConfigHome; dir != "" {
		return filepath.Join(dir, AppName, "config.yaml"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName, "config.yaml"), nil
}

// CacheDir returns the directory holding the render cache database.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(xdg.CacheHome, AppName)
}

// CachePath returns the render cache database path.
func (c *Config) CachePath() string {
	return filepath.Join(c.CacheDir(), "cache.db")
}

// Save writes cfg to path, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to write config file", err)
	}

	return nil
}

// Validate ensures all required configuration fields are set and sane.
func (c *Config) Validate() error {
	return validateConfig(c)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func loadFromPath(configPath string) (*Config, error) {
	cfg := Default()

	if err := loadConfigFile(configPath, cfg); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile reads and parses the config file from the given path
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		// No file: defaults and env vars apply.
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeFileOperation, "failed to read config file", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.NewWithError(errors.ExitCodeConfig, "failed to parse config file", err)
	}

	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config
func applyEnvironmentOverrides(cfg *Config) {
	cfg.Watch.Interval = getEnvDuration("MD2RT_INTERVAL", cfg.Watch.Interval)
	cfg.Watch.DryRun = getEnvBool("MD2RT_DRY_RUN", cfg.Watch.DryRun)
	cfg.Renderer.Kind = getEnv("MD2RT_RENDERER", cfg.Renderer.Kind)
	cfg.Renderer.Endpoint = getEnv("MD2RT_RENDERER_URL", cfg.Renderer.Endpoint)
	cfg.Renderer.Timeout = getEnvDuration("MD2RT_RENDERER_TIMEOUT", cfg.Renderer.Timeout)
	cfg.Renderer.Fallback = getEnv("MD2RT_FALLBACK", cfg.Renderer.Fallback)
	cfg.Cache.Dir = getEnv("MD2RT_CACHE_DIR", cfg.Cache.Dir)

	if cfg.Renderer.UserAgent == "" {
		cfg.Renderer.UserAgent = DefaultUserAgent
	}
}

// validateConfig ensures all required configuration fields are set
func validateConfig(cfg *Config) error {
	if cfg.Watch.Interval < MinInterval {
		return errors.ConfigError(fmt.Sprintf("watch interval %s is too short (minimum %s)", cfg.Watch.Interval, MinInterval))
	}
	if _, err := filter.NewSet(cfg.Watch.Ignore); err != nil {
		return errors.ConfigError(fmt.Sprintf("invalid watch.ignore rule: %v", err))
	}
	switch cfg.Renderer.Kind {
	case RendererRemote:
		if cfg.Renderer.Endpoint == "" {
			return errors.ConfigError("renderer endpoint not configured. Set renderer.endpoint or MD2RT_RENDERER_URL, or use the local renderer")
		}
	case RendererLocal:
	default:
		return errors.ConfigError(fmt.Sprintf("unknown renderer kind %q (expected %q or %q)", cfg.Renderer.Kind, RendererRemote, RendererLocal))
	}
	if cfg.Renderer.Timeout <= 0 {
		return errors.ConfigError("renderer timeout must be positive")
	}
	switch cfg.Renderer.Fallback {
	case FallbackParagraph, FallbackLocal:
	default:
		return errors.ConfigError(fmt.Sprintf("unknown fallback %q (expected %q or %q)", cfg.Renderer.Fallback, FallbackParagraph, FallbackLocal))
	}
	if cfg.Cache.Enabled && cfg.Cache.TTL <= 0 {
		return errors.ConfigError("cache ttl must be positive when the cache is enabled")
	}
	return nil
}
