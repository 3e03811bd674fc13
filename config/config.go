// Package config loads ytclone configuration from a YAML file, YTCLONE_*
// environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"ytclone/catalog"
	"ytclone/internal/retry"
	"ytclone/internal/validate"
	"ytclone/loader"
	"ytclone/viewport"
)

// EnvPrefix prefixes every environment override, e.g. YTCLONE_SERVER_ADDR.
const EnvPrefix = "YTCLONE"

// Config is the full application configuration.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`
	Loader  LoaderConfig  `mapstructure:"loader" yaml:"loader"`
	Client  ClientConfig  `mapstructure:"client" yaml:"client"`
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=DEBUG INFO WARN ERROR"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	// AllowedOrigins lists websocket origins; empty allows same-host only.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path" validate:"required,startswith=/"`
}

// StorageConfig configures the JSON store. An empty path keeps data in memory.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AuthConfig configures demo accounts.
type AuthConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl" yaml:"session_ttl" validate:"gt=0"`
	BcryptCost int           `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost" validate:"gte=4,lte=31"`
	SeedDemo   bool          `mapstructure:"seed_demo" yaml:"seed_demo"`
}

// FeedConfig configures paging and the synthetic catalog.
type FeedConfig struct {
	InitialSize int           `mapstructure:"initial_size" yaml:"initial_size" validate:"gt=0"`
	PageSize    int           `mapstructure:"page_size" yaml:"page_size" validate:"gt=0"`
	HomeLimit   int           `mapstructure:"home_limit" yaml:"home_limit" validate:"gt=0"`
	Seed        uint64        `mapstructure:"seed" yaml:"seed"`
	Latency     time.Duration `mapstructure:"latency" yaml:"latency" validate:"gte=0"`
	FailureRate float64       `mapstructure:"failure_rate" yaml:"failure_rate" validate:"gte=0,lte=1"`
	CursorTTL   time.Duration `mapstructure:"cursor_ttl" yaml:"cursor_ttl" validate:"gt=0"`
}

// ProviderOptions returns the catalog provider options this config describes.
func (c FeedConfig) ProviderOptions() []catalog.ProviderOption {
	var opts []catalog.ProviderOption
	if c.HomeLimit > 0 {
		opts = append(opts, catalog.WithLimit(c.HomeLimit))
	}
	if c.CursorTTL > 0 {
		opts = append(opts, catalog.WithCursorTTL(c.CursorTTL))
	}
	return append(opts,
		catalog.WithLatency(c.Latency),
		catalog.WithFailureRate(c.FailureRate),
	)
}

// LoaderConfig holds the default Incremental Loader options.
type LoaderConfig struct {
	Threshold  float64 `mapstructure:"threshold" yaml:"threshold" validate:"gte=0,lte=1"`
	RootMargin string  `mapstructure:"root_margin" yaml:"root_margin" validate:"rootmargin"`
}

// Options returns the loader options this config describes.
func (c LoaderConfig) Options() []loader.Option {
	return []loader.Option{loader.WithThreshold(c.Threshold), loader.WithRootMargin(c.RootMargin)}
}

// ClientConfig configures the HTTP client used by `browse --remote` and `feed`.
type ClientConfig struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gt=0"`
	Burst             int           `mapstructure:"burst" yaml:"burst" validate:"gt=0"`
	BreakerThreshold  int           `mapstructure:"breaker_threshold" yaml:"breaker_threshold" validate:"gt=0"`
	BreakerCooldown   time.Duration `mapstructure:"breaker_cooldown" yaml:"breaker_cooldown" validate:"gt=0"`
	Retry             retry.Config  `mapstructure:"retry" yaml:"retry"`
}

// Default returns the configuration used when no file or env override exists.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO", Format: "text", Output: "stderr"},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Storage: StorageConfig{Path: filepath.Join(Dir(), "data.json")},
		Auth:    AuthConfig{SessionTTL: 7 * 24 * time.Hour, BcryptCost: 10, SeedDemo: true},
		Feed: FeedConfig{
			InitialSize: 40,
			PageSize:    20,
			HomeLimit:   200,
			Seed:        1,
			Latency:     500 * time.Millisecond,
			CursorTTL:   2 * time.Hour,
		},
		Loader: LoaderConfig{Threshold: 0.1, RootMargin: "100px"},
		Client: ClientConfig{
			BaseURL:           "http://localhost:8080",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 10,
			Burst:             5,
			BreakerThreshold:  5,
			BreakerCooldown:   30 * time.Second,
			Retry:             retry.DefaultConfig(),
		},
	}
}

// Load reads configuration. An empty path searches the default directory;
// a missing file is not an error. Env vars override the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setupViper(v, path)
	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHooks())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setupViper(v *viper.Viper, path string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		return
	}
	v.AddConfigPath(Dir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// setDefaults registers every leaf key so AutomaticEnv can see it during
// Unmarshal, without a config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	var m map[string]any
	if err := mapstructure.Decode(cfg, &m); err != nil {
		return
	}
	walkDefaults(v, "", m)
}

func walkDefaults(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			walkDefaults(v, key, sub)
			continue
		}
		// mapstructure.Decode leaves nested structs as structs.
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Struct && rv.Type() != reflect.TypeOf(time.Time{}) {
			var sub map[string]any
			if err := mapstructure.Decode(val, &sub); err == nil {
				walkDefaults(v, key, sub)
				continue
			}
		}
		v.SetDefault(key, val)
	}
}

func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Validate checks field constraints and cross-field rules.
func Validate(cfg *Config) error {
	eng := validate.New().Engine()
	_ = eng.RegisterValidation("rootmargin", func(fl validator.FieldLevel) bool {
		_, err := viewport.ParseMargin(fl.Field().String())
		return err == nil
	})
	if err := eng.Struct(cfg); err != nil {
		return err
	}
	if cfg.Client.Retry.MaxBackoff < cfg.Client.Retry.InitialBackoff {
		return errors.New("client.retry.max_backoff must be >= initial_backoff")
	}
	if cfg.Feed.PageSize > cfg.Feed.HomeLimit {
		return errors.New("feed.page_size must not exceed feed.home_limit")
	}
	return nil
}

// Save writes cfg as YAML with owner-only permissions.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Dir is $XDG_CONFIG_HOME/ytclone, ~/.config/ytclone, or "." as a last resort.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ytclone")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "ytclone")
}

// DefaultPath is the config file Load searches for when given no path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}
