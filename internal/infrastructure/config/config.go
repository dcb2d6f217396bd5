package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	Redis      RedisConfig
	Odoo       OdooConfig
	Storefront StorefrontConfig
	Sync       SyncConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// RedisConfig holds the identity repository's Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// OdooConfig holds the ERP XML-RPC connection settings
type OdooConfig struct {
	URL         string
	Database    string
	Username    string
	Password    string
	CompanyID   int64
	PriceListID int64
}

// StorefrontConfig holds the storefront REST API settings
type StorefrontConfig struct {
	BaseURL        string
	APIToken       string
	PageSize       int
	MaxPages       int
	TimeoutSeconds int
}

// SyncConfig holds settings shared by the synchronizers
type SyncConfig struct {
	// KeyPrefix namespaces every Redis key written by this instance
	KeyPrefix string
	// RetryAttempts bounds gateway retries per call
	RetryAttempts int
	// RetryBaseDelay is the base backoff delay between retries
	RetryBaseDelay time.Duration
	// AllowInMemoryFallback permits running without Redis; identity links
	// then die with the process, so it is for local runs only
	AllowInMemoryFallback bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SYNC_ prefix (e.g., SYNC_ODOO_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Odoo: OdooConfig{
			URL:         v.GetString("odoo.url"),
			Database:    v.GetString("odoo.database"),
			Username:    v.GetString("odoo.username"),
			Password:    v.GetString("odoo.password"),
			CompanyID:   v.GetInt64("odoo.company_id"),
			PriceListID: v.GetInt64("odoo.price_list_id"),
		},
		Storefront: StorefrontConfig{
			BaseURL:        v.GetString("storefront.base_url"),
			APIToken:       v.GetString("storefront.api_token"),
			PageSize:       v.GetInt("storefront.page_size"),
			MaxPages:       v.GetInt("storefront.max_pages"),
			TimeoutSeconds: v.GetInt("storefront.timeout_seconds"),
		},
		Sync: SyncConfig{
			KeyPrefix:             v.GetString("sync.key_prefix"),
			RetryAttempts:         v.GetInt("sync.retry_attempts"),
			RetryBaseDelay:        v.GetDuration("sync.retry_base_delay"),
			AllowInMemoryFallback: v.GetBool("sync.allow_inmemory_fallback"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "syncbridge"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Storefront.PageSize == 0 {
		cfg.Storefront.PageSize = 50
	}
	if cfg.Storefront.MaxPages == 0 {
		cfg.Storefront.MaxPages = 200
	}
	if cfg.Storefront.TimeoutSeconds == 0 {
		cfg.Storefront.TimeoutSeconds = 30
	}
	if cfg.Sync.KeyPrefix == "" {
		cfg.Sync.KeyPrefix = "syncbridge"
	}
	if cfg.Sync.RetryAttempts == 0 {
		cfg.Sync.RetryAttempts = 3
	}
	if cfg.Sync.RetryBaseDelay == 0 {
		cfg.Sync.RetryBaseDelay = 250 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Sync.RetryAttempts < 1 {
		return fmt.Errorf("sync.retry_attempts must be positive")
	}
	if c.Storefront.PageSize < 1 {
		return fmt.Errorf("storefront.page_size must be positive")
	}

	if c.App.Env == "production" {
		if c.Odoo.URL == "" || c.Odoo.Database == "" || c.Odoo.Username == "" || c.Odoo.Password == "" {
			return fmt.Errorf("odoo connection settings are required in production")
		}
		if c.Storefront.BaseURL == "" || c.Storefront.APIToken == "" {
			return fmt.Errorf("storefront connection settings are required in production")
		}
		if c.Sync.AllowInMemoryFallback {
			return fmt.Errorf("sync.allow_inmemory_fallback must be false in production (identity links would not survive a restart)")
		}
	}
	return nil
}
