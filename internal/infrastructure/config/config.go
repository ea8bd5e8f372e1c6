package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Sync      SyncConfig
	Platforms PlatformsConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. Redis backs the distributed
// reconcile lock; with Enabled false the in-process lock is used instead.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
}

// SyncConfig holds the periodic sync scheduler configuration
type SyncConfig struct {
	Enabled            bool
	Interval           time.Duration
	MaxConcurrentJobs  int
	JobTimeout         time.Duration
	RetryAttempts      int
	RetryDelay         time.Duration
	DetailFetchWorkers int
}

// PlatformsConfig holds per-marketplace adapter settings
type PlatformsConfig struct {
	Reverb  ReverbConfig
	Shopify ShopifyConfig
}

// ReverbConfig holds Reverb API settings
type ReverbConfig struct {
	Enabled  bool
	BaseURL  string
	APIToken string
	PageSize int
	Timeout  time.Duration
}

// ShopifyConfig holds Shopify Admin API settings
type ShopifyConfig struct {
	Enabled     bool
	ShopDomain  string
	AccessToken string
	APIVersion  string
	PageSize    int
	Timeout     time.Duration
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with GEARSYNC_ prefix (e.g., GEARSYNC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("GEARSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
		},
		Sync: SyncConfig{
			Enabled:            v.GetBool("sync.enabled"),
			Interval:           v.GetDuration("sync.interval"),
			MaxConcurrentJobs:  v.GetInt("sync.max_concurrent_jobs"),
			JobTimeout:         v.GetDuration("sync.job_timeout"),
			RetryAttempts:      v.GetInt("sync.retry_attempts"),
			RetryDelay:         v.GetDuration("sync.retry_delay"),
			DetailFetchWorkers: v.GetInt("sync.detail_fetch_workers"),
		},
		Platforms: PlatformsConfig{
			Reverb: ReverbConfig{
				Enabled:  v.GetBool("platforms.reverb.enabled"),
				BaseURL:  v.GetString("platforms.reverb.base_url"),
				APIToken: v.GetString("platforms.reverb.api_token"),
				PageSize: v.GetInt("platforms.reverb.page_size"),
				Timeout:  v.GetDuration("platforms.reverb.timeout"),
			},
			Shopify: ShopifyConfig{
				Enabled:     v.GetBool("platforms.shopify.enabled"),
				ShopDomain:  v.GetString("platforms.shopify.shop_domain"),
				AccessToken: v.GetString("platforms.shopify.access_token"),
				APIVersion:  v.GetString("platforms.shopify.api_version"),
				PageSize:    v.GetInt("platforms.shopify.page_size"),
				Timeout:     v.GetDuration("platforms.shopify.timeout"),
			},
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "gearsync-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "gearsync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
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
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = 15 * time.Minute
	}
	if cfg.Sync.MaxConcurrentJobs == 0 {
		cfg.Sync.MaxConcurrentJobs = 2
	}
	if cfg.Sync.JobTimeout == 0 {
		cfg.Sync.JobTimeout = 10 * time.Minute
	}
	if cfg.Sync.RetryAttempts == 0 {
		cfg.Sync.RetryAttempts = 3
	}
	if cfg.Sync.RetryDelay == 0 {
		cfg.Sync.RetryDelay = time.Minute
	}
	if cfg.Sync.DetailFetchWorkers == 0 {
		cfg.Sync.DetailFetchWorkers = 4
	}
	if cfg.Platforms.Reverb.BaseURL == "" {
		cfg.Platforms.Reverb.BaseURL = "https://api.reverb.com/api"
	}
	if cfg.Platforms.Reverb.PageSize == 0 {
		cfg.Platforms.Reverb.PageSize = 50
	}
	if cfg.Platforms.Reverb.Timeout == 0 {
		cfg.Platforms.Reverb.Timeout = 30 * time.Second
	}
	if cfg.Platforms.Shopify.APIVersion == "" {
		cfg.Platforms.Shopify.APIVersion = "2024-07"
	}
	if cfg.Platforms.Shopify.PageSize == 0 {
		cfg.Platforms.Shopify.PageSize = 250
	}
	if cfg.Platforms.Shopify.Timeout == 0 {
		cfg.Platforms.Shopify.Timeout = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Validate connection pool settings
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Sync.Interval < time.Minute {
		return fmt.Errorf("sync.interval must be at least one minute, got %s", c.Sync.Interval)
	}
	if c.Sync.DetailFetchWorkers < 1 {
		return fmt.Errorf("sync.detail_fetch_workers must be positive")
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Platforms.Reverb.Enabled && c.Platforms.Reverb.APIToken == "" {
			return fmt.Errorf("platforms.reverb.api_token is required when the adapter is enabled in production")
		}
		if c.Platforms.Shopify.Enabled {
			if c.Platforms.Shopify.ShopDomain == "" {
				return fmt.Errorf("platforms.shopify.shop_domain is required when the adapter is enabled")
			}
			if c.Platforms.Shopify.AccessToken == "" {
				return fmt.Errorf("platforms.shopify.access_token is required when the adapter is enabled in production")
			}
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address for the Redis client
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
