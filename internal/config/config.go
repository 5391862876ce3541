package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/rules"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all configuration for the application.
// Values come from defaults, an optional YAML file, an optional .env file
// and environment variables, in increasing order of precedence.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Rules    rules.Config   `mapstructure:"rules"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	LogLevel string         `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"` // Valid API keys for admin endpoints
}

type PostgresConfig struct {
	DSN            string `mapstructure:"dsn"` // Empty selects the built-in in-memory catalog
	MaxConns       int32  `mapstructure:"max_conns"`
	MigrateOnStart bool   `mapstructure:"migrate_on_start"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"` // Empty disables the catalog cache
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type CatalogConfig struct {
	FixedFile            string        `mapstructure:"fixed_file"`
	LookupTimeout        time.Duration `mapstructure:"lookup_timeout"`
	MaxConcurrentLookups int           `mapstructure:"max_concurrent_lookups"`
	MaxUploadBytes       int64         `mapstructure:"max_upload_bytes"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// envBindings maps config keys to the environment variables that override them
var envBindings = map[string]string{
	"server.port":                    "PORT",
	"server.host":                    "HOST",
	"server.read_timeout":            "READ_TIMEOUT",
	"server.write_timeout":           "WRITE_TIMEOUT",
	"server.shutdown_timeout":        "SHUTDOWN_TIMEOUT",
	"server.request_timeout":         "REQUEST_TIMEOUT",
	"server.allowed_origins":         "ALLOWED_ORIGINS",
	"auth.api_keys":                  "API_KEYS",
	"postgres.dsn":                   "DATABASE_URL",
	"postgres.max_conns":             "DATABASE_MAX_CONNS",
	"postgres.migrate_on_start":      "DATABASE_MIGRATE",
	"redis.addr":                     "REDIS_ADDR",
	"redis.password":                 "REDIS_PASSWORD",
	"redis.db":                       "REDIS_DB",
	"redis.ttl":                      "REDIS_TTL",
	"catalog.fixed_file":             "FIXED_INGREDIENTS_FILE",
	"catalog.lookup_timeout":         "CATALOG_LOOKUP_TIMEOUT",
	"catalog.max_concurrent_lookups": "CATALOG_MAX_CONCURRENT_LOOKUPS",
	"catalog.max_upload_bytes":       "CATALOG_MAX_UPLOAD_BYTES",
	"rules.grain_group_a":            "RULES_GRAIN_GROUP_A",
	"rules.grain_group_b":            "RULES_GRAIN_GROUP_B",
	"rules.liver_keywords":           "RULES_LIVER_KEYWORDS",
	"rules.liver_match":              "RULES_LIVER_MATCH",
	"rules.auto_add_grain":           "RULES_AUTO_ADD_GRAIN",
	"metrics.enabled":                "METRICS_ENABLED",
	"tracing.enabled":                "TRACING_ENABLED",
	"tracing.service_name":           "TRACING_SERVICE_NAME",
	"log_level":                      "LOG_LEVEL",
}

const defaultConfigFile = "config/config.yaml"

func setDefaults(v *viper.Viper) {
	r := rules.DefaultConfig()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("auth.api_keys", []string{"apitest"})
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.migrate_on_start", true)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 10*time.Minute)
	v.SetDefault("catalog.fixed_file", "")
	v.SetDefault("catalog.lookup_timeout", 2*time.Second)
	v.SetDefault("catalog.max_concurrent_lookups", 8)
	v.SetDefault("catalog.max_upload_bytes", 10<<20)
	v.SetDefault("rules.grain_group_a", r.GrainGroupA)
	v.SetDefault("rules.grain_group_b", r.GrainGroupB)
	v.SetDefault("rules.liver_keywords", r.LiverKeywords)
	v.SetDefault("rules.liver_match", r.LiverMatch)
	v.SetDefault("rules.auto_add_grain", r.AutoAddGrain)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "dog-diet-api")
	v.SetDefault("log_level", "info")
}

// Load reads configuration. CONFIG_FILE names a YAML file; without it
// config/config.yaml is used when present. A .env file in the working
// directory is loaded into the environment first.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv loads a .env file without overriding variables already set
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key must be configured")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	if c.Catalog.LookupTimeout <= 0 {
		return fmt.Errorf("catalog lookup timeout must be positive")
	}

	if c.Catalog.MaxConcurrentLookups <= 0 {
		return fmt.Errorf("catalog max concurrent lookups must be positive")
	}

	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		return fmt.Errorf("redis ttl must be positive when redis is enabled")
	}

	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
