// Package config loads service configuration from an optional YAML file
// with environment variable overrides on top of built-in defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration decodes YAML strings like "300s" or "5m" via time.ParseDuration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// HTTPConfig holds listener settings.
type HTTPConfig struct {
	Addr         string   `yaml:"addr"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	EnableCORS   bool     `yaml:"enable_cors"`
}

// PostgresConfig holds backing store settings.
type PostgresConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds cache settings. An empty Addr selects the in-process
// memory cache instead of Redis.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig holds cache policy settings shared across backends.
type CacheConfig struct {
	ListTTL Duration `yaml:"list_ttl"`
}

// LogConfig holds operational logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Config is the central configuration for the registry process.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

// Default returns a Config with sensible defaults for local development.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(15 * time.Second),
		},
		Postgres: PostgresConfig{
			DSN:          "postgres://localhost:5432/employees?sslmode=disable",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			Addr: "",
			DB:   0,
		},
		Cache: CacheConfig{
			ListTTL: Duration(300 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty) and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REGISTRY_HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv("REGISTRY_POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("REGISTRY_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REGISTRY_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REGISTRY_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv("REGISTRY_CACHE_LIST_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Cache.ListTTL = Duration(d)
		}
	}
	if v := os.Getenv("REGISTRY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("REGISTRY_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}
