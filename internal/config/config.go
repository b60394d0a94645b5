package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/formwork/pkg/domain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FORMWORK_"

// Config is the runtime configuration of the formwork server and CLI.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Lock    LockConfig    `yaml:"lock"`
	Events  EventsConfig  `yaml:"events"`
	Metrics MetricsConfig `yaml:"metrics"`
	Catalog CatalogConfig `yaml:"catalog"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig selects the template store. Driver is one of memory, redis, sqlite or
// postgres. DSN is the sqlite path or the postgres connection string.
type StoreConfig struct {
	Driver string      `yaml:"driver"`
	DSN    string      `yaml:"dsn"`
	Redis  RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type LockConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// EventsConfig selects the event sink: log or redis.
type EventsConfig struct {
	Driver  string `yaml:"driver"`
	Channel string `yaml:"channel"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type CatalogConfig struct {
	Categories []domain.FormCategory `yaml:"categories"`
	Types      []domain.FormType     `yaml:"types"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Store:   StoreConfig{Driver: "memory", Redis: RedisConfig{Addr: "localhost:6379", Prefix: "formwork:"}},
		Lock:    LockConfig{TTL: 10 * time.Second},
		Events:  EventsConfig{Driver: "log", Channel: "formwork:events"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (optional when
// empty or missing), then a .env file in the working directory, then FORMWORK_*
// variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// godotenv never overrides variables already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects unknown drivers and incomplete store settings.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "redis":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s driver", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Events.Driver {
	case "log", "redis":
	default:
		return fmt.Errorf("unknown events driver %q", c.Events.Driver)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	str("ADDR", &cfg.Server.Addr)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("STORE_DRIVER", &cfg.Store.Driver)
	str("STORE_DSN", &cfg.Store.DSN)
	str("REDIS_ADDR", &cfg.Store.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Store.Redis.Password)
	str("REDIS_PREFIX", &cfg.Store.Redis.Prefix)
	str("EVENTS_DRIVER", &cfg.Events.Driver)
	str("EVENTS_CHANNEL", &cfg.Events.Channel)

	if v, ok := lookup(EnvPrefix + "REDIS_DB"); ok {
		db, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
		cfg.Store.Redis.DB = db
	}
	if v, ok := lookup(EnvPrefix + "LOCK_TTL"); ok {
		ttl, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sLOCK_TTL: %w", EnvPrefix, err)
		}
		cfg.Lock.TTL = ttl
	}
	if v, ok := lookup(EnvPrefix + "METRICS_ENABLED"); ok {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sMETRICS_ENABLED: %w", EnvPrefix, err)
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}
