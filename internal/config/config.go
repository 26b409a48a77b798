package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration. Values come from an optional
// YAML file; any field can be overridden through its environment variable.
type Config struct {
	Server        ServerConfig    `yaml:"server"`
	Database      DatabaseConfig  `yaml:"database"`
	Redis         RedisConfig     `yaml:"redis"`
	Kafka         KafkaConfig     `yaml:"kafka"`
	Session       SessionConfig   `yaml:"session"`
	Model         ModelConfig     `yaml:"model"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	StatsCacheTTL time.Duration   `yaml:"stats_cache_ttl" env:"STATS_CACHE_TTL" env-default:"5m"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// DatabaseConfig selects the SQL driver. "mysql" is used in production,
// "sqlite3" for local runs.
type DatabaseConfig struct {
	Driver        string        `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite3"`
	DSN           string        `yaml:"dsn" env:"DB_DSN" env-default:"loan.db"`
	MaxRetries    int           `yaml:"max_retries" env:"DB_MAX_RETRIES" env-default:"10"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"DB_RETRY_INTERVAL" env-default:"3s"`
}

// RedisConfig configures the key-value store. An empty address keeps
// sessions in process memory.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// KafkaConfig configures decision events. No brokers disables publishing.
// A non-empty GroupID also starts the decision consumer.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"loan-decisions"`
	GroupID string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
}

type SessionConfig struct {
	Secret     string        `yaml:"secret" env:"SESSION_SECRET"`
	CookieName string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"loan_session"`
	TTL        time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"24h"`
	Secure     bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

type ModelConfig struct {
	Path string `yaml:"path" env:"MODEL_PATH" env-default:"models/loan_pipeline.zst"`
}

// RateLimitConfig bounds signup and login submissions per client address.
type RateLimitConfig struct {
	Rate      float64       `yaml:"rate" env:"RATE_LIMIT_RATE" env-default:"1"`
	Burst     int           `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"5"`
	ExpiresIn time.Duration `yaml:"expires_in" env:"RATE_LIMIT_EXPIRES_IN" env-default:"3m"`
}

// Load reads configuration from path, or from the environment alone when
// path is empty, and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad resolves the config path from CONFIG_PATH or the -config flag
// and exits on any error.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configFlag := flag.String("config", "", "Path to configuration file")
		flag.Parse()
		configPath = *configFlag
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Fatalf("Config file does not exist: %s", configPath)
		}
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return errors.New("session secret is not set (SESSION_SECRET)")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// String returns a representation of the config with secrets masked.
func (c *Config) String() string {
	redis := c.Redis.Addr
	if redis == "" {
		redis = "memory"
	}
	return fmt.Sprintf("Config{Addr: %s, DB: %s, Redis: %s, Kafka: %v, Model: %s, Session: *** (masked) ***}",
		c.Addr(), c.Database.Driver, redis, c.Kafka.Brokers, c.Model.Path)
}
