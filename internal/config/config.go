// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// PostgresConfig holds the connection parts the cambia services read from the environment.
type PostgresConfig struct {
	User     string `env:"POSTGRES_USER" envDefault:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	Database string `env:"PG_DATABASE" envDefault:"peekmatch"`
	// Disabled skips Postgres entirely; comp players fall back to local CPUs and snapshots are dropped.
	Disabled bool `env:"PG_DISABLED" envDefault:"false"`
}

// DSN returns the postgres:// connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB   int    `env:"REDIS_DB" envDefault:"0"`
}

// ServerConfig configures cmd/server.
type ServerConfig struct {
	HTTPAddr          string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	StoreBackend      string        `env:"STORE_BACKEND" envDefault:"memory"`
	StoreTTL          time.Duration `env:"STORE_TTL" envDefault:"6h"`
	QueueName         string        `env:"HISTORIAN_QUEUE_NAME" envDefault:"peekmatch_actions"`
	PredefinedPath    string        `env:"PREDEFINED_HANDS_PATH" envDefault:"config/predefined_hands.yaml"`
	DeckType          string        `env:"DECK_TYPE" envDefault:"standard"`
	IncludeJokers     bool          `env:"INCLUDE_JOKERS" envDefault:"true"`
	PeekDeadlineSec   int           `env:"PEEK_DEADLINE_SEC" envDefault:"10"`
	RevealExpirySec   int           `env:"REVEAL_EXPIRY_SEC" envDefault:"8"`
	CoinCostPerPlayer int           `env:"COIN_COST_PER_PLAYER" envDefault:"0"`
	PracticeLevel     string        `env:"PRACTICE_DIFFICULTY" envDefault:"medium"`
	TokenExpire       time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"0s"`
	KeyPath           string        `env:"AUTH_KEY_PATH"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Postgres PostgresConfig
	Redis    RedisConfig
}

// LoadServer parses ServerConfig from the environment.
func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	switch cfg.StoreBackend {
	case "memory", "redis":
	default:
		return cfg, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	return cfg, nil
}

// PeekDeadline returns the configured initial peek deadline.
func (c ServerConfig) PeekDeadline() time.Duration {
	return time.Duration(c.PeekDeadlineSec) * time.Second
}

func (c ServerConfig) RevealExpiry() time.Duration {
	return time.Duration(c.RevealExpirySec) * time.Second
}

// HistorianConfig configures cmd/historian.
type HistorianConfig struct {
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	QueueName     string `env:"HISTORIAN_QUEUE_NAME" envDefault:"peekmatch_actions"`
	BatchSize     int    `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushMs       int    `env:"HISTORIAN_FLUSH_MS" envDefault:"500"`
	InactivitySec int    `env:"GAME_INACTIVITY_TIMEOUT_SEC" envDefault:"600"`

	Postgres PostgresConfig
	Redis    RedisConfig
}

func LoadHistorian() (HistorianConfig, error) {
	var cfg HistorianConfig
	err := env.Parse(&cfg)
	if err == nil && cfg.BatchSize <= 0 {
		err = fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	return cfg, err
}
