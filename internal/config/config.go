// Package config declares the env-tagged configuration structs shared by
// the binaries. Values are loaded with pkg/envconf.
package config

import (
	"errors"
	"time"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD" default:""`
	DB       int    `env:"REDIS_DB" default:"0"`
	// KeyPrefix namespaces the wallet hashes and the player set.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" default:"wallet"`
}

// NatsConfig leaves URL empty to disable history events.
type NatsConfig struct {
	URL           string `env:"NATS_URL" default:""`
	SubjectPrefix string `env:"NATS_SUBJECT_PREFIX" default:"bank.history"`
}

type InterestConfig struct {
	RulesDir string `env:"INTEREST_RULES_DIR" default:"interest"`
	// Period is the fixed interval between fires after the first one.
	Period            time.Duration `env:"INTEREST_PERIOD" default:"24h"`
	RecomputeSchedule bool          `env:"INTEREST_RECOMPUTE_SCHEDULE" default:"false"`
	WriteExample      bool          `env:"INTEREST_WRITE_EXAMPLE" default:"true"`
}

type BreakerConfig struct {
	MaxRequests uint32        `env:"WALLET_BREAKER_MAX_REQUESTS" default:"1"`
	Interval    time.Duration `env:"WALLET_BREAKER_INTERVAL" default:"60s"`
	Timeout     time.Duration `env:"WALLET_BREAKER_TIMEOUT" default:"30s"`
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32 `env:"WALLET_BREAKER_FAILURES" default:"5"`
}

func (c BreakerConfig) Validate() error {
	if c.Failures == 0 {
		return errors.New("WALLET_BREAKER_FAILURES must be positive")
	}

	return nil
}
