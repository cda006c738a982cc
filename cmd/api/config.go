package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/currencybank/internal/config"
)

type apiConfig struct {
	Port            uint16        `env:"API_PORT" default:"8080"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" default:"INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`

	Postgres config.PostgresConfig
	Redis    config.RedisConfig
	Nats     config.NatsConfig
	Interest config.InterestConfig
	Breaker  config.BreakerConfig
}

func (c *apiConfig) validate() error {
	if c.Port == 0 {
		return errors.New("API_PORT must be set")
	}

	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}

	err := c.Breaker.Validate()
	if err != nil {
		return fmt.Errorf("breaker: %w", err)
	}

	return nil
}
