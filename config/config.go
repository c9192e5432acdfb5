// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"./data/bank.db"`

	// Seed loads the demo clients on startup when the database is empty.
	Seed bool `env:"SEED_DEMO_DATA" envDefault:"false"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	ShutdownTimeoutS int `env:"SHUTDOWN_TIMEOUT_S" envDefault:"10"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
