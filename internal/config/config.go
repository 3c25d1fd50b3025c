package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetOtelEndpoint() string
}

type mainConfig struct {
	EnvVars
	API
	Session
}

// New loads an optional .env file and parses the environment into a Config.
func New() (Config, error) {
	// A missing .env is fine; real deployments use the process environment.
	_ = godotenv.Load()

	c := mainConfig{}
	if err := ParseEnv(&c); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
