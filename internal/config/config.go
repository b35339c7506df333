package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the service configuration, read from the environment. A local
// .env file is honored when present.
type Config struct {
	ServiceName string `validate:"required"`
	Version     string
	Environment string `validate:"required"`
	ListenAddr  string `validate:"required"`
	LogLevel    string

	// RecordSource selects the record-store adapter.
	RecordSource string `validate:"oneof=rest postgres"`
	// RecordSourceURL is the REST store base URL (rest adapter).
	RecordSourceURL string
	// RecordSourceToken is the bearer token for the REST store, if any.
	RecordSourceToken string
	// DatabaseURL is the Postgres connection string (postgres adapter).
	DatabaseURL string

	// NATSURL enables alert publishing when set.
	NATSURL string
}

// Load reads and validates the configuration.
func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := Config{
		ServiceName:       getenv("SERVICE_NAME", "be-waste-dashboard"),
		Version:           getenv("SERVICE_VERSION", "dev"),
		Environment:       getenv("APP_ENV", "development"),
		ListenAddr:        getenv("LISTEN_ADDR", ":8090"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		RecordSource:      getenv("RECORD_SOURCE", "rest"),
		RecordSourceURL:   os.Getenv("RECORD_SOURCE_URL"),
		RecordSourceToken: os.Getenv("RECORD_SOURCE_TOKEN"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		NATSURL:           os.Getenv("NATS_URL"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	switch cfg.RecordSource {
	case "rest":
		if cfg.RecordSourceURL == "" {
			return cfg, fmt.Errorf("RECORD_SOURCE_URL is required for the rest record source")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required for the postgres record source")
		}
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
