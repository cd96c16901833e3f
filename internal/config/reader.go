package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	switch cfg.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		return fmt.Errorf("unknown env: %s", cfg.Env)
	}

	// cleanenv only checks that JWT_SIGNING_KEY is set, not that it is
	// non-empty.
	if len(cfg.JWT.SigningKey) < MinSigningKeyLength {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least %d bytes", MinSigningKeyLength)
	}

	switch cfg.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if cfg.Postgres.Username == "" || cfg.Postgres.Database == "" {
			return fmt.Errorf("postgres storage requires POSTGRES_USERNAME and POSTGRES_DATABASE")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}

	if cfg.RateLimit.Requests < 1 || cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit must allow at least one request per positive window")
	}
	if cfg.Query.DefaultPageSize < 1 || cfg.Query.MaxPageSize < cfg.Query.DefaultPageSize {
		return fmt.Errorf("query page sizes must satisfy 1 <= default <= max")
	}
	return nil
}
