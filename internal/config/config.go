package config

import "time"

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env       string `env:"ENV" env-required:"true"`
	HTTP      HTTPConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Query     QueryConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// MinSigningKeyLength matches the HS256 digest size.
const MinSigningKeyLength = 32

type JWTConfig struct {
	Issuer     string `env:"JWT_ISSUER"`
	SigningKey string `env:"JWT_SIGNING_KEY" env-required:"true"`
}

type StorageConfig struct {
	// Driver is either "memory" or "postgres".
	Driver string `env:"STORAGE_DRIVER" env-default:"memory"`
}

// PostgresConfig is only read when the postgres storage driver is selected,
// so none of its fields are required at the env level.
type PostgresConfig struct {
	Host           string        `env:"POSTGRES_HOST" env-default:"localhost"`
	Port           int           `env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `env:"POSTGRES_USERNAME"`
	Password       string        `env:"POSTGRES_PASSWORD"`
	Database       string        `env:"POSTGRES_DATABASE"`
	SSLMode        string        `env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

// RedisConfig backs the rate limiter. An empty Addr disables it.
type RedisConfig struct {
	Addr        string        `env:"REDIS_ADDR"`
	Password    string        `env:"REDIS_PASSWORD"`
	DB          int           `env:"REDIS_DB" env-default:"0"`
	PingTimeout time.Duration `env:"REDIS_PING_TIMEOUT" env-default:"2s"`
}

type RateLimitConfig struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" env-default:"120"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
}

type QueryConfig struct {
	DefaultPageSize int `env:"QUERY_DEFAULT_PAGE_SIZE" env-default:"10"`
	MaxPageSize     int `env:"QUERY_MAX_PAGE_SIZE" env-default:"100"`
}
