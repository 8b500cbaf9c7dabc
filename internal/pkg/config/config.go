package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=1h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// StoreBackend selects the AccountStore implementation: memory,
	// postgres, or mongo.
	StoreBackend string `env:"STORE_BACKEND, default=memory"`
	// HashScheme selects the password hasher: sha256 or bcrypt.
	HashScheme string `env:"HASH_SCHEME, default=sha256"`

	Auth     AuthConfig
	Postgres PostgresConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

// AuthConfig carries the lockout policy knobs.
type AuthConfig struct {
	MaxFailedLogins int           `env:"AUTH_MAX_FAILED_LOGINS, default=5"`
	LockoutDuration time.Duration `env:"AUTH_LOCKOUT_DURATION,  default=15m"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN, default=postgres://localhost:5432/credentials"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=credential_system"`
}

type RedisConfig struct {
	// Addr empty disables the session store; tokens then live until expiry.
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
