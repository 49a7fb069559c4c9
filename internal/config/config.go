package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	_ "github.com/joho/godotenv/autoload"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Env       string `env:"APP_ENV" env-default:"local"`
	GinMode   string `env:"GIN_MODE" env-default:"debug"`
	HTTP      HTTPConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	OpenAI    OpenAIConfig
}

type HTTPConfig struct {
	Host            string        `env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `env:"PORT" env-default:"3001"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// DatabaseConfig describes the connection and the pool shared by all requests.
type DatabaseConfig struct {
	Driver          string        `env:"DB_DRIVER" env-default:"postgres"`
	Host            string        `env:"DB_HOST" env-default:"localhost"`
	Port            string        `env:"DB_PORT" env-default:"5432"`
	User            string        `env:"DB_USER" env-default:"postgres"`
	Password        string        `env:"DB_PASSWORD" env-default:""`
	Name            string        `env:"DB_NAME" env-default:"task_management"`
	SSLMode         string        `env:"DB_SSL_MODE" env-default:"disable"`
	Path            string        `env:"DB_PATH" env-default:"task_management.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" env-default:"30s"`
	ConnectTimeout  time.Duration `env:"DB_CONNECT_TIMEOUT" env-default:"2s"`
	AcquireTimeout  time.Duration `env:"DB_ACQUIRE_TIMEOUT" env-default:"2s"`
	LogLevel        string        `env:"DB_LOG_LEVEL" env-default:"warn"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" env-default:""`
	Password string `env:"REDIS_PASSWORD" env-default:""`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// RateLimitConfig mirrors the two limiters of the API: a general one for
// every request and a stricter one for writes.
type RateLimitConfig struct {
	Enabled     bool          `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	APIMax      int           `env:"RATE_LIMIT_MAX_REQUESTS" env-default:"100"`
	APIWindow   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"15m"`
	WriteMax    int           `env:"RATE_LIMIT_WRITE_MAX_REQUESTS" env-default:"20"`
	WriteWindow time.Duration `env:"RATE_LIMIT_WRITE_WINDOW" env-default:"15m"`
	KeyPrefix   string        `env:"RATE_LIMIT_KEY_PREFIX" env-default:"ratelimit:"`
}

type OpenAIConfig struct {
	APIKey string `env:"OPENAI_API_KEY" env-default:""`
	Model  string `env:"OPENAI_MODEL" env-default:"gpt-4o"`
}

// Load reads the configuration from the environment (and a .env file when present).
func Load() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env: %s", c.Env)
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.Database.MaxOpenConns)
	}
	return nil
}

// RateLimitBackendConfigured reports whether a Redis instance is available for the limiters.
func (c *Config) RateLimitBackendConfigured() bool {
	return c.RateLimit.Enabled && c.Redis.Addr != ""
}
