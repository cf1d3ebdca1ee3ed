package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Env      string `env:"APP_ENV" env-default:"development"`
	Server   ServerConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Minio    MinioConfig
	Auth     AuthConfig
	Log      LogConfig
	CORS     CORSConfig
	Stats    StatsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `env:"HOST"                    env-default:"0.0.0.0"`
	Port            int           `env:"PORT"                    env-default:"3000"`
	APIPath         string        `env:"API_PATH"                env-default:"/api"`
	Version         string        `env:"APP_VERSION"             env-default:"1.0.0"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr is the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// MongoConfig holds the card store connection. Timeout bounds every
// store round-trip.
type MongoConfig struct {
	URI      string        `env:"MONGO_URI"     env-required:"true"`
	Database string        `env:"MONGO_DB"      env-default:"card-app"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT" env-default:"5s"`
}

// PostgresConfig holds the user store connection.
type PostgresConfig struct {
	DSN      string `env:"POSTGRES_DSN"       env-required:"true"`
	MaxConns int32  `env:"POSTGRES_MAX_CONNS" env-default:"10"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"     env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"       env-default:"0"`
}

// MinioConfig holds the export bucket settings. Exports are disabled when
// Endpoint is empty.
type MinioConfig struct {
	Endpoint   string        `env:"MINIO_ENDPOINT"`
	AccessKey  string        `env:"MINIO_ACCESS_KEY"`
	SecretKey  string        `env:"MINIO_SECRET_KEY"`
	Bucket     string        `env:"MINIO_BUCKET"      env-default:"card-stats"`
	UseSSL     bool          `env:"MINIO_USE_SSL"     env-default:"false"`
	PresignTTL time.Duration `env:"MINIO_PRESIGN_TTL" env-default:"15m"`
}

func (m MinioConfig) Enabled() bool { return m.Endpoint != "" }

// AuthConfig holds token and bootstrap account settings.
type AuthConfig struct {
	JWTSecret              string        `env:"JWT_SECRET"               env-required:"true"`
	JWTIssuer              string        `env:"JWT_ISSUER"               env-default:"card-tracker"`
	TokenTTL               time.Duration `env:"JWT_TTL"                  env-default:"24h"`
	BootstrapAdminPassword string        `env:"BOOTSTRAP_ADMIN_PASSWORD" env-default:"admin123"`
	BootstrapOwnerPassword string        `env:"BOOTSTRAP_OWNER_PASSWORD" env-default:"owner123"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"console"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173,http://localhost:3000"`
}

// StatsConfig controls how completion days are bucketed.
type StatsConfig struct {
	Timezone string `env:"STATS_TIMEZONE" env-default:"UTC"`
}

// Location returns the configured time zone, UTC if it cannot be loaded.
func (s StatsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads .env files from the working directory, then the environment.
func Load() (*Config, error) {
	return LoadDir(".")
}

// LoadDir loads dir/.env and, outside production, overlays dir/.env.local.
// Variables already present in the process environment win over .env but
// not over .env.local.
func LoadDir(dir string) (*Config, error) {
	if err := loadDotenv(filepath.Join(dir, ".env"), false); err != nil {
		return nil, err
	}
	if !strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		if err := loadDotenv(filepath.Join(dir, ".env.local"), true); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func loadDotenv(path string, overload bool) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	var err error
	if overload {
		err = godotenv.Overload(path)
	} else {
		err = godotenv.Load(path)
	}
	if err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Validate performs business-rule validation on the loaded configuration.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive (got %s)", c.Auth.TokenTTL)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT out of range (got %d)", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.APIPath, "/") {
		return fmt.Errorf("API_PATH must start with / (got %q)", c.Server.APIPath)
	}
	if c.Mongo.Timeout <= 0 {
		return fmt.Errorf("MONGO_TIMEOUT must be positive (got %s)", c.Mongo.Timeout)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json (got %q)", c.Log.Format)
	}

	if _, err := time.LoadLocation(c.Stats.Timezone); err != nil {
		return fmt.Errorf("STATS_TIMEZONE: %w", err)
	}

	return nil
}
