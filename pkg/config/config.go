package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"

	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type AppConfig struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	AppBaseURL  string `env:"APP_BASE_URL" envDefault:"http://localhost:5173"`
	CORSOrigin  string `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`

	EnforceHTTPS bool   `env:"ENFORCE_HTTPS" envDefault:"false"`
	CursorSecret string `env:"CURSOR_SECRET_KEY"`

	Database  DatabaseConfig
	Cache     CacheConfig
	Auth      AuthConfig
	SMTP      SMTPConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig

	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitConfigs map[string]RateLimitConfig
}

type DatabaseConfig struct {
	Driver        string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"todolist"`
	Path          string `env:"DATABASE_PATH" envDefault:"database.db"`
	PostgresURL   string `env:"DATABASE_URL"`
	LogQueries    bool   `env:"DATABASE_LOG_QUERIES" envDefault:"false"`
}

type CacheConfig struct {
	RedisURL string        `env:"REDIS_URL"`
	PoolSize int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	TTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

type AuthConfig struct {
	AccessTokenSecret       string        `env:"ACCESS_TOKEN_SECRET"`
	AccessTokenTTL          time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenSecret      string        `env:"REFRESH_TOKEN_SECRET"`
	RefreshTokenTTL         time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"168h"`
	VerificationTokenSecret string        `env:"VERIFICATION_TOKEN_SECRET"`
	VerificationTokenTTL    time.Duration `env:"VERIFICATION_TOKEN_EXPIRY" envDefault:"24h"`
	RequireVerifiedEmail    bool          `env:"AUTH_REQUIRE_VERIFIED_EMAIL" envDefault:"true"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"Todo List <no-reply@todolist.local>"`
}

type StorageConfig struct {
	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`
	Folder    string `env:"CLOUDINARY_FOLDER" envDefault:"todolist"`
	UploadDir string `env:"UPLOAD_DIR"`
}

type TelemetryConfig struct {
	Enabled      bool   `env:"TELEMETRY_ENABLED" envDefault:"false"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"todolist-api"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	MetricsPort  string `env:"METRICS_PORT" envDefault:"9090"`
	LokiURL      string `env:"LOKI_URL"`
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads an optional .env file and then the process environment, which
// wins over the file.
func Load(files ...string) (*AppConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := GetDefaultConfig()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		RateLimitEnabled: true,
		RateLimitConfigs: map[string]RateLimitConfig{
			"/api/users": {
				Requests: 10,
				Window:   time.Minute,
			},
			"/api/todos": {
				Requests: 100,
				Window:   time.Minute,
			},
		},
		EnforceHTTPS: false,
		Environment:  EnvDevelopment,
	}
}

func (c *AppConfig) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case DriverMongo, DriverSQLite:
	case DriverPostgres:
		if c.Database.PostgresURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("DATABASE_DRIVER must be one of %q, %q or %q", DriverMongo, DriverSQLite, DriverPostgres))
	}

	if c.IsProduction() {
		if c.Auth.AccessTokenSecret == "" || c.Auth.RefreshTokenSecret == "" || c.Auth.VerificationTokenSecret == "" {
			problems = append(problems, "token secrets are required in production")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// WithDevelopmentSecrets fills missing token secrets outside production so
// a fresh checkout can boot.
func (c *AppConfig) WithDevelopmentSecrets() *AppConfig {
	if c.IsProduction() {
		return c
	}

	if c.Auth.AccessTokenSecret == "" {
		c.Auth.AccessTokenSecret = "dev-access-secret"
	}

	if c.Auth.RefreshTokenSecret == "" {
		c.Auth.RefreshTokenSecret = "dev-refresh-secret"
	}

	if c.Auth.VerificationTokenSecret == "" {
		c.Auth.VerificationTokenSecret = "dev-verification-secret"
	}

	return c
}
