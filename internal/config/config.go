package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the full configuration of the server.
type Config struct {
	// Server
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret field, loaded from the secrets dir, no envconfig tag.
	DBPassword string

	// Migrations
	RunMigrations  bool   `envconfig:"RUN_MIGRATIONS" default:"true"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`

	// Redis (analytics response cache)
	RedisAddr         string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB           int           `envconfig:"REDIS_DB" default:"0"`
	AnalyticsCacheTTL time.Duration `envconfig:"ANALYTICS_CACHE_TTL" default:"60s"`

	// Content generator (OpenAI-compatible endpoint)
	GeneratorBaseURL string        `envconfig:"GENERATOR_BASE_URL" default:"https://api.openai.com/v1"`
	GeneratorModel   string        `envconfig:"GENERATOR_MODEL" default:"gpt-4o-mini"`
	GeneratorTimeout time.Duration `envconfig:"GENERATOR_TIMEOUT" default:"20s"`
	// Secret field.
	GeneratorAPIKey string

	// Dashboard auth secret, compared against X-Dashboard-Token per request.
	// Secret field.
	DashboardToken string
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig loads configuration from environment variables and secret files.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var loadErr error
	cfg.DBPassword, loadErr = readSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.GeneratorAPIKey, loadErr = readSecret("generator_api_key")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.DashboardToken, loadErr = readSecret("dashboard_token")
	if loadErr != nil {
		return nil, loadErr
	}

	log.Printf("Configuration loaded (secrets from files):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  DB Max Conns: %d", cfg.DBMaxConns)
	log.Printf("  Redis Addr: %s", cfg.RedisAddr)
	log.Printf("  Analytics Cache TTL: %v", cfg.AnalyticsCacheTTL)
	log.Printf("  Generator Base URL: %s", cfg.GeneratorBaseURL)
	log.Printf("  Generator Model: %s", cfg.GeneratorModel)
	log.Printf("  Generator Timeout: %v", cfg.GeneratorTimeout)

	return &cfg, nil
}

// readSecret reads a secret from the standard Docker Secrets path.
func readSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		// Fall back to env for local runs without a secrets mount.
		if fromEnv := strings.TrimSpace(os.Getenv(strings.ToUpper(secretName))); fromEnv != "" {
			return fromEnv, nil
		}
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
