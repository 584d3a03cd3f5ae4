package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Authz    AuthzConfig
	RabbitMQ RabbitMQConfig
	Cron     CronConfig
	Admin    AdminSeedConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"3306"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS"`
	DBName   string `envconfig:"DB_NAME" default:"edvisa_admin"`
}

// JWTConfig holds token issuance configuration
type JWTConfig struct {
	Secret           string `envconfig:"JWT_SECRET" default:"default_secret"`
	AccessTokenMins  int    `envconfig:"ACCESS_TOKEN_MINUTES" default:"15"`
	RefreshTokenDays int    `envconfig:"REFRESH_TOKEN_DAYS" default:"7"`
}

// AccessTokenTTL returns the access token lifetime
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.AccessTokenMins) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenDays) * 24 * time.Hour
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool   `envconfig:"COOKIE_SECURE" default:"false"`
	SameSite string `envconfig:"COOKIE_SAMESITE" default:"lax"`
	Domain   string `envconfig:"COOKIE_DOMAIN"`
}

// AuthzConfig points at the role default-permission table. Empty means
// the table embedded in the binary.
type AuthzConfig struct {
	DefaultsFile string `envconfig:"PERMISSION_DEFAULTS_FILE"`
}

// RabbitMQConfig holds the event broker URI. Empty disables publishing.
type RabbitMQConfig struct {
	URI string `envconfig:"RABBITMQ_URI"`
}

// CronConfig holds background job schedules
type CronConfig struct {
	TokenCleanupSpec string `envconfig:"TOKEN_CLEANUP_SPEC" default:"@hourly"`
}

// AdminSeedConfig holds the bootstrap admin account
type AdminSeedConfig struct {
	Email    string `envconfig:"ADMIN_EMAIL"`
	Password string `envconfig:"ADMIN_PASSWORD"`
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables.
// Every setting may be scoped by mode (DEV_JWT_SECRET) or given bare
// (JWT_SECRET); the scoped form wins.
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode: appMode,
		Port:    getEnv("PORT", "3000"),
	}

	prefix := modePrefix(appMode)
	sections := []struct {
		name string
		spec interface{}
	}{
		{"database", &config.Database},
		{"jwt", &config.JWT},
		{"cookie", &config.Cookie},
		{"authz", &config.Authz},
		{"rabbitmq", &config.RabbitMQ},
		{"cron", &config.Cron},
		{"admin", &config.Admin},
	}
	for _, s := range sections {
		if err := envconfig.Process(prefix, s.spec); err != nil {
			return nil, fmt.Errorf("load %s config: %w", s.name, err)
		}
	}

	if config.IsProd() && config.JWT.Secret == "default_secret" {
		return nil, fmt.Errorf("JWT_SECRET must be set in prod mode")
	}
	if config.JWT.AccessTokenMins <= 0 || config.JWT.RefreshTokenDays <= 0 {
		return nil, fmt.Errorf("token lifetimes must be positive")
	}

	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// modePrefix returns the envconfig prefix for the mode-scoped keys
func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD"
	}
	return "DEV"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://admin.edvisa.example"
	}
	return origins
}
