package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    string
	Env     string
	Version string
}

// AuthConfig controls how bearer credentials are resolved.
// An empty SigningKey disables the signed-token strategy.
type AuthConfig struct {
	SigningKey string
	Optional   bool
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// NATSConfig holds the event bus connection settings.
// An empty URL means events are dropped.
type NATSConfig struct {
	URL               string
	MaxReconnects     int
	ReconnectInterval time.Duration
}

// UpstreamConfig lists the services the gateway proxies to
type UpstreamConfig struct {
	OnboardingURL string
	BillingURL    string
	TicketsURL    string
}

// InvitationConfig bounds invitation lifetimes
type InvitationConfig struct {
	DefaultTTL time.Duration
	MaxTTL     time.Duration
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	Auth        AuthConfig
	Log         LogConfig
	Metrics     MetricsConfig
	NATS        NATSConfig
	Upstreams   UpstreamConfig
	Invitations InvitationConfig
}

var defaultPorts = map[string]string{
	"api-gateway":        "3000",
	"onboarding-service": "3001",
	"billing-service":    "3002",
	"ticket-service":     "3003",
}

// Load loads configuration from .env and environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	port, ok := defaultPorts[serviceName]
	if !ok {
		port = "8080"
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "nexzo"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:    getEnv("SERVER_PORT", port),
			Env:     getEnv("APP_ENV", "development"),
			Version: getEnv("SERVICE_VERSION", "0.1.0"),
		},
		Auth: AuthConfig{
			SigningKey: getEnv("JWT_SIGNING_KEY", ""),
			Optional:   getEnvAsBool("AUTH_OPTIONAL", false),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", metricPrefix(serviceName)),
		},
		NATS: NATSConfig{
			URL:               getEnv("NATS_URL", ""),
			MaxReconnects:     getEnvAsInt("NATS_MAX_RECONNECTS", 60),
			ReconnectInterval: getEnvAsDuration("NATS_RECONNECT_INTERVAL", 2*time.Second),
		},
		Upstreams: UpstreamConfig{
			OnboardingURL: getEnv("ONBOARDING_URL", "http://localhost:3001"),
			BillingURL:    getEnv("BILLING_URL", "http://localhost:3002"),
			TicketsURL:    getEnv("TICKETS_URL", "http://localhost:3003"),
		},
		Invitations: InvitationConfig{
			DefaultTTL: getEnvAsDuration("INVITATION_DEFAULT_TTL", 72*time.Hour),
			MaxTTL:     getEnvAsDuration("INVITATION_MAX_TTL", 14*24*time.Hour),
		},
	}

	if config.Invitations.DefaultTTL > config.Invitations.MaxTTL {
		return nil, fmt.Errorf("INVITATION_DEFAULT_TTL (%s) exceeds INVITATION_MAX_TTL (%s)",
			config.Invitations.DefaultTTL, config.Invitations.MaxTTL)
	}

	return config, nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Bool("signed_tokens", c.Auth.SigningKey != ""),
		zap.Bool("events_enabled", c.NATS.URL != ""),
	}
}

// metricPrefix turns "billing-service" into "billing_service"
func metricPrefix(serviceName string) string {
	return strings.ReplaceAll(serviceName, "-", "_")
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
