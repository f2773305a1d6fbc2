// Package config provides configuration management for the application.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting:
// every problem is gathered and reported at once rather than one per restart.
package config

import (
	"fmt"
	"net"
	"net/url"
	// `os` package provides operating system functionalities, like reading environment variables.
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/user/starter-go/apperror"
)

// Storage backends selectable through STORAGE.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// PoolConfig represents configuration for the database connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// DSN returns the connection URL for this pool, without pgx pool parameters.
// golang-migrate's postgres driver and pgxpool both accept this form.
// User and password are escaped, so they may contain URL delimiters.
func (c *PoolConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// HashConfig holds the argon2id cost parameters.
type HashConfig struct {
	MemoryKiB   uint32 // Memory cost in KiB
	Iterations  uint32 // Time cost
	Parallelism uint8  // Lanes
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	AppSecret string // Secret key for signing session tokens
	Hash      HashConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port            string        // Port for the HTTP server
	AllowedOrigins  []string      // CORS origins allowed to send credentialed requests
	ShutdownTimeout time.Duration // Grace period for in-flight requests on shutdown
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Storage string
	DB      *PoolConfig // nil when Storage is memory
	Auth    *AuthConfig
	Server  *ServerConfig
	Log     *LogConfig
}

// Helper function to get a required environment variable.
// Appends an error to the errors slice if the variable is not set or empty.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as time.Duration.
// `time.ParseDuration` expects a string like "15m", "1h30s".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// getOptionalEnvList splits a comma separated variable, dropping blanks.
func getOptionalEnvList(key string, defaultValue []string) []string {
	raw := getOptionalEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// clampPoolSize keeps the pool size between 1 and 100.
func clampPoolSize(size int, errors *[]string) int {
	if size < 1 {
		*errors = append(*errors, fmt.Sprintf("DB_POOL_SIZE (%d) must be at least 1", size))
		return 1
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("DB_POOL_SIZE (%d) must be at most 100", size))
		return 100
	}
	return size
}

// positiveUint reads an optional positive integer that must fit in max.
func positiveUint(key string, defaultValue, max int, errors *[]string) int {
	v := getOptionalEnvInt(key, defaultValue, errors)
	if v < 1 || v > max {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: %d is out of range 1..%d", key, v, max))
		return defaultValue
	}
	return v
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns them as a
// single apperror ConfigError.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	storage := getOptionalEnv("STORAGE", StoragePostgres)
	if storage != StoragePostgres && storage != StorageMemory {
		errors = append(errors, fmt.Sprintf("invalid value for STORAGE: expected %s or %s, got '%s'", StoragePostgres, StorageMemory, storage))
	}

	// Database Configuration, only demanded when it will be used.
	var pool *PoolConfig
	if storage == StoragePostgres {
		pool = &PoolConfig{
			User:     getRequiredEnv("DB_USER", &errors),
			Password: getRequiredEnv("DB_PASSWORD", &errors),
			DBName:   getRequiredEnv("DB_NAME", &errors),
			Host:     getOptionalEnv("DB_HOST", "localhost"),
			Port:     getOptionalEnvInt("DB_PORT", 5432, &errors),
		}
		pool.MaxSize = clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errors), &errors)
	}

	// Auth Configuration
	authConfig := &AuthConfig{
		AppSecret: getRequiredEnv("APP_SECRET", &errors),
		Hash: HashConfig{
			MemoryKiB:   uint32(positiveUint("ARGON2_MEMORY_KIB", 19*1024, 4*1024*1024, &errors)),
			Iterations:  uint32(positiveUint("ARGON2_TIME", 2, 100, &errors)),
			Parallelism: uint8(positiveUint("ARGON2_PARALLELISM", 1, 255, &errors)),
		},
	}

	// Server Configuration
	// Note: Server port is a string because it's used directly in the listen address (":3310").
	serverConfig := &ServerConfig{
		Port:            getOptionalEnv("PORT", "3310"),
		AllowedOrigins:  getOptionalEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3310"}),
		ShutdownTimeout: getOptionalEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second, &errors),
	}

	logConfig := &LogConfig{
		Level:  getOptionalEnv("LOG_LEVEL", "info"),
		Format: getOptionalEnv("LOG_FORMAT", "json"),
	}

	if len(errors) > 0 {
		return nil, apperror.NewConfigError(fmt.Sprintf("configuration errors:\n- %s", strings.Join(errors, "\n- ")), nil)
	}

	return &AppConfig{
		Storage: storage,
		DB:      pool,
		Auth:    authConfig,
		Server:  serverConfig,
		Log:     logConfig,
	}, nil
}
