// Package config loads the service configuration from environment variables.
// Variables are read once at startup; every problem found is collected and
// reported together so a misconfigured deployment fails with one complete message
// instead of one error per restart.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/crypto/bcrypt"
)

// Defaults applied when an optional variable is absent.
const (
	DefaultPort        = "5000"
	DefaultBcryptCost  = bcrypt.DefaultCost
	DefaultPoolSize    = 10
	DefaultTokenExpiry = 7 * time.Hour
	DefaultLogFormat   = "json"
	DefaultLogLevel    = "info"

	minPoolSize = 5
	maxPoolSize = 100
)

// DatabaseConfig holds the connection settings for the user store.
type DatabaseConfig struct {
	URL      string // full PostgreSQL connection string
	PoolSize int
}

// AuthConfig holds credential hashing and token signing settings.
type AuthConfig struct {
	JWTSecret   string        // secret key for signing tokens
	TokenExpiry time.Duration // lifetime of an issued token
	BcryptCost  int           // bcrypt work factor
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Format string // "json" or "text"
	Level  string // "debug", "info", "warn" or "error"
}

// AppConfig is the top-level configuration structure.
type AppConfig struct {
	Database *DatabaseConfig
	Auth     *AuthConfig
	Server   *ServerConfig
	Log      *LogConfig
}

// loader reads variables and accumulates every problem it finds.
// Each helper returns a usable fallback after recording a failure, so LoadConfig
// can keep reading and report all bad variables in one go.
type loader struct {
	// errs stays nil until the first failure; multierror.Append allocates it.
	errs *multierror.Error
}

// fail records one configuration problem.
func (l *loader) fail(format string, args ...any) {
	l.errs = multierror.Append(l.errs, fmt.Errorf(format, args...))
}

// required returns the variable or records an error when it is unset or blank.
func (l *loader) required(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		l.fail("missing required environment variable: %s", key)
		return ""
	}
	return value
}

// optional returns the variable, or defaultValue when it is unset or empty.
// An empty value counts as unset so `PORT=` in a .env file means "use the default".
func (l *loader) optional(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// optionalInt parses an integer variable. A value that does not parse is an
// error rather than a silent fallback: `SALT=ten` should stop the service.
func (l *loader) optionalInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		l.fail("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err)
		return defaultValue
	}
	return value
}

// optionalDuration parses strings like "7h" or "90m" with time.ParseDuration.
// Zero and negative durations are rejected.
func (l *loader) optionalDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		l.fail("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err)
		return defaultValue
	}
	if value <= 0 {
		l.fail("invalid value for %s: duration must be positive, got '%s'", key, valueStr)
		return defaultValue
	}
	return value
}

// clampPoolSize keeps the pool size between minPoolSize and maxPoolSize.
// Out-of-range values are clamped silently; they are not configuration errors.
func clampPoolSize(size int) int {
	if size < minPoolSize {
		return minPoolSize
	}
	if size > maxPoolSize {
		return maxPoolSize
	}
	return size
}

// splitList turns "a, b,,c" into [a b c].
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadConfig builds an AppConfig from the environment. A missing DB or SECRET_KEY
// is fatal: the service cannot store users or issue tokens without them.
func LoadConfig() (*AppConfig, error) {
	l := &loader{}

	database := &DatabaseConfig{
		URL:      l.required("DB"),
		PoolSize: clampPoolSize(l.optionalInt("DB_POOL_SIZE", DefaultPoolSize)),
	}

	auth := &AuthConfig{
		JWTSecret:   l.required("SECRET_KEY"),
		TokenExpiry: l.optionalDuration("JWT_EXPIRY", DefaultTokenExpiry),
		BcryptCost:  l.optionalInt("SALT", DefaultBcryptCost),
	}
	if auth.BcryptCost < bcrypt.MinCost || auth.BcryptCost > bcrypt.MaxCost {
		l.fail("invalid value for SALT: bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, auth.BcryptCost)
	}

	// Server settings have no required values; a bare environment serves on :5000.
	server := &ServerConfig{
		Port:           l.optional("PORT", DefaultPort),
		AllowedOrigins: splitList(l.optional("CORS_ALLOWED_ORIGINS", "*")),
	}

	logCfg := &LogConfig{
		Format: strings.ToLower(l.optional("LOG_FORMAT", DefaultLogFormat)),
		Level:  strings.ToLower(l.optional("LOG_LEVEL", DefaultLogLevel)),
	}
	if logCfg.Format != "json" && logCfg.Format != "text" {
		l.fail("invalid value for LOG_FORMAT: expected json or text, got '%s'", logCfg.Format)
	}

	// ErrorOrNil is nil-safe and returns nil when nothing failed.
	if err := l.errs.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("configuration errors: %w", err)
	}

	return &AppConfig{
		Database: database,
		Auth:     auth,
		Server:   server,
		Log:      logCfg,
	}, nil
}
