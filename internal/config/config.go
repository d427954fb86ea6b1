package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
)

// DefaultHouseholdID is used when HOUSEHOLD_ID is not set.
const DefaultHouseholdID = "6f1c2d7e-3b4a-4c5d-8e9f-0a1b2c3d4e5f"

const minSessionSecretLen = 32

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	DatabaseURL  string

	// AMQP (disabled when AMQPURL is empty)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror (disabled when the spreadsheet ID is empty)
	GoogleSpreadsheetID       string
	GoogleServiceAccountJSON  string
	GoogleServiceAccountFile  string
	GoogleApplicationCredFile string

	// Session gate
	AuthPassword     string
	AuthPasswordHash string
	SessionSecret    string
	SessionTTL       time.Duration

	// Household
	HouseholdID string
	PersonAName string
	PersonBName string
	Currency    string
	ClosingDay  int

	// Worker and caching
	CacheTTL          time.Duration
	SnapshotInterval  time.Duration
	WorkerMetricsPort string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/financas.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "financas"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_snapshots"),

		GoogleSpreadsheetID:       getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON:  getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile:  getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleApplicationCredFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		AuthPassword:     getEnv("AUTH_PASSWORD", ""),
		AuthPasswordHash: getEnv("AUTH_PASSWORD_HASH", ""),
		SessionSecret:    getEnv("SESSION_SECRET", ""),
		SessionTTL:       getEnvDuration("SESSION_TTL", 0),

		HouseholdID: getEnv("HOUSEHOLD_ID", DefaultHouseholdID),
		PersonAName: getEnv("PERSON_A_NAME", "Person A"),
		PersonBName: getEnv("PERSON_B_NAME", "Person B"),
		Currency:    strings.ToUpper(getEnv("CURRENCY", "BRL")),
		ClosingDay:  getEnvInt("CLOSING_DAY", 1),

		CacheTTL:          getEnvDuration("CACHE_TTL", 5*time.Minute),
		SnapshotInterval:  getEnvDuration("SNAPSHOT_INTERVAL", 15*time.Minute),
		WorkerMetricsPort: getEnv("WORKER_METRICS_PORT", "9091"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Household builds the single household served by this deployment. Person
// IDs are derived from the household ID so they are stable across restarts.
func (c *Config) Household() (core.Household, error) {
	id, err := uuid.Parse(c.HouseholdID)
	if err != nil {
		return core.Household{}, fmt.Errorf("invalid HOUSEHOLD_ID '%s': %w", c.HouseholdID, err)
	}
	return core.Household{
		ID:          id,
		PersonAID:   uuid.NewSHA1(id, []byte("person_a")),
		PersonBID:   uuid.NewSHA1(id, []byte("person_b")),
		PersonAName: c.PersonAName,
		PersonBName: c.PersonBName,
		Currency:    c.Currency,
		ClosingDay:  c.ClosingDay,
	}, nil
}

// SheetsEnabled reports whether the worker should mirror months to Sheets.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the API server configuration and returns an error if invalid
func (c *Config) Validate() error {
	errors := c.validateCommon()

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.AuthPassword == "" && c.AuthPasswordHash == "" {
		errors = append(errors, "either AUTH_PASSWORD or AUTH_PASSWORD_HASH must be provided")
	}
	if len(c.SessionSecret) < minSessionSecretLen {
		errors = append(errors, fmt.Sprintf("session secret must be at least %d characters", minSessionSecretLen))
	}
	if c.SessionTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must not be negative", c.SessionTTL))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}

	return combine(errors)
}

// ValidateWorker validates the snapshot worker configuration
func (c *Config) ValidateWorker() error {
	errors := c.validateCommon()

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the snapshot worker")
	}
	if c.SnapshotInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid snapshot interval %v: must be at least 1 minute", c.SnapshotInterval))
	} else if c.SnapshotInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid snapshot interval %v: must be at most 24 hours", c.SnapshotInterval))
	}
	if c.WorkerMetricsPort != "" {
		if port, err := strconv.Atoi(c.WorkerMetricsPort); err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid worker metrics port '%s'", c.WorkerMetricsPort))
		}
	}

	return combine(errors)
}

// ValidateStorage validates only what the admin CLI needs to reach the store
func (c *Config) ValidateStorage() error {
	return combine(c.validateBackend(nil))
}

func (c *Config) validateCommon() []string {
	var errors []string

	errors = c.validateBackend(errors)

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := uuid.Parse(c.HouseholdID); err != nil {
		errors = append(errors, fmt.Sprintf("invalid household ID '%s': must be a UUID", c.HouseholdID))
	}
	if strings.TrimSpace(c.PersonAName) == "" || strings.TrimSpace(c.PersonBName) == "" {
		errors = append(errors, "both person names must be provided")
	}
	if len(c.Currency) != 3 {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': must be a 3-letter code", c.Currency))
	}
	if c.ClosingDay < 1 || c.ClosingDay > 31 {
		errors = append(errors, fmt.Sprintf("invalid closing day %d: must be between 1 and 31", c.ClosingDay))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	return errors
}

func (c *Config) validateBackend(errors []string) []string {
	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
			break
		}
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errors = append(errors, "database URL is required when using postgres backend")
		} else if parsedURL, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid database URL: %v", err))
		} else if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid database URL scheme '%s': must be 'postgres' or 'postgresql'", parsedURL.Scheme))
		}
	}
	return errors
}

func combine(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
