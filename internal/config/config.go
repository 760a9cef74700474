package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"expensectl/internal/log"
)

type Config struct {
	// Expense API
	APIURL     string
	APITimeout time.Duration

	// Session persistence
	SessionBackend      string
	SessionDBPath       string
	EphemeralSessionTTL time.Duration

	// Logging
	LogLevel string

	// AMQP (optional mutation events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	AMQPPrefetch int

	// Google Sheets export (optional)
	GoogleSpreadsheetID       string
	GoogleSheetName           string
	GoogleServiceAccountFile  string
	GoogleServiceAccountJSON  string
	GoogleApplicationCredFile string
}

const (
	DefaultAPIURL    = "http://localhost:5000/api"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
	minAPITimeout    = time.Second
	maxAPITimeout    = 2 * time.Minute
	minEphemeralTTL  = time.Minute
	defaultSheetName = "Expenses"
)

func Load() *Config {
	return &Config{
		APIURL:     strings.TrimRight(getEnv("EXPENSE_API_URL", DefaultAPIURL), "/"),
		APITimeout: getEnvDuration("EXPENSE_API_TIMEOUT", 10*time.Second),

		SessionBackend:      getEnv("SESSION_BACKEND", BackendSQLite),
		SessionDBPath:       getEnv("SESSION_DB_PATH", "./data/session.db"),
		EphemeralSessionTTL: getEnvDuration("EPHEMERAL_SESSION_TTL", 12*time.Hour),

		LogLevel: getEnv("LOG_LEVEL", "warn"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expensectl"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_changed"),
		AMQPPrefetch: getEnvInt("AMQP_PREFETCH", 10),

		GoogleSpreadsheetID:       getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:           getEnv("GOOGLE_SHEET_NAME", defaultSheetName),
		GoogleServiceAccountFile:  getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON:  getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleApplicationCredFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate API URL
	if parsedURL, err := url.Parse(c.APIURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': %v", c.APIURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	} else if parsedURL.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API URL '%s': missing host", c.APIURL))
	}

	if c.APITimeout < minAPITimeout {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	} else if c.APITimeout > maxAPITimeout {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at most 2 minutes", c.APITimeout))
	}

	// Validate session backend
	switch c.SessionBackend {
	case BackendSQLite:
		if c.SessionDBPath == "" {
			errors = append(errors, "session database path cannot be empty when using sqlite backend")
		}
	case BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of [%s %s]", c.SessionBackend, BackendSQLite, BackendMemory))
	}

	if c.EphemeralSessionTTL < minEphemeralTTL {
		errors = append(errors, fmt.Sprintf("invalid ephemeral session TTL %v: must be at least 1 minute", c.EphemeralSessionTTL))
	}

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

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
		if c.AMQPPrefetch < 1 || c.AMQPPrefetch > 1000 {
			errors = append(errors, fmt.Sprintf("invalid AMQP prefetch %d: must be between 1 and 1000", c.AMQPPrefetch))
		}
	}

	// Export credentials are only checked when export is configured
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether mutation events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// ExportEnabled reports whether a spreadsheet export target is configured.
func (c *Config) ExportEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// ServiceAccountFile returns the credentials file to use for export, falling
// back to the standard GOOGLE_APPLICATION_CREDENTIALS location.
func (c *Config) ServiceAccountFile() string {
	if c.GoogleServiceAccountFile != "" {
		return c.GoogleServiceAccountFile
	}
	return c.GoogleApplicationCredFile
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
