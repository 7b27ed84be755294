package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Exchange rates
	ExchangeAPIURL string
	ExchangeAPIKey string
	RateTTL        time.Duration

	// Reminder worker
	ReminderInterval time.Duration

	// Backend selection
	DataBackend string
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8090"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/abone.db"),

		ExchangeAPIURL: getEnv("EXCHANGE_API_URL", "https://v6.exchangerate-api.com/v6"),
		ExchangeAPIKey: getEnv("EXCHANGE_API_KEY", ""),
		RateTTL:        getEnvDuration("RATE_TTL", 24*time.Hour),

		ReminderInterval: getEnvDuration("REMINDER_INTERVAL", time.Minute),

		DataBackend: getEnv("DATA_BACKEND", "sqlite"),
	}
}

// Validate checks the configuration, collecting every problem into one
// error so a misconfigured deploy fails with the full list.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
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

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.ExchangeAPIURL != "" {
		if parsedURL, err := url.Parse(c.ExchangeAPIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid exchange API URL '%s': %v", c.ExchangeAPIURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid exchange API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}
	if c.ExchangeAPIKey != "" && c.ExchangeAPIURL == "" {
		errors = append(errors, "exchange API URL cannot be empty when an API key is provided")
	}

	if c.RateTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid rate TTL %v: must be at least 1 minute", c.RateTTL))
	} else if c.RateTTL > 7*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid rate TTL %v: must be at most 7 days", c.RateTTL))
	}

	if c.ReminderInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 second", c.ReminderInterval))
	} else if c.ReminderInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at most 24 hours", c.ReminderInterval))
	}

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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
