// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds everything the service needs at startup.
type Config struct {
	// HTTP server
	Port string

	// Blob backend: "gcs" or "memory"
	BlobBackend string

	// GCS settings
	Bucket          string
	ObjectName      string
	CredentialsFile string
	StorageEndpoint string

	// Currency conversion: static rates into the base currency.
	BaseCurrency string
	Rates        map[string]decimal.Decimal

	// LegacyLastWriteWins restores the original unchecked save path, where
	// concurrent writers can silently overwrite each other. Kept for
	// compatibility testing only.
	LegacyLastWriteWins bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                getEnv("PORT", "8080"),
		BlobBackend:         getEnv("BLOB_BACKEND", "gcs"),
		Bucket:              getEnv("GCS_BUCKET", ""),
		ObjectName:          getEnv("DOCUMENT_OBJECT", "finance-document.json"),
		CredentialsFile:     getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		StorageEndpoint:     getEnv("STORAGE_EMULATOR_ENDPOINT", ""),
		BaseCurrency:        getEnv("BASE_CURRENCY", "NIS"),
		Rates:               parseRates(getEnv("CURRENCY_RATES", "USD=3.7,EUR=4.0,GBP=4.7")),
		LegacyLastWriteWins: getEnvBool("LEGACY_LAST_WRITE_WINS", false),
	}
}

// Validate reports configuration problems as one error.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.BlobBackend {
	case "gcs":
		if c.Bucket == "" {
			problems = append(problems, "GCS_BUCKET is required for the gcs backend")
		}
	case "memory":
	default:
		problems = append(problems, fmt.Sprintf("invalid blob backend %q: must be gcs or memory", c.BlobBackend))
	}

	if c.ObjectName == "" {
		problems = append(problems, "DOCUMENT_OBJECT must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// parseRates parses "USD=3.7,EUR=4.0" into a rate table. Malformed entries
// are skipped.
func parseRates(s string) map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		rates[strings.TrimSpace(parts[0])] = rate
	}
	return rates
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
