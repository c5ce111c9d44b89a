package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration. It is loaded once in main and
// passed explicitly to the components that need it.
type Config struct {
	Port                 string
	DBDriver             string
	DBDSN                string
	LogLevel             string
	MinPayment           decimal.Decimal
	MinPaymentInclusive  bool
	KafkaBrokers         []string
	KafkaTopic           string
	ReportDigestSchedule string
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables with defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		DBDriver:             getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:                getEnv("DB_DSN", "studentloan.db"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "payment_posted"),
		ReportDigestSchedule: getEnv("REPORT_DIGEST_SCHEDULE", "@daily"),
	}

	var err error
	if cfg.MinPayment, err = decimal.NewFromString(getEnv("MIN_PAYMENT", "100")); err != nil {
		return nil, fmt.Errorf("invalid MIN_PAYMENT: %w", err)
	}
	if cfg.MinPayment.IsNegative() {
		return nil, fmt.Errorf("MIN_PAYMENT must not be negative")
	}
	if cfg.MinPaymentInclusive, err = strconv.ParseBool(getEnv("MIN_PAYMENT_INCLUSIVE", "true")); err != nil {
		return nil, fmt.Errorf("invalid MIN_PAYMENT_INCLUSIVE: %w", err)
	}

	for _, b := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
