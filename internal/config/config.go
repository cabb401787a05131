package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort           string
	MongoURI           string
	MongoDBName        string
	RedisAddr          string
	RedisPassword      string
	PaymentAPIURL      string
	PaymentTimeout     time.Duration
	GatewayScriptURL   string
	CatalogDBPath      string
	KafkaBrokers       []string
	LedgerTopic        string
	CheckoutLockTTL    time.Duration
	RecoveryInterval   time.Duration
	RecoveryGrace      time.Duration
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string
}

type PaymentAPIConfig struct {
	Port            string
	KeyID           string
	KeySecret       string
	ShutdownTimeout time.Duration
	LogLevel        string
}

// Load reads the storefront configuration from the environment. A .env file
// in the working directory is applied first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:        getEnv("MONGO_DB_NAME", "pittas_dairy"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		PaymentAPIURL:      getEnv("PAYMENT_API_URL", "http://localhost:5000/api/payment"),
		GatewayScriptURL:   getEnv("GATEWAY_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),
		CatalogDBPath:      getEnv("CATALOG_DB_PATH", "catalog.db"),
		KafkaBrokers:       getList("KAFKA_BROKERS"),
		LedgerTopic:        getEnv("LEDGER_TOPIC", "subscription-ledger"),
		MaxRequestBodySize: 1 << 20, // 1MB
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	var err error
	durations := []struct {
		dst *time.Duration
		key string
		def time.Duration
	}{
		{&cfg.PaymentTimeout, "PAYMENT_TIMEOUT", 15 * time.Second},
		{&cfg.CheckoutLockTTL, "CHECKOUT_LOCK_TTL", 15 * time.Minute},
		{&cfg.RecoveryInterval, "RECOVERY_INTERVAL", 30 * time.Second},
		{&cfg.RecoveryGrace, "RECOVERY_GRACE", 2 * time.Minute},
		{&cfg.RequestTimeout, "REQUEST_TIMEOUT", 30 * time.Second},
		{&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT", 10 * time.Second},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func LoadPaymentAPI() (*PaymentAPIConfig, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	shutdown, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &PaymentAPIConfig{
		Port:            getEnv("PAYMENT_API_PORT", "5000"),
		KeyID:           os.Getenv("GATEWAY_KEY_ID"),
		KeySecret:       os.Getenv("GATEWAY_KEY_SECRET"),
		ShutdownTimeout: shutdown,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, errors.New("GATEWAY_KEY_ID and GATEWAY_KEY_SECRET must be set")
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

// getList splits a comma separated variable, dropping empty parts.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
