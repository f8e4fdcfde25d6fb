package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreMySQL    = "mysql"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config is the process configuration, read from the environment.
type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Store backend
	StoreAPIBase    string
	StoreAPITimeout time.Duration

	// Checkout
	AuthEntryURL             string
	CheckoutReturnPath       string
	PaymentDescriptionFormat string

	// Session
	SessionTokenSecret  string
	SessionCookieName   string
	SessionCookieSecure bool

	// Cart storage
	CartStore            string
	CartSlotPrefix       string
	CartSessionCacheSize int
	MySQLDSN             string
	PostgresDSN          string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int

	// Features
	EnableMetrics bool
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()
	return New()
}

// New reads the environment with defaults applied. Call Validate before use.
func New() *Config {
	return &Config{
		Port:        getEnv("APP_PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StoreAPIBase:    getEnv("STORE_API_BASE", "http://localhost:8000/api"),
		StoreAPITimeout: getEnvAsDuration("STORE_API_TIMEOUT", 15*time.Second),

		AuthEntryURL:             getEnv("AUTH_ENTRY_URL", "/auth"),
		CheckoutReturnPath:       getEnv("CHECKOUT_RETURN_PATH", "/checkout"),
		PaymentDescriptionFormat: getEnv("PAYMENT_DESCRIPTION_FORMAT", "پرداخت سفارش شماره %d"),

		SessionTokenSecret:  getEnv("SESSION_TOKEN_SECRET", ""),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "stylino_session"),
		SessionCookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),

		CartStore:            getEnv("CART_STORE", StoreMemory),
		CartSlotPrefix:       getEnv("CART_SLOT_PREFIX", "stylino_cart"),
		CartSessionCacheSize: getEnvAsInt("CART_SESSION_CACHE_SIZE", 1024),
		MySQLDSN:             getEnv("MYSQL_DSN", ""),
		PostgresDSN:          getEnv("PG_DSN", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),

		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.CartStore {
	case StoreMemory:
	case StoreMySQL:
		if c.MySQLDSN == "" {
			errs = append(errs, errors.New("MYSQL_DSN is required when CART_STORE=mysql"))
		}
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("PG_DSN is required when CART_STORE=postgres"))
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when CART_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CART_STORE %q", c.CartStore))
	}

	if c.CartSessionCacheSize <= 0 {
		errs = append(errs, errors.New("CART_SESSION_CACHE_SIZE must be positive"))
	}
	if c.StoreAPITimeout <= 0 {
		errs = append(errs, errors.New("STORE_API_TIMEOUT must be positive"))
	}
	if c.StoreAPIBase == "" {
		errs = append(errs, errors.New("STORE_API_BASE is required"))
	}
	if c.SessionCookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE_NAME is required"))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}
