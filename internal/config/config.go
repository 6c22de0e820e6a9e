package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Boundaries   BoundaryConfig
	Policy       PolicyConfig
	Compensation CompensationConfig
}

type ServerConfig struct {
	Port        int
	Env         string
	LogLevel    string
	CORSOrigins []string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Schema   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type BoundaryConfig struct {
	UserBaseURL       string
	CatalogBaseURL    string
	InventoryBaseURL  string
	Timeout           time.Duration
	OrderItemsWorkers int
}

// PolicyConfig selects between the reference behavior and the hardened one
// for each of the open design questions. Defaults are hardened.
type PolicyConfig struct {
	RejectEmptyCart     bool
	CompensateOnFailure bool
	MergeDuplicateLines bool
	EnforceTransitions  bool
}

type CompensationConfig struct {
	Interval   time.Duration
	OlderThan  time.Duration
	BatchSize  int
	MaxRetries uint64
}

func Load() Config {
	// A missing .env is fine; the process environment wins either way.
	_ = godotenv.Load()

	return Config{
		Server: ServerConfig{
			Port:        getEnvInt("HTTP_PORT", 8080),
			Env:         getEnv("APP_ENV", "dev"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     os.Getenv("BLUEPRINT_DB_HOST"),
			Port:     getEnv("BLUEPRINT_DB_PORT", "5432"),
			User:     os.Getenv("BLUEPRINT_DB_USERNAME"),
			Password: os.Getenv("BLUEPRINT_DB_PASSWORD"),
			DBName:   os.Getenv("BLUEPRINT_DB_DATABASE"),
			Schema:   getEnv("BLUEPRINT_DB_SCHEMA", "public"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Boundaries: BoundaryConfig{
			UserBaseURL:       trimURL(os.Getenv("USER_BASE_URL")),
			CatalogBaseURL:    trimURL(os.Getenv("CATALOG_BASE_URL")),
			InventoryBaseURL:  trimURL(os.Getenv("INVENTORY_BASE_URL")),
			Timeout:           getEnvMillis("BOUNDARY_TIMEOUT_MS", 2*time.Second),
			OrderItemsWorkers: getEnvInt("ORDER_ITEMS_CONCURRENCY", 8),
		},
		Policy: PolicyConfig{
			RejectEmptyCart:     getEnvBool("REJECT_EMPTY_CART", true),
			CompensateOnFailure: getEnvBool("COMPENSATE_ON_FAILURE", true),
			MergeDuplicateLines: getEnvBool("MERGE_DUPLICATE_LINES", false),
			EnforceTransitions:  getEnvBool("ENFORCE_STATUS_TRANSITIONS", true),
		},
		Compensation: CompensationConfig{
			Interval:   getEnvMillis("COMPENSATION_INTERVAL_MS", 5*time.Second),
			OlderThan:  getEnvMillis("COMPENSATION_MIN_AGE_MS", 0),
			BatchSize:  getEnvInt("COMPENSATION_BATCH_SIZE", 50),
			MaxRetries: uint64(getEnvInt("COMPENSATION_MAX_RETRIES", 3)),
		},
	}
}

// DSN returns the Postgres connection string, or "" when no database is configured.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" || d.DBName == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.Schema,
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvMillis(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Millisecond
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func trimURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}
