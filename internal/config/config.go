package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string
	DBDriver   string
	MySQLDSN   string
	SQLitePath string
	RedisAddr  string
	RedisDB    int
	RedisPass  string

	SessionTTL        time.Duration
	SessionSliding    bool
	SessionCookieName string
	CookieSecure      bool
	BcryptCost        int

	LogLevel    string
	LogJSON     bool
	SwaggerHost string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory, when present, is applied first
// without overriding variables that are already set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		DBDriver:          getEnv("DB_DRIVER", "mysql"),
		SQLitePath:        getEnv("SQLITE_PATH", "membership.db"),
		MySQLDSN:          getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/users?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisPass:         os.Getenv("REDIS_PASSWORD"),
		SessionTTL:        getEnvDuration("SESSION_TTL", time.Hour),
		SessionSliding:    getEnvBool("SESSION_SLIDING", false),
		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "sid"),
		CookieSecure:      getEnvBool("COOKIE_SECURE", false),
		BcryptCost:        getEnvInt("BCRYPT_COST", 10),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogJSON:           getEnvBool("LOG_JSON", false),
		SwaggerHost:       os.Getenv("SWAGGER_HOST"),
	}
}

// DatabaseDSN returns the connection string for the configured driver.
func (c *Config) DatabaseDSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.MySQLDSN
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}
