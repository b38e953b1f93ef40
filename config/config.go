package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

const (
	defaultMaxOpenConns       = 25
	defaultMaxIdleConns       = 10
	defaultConnMaxLifetimeMin = 60
)

type Config struct {
	// database connection settings, read from the FSTR_* env vars
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SSLMode    string

	// connection pool tuning
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int

	// HTTP server settings
	Port     string
	LogLevel string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Warn().Str("var", envVar).Str("value", valStr).Int("default", defaultVal).
			Msg("invalid integer env var, using default")
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	cfg := Config{
		DBHost:             getEnvOrDefault("FSTR_DB_HOST", "localhost"),
		DBPort:             getEnvOrDefault("FSTR_DB_PORT", "5432"),
		DBUser:             getEnvOrDefault("FSTR_DB_LOGIN", "postgres"),
		DBPassword:         os.Getenv("FSTR_DB_PASS"),
		DBName:             getEnvOrDefault("DATABASE_NAME", "pereval"),
		SSLMode:            getEnvOrDefault("DB_SSL_MODE", "disable"),
		MaxOpenConns:       getEnvIntOrDefault("DB_MAX_OPEN_CONNS", defaultMaxOpenConns),
		MaxIdleConns:       getEnvIntOrDefault("DB_MAX_IDLE_CONNS", defaultMaxIdleConns),
		ConnMaxLifetimeMin: getEnvIntOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", defaultConnMaxLifetimeMin),
		Port:               getEnvOrDefault("PORT", "8000"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if _, err := strconv.Atoi(cfg.DBPort); err != nil {
		return Config{}, fmt.Errorf("invalid FSTR_DB_PORT '%s': %w", cfg.DBPort, err)
	}

	return cfg, nil
}

// DSN builds a postgres connection URL. The password is URL-escaped so
// characters like '@' or ':' cannot break the URL structure.
func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		c.DBUser,
		url.QueryEscape(c.DBPassword),
		net.JoinHostPort(c.DBHost, c.DBPort),
		c.DBName,
		c.SSLMode,
	)
}
