package cli

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pixel-beads/api/api"
	"github.com/pixel-beads/api/datastore"
)

// LoadConfig reads the service configuration from the environment.
func LoadConfig() api.Config {
	return api.Config{
		HTTPPort:             getEnv("HTTP_PORT", ":3001"),
		DatabaseType:         getEnv("DB_TYPE", datastore.SQLite),
		DatabaseUser:         getEnv("DB_USER", "postgres"),
		DatabasePassword:     getEnv("DB_PASSWORD", ""),
		DatabaseHost:         getEnv("DB_HOST", "localhost"),
		DatabaseName:         getEnv("DB_NAME", "pixelbeads"),
		SSLMode:              getEnv("SSL_MODE", "disable"),
		SQLitePath:           getEnv("SQLITE_PATH", "data/pixelart.db"),
		ColorsPath:           getEnv("COLORS_PATH", "assets/colors.txt"),
		ColorsReloadInterval: getEnvInt("COLORS_RELOAD_INTERVAL", 30),
		JwtSecret:            getEnv("JWT_SECRET", ""),
		JwtAdminDuration:     getEnvInt("JWT_ADMIN_DURATION", 3600), // 1 hour
		AllowedOrigins:       getEnvSlice("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		MaxUploadBytes:       int64(getEnvInt("MAX_UPLOAD_BYTES", api.DefaultMaxUploadBytes)),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "json"),
		DevMode:              getEnvBool("DEV_MODE", false),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

func getEnvSlice(key, defaultValue string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// newLogger builds the process logger. Dev mode switches to coloured text.
func newLogger(cfg api.Config, out io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	switch {
	case cfg.DevMode || cfg.LogFormat == "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case cfg.LogFormat == "json":
		log.SetFormatter(&logrus.JSONFormatter{}) // structured logging
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (json, text)", cfg.LogFormat)
	}

	return log, nil
}

// openDB connects to the configured database, creating the SQLite directory
// when needed. The dialect for migrations is cfg.DatabaseType.
func openDB(cfg api.Config) (*sql.DB, error) {
	switch cfg.DatabaseType {
	case datastore.SQLite:
		if cfg.SQLitePath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return datastore.NewDB(datastore.SQLite, datastore.BuildSQLiteConnStr(cfg.SQLitePath))
	case datastore.Postgres:
		connStr := datastore.BuildDBConnStr(
			cfg.DatabasePassword,
			cfg.DatabaseUser,
			cfg.DatabaseHost,
			cfg.DatabaseName,
			cfg.SSLMode,
		)
		return datastore.NewDB(datastore.Postgres, connStr)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q (postgres, sqlite3)", cfg.DatabaseType)
	}
}
