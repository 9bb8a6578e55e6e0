// Package config reads connection settings from the environment.
// A .env file in the working directory is loaded first when present.
package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names
const (
	EnvDatabaseURL = "MOVIESHOP_DATABASE_URL"
	EnvMySQLURL    = "MOVIESHOP_MYSQL_URL"
	EnvSQLitePath  = "MOVIESHOP_SQLITE_PATH"
	EnvSchema      = "MOVIESHOP_SCHEMA"
	EnvLogLevel    = "MOVIESHOP_LOG_LEVEL"
)

// Config holds the settings flags fall back to
type Config struct {
	DatabaseURL string // PostgreSQL connection string
	MySQLURL    string // MySQL DSN
	SQLitePath  string // SQLite file path
	Schema      string // PostgreSQL schema or MySQL database, optional
	LogLevel    string
}

// Load reads the given env files (".env" when none are named) and then the
// process environment. Missing env files are not an error; variables
// already set in the environment win over file values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}

	return Config{
		DatabaseURL: os.Getenv(EnvDatabaseURL),
		MySQLURL:    os.Getenv(EnvMySQLURL),
		SQLitePath:  os.Getenv(EnvSQLitePath),
		Schema:      os.Getenv(EnvSchema),
		LogLevel:    GetEnv(EnvLogLevel, "info"),
	}, nil
}

// GetEnv returns the value of key, or defaultValue when it is unset or empty
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
