package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	Port          string
	AllowedOrigin string
	StoreDriver   string
	DatabaseURL   string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	MirrorKey     string
	Timezone      string
	LogLevel      string
}

// Load reads the process environment, after filling it from a .env file in
// the working directory when one exists. Variables already set win.
func Load() Config {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		redisDB = 0
	}

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:    getEnv("SQLITE_PATH", "data/tabbook.db"),
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		MirrorKey:     getEnv("MIRROR_KEY", "tabbook:inventory"),
		Timezone:      getEnv("TIMEZONE", "Local"),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
	cfg.StoreDriver = resolveDriver(strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER"))), cfg.DatabaseURL)

	return cfg
}

// resolveDriver falls back to postgres when only DATABASE_URL is given, and
// to sqlite otherwise.
func resolveDriver(driver string, databaseURL string) string {
	switch driver {
	case DriverMemory, DriverSQLite, DriverPostgres, DriverMySQL:
		return driver
	}
	if databaseURL != "" {
		return DriverPostgres
	}
	return DriverSQLite
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves the shop's timezone; unknown names fall back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
