package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"todo_webapp/internal/logger"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	AppPort     string
	AppVersion  string
	DatabaseURL string
	DevMode     bool

	// Token signing; the secret must be the same on every instance
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	// Redis task cache, disabled when RedisAddr is empty
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TaskCacheTTL  time.Duration

	AllowedOrigin string
	LogLevel      string
	LogJSON       bool
}

// Load reads .env (if present) and the environment. Invalid configuration is fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg, err := parse(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

func parse(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		AppPort:       getenv("APP_PORT"),
		AppVersion:    getenv("APP_VERSION"),
		DatabaseURL:   getenv("DATABASE_URL"),
		DevMode:       getenv("DEV_MODE") == "true",
		JWTSecret:     getenv("JWT_SECRET"),
		TokenTTL:      24 * time.Hour,
		BcryptCost:    bcrypt.DefaultCost,
		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		TaskCacheTTL:  5 * time.Minute,
		AllowedOrigin: getenv("ALLOWED_ORIGIN"),
		LogLevel:      getenv("LOG_LEVEL"),
		LogJSON:       getenv("LOG_JSON") == "true",
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}
	if cfg.AppVersion == "" {
		cfg.AppVersion = "dev"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if cfg.DatabaseURL == "" && !cfg.DevMode {
		return nil, errors.New("DATABASE_URL is not set")
	}

	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("TOKEN_TTL: invalid duration %q", v)
		}
		cfg.TokenTTL = d
	}

	if v := getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < bcrypt.MinCost || n > bcrypt.MaxCost {
			return nil, fmt.Errorf("BCRYPT_COST: must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cfg.BcryptCost = n
	}

	if v := getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("REDIS_DB: invalid index %q", v)
		}
		cfg.RedisDB = n
	}

	if v := getenv("TASK_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("TASK_CACHE_TTL: invalid duration %q", v)
		}
		cfg.TaskCacheTTL = d
	}

	return cfg, nil
}
