package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment.
type Config struct {
	DatabaseURL    string
	ServerPort     string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins string
	RedisURL       string // empty disables the stock cache
	CacheTTL       time.Duration
	MigrationsDir  string

	// devSecret is set when JWT_SECRET was missing and the development fallback is in use.
	devSecret bool
}

const devJWTSecret = "dev_secret"

// ErrNoJWTSecret is returned by ValidateServer when JWT_SECRET is unset.
var ErrNoJWTSecret = errors.New("JWT_SECRET must be set to a non-default value to serve HTTP")

// Load reads a .env file if present, then environment variables with defaults.
func Load() Config {
	_ = godotenv.Load()

	port := getenv("SERVER_PORT", "8080")
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid SERVER_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	secret := os.Getenv("JWT_SECRET")
	devSecret := secret == ""
	if devSecret {
		log.Println("Warning: JWT_SECRET is not set, using an insecure development secret")
		secret = devJWTSecret
	}

	return Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServerPort:     port,
		JWTSecret:      secret,
		TokenTTL:       getDuration("TOKEN_TTL", time.Hour),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		RedisURL:       os.Getenv("REDIS_URL"),
		CacheTTL:       getDuration("STOCK_CACHE_TTL", 30*time.Second),
		MigrationsDir:  getenv("MIGRATIONS_DIR", "migrations"),
		devSecret:      devSecret,
	}
}

// ValidateServer rejects settings that are tolerable for the CLI and tests but not for
// a process that issues and accepts tokens.
func (c Config) ValidateServer() error {
	if c.devSecret || c.JWTSecret == "" || c.JWTSecret == devJWTSecret {
		return ErrNoJWTSecret
	}
	return nil
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid %s value %q, defaulting to %s", key, v, fallback)
		return fallback
	}
	return d
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
