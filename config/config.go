// Package config loads server configuration from the environment, with an
// optional .env file for development.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	ServerPort string
	BaseURL    string
	ClientURL  string

	DatabaseDSN string
	StoragePath string

	JWTSecret  string
	JWTExpire  time.Duration
	CookieName string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
}

// LoadConfig reads the environment. Outside of prod a .env file in the
// working directory overrides the inherited environment.
func LoadConfig() Config {
	if os.Getenv("ENV") != "prod" {
		if err := godotenv.Overload(); err != nil {
			slog.Warn("env file not found or could not be loaded", "error", err)
		}
	}

	return Config{
		Env:        getenv("ENV", "dev"),
		ServerPort: getenv("SERVER_PORT", "8080"),
		BaseURL:    getenv("BASE_URL", "http://localhost:8080"),
		ClientURL:  getenv("CLIENT_URL", "http://localhost:3000"),

		DatabaseDSN: os.Getenv("DATABASE_DSN"),
		StoragePath: getenv("STORAGE_PATH", "./data"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTExpire:  getduration("JWT_EXPIRE", 30*24*time.Hour),
		CookieName: getenv("COOKIE_NAME", "token"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getint("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASS"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
	}
}

// IsProd reports whether the server runs with production behavior (secure
// cookies, no reset-token echo).
func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment", "key", key, "value", v)
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	// accept either a Go duration ("720h") or a day count ("30")
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if days, err := strconv.Atoi(v); err == nil && days > 0 {
		return time.Duration(days) * 24 * time.Hour
	}
	slog.Warn("invalid duration in environment", "key", key, "value", v)
	return fallback
}
