package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

var loadEnv sync.Once

// Config returns the value of an environment variable, loading .env on first use.
func Config(key string) string {
	loadEnv.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			slog.Info("no .env file found, using process environment")
		}
	})
	return os.Getenv(key)
}

type Settings struct {
	Port string

	DBHost     string
	DBPort     uint64
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string

	JWTSecret           string
	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string

	AppURL      string
	CORSOrigins string

	// ProxyHeader names the header holding the client address when running behind a
	// reverse proxy. It is only honoured for requests from TrustedProxies.
	ProxyHeader    string
	TrustedProxies []string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	LogLevel  string
	LogFormat string
	Seed      bool
}

// Load reads the process settings. Secrets without a sane default are required.
func Load() (*Settings, error) {
	s := &Settings{
		Port:                getOr("PORT", "8002"),
		DBHost:              getOr("DB_HOST", "localhost"),
		DBUser:              getOr("DB_USER", "postgres"),
		DBPassword:          Config("DB_PASSWORD"),
		DBName:              getOr("DB_NAME", "bakery"),
		DBSSLMode:           getOr("DB_SSLMODE", "disable"),
		RedisAddr:           Config("REDIS_ADDR"),
		RedisPassword:       Config("REDIS_PASSWORD"),
		JWTSecret:           Config("JWT_SECRET"),
		StripeSecretKey:     Config("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: Config("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(getOr("CURRENCY", "usd")),
		AppURL:              strings.TrimRight(getOr("APP_URL", "http://localhost:5173"), "/"),
		CORSOrigins:         getOr("CORS_ORIGINS", "http://localhost:5173"),
		ProxyHeader:         Config("PROXY_HEADER"),
		TrustedProxies:      splitList(Config("TRUSTED_PROXIES")),
		SMTPHost:            Config("SMTP_HOST"),
		SMTPUsername:        Config("SMTP_USERNAME"),
		SMTPPassword:        Config("SMTP_PASSWORD"),
		SMTPFrom:            getOr("SMTP_FROM", "Hearthstone Bakery <orders@hearthstone.example>"),
		LogLevel:            getOr("LOG_LEVEL", "info"),
		LogFormat:           getOr("LOG_FORMAT", "json"),
		Seed:                Config("SEED") == "true",
	}

	port, err := strconv.ParseUint(getOr("DB_PORT", "5432"), 10, 32)
	if err != nil {
		return nil, fmt.Errorf("parse DB_PORT: %w", err)
	}
	s.DBPort = port

	smtpPort, err := strconv.Atoi(getOr("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("parse SMTP_PORT: %w", err)
	}
	s.SMTPPort = smtpPort

	var missing []string
	for key, val := range map[string]string{
		"JWT_SECRET":            s.JWTSecret,
		"STRIPE_SECRET_KEY":     s.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": s.StripeWebhookSecret,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New("missing required settings: " + strings.Join(missing, ", "))
	}
	if s.ProxyHeader != "" && len(s.TrustedProxies) == 0 {
		return nil, errors.New("PROXY_HEADER needs TRUSTED_PROXIES")
	}
	return s, nil
}

func (s *Settings) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		s.DBHost, s.DBPort, s.DBUser, s.DBPassword, s.DBName, s.DBSSLMode)
}

func getOr(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
