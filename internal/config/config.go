// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // APP_ENV, e.g. "dev" or "prod"
	Port           string // APP_PORT
	DBUser         string
	DBPass         string // may be empty
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int

	Stripe StripeConfig
	SMTP   SMTPConfig
	Admin  AdminSeed

	RabbitURL       string        // RABBITMQ_URL or AMQP_URL; empty disables events
	BookingLogDir   string        // where the consumer appends booking.log
	MigrationsDir   string        // applied at startup when set
	CartTTL         time.Duration // idle lifetime of a session cart
	MetricsEnabled  bool
	TokenPurgeEvery time.Duration
}

// StripeConfig configures the payment gateway.  An empty SecretKey disables
// checkout sessions and payment intents.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

// SMTPConfig configures the confirmation mailer.  An empty Host disables it.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// AdminSeed is the administrator ensured at startup when both fields are set.
type AdminSeed struct {
	Email    string
	Password string
}

// MissingEnvError lists every required variable that was unset or invalid.
type MissingEnvError struct {
	Keys []string
}

func (e *MissingEnvError) Error() string {
	return "missing or invalid env vars: " + strings.Join(e.Keys, ", ")
}

type loader struct {
	bad []string
}

func (l *loader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		l.bad = append(l.bad, key)
	}
	return v
}

func (l *loader) mustInt(key string) int {
	s := l.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		l.bad = append(l.bad, key)
	}
	return n
}

// Load reads the configuration.  Unlike a fail-fast lookup it reports every
// missing required variable at once.
func Load() (Config, error) {
	var l loader
	cfg := Config{
		Env:            l.must("APP_ENV"),
		Port:           l.must("APP_PORT"),
		DBUser:         l.must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         l.must("DB_HOST"),
		DBPort:         l.must("DB_PORT"),
		DBName:         l.must("DB_NAME"),
		JWTSecret:      l.must("JWT_SECRET"),
		AccessTTLMin:   l.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: l.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     l.mustInt("BCRYPT_COST"),

		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			SuccessURL:    envStr("STRIPE_SUCCESS_URL", "http://localhost:3000/payment/success"),
			CancelURL:     envStr("STRIPE_CANCEL_URL", "http://localhost:3000/payment/cancel"),
			Currency:      strings.ToLower(envStr("STRIPE_CURRENCY", "usd")),
		},
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envStr("SMTP_FROM", "no-reply@hotel.local"),
		},
		Admin: AdminSeed{
			Email:    os.Getenv("ADMIN_EMAIL"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},

		RabbitURL:       envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		BookingLogDir:   envStr("BOOKING_LOG_DIR", "logs"),
		MigrationsDir:   os.Getenv("MIGRATIONS_DIR"),
		CartTTL:         envDur("CART_TTL", 24*time.Hour),
		MetricsEnabled:  envBool("METRICS_ENABLED", true),
		TokenPurgeEvery: envDur("TOKEN_PURGE_EVERY", time.Hour),
	}
	if len(l.bad) > 0 {
		sort.Strings(l.bad)
		return cfg, &MissingEnvError{Keys: l.bad}
	}
	return cfg, nil
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return fmt.Sprintf(":%s", c.Port) }
