package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string
	LogLevel    string

	Gateway  GatewayConfig
	Checkout CheckoutConfig

	AnalysisBaseURL string
	UpstreamTimeout time.Duration

	DefaultLockDays    int
	CardSavingsPercent decimal.Decimal

	// SeedUserEnabled exposes GET /api/seed-user, which hands out a token for the demo user.
	SeedUserEnabled bool
}

// GatewayConfig describes the bank payment gateway integration.
type GatewayConfig struct {
	MerchantID  string
	ClientID    string
	RequestKey  string
	ResponseKey string
	BaseURL     string
	RedirectURL string
	Currency    string
}

// CheckoutConfig describes the card-processor hosted checkout.
type CheckoutConfig struct {
	SecretKey  string
	APIURL     string
	SuccessURL string
	CancelURL  string
	Currency   string
	// AllowUnverified accepts save-payment calls without a session id.
	AllowUnverified bool
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "smartsave"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:    fallback(os.Getenv("LOG_LEVEL"), "info"),
		Gateway: GatewayConfig{
			MerchantID:  strings.TrimSpace(os.Getenv("GATEWAY_MERCHANT_ID")),
			ClientID:    strings.TrimSpace(os.Getenv("GATEWAY_CLIENT_ID")),
			RequestKey:  strings.TrimSpace(os.Getenv("GATEWAY_REQUEST_KEY")),
			ResponseKey: strings.TrimSpace(os.Getenv("GATEWAY_RESPONSE_KEY")),
			BaseURL:     strings.TrimRight(fallback(os.Getenv("GATEWAY_BASE_URL"), "https://smartgatewayuat.hdfcbank.com"), "/"),
			RedirectURL: fallback(os.Getenv("GATEWAY_REDIRECT_URL"), "http://localhost:8080/api/callback"),
			Currency:    fallback(os.Getenv("GATEWAY_CURRENCY"), "INR"),
		},
		Checkout: CheckoutConfig{
			SecretKey:  strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
			APIURL:     strings.TrimSpace(os.Getenv("STRIPE_API_URL")),
			SuccessURL: fallback(os.Getenv("CHECKOUT_SUCCESS_URL"), "http://localhost:3000/locked_balance"),
			CancelURL:  fallback(os.Getenv("CHECKOUT_CANCEL_URL"), "http://localhost:3000/cancel"),
			Currency:   strings.ToLower(fallback(os.Getenv("CHECKOUT_CURRENCY"), "inr")),
		},
		AnalysisBaseURL: strings.TrimRight(fallback(os.Getenv("ANALYSIS_BASE_URL"), "http://127.0.0.1:8000"), "/"),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	timeout, err := time.ParseDuration(fallback(os.Getenv("UPSTREAM_TIMEOUT"), "10s"))
	if err != nil || timeout <= 0 {
		return Config{}, fmt.Errorf("UPSTREAM_TIMEOUT must be a positive duration")
	}
	cfg.UpstreamTimeout = timeout

	lockDays, err := strconv.Atoi(fallback(os.Getenv("DEFAULT_LOCK_DAYS"), "90"))
	if err != nil || lockDays <= 0 {
		return Config{}, errors.New("DEFAULT_LOCK_DAYS must be a positive integer")
	}
	cfg.DefaultLockDays = lockDays

	percent, err := decimal.NewFromString(fallback(os.Getenv("CARD_SAVINGS_PERCENT"), "5"))
	if err != nil || !percent.IsPositive() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return Config{}, errors.New("CARD_SAVINGS_PERCENT must be in (0, 100]")
	}
	cfg.CardSavingsPercent = percent

	if cfg.Checkout.AllowUnverified, err = parseBool("CHECKOUT_ALLOW_UNVERIFIED"); err != nil {
		return Config{}, err
	}
	if cfg.SeedUserEnabled, err = parseBool("SEED_USER_ENABLED"); err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.Gateway.RequestKey == "" || cfg.Gateway.ResponseKey == "" {
		return Config{}, errors.New("GATEWAY_REQUEST_KEY and GATEWAY_RESPONSE_KEY are required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// AuthEnabled reports whether user-facing routes require a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseBool(key string) (bool, error) {
	v, err := strconv.ParseBool(fallback(os.Getenv(key), "false"))
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return v, nil
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
