package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSessionTTL     = "24h"
	defaultWarnWindow     = "5m"
	defaultTokenTTL       = "24h"
	defaultPaymentTimeout = "10s"
	defaultTaxRate        = "0.08"
	defaultServiceFeeRate = "0.05"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultListenAddr     = ":8080"
)

type RuntimeConfig struct {
	AppEnv      string
	DatabaseURL string
	ListenAddr  string

	JWTSecret string
	TokenTTL  time.Duration

	SessionTTL        time.Duration
	SessionWarnWindow time.Duration

	TaxRate        float64
	ServiceFeeRate float64
	PaymentTimeout time.Duration
}

func LoadRuntimeConfig() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", "carrental.db"))
	cfg.ListenAddr = strings.TrimSpace(getEnv("LISTEN_ADDR", defaultListenAddr))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	cfg.TokenTTL, err = parseDurationEnv("TOKEN_TTL", defaultTokenTTL)
	if err != nil {
		return nil, err
	}

	cfg.SessionTTL, err = parseDurationEnv("SESSION_TTL", defaultSessionTTL)
	if err != nil {
		return nil, err
	}

	cfg.SessionWarnWindow, err = parseDurationEnv("SESSION_WARN_WINDOW", defaultWarnWindow)
	if err != nil {
		return nil, err
	}

	cfg.PaymentTimeout, err = parseDurationEnv("PAYMENT_TIMEOUT", defaultPaymentTimeout)
	if err != nil {
		return nil, err
	}

	cfg.TaxRate, err = parseFloatEnv("TAX_RATE", defaultTaxRate)
	if err != nil {
		return nil, err
	}

	cfg.ServiceFeeRate, err = parseFloatEnv("SERVICE_FEE_RATE", defaultServiceFeeRate)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("runtime config: env=%s session_ttl=%s tax=%.2f service_fee=%.2f", cfg.AppEnv, cfg.SessionTTL, cfg.TaxRate, cfg.ServiceFeeRate)

	return cfg, nil
}

func validateConfig(cfg *RuntimeConfig) error {
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if cfg.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be > 0")
	}
	if cfg.SessionWarnWindow <= 0 || cfg.SessionWarnWindow >= cfg.SessionTTL {
		return fmt.Errorf("SESSION_WARN_WINDOW must be > 0 and shorter than SESSION_TTL")
	}
	if cfg.PaymentTimeout <= 0 {
		return fmt.Errorf("PAYMENT_TIMEOUT must be > 0")
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return fmt.Errorf("TAX_RATE must be in [0, 1)")
	}
	if cfg.ServiceFeeRate < 0 || cfg.ServiceFeeRate >= 1 {
		return fmt.Errorf("SERVICE_FEE_RATE must be in [0, 1)")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseFloatEnv(name, fallback string) (float64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
