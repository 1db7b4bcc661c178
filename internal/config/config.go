package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	MigrationsDir      string

	RuleCacheTTL    time.Duration
	RateLimitWindow time.Duration
	RateLimitMax    int

	DefaultRegion string
	ExchangeRate  decimal.Decimal

	// Daily peak/off-peak windows as HH:MM bounds, compared as clock
	// strings. An empty bound disables that window.
	TimePeakStart          string
	TimePeakEnd            string
	TimePeakSurchargePct   decimal.Decimal
	TimeOffPeakStart       string
	TimeOffPeakEnd         string
	TimeOffPeakDiscountPct decimal.Decimal

	DynamicPricingEnabled bool
	TierPricingEnabled    bool
	TimePricingEnabled    bool
	TaxInclusivePricing   bool
	RoundTaxAmounts       bool
	TaxExemptionsEnabled  bool
	ReverseChargeEnabled  bool
	DigitalServicesTax    bool
	AutoDiscountsEnabled  bool
	AutoGiftsEnabled      bool

	PprofUser     string
	PprofPassword string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		MigrationsDir:      valueOrDefault(k.String("MIGRATIONS_DIR"), "migrations"),

		RuleCacheTTL:    parseDuration(k.String("RULE_CACHE_TTL"), "5m"),
		RateLimitWindow: parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:    parseInt(k.String("RATE_LIMIT_MAX"), 120),

		DefaultRegion: valueOrDefault(k.String("DEFAULT_TAX_REGION"), "eu"),
		ExchangeRate:  parseDecimal(k.String("EUR_SYP_EXCHANGE_RATE"), "10000"),

		TimePeakStart:          valueOrDefault(k.String("TIME_PEAK_START"), "08:00"),
		TimePeakEnd:            valueOrDefault(k.String("TIME_PEAK_END"), "12:00"),
		TimePeakSurchargePct:   parseDecimal(k.String("TIME_PEAK_SURCHARGE_PCT"), "10"),
		TimeOffPeakStart:       valueOrDefault(k.String("TIME_OFFPEAK_START"), "18:00"),
		TimeOffPeakEnd:         valueOrDefault(k.String("TIME_OFFPEAK_END"), "21:00"),
		TimeOffPeakDiscountPct: parseDecimal(k.String("TIME_OFFPEAK_DISCOUNT_PCT"), "10"),

		DynamicPricingEnabled: parseBool(k.String("DYNAMIC_PRICING_ENABLED"), true),
		TierPricingEnabled:    parseBool(k.String("TIER_PRICING_ENABLED"), true),
		TimePricingEnabled:    parseBool(k.String("TIME_PRICING_ENABLED"), false),
		TaxInclusivePricing:   parseBool(k.String("TAX_INCLUSIVE_PRICING"), false),
		RoundTaxAmounts:       parseBool(k.String("ROUND_TAX_AMOUNTS"), true),
		TaxExemptionsEnabled:  parseBool(k.String("TAX_EXEMPTIONS_ENABLED"), true),
		ReverseChargeEnabled:  parseBool(k.String("REVERSE_CHARGE_ENABLED"), true),
		DigitalServicesTax:    parseBool(k.String("DIGITAL_SERVICES_TAX"), false),
		AutoDiscountsEnabled:  parseBool(k.String("AUTO_DISCOUNTS_ENABLED"), true),
		AutoGiftsEnabled:      parseBool(k.String("AUTO_GIFTS_ENABLED"), true),

		PprofUser:     k.String("PPROF_USER"),
		PprofPassword: k.String("PPROF_PASSWORD"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(base, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseDecimal(value, fallback string) decimal.Decimal {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := decimal.NewFromString(base)
	if err != nil {
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
