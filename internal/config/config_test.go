package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
	})
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost:5432/pricing",
		"REDIS_URL":    "redis://localhost:6379",
	})
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "eu", cfg.DefaultRegion)
	require.True(t, cfg.ExchangeRate.Equal(decimal.RequireFromString("10000")))
	require.True(t, cfg.DynamicPricingEnabled)
	require.False(t, cfg.TimePricingEnabled)
	require.True(t, cfg.RoundTaxAmounts)

	// Enabling time pricing without further configuration must still
	// yield working windows.
	require.Equal(t, "08:00", cfg.TimePeakStart)
	require.Equal(t, "12:00", cfg.TimePeakEnd)
	require.True(t, cfg.TimePeakSurchargePct.Equal(decimal.RequireFromString("10")))
	require.Equal(t, "18:00", cfg.TimeOffPeakStart)
	require.Equal(t, "21:00", cfg.TimeOffPeakEnd)
	require.True(t, cfg.TimeOffPeakDiscountPct.Equal(decimal.RequireFromString("10")))
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":          "postgres://localhost:5432/pricing",
		"REDIS_URL":             "redis://localhost:6379",
		"PORT":                      "9090",
		"EUR_SYP_EXCHANGE_RATE":     "12500",
		"TAX_INCLUSIVE_PRICING":     "true",
		"AUTO_GIFTS_ENABLED":        "off",
		"TIME_PRICING_ENABLED":      "true",
		"TIME_PEAK_START":           "06:30",
		"TIME_PEAK_END":             "10:00",
		"TIME_PEAK_SURCHARGE_PCT":   "15",
		"TIME_OFFPEAK_DISCOUNT_PCT": "20",
	})
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.True(t, cfg.ExchangeRate.Equal(decimal.RequireFromString("12500")))
	require.True(t, cfg.TaxInclusivePricing)
	require.False(t, cfg.AutoGiftsEnabled)
	require.True(t, cfg.TimePricingEnabled)
	require.Equal(t, "06:30", cfg.TimePeakStart)
	require.Equal(t, "10:00", cfg.TimePeakEnd)
	require.True(t, cfg.TimePeakSurchargePct.Equal(decimal.RequireFromString("15")))
	require.True(t, cfg.TimeOffPeakDiscountPct.Equal(decimal.RequireFromString("20")))
}
