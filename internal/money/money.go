package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// EUR amounts carry 2 decimal places, SYP amounts carry none.
const (
	EURScale = 2
	SYPScale = 0
)

// Round2 rounds an amount to cents using half-up rounding.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(EURScale)
}

// Percent returns pct percent of value, e.g. Percent(200, 10) == 20.
func Percent(value, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).Div(decimal.NewFromInt(100))
}

// FormatEUR renders an amount as a euro string with 2 decimals, e.g. "€1,234.50".
func FormatEUR(d decimal.Decimal) string {
	return "€" + group(d.StringFixed(EURScale))
}

// FormatSYP renders an amount as a Syrian pound string with no decimals.
func FormatSYP(d decimal.Decimal) string {
	return group(d.StringFixed(SYPScale)) + " SYP"
}

// group inserts thousands separators into the integer part of a fixed-point string.
func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart := s
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}
	out := intPart + frac
	if neg {
		out = "-" + out
	}
	return out
}
