package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatEUR(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"4.5", "€4.50"},
		{"1234.567", "€1,234.57"},
		{"-20", "€-20.00"},
		{"0", "€0.00"},
		{"1000000", "€1,000,000.00"},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got := FormatEUR(d); got != tc.want {
			t.Fatalf("FormatEUR(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatSYP(t *testing.T) {
	d := decimal.RequireFromString("45000.4")
	if got := FormatSYP(d); got != "45,000 SYP" {
		t.Fatalf("FormatSYP = %q", got)
	}
}

func TestPercent(t *testing.T) {
	got := Percent(decimal.NewFromInt(200), decimal.NewFromInt(10))
	if !got.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("Percent(200, 10) = %s", got)
	}
}
