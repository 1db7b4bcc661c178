package tax

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func euRegion() Region {
	return Region{
		ID:          "eu",
		Name:        "European Union",
		DefaultRate: dec("20"),
		ReducedRates: []ReducedRate{
			{Name: "Food", Rate: dec("5"), Categories: []string{"bread", "pastry"}},
		},
		ReverseChargeThreshold: dec("500"),
		DigitalServicesRate:    dec("3"),
		Currency:               "EUR",
	}
}

func breadCart() []Line {
	return []Line{{ProductID: "p1", Name: "Sourdough", Category: "bread", UnitPrice: dec("5"), Quantity: 4}}
}

func TestComputeReducedRateExclusive(t *testing.T) {
	calc, err := Compute(Input{
		Lines:  breadCart(),
		Region: euRegion(),
		Now:    time.Now(),
	}, Settings{})
	require.NoError(t, err)
	require.True(t, calc.Subtotal.Equal(dec("20")), "subtotal %s", calc.Subtotal)
	require.True(t, calc.TotalTax.Equal(dec("1")), "tax %s", calc.TotalTax)
	require.True(t, calc.TotalAmount.Equal(dec("21")), "total %s", calc.TotalAmount)
	require.Len(t, calc.Breakdown, 1)
	require.True(t, calc.Breakdown[0].Rate.Equal(dec("5")))
	require.True(t, calc.EffectiveRate.Equal(dec("5")), "effective %s", calc.EffectiveRate)
}

func TestComputeDefaultRateWhenCategoryUnmatched(t *testing.T) {
	lines := []Line{{ProductID: "p2", Category: "equipment", UnitPrice: dec("10"), Quantity: 1}}
	calc, err := Compute(Input{Lines: lines, Region: euRegion(), Now: time.Now()}, Settings{})
	require.NoError(t, err)
	require.True(t, calc.TotalTax.Equal(dec("2")), "tax %s", calc.TotalTax)
}

func TestComputeFirstReducedRateWins(t *testing.T) {
	region := euRegion()
	region.ReducedRates = append(region.ReducedRates, ReducedRate{
		Name: "Duplicate", Rate: dec("1"), Categories: []string{"bread"},
	})
	calc, err := Compute(Input{Lines: breadCart(), Region: region, Now: time.Now()}, Settings{})
	require.NoError(t, err)
	require.True(t, calc.Breakdown[0].Rate.Equal(dec("5")), "declaration order wins")
}

func TestComputeInclusiveRoundTrip(t *testing.T) {
	region := Region{ID: "eu", DefaultRate: dec("20"), Currency: "EUR"}
	lines := []Line{{ProductID: "p1", Category: "misc", UnitPrice: dec("12"), Quantity: 1}}

	exclusive, err := Compute(Input{Lines: lines, Region: region, Now: time.Now()}, Settings{})
	require.NoError(t, err)
	require.True(t, exclusive.TotalAmount.Sub(exclusive.Subtotal).Equal(exclusive.TotalTax))

	inclusive, err := Compute(Input{Lines: lines, Region: region, Now: time.Now()}, Settings{InclusivePricing: true})
	require.NoError(t, err)
	require.True(t, inclusive.TotalAmount.Equal(inclusive.Subtotal))
	// 12 at 20% inclusive extracts 12*20/120 = 2.
	require.True(t, inclusive.TotalTax.Equal(dec("2")), "tax %s", inclusive.TotalTax)
}

func TestComputeCharityExemptionUnconditional(t *testing.T) {
	valid := time.Now().Add(24 * time.Hour)
	calc, err := Compute(Input{
		Lines:  breadCart(),
		Region: euRegion(),
		Exemptions: []Exemption{{
			ID: "e1", CustomerID: "c1", Type: ExemptCharity,
			ValidUntil: &valid, Regions: []string{"eu"}, Active: true,
		}},
		CustomerID: "c1",
		Now:        time.Now(),
	}, Settings{ExemptionsEnabled: true})
	require.NoError(t, err)
	require.True(t, calc.TotalTax.IsZero(), "tax %s", calc.TotalTax)
	require.True(t, calc.TotalAmount.Equal(dec("20")))
	require.Contains(t, calc.Warnings, warnCharityExempt)
}

func TestComputeReverseChargeNeedsThreshold(t *testing.T) {
	exemptions := []Exemption{{
		ID: "e2", CustomerID: "c2", Type: ExemptVATNumber,
		Regions: []string{"eu"}, Active: true,
	}}
	settings := Settings{ExemptionsEnabled: true, ReverseChargeEnabled: true}

	// Below the threshold the normal rate applies.
	below, err := Compute(Input{
		Lines:      breadCart(),
		Region:     euRegion(),
		Exemptions: exemptions,
		CustomerID: "c2",
		Now:        time.Now(),
	}, settings)
	require.NoError(t, err)
	require.True(t, below.TotalTax.Equal(dec("1")), "tax %s", below.TotalTax)

	// At or above the threshold the rate is forced to zero.
	big := []Line{{ProductID: "p1", Category: "bread", UnitPrice: dec("50"), Quantity: 10}}
	above, err := Compute(Input{
		Lines:      big,
		Region:     euRegion(),
		Exemptions: exemptions,
		CustomerID: "c2",
		Now:        time.Now(),
	}, settings)
	require.NoError(t, err)
	require.True(t, above.TotalTax.IsZero(), "tax %s", above.TotalTax)
	require.Contains(t, above.Warnings, warnReverseCharge)
}

func TestComputeExpiredExemptionIgnored(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	calc, err := Compute(Input{
		Lines:  breadCart(),
		Region: euRegion(),
		Exemptions: []Exemption{{
			ID: "e3", CustomerID: "c1", Type: ExemptCharity,
			ValidUntil: &expired, Regions: []string{"eu"}, Active: true,
		}},
		CustomerID: "c1",
		Now:        time.Now(),
	}, Settings{ExemptionsEnabled: true})
	require.NoError(t, err)
	require.True(t, calc.TotalTax.Equal(dec("1")))
	require.Nil(t, calc.AppliedExemption)
}

func TestComputeDigitalServicesAdditive(t *testing.T) {
	lines := []Line{
		{ProductID: "p1", Category: "bread", UnitPrice: dec("10"), Quantity: 1},
		{ProductID: "p2", Category: "subscription", UnitPrice: dec("100"), Quantity: 1, Digital: true},
	}
	calc, err := Compute(Input{Lines: lines, Region: euRegion(), Now: time.Now()}, Settings{DigitalServicesTax: true})
	require.NoError(t, err)
	// bread 10 at 5% = 0.5; subscription 100 at default 20% = 20;
	// plus digital 3% of 100 = 3 on top.
	require.True(t, calc.TotalTax.Equal(dec("23.5")), "tax %s", calc.TotalTax)
	require.Len(t, calc.Breakdown, 3)
}

func TestComputeRounding(t *testing.T) {
	lines := []Line{{ProductID: "p1", Category: "misc", UnitPrice: dec("0.33"), Quantity: 1}}
	region := Region{ID: "eu", DefaultRate: dec("20"), Currency: "EUR"}
	calc, err := Compute(Input{Lines: lines, Region: region, Now: time.Now()}, Settings{RoundAmounts: true})
	require.NoError(t, err)
	// 0.33 * 0.20 = 0.066 -> 0.07
	require.True(t, calc.TotalTax.Equal(dec("0.07")), "tax %s", calc.TotalTax)
}

func TestComputeZeroSubtotal(t *testing.T) {
	calc, err := Compute(Input{Lines: nil, Region: euRegion(), Now: time.Now()}, Settings{})
	require.NoError(t, err)
	require.True(t, calc.EffectiveRate.IsZero())
	require.True(t, calc.TotalAmount.IsZero())
}

func TestComputeMissingRegion(t *testing.T) {
	_, err := Compute(Input{Lines: breadCart()}, Settings{})
	require.ErrorIs(t, err, ErrInvalidRegion)
}
