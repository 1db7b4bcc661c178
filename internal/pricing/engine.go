package pricing

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakehouse/pricing-api/internal/money"
)

// ErrInvalidInput is returned when the price or quantity are out of range.
var ErrInvalidInput = errors.New("pricing: invalid input")

// LineKind classifies a breakdown entry.
type LineKind string

const (
	KindBase      LineKind = "base"
	KindDiscount  LineKind = "discount"
	KindSurcharge LineKind = "surcharge"
)

// Line is one signed adjustment in a price breakdown. Discounts carry
// negative amounts, surcharges positive ones.
type Line struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Kind        LineKind        `json:"kind"`
}

// Calculation is the result of a dynamic price computation for one unit.
type Calculation struct {
	OriginalPrice   decimal.Decimal `json:"originalPrice"`
	FinalPriceEUR   decimal.Decimal `json:"finalPriceEur"`
	FinalPriceSYP   decimal.Decimal `json:"finalPriceSyp"`
	Breakdown       []Line          `json:"breakdown"`
	Savings         decimal.Decimal `json:"savings"`
	SavingsPercent  decimal.Decimal `json:"savingsPercent"`
	ApplicableRules []string        `json:"applicableRules,omitempty"`
}

// Config carries the pricing toggles, passed by value on every call.
type Config struct {
	Enabled      bool
	Tier         TierSettings
	Time         TimeSettings
	ExchangeRate decimal.Decimal
}

// Input groups everything needed for one price computation.
type Input struct {
	BasePrice decimal.Decimal
	Quantity  int
	Tier      Tier
	OrderTime time.Time
	Rules     []Rule
	Breaks    []QuantityBreak
}

// Compute resolves the unit price for the given context. Adjustments are
// applied in a fixed sequence: quantity break, then customer tier, then
// time-of-day windows. Rule priority never reorders this sequence.
func Compute(in Input, cfg Config) (Calculation, error) {
	if in.Quantity < 1 {
		return Calculation{}, ErrInvalidInput
	}
	if in.BasePrice.IsNegative() {
		return Calculation{}, ErrInvalidInput
	}

	calc := Calculation{
		OriginalPrice: in.BasePrice,
		Breakdown: []Line{{
			Description: "Base price",
			Amount:      in.BasePrice,
			Currency:    "EUR",
			Kind:        KindBase,
		}},
	}
	running := in.BasePrice

	if cfg.Enabled {
		if brk, ok := SelectBreak(in.Breaks, in.Quantity); ok && brk.DiscountPercent.IsPositive() {
			cut := money.Percent(running, brk.DiscountPercent)
			running = running.Sub(cut)
			calc.Breakdown = append(calc.Breakdown, Line{
				Description: "Quantity discount",
				Amount:      cut.Neg(),
				Currency:    "EUR",
				Kind:        KindDiscount,
			})
		}

		if cfg.Tier.Enabled {
			if pct := TierDiscountPercent(in.Tier); pct.IsPositive() {
				cut := money.Percent(running, pct)
				running = running.Sub(cut)
				calc.Breakdown = append(calc.Breakdown, Line{
					Description: "Customer tier discount (" + string(in.Tier) + ")",
					Amount:      cut.Neg(),
					Currency:    "EUR",
					Kind:        KindDiscount,
				})
			}
		}

		if cfg.Time.Enabled {
			clock := in.OrderTime.Format("15:04")
			// Peak and off-peak are checked independently so overlapping
			// windows compound both adjustments.
			if cfg.Time.Peak.Contains(clock) && cfg.Time.PeakSurchargePct.IsPositive() {
				add := money.Percent(running, cfg.Time.PeakSurchargePct)
				running = running.Add(add)
				calc.Breakdown = append(calc.Breakdown, Line{
					Description: "Peak hours surcharge",
					Amount:      add,
					Currency:    "EUR",
					Kind:        KindSurcharge,
				})
			}
			if cfg.Time.OffPeak.Contains(clock) && cfg.Time.OffPeakDiscountPct.IsPositive() {
				cut := money.Percent(running, cfg.Time.OffPeakDiscountPct)
				running = running.Sub(cut)
				calc.Breakdown = append(calc.Breakdown, Line{
					Description: "Off-peak discount",
					Amount:      cut.Neg(),
					Currency:    "EUR",
					Kind:        KindDiscount,
				})
			}
		}

		for _, r := range ActiveRules(in.Rules, in.OrderTime) {
			calc.ApplicableRules = append(calc.ApplicableRules, r.Name)
		}
	}

	calc.FinalPriceEUR = running
	rate := cfg.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	calc.FinalPriceSYP = running.Mul(rate)

	calc.Savings = calc.OriginalPrice.Sub(calc.FinalPriceEUR)
	if calc.OriginalPrice.IsPositive() {
		calc.SavingsPercent = calc.Savings.
			Div(calc.OriginalPrice).
			Mul(decimal.NewFromInt(100))
	}
	return calc, nil
}
