package tax

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakehouse/pricing-api/internal/money"
)

// ErrInvalidRegion aborts a calculation when the region cannot be resolved.
// No partial result is produced for this error.
var ErrInvalidRegion = errors.New("tax: invalid tax region")

// Line is a cart line item viewed by the tax engine.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Digital   bool            `json:"digital"`
}

// Total returns unit price times quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Settings are the tax toggles, passed by value on every call.
type Settings struct {
	InclusivePricing     bool
	RoundAmounts         bool
	ExemptionsEnabled    bool
	ReverseChargeEnabled bool
	DigitalServicesTax   bool
}

// RateGroup aggregates the lines taxed at one effective rate.
type RateGroup struct {
	Rate          decimal.Decimal `json:"rate"`
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Lines         []string        `json:"lines"`
}

// Calculation is a complete tax computation result. It is derived state,
// recomputed fully on every input change and never patched in place.
type Calculation struct {
	Subtotal         decimal.Decimal `json:"subtotal"`
	TotalTax         decimal.Decimal `json:"totalTax"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	EffectiveRate    decimal.Decimal `json:"effectiveRate"`
	Breakdown        []RateGroup     `json:"breakdown"`
	Warnings         []string        `json:"warnings,omitempty"`
	AppliedExemption *Exemption      `json:"appliedExemption,omitempty"`
	Region           string          `json:"region"`
	Currency         string          `json:"currency"`
}

// Input groups everything needed for one tax computation.
type Input struct {
	Lines      []Line
	Region     Region
	Exemptions []Exemption
	CustomerID string
	Now        time.Time
}

const (
	warnReverseCharge = "reverse charge applied: VAT liability shifts to the buyer"
	warnCharityExempt = "charity exemption applied: tax rate forced to zero"
)

// Compute runs the full tax calculation for the given cart and region.
func Compute(in Input, settings Settings) (Calculation, error) {
	if in.Region.ID == "" {
		return Calculation{}, ErrInvalidRegion
	}

	calc := Calculation{
		Region:   in.Region.ID,
		Currency: in.Region.Currency,
	}
	for _, l := range in.Lines {
		calc.Subtotal = calc.Subtotal.Add(l.Total())
	}

	var exemption *Exemption
	if settings.ExemptionsEnabled {
		exemption = ResolveExemption(in.Exemptions, in.CustomerID, in.Region.ID, in.Now)
		calc.AppliedExemption = exemption
	}

	groups := map[string]*RateGroup{}
	order := []string{}
	addToGroup := func(rate decimal.Decimal, taxable, amount decimal.Decimal, label string) {
		key := rate.String()
		g, ok := groups[key]
		if !ok {
			g = &RateGroup{Rate: rate}
			groups[key] = g
			order = append(order, key)
		}
		g.TaxableAmount = g.TaxableAmount.Add(taxable)
		g.TaxAmount = g.TaxAmount.Add(amount)
		g.Lines = append(g.Lines, label)
	}

	hundred := decimal.NewFromInt(100)
	for _, l := range in.Lines {
		rate := in.Region.RateFor(l.Category)

		// Exemption effects are resolved per line, not hoisted out of
		// the loop, mirroring how warnings accumulate.
		if exemption != nil {
			switch exemption.Type {
			case ExemptVATNumber:
				if settings.ReverseChargeEnabled && calc.Subtotal.GreaterThanOrEqual(in.Region.ReverseChargeThreshold) {
					rate = decimal.Zero
					calc.Warnings = appendWarning(calc.Warnings, warnReverseCharge)
				}
			case ExemptCharity:
				rate = decimal.Zero
				calc.Warnings = appendWarning(calc.Warnings, warnCharityExempt)
			}
		}

		lineTotal := l.Total()
		amount := taxAmount(lineTotal, rate, settings.InclusivePricing)
		if settings.RoundAmounts {
			amount = money.Round2(amount)
		}
		addToGroup(rate, lineTotal, amount, l.ProductID)
	}

	if settings.DigitalServicesTax && in.Region.DigitalServicesRate.IsPositive() {
		var digitalBase decimal.Decimal
		labels := []string{}
		for _, l := range in.Lines {
			if !l.Digital {
				continue
			}
			digitalBase = digitalBase.Add(l.Total())
			labels = append(labels, l.ProductID)
		}
		if digitalBase.IsPositive() {
			amount := taxAmount(digitalBase, in.Region.DigitalServicesRate, settings.InclusivePricing)
			if settings.RoundAmounts {
				amount = money.Round2(amount)
			}
			// Added on top of the category-based tax, never instead of it.
			g := &RateGroup{
				Rate:          in.Region.DigitalServicesRate,
				TaxableAmount: digitalBase,
				TaxAmount:     amount,
				Lines:         labels,
			}
			key := "digital:" + in.Region.DigitalServicesRate.String()
			groups[key] = g
			order = append(order, key)
		}
	}

	for _, key := range order {
		g := groups[key]
		calc.Breakdown = append(calc.Breakdown, *g)
		calc.TotalTax = calc.TotalTax.Add(g.TaxAmount)
	}

	if settings.InclusivePricing {
		calc.TotalAmount = calc.Subtotal
	} else {
		calc.TotalAmount = calc.Subtotal.Add(calc.TotalTax)
	}
	if calc.Subtotal.IsPositive() {
		calc.EffectiveRate = calc.TotalTax.Div(calc.Subtotal).Mul(hundred)
	}
	return calc, nil
}

// taxAmount computes the tax portion of a line total. Inclusive pricing
// extracts tax already contained in the amount.
func taxAmount(total, rate decimal.Decimal, inclusive bool) decimal.Decimal {
	if rate.IsZero() || total.IsZero() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	if inclusive {
		return total.Mul(rate).Div(hundred.Add(rate))
	}
	return total.Mul(rate).Div(hundred)
}

// appendWarning records a warning once per calculation.
func appendWarning(warnings []string, w string) []string {
	for _, existing := range warnings {
		if existing == w {
			return warnings
		}
	}
	return append(warnings, w)
}
