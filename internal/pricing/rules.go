package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tier identifies a customer loyalty tier.
type Tier string

// Known customer tiers in ascending order of benefit.
const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

// TierDiscountPercent returns the discount percentage granted to a tier.
// Unknown tiers receive no discount.
func TierDiscountPercent(t Tier) decimal.Decimal {
	switch t {
	case TierSilver:
		return decimal.NewFromInt(5)
	case TierGold:
		return decimal.NewFromInt(10)
	case TierPlatinum:
		return decimal.NewFromInt(15)
	case TierDiamond:
		return decimal.NewFromInt(20)
	default:
		return decimal.Zero
	}
}

// RuleType classifies a configured pricing rule.
type RuleType string

const (
	RuleQuantityDiscount RuleType = "quantity_discount"
	RuleTimeBased        RuleType = "time_based"
	RuleCustomerTier     RuleType = "customer_tier"
	RuleSeasonal         RuleType = "seasonal"
)

// ConditionOp is a comparison operator used by rule conditions.
type ConditionOp string

const (
	OpGTE ConditionOp = ">="
	OpGT  ConditionOp = ">"
	OpEQ  ConditionOp = "="
	OpLT  ConditionOp = "<"
	OpLTE ConditionOp = "<="
)

// ActionType describes how a rule adjusts a price.
type ActionType string

const (
	ActionPercentage ActionType = "percentage"
	ActionFixed      ActionType = "fixed"
	ActionMultiplier ActionType = "multiplier"
)

// Condition is the single predicate attached to a rule.
type Condition struct {
	Field string          `json:"field"`
	Op    ConditionOp     `json:"op"`
	Value decimal.Decimal `json:"value"`
}

// Action is the single adjustment attached to a rule.
type Action struct {
	Type  ActionType      `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// Rule is a configured pricing rule. The engine applies its fixed
// quantity-break, tier and time-window sequence regardless of rule
// priority; Priority is advisory ordering for display.
type Rule struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Type      RuleType   `json:"type"`
	Condition Condition  `json:"condition"`
	Action    Action     `json:"action"`
	Priority  int        `json:"priority"`
	Active    bool       `json:"active"`
	ValidFrom *time.Time `json:"validFrom,omitempty"`
	ValidTo   *time.Time `json:"validTo,omitempty"`
}

// ActiveAt reports whether the rule is enabled and inside its validity window.
func (r Rule) ActiveAt(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return false
	}
	return true
}

// ActiveRules filters rules down to those applicable at the given instant.
func ActiveRules(rules []Rule, now time.Time) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.ActiveAt(now) {
			out = append(out, r)
		}
	}
	return out
}

// QuantityBreak grants a percentage discount for a quantity range.
// A nil Max leaves the range open-ended.
type QuantityBreak struct {
	Min             int             `json:"min"`
	Max             *int            `json:"max,omitempty"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

// matches reports whether the break covers the purchased quantity.
func (b QuantityBreak) matches(qty int) bool {
	if qty < b.Min {
		return false
	}
	return b.Max == nil || qty <= *b.Max
}

// SelectBreak picks the applicable quantity break: the matching entry
// with the highest minimum threshold. Returns false when none matches.
func SelectBreak(breaks []QuantityBreak, qty int) (QuantityBreak, bool) {
	var (
		best  QuantityBreak
		found bool
	)
	for _, b := range breaks {
		if !b.matches(qty) {
			continue
		}
		if !found || b.Min > best.Min {
			best = b
			found = true
		}
	}
	return best, found
}

// Window is a daily time window expressed as HH:MM bounds. Comparison is
// lexicographic on the clock string, matching the stored representation.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether the HH:MM clock value falls inside the window.
func (w Window) Contains(clock string) bool {
	if w.Start == "" || w.End == "" {
		return false
	}
	return clock >= w.Start && clock <= w.End
}

// TimeSettings configures peak and off-peak adjustments. The two windows
// are checked independently; overlapping configuration compounds both
// adjustments.
type TimeSettings struct {
	Enabled            bool            `json:"enabled"`
	Peak               Window          `json:"peak"`
	PeakSurchargePct   decimal.Decimal `json:"peakSurchargePct"`
	OffPeak            Window          `json:"offPeak"`
	OffPeakDiscountPct decimal.Decimal `json:"offPeakDiscountPct"`
}

// TierSettings toggles customer tier pricing.
type TierSettings struct {
	Enabled bool `json:"enabled"`
}
