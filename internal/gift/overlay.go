// Package gift evaluates threshold-based gift rules against an order
// total. Gift value is informational; it never reduces the payable amount.
package gift

import (
	"github.com/shopspring/decimal"
)

// Field names a quantity a predicate can observe. Only the order total is
// supported today.
type Field string

// FieldOrderTotal is the running order total before tax.
const FieldOrderTotal Field = "orderTotal"

// ParseField canonicalises a stored field name. Rule rows written by
// earlier revisions used snake_case; both spellings map to the same field.
// Unknown names pass through unchanged and evaluate to false.
func ParseField(s string) Field {
	switch s {
	case string(FieldOrderTotal), "order_total":
		return FieldOrderTotal
	default:
		return Field(s)
	}
}

// Op is a predicate comparison operator.
type Op string

const (
	OpGTE Op = ">="
	OpGT  Op = ">"
	OpEQ  Op = "="
	OpLT  Op = "<"
	OpLTE Op = "<="
)

// Predicate is the closed condition type attached to a gift rule. It
// replaces the free-form condition strings of earlier revisions; any
// field or operator outside the closed set evaluates to false.
type Predicate struct {
	Field     Field           `json:"field"`
	Op        Op              `json:"op"`
	Threshold decimal.Decimal `json:"threshold"`
}

// Eval applies the predicate to the order total.
func (p Predicate) Eval(orderTotal decimal.Decimal) bool {
	if p.Field != FieldOrderTotal {
		return false
	}
	switch p.Op {
	case OpGTE:
		return orderTotal.GreaterThanOrEqual(p.Threshold)
	case OpGT:
		return orderTotal.GreaterThan(p.Threshold)
	case OpEQ:
		return orderTotal.Equal(p.Threshold)
	case OpLT:
		return orderTotal.LessThan(p.Threshold)
	case OpLTE:
		return orderTotal.LessThanOrEqual(p.Threshold)
	default:
		return false
	}
}

// Type classifies what a gift grants.
type Type string

const (
	TypeProduct  Type = "product"
	TypeShipping Type = "shipping"
	TypePoints   Type = "points"
	TypeService  Type = "service"
)

// Rule is a configured gift rule.
type Rule struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Predicate Predicate       `json:"predicate"`
	Type      Type            `json:"type"`
	Value     decimal.Decimal `json:"value"`
	Active    bool            `json:"active"`
}

// Applied is a gift attached to an order. Auto gifts are replaced on every
// recompute; manual gifts persist until explicitly removed.
type Applied struct {
	RuleID string          `json:"ruleId"`
	Name   string          `json:"name"`
	Type   Type            `json:"type"`
	Value  decimal.Decimal `json:"value"`
	Auto   bool            `json:"auto"`
}

// Applicable returns the active rules whose predicate holds for the order
// total. Threshold comparisons are boundary-inclusive for >=.
func Applicable(orderTotal decimal.Decimal, rules []Rule) []Rule {
	out := []Rule{}
	for _, r := range rules {
		if !r.Active {
			continue
		}
		if r.Predicate.Eval(orderTotal) {
			out = append(out, r)
		}
	}
	return out
}

// Recompute rebuilds the applied-gift set for a new order total. When auto
// mode is on, every applicable rule materialises as an auto-tagged gift;
// previously applied auto gifts are replaced, manual ones kept.
func Recompute(orderTotal decimal.Decimal, rules []Rule, current []Applied, autoEnabled bool) []Applied {
	out := make([]Applied, 0, len(current))
	for _, g := range current {
		if !g.Auto {
			out = append(out, g)
		}
	}
	if !autoEnabled {
		return out
	}
	for _, r := range Applicable(orderTotal, rules) {
		out = append(out, Applied{
			RuleID: r.ID,
			Name:   r.Name,
			Type:   r.Type,
			Value:  r.Value,
			Auto:   true,
		})
	}
	return out
}

// TotalValue sums the monetary value of the applied gifts. The sum is
// reported alongside the order totals, never subtracted from them.
func TotalValue(applied []Applied) decimal.Decimal {
	var total decimal.Decimal
	for _, g := range applied {
		total = total.Add(g.Value)
	}
	return total
}
