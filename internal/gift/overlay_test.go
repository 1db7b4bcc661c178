package gift

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func thresholdRule(id string, threshold string) Rule {
	return Rule{
		ID:        id,
		Name:      "gift " + id,
		Predicate: Predicate{Field: FieldOrderTotal, Op: OpGTE, Threshold: dec(threshold)},
		Type:      TypeShipping,
		Value:     dec("4.90"),
		Active:    true,
	}
}

func TestApplicableBoundaryInclusive(t *testing.T) {
	rules := []Rule{thresholdRule("g1", "50")}

	require.Len(t, Applicable(dec("50"), rules), 1, "orderTotal == threshold must qualify")
	require.Empty(t, Applicable(dec("49.99"), rules))
}

func TestApplicableSkipsInactive(t *testing.T) {
	r := thresholdRule("g1", "10")
	r.Active = false
	require.Empty(t, Applicable(dec("100"), []Rule{r}))
}

func TestPredicateUnsupportedShapesAreFalse(t *testing.T) {
	require.False(t, Predicate{Field: "itemCount", Op: OpGTE, Threshold: dec("1")}.Eval(dec("10")))
	require.False(t, Predicate{Field: FieldOrderTotal, Op: "~", Threshold: dec("1")}.Eval(dec("10")))
}

func TestParseFieldCanonicalisesSpellings(t *testing.T) {
	require.Equal(t, FieldOrderTotal, ParseField("orderTotal"))
	require.Equal(t, FieldOrderTotal, ParseField("order_total"))
	require.Equal(t, Field("itemCount"), ParseField("itemCount"))
	require.True(t, Predicate{Field: ParseField("order_total"), Op: OpGTE, Threshold: dec("50")}.Eval(dec("50")))
}

func TestRecomputeReplacesAutoKeepsManual(t *testing.T) {
	rules := []Rule{thresholdRule("g1", "50")}
	current := []Applied{
		{RuleID: "manual", Name: "birthday croissant", Type: TypeProduct, Value: dec("2.50"), Auto: false},
		{RuleID: "stale", Name: "old auto gift", Type: TypePoints, Value: dec("1"), Auto: true},
	}

	next := Recompute(dec("60"), rules, current, true)
	require.Len(t, next, 2)
	require.Equal(t, "manual", next[0].RuleID)
	require.Equal(t, "g1", next[1].RuleID)
	require.True(t, next[1].Auto)
}

func TestRecomputeAutoDisabledDropsAutoOnly(t *testing.T) {
	rules := []Rule{thresholdRule("g1", "10")}
	current := []Applied{
		{RuleID: "manual", Auto: false},
		{RuleID: "auto", Auto: true},
	}
	next := Recompute(dec("100"), rules, current, false)
	require.Len(t, next, 1)
	require.Equal(t, "manual", next[0].RuleID)
}

func TestTotalValue(t *testing.T) {
	applied := []Applied{
		{Value: dec("4.90")},
		{Value: dec("2.50")},
	}
	require.True(t, TotalValue(applied).Equal(dec("7.40")))
}
