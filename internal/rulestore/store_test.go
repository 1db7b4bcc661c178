package rulestore

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/bakehouse/pricing-api/internal/common"
	"github.com/bakehouse/pricing-api/internal/gift"
)

func TestGiftRuleRowAppliesAtThreshold(t *testing.T) {
	// Column values exactly as the seeder writes them.
	r, err := giftRuleFromRow("free-delivery", "Free delivery over 50", "orderTotal", ">=", "50", "shipping", "4.90", true)
	require.NoError(t, err)

	applicable := gift.Applicable(decimal.RequireFromString("50"), []gift.Rule{r})
	require.Len(t, applicable, 1, "stored gift rule at its own threshold must be applicable")
	require.Equal(t, "free-delivery", applicable[0].ID)
	require.Empty(t, gift.Applicable(decimal.RequireFromString("49.99"), []gift.Rule{r}))
}

func TestGiftRuleRowLegacyFieldSpelling(t *testing.T) {
	// Rows written before the field rename stored snake_case.
	r, err := giftRuleFromRow("free-delivery", "Free delivery over 50", "order_total", ">=", "50", "shipping", "4.90", true)
	require.NoError(t, err)
	require.Equal(t, gift.FieldOrderTotal, r.Predicate.Field)
	require.Len(t, gift.Applicable(decimal.RequireFromString("60"), []gift.Rule{r}), 1)
}

func TestGiftRuleRowCorruptThreshold(t *testing.T) {
	_, err := giftRuleFromRow("g1", "bad", "orderTotal", ">=", "fifty", "shipping", "0", true)
	require.Error(t, err)
	require.True(t, common.IsAppError(err))
}

func TestParseNumericCorruptValue(t *testing.T) {
	_, err := parseNumeric("default_rate", "not-a-number")
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "RULE_CONFIG", appErr.Code)
}
