// Package rulestore loads pricing, tax, discount and gift configuration
// from Postgres, with an optional Redis read-through cache in front.
package rulestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bakehouse/pricing-api/internal/common"
	"github.com/bakehouse/pricing-api/internal/discount"
	"github.com/bakehouse/pricing-api/internal/gift"
	"github.com/bakehouse/pricing-api/internal/pricing"
	"github.com/bakehouse/pricing-api/internal/tax"
)

// parseNumeric converts a numeric column cast to text into a decimal.
// Corrupt values surface as an AppError so handlers report them uniformly.
func parseNumeric(column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		appErr := common.NewAppError("RULE_CONFIG", fmt.Sprintf("corrupt numeric value in %s", column), 0, err)
		return decimal.Decimal{}, appErr.WithDetails(map[string]string{"column": column})
	}
	return d, nil
}

// Store reads rule configuration from Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore constructs a Postgres-backed store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

const regionColumns = `id, name, default_rate::text, reduced_rates,
	       reverse_charge_threshold::text, digital_services_rate::text, currency`

// scanRegion assembles one tax_regions row. The scan argument is either
// pgx.Row.Scan or pgx.Rows.Scan.
func scanRegion(scan func(dest ...any) error) (tax.Region, error) {
	var (
		region      tax.Region
		defaultRate string
		reducedJSON []byte
		threshold   string
		digitalRate string
	)
	err := scan(&region.ID, &region.Name, &defaultRate, &reducedJSON, &threshold, &digitalRate, &region.Currency)
	if err != nil {
		return tax.Region{}, err
	}
	if region.DefaultRate, err = parseNumeric("default_rate", defaultRate); err != nil {
		return tax.Region{}, err
	}
	if region.ReverseChargeThreshold, err = parseNumeric("reverse_charge_threshold", threshold); err != nil {
		return tax.Region{}, err
	}
	if region.DigitalServicesRate, err = parseNumeric("digital_services_rate", digitalRate); err != nil {
		return tax.Region{}, err
	}
	if len(reducedJSON) > 0 {
		if err := json.Unmarshal(reducedJSON, &region.ReducedRates); err != nil {
			return tax.Region{}, fmt.Errorf("parse reduced rates: %w", err)
		}
	}
	return region, nil
}

// Region loads one tax region. A missing region maps to tax.ErrInvalidRegion.
func (s *Store) Region(ctx context.Context, id string) (tax.Region, error) {
	if s == nil || s.Pool == nil {
		return tax.Region{}, errors.New("rulestore not configured")
	}
	row := s.Pool.QueryRow(ctx, `SELECT `+regionColumns+` FROM tax_regions WHERE id = $1`, id)
	region, err := scanRegion(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tax.Region{}, tax.ErrInvalidRegion
		}
		return tax.Region{}, fmt.Errorf("load region %s: %w", id, err)
	}
	return region, nil
}

// ListRegions returns every configured tax region in one query.
func (s *Store) ListRegions(ctx context.Context) ([]tax.Region, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("rulestore not configured")
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+regionColumns+` FROM tax_regions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	regions := []tax.Region{}
	for rows.Next() {
		region, err := scanRegion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regions = append(regions, region)
	}
	return regions, rows.Err()
}

// PricingRules returns all configured pricing rules ordered by priority.
func (s *Store) PricingRules(ctx context.Context) ([]pricing.Rule, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("rulestore not configured")
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, rule_type, condition_field, condition_op, condition_value::text,
		       action_type, action_value::text, priority, active, valid_from, valid_to
		FROM pricing_rules ORDER BY priority DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list pricing rules: %w", err)
	}
	defer rows.Close()

	var out []pricing.Rule
	for rows.Next() {
		var (
			r                  pricing.Rule
			conditionVal       string
			actionVal          string
			validFrom, validTo *time.Time
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.Condition.Field, &r.Condition.Op, &conditionVal,
			&r.Action.Type, &actionVal, &r.Priority, &r.Active, &validFrom, &validTo); err != nil {
			return nil, fmt.Errorf("scan pricing rule: %w", err)
		}
		if r.Condition.Value, err = parseNumeric("condition_value", conditionVal); err != nil {
			return nil, err
		}
		if r.Action.Value, err = parseNumeric("action_value", actionVal); err != nil {
			return nil, err
		}
		r.ValidFrom = validFrom
		r.ValidTo = validTo
		out = append(out, r)
	}
	return out, rows.Err()
}

// QuantityBreaks returns the configured quantity discount tiers.
func (s *Store) QuantityBreaks(ctx context.Context) ([]pricing.QuantityBreak, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("rulestore not configured")
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT min_qty, max_qty, discount_percent::text
		FROM quantity_breaks ORDER BY min_qty`)
	if err != nil {
		return nil, fmt.Errorf("list quantity breaks: %w", err)
	}
	defer rows.Close()

	var out []pricing.QuantityBreak
	for rows.Next() {
		var (
			b   pricing.QuantityBreak
			pct string
		)
		if err := rows.Scan(&b.Min, &b.Max, &pct); err != nil {
			return nil, fmt.Errorf("scan quantity break: %w", err)
		}
		if b.DiscountPercent, err = parseNumeric("discount_percent", pct); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ExemptionsByCustomer returns every exemption recorded for the customer.
// Expiry is not filtered here; the tax engine evaluates it at compute time.
func (s *Store) ExemptionsByCustomer(ctx context.Context, customerID string) ([]tax.Exemption, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("rulestore not configured")
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, customer_id, exemption_type, exemption_value, valid_until, regions, active
		FROM customer_exemptions WHERE customer_id = $1`, customerID)
	if err != nil {
		return nil, fmt.Errorf("list exemptions: %w", err)
	}
	defer rows.Close()

	var out []tax.Exemption
	for rows.Next() {
		var e tax.Exemption
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.Type, &e.Value, &e.ValidUntil, &e.Regions, &e.Active); err != nil {
			return nil, fmt.Errorf("scan exemption: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GiftRules returns every configured gift rule, active or not.
func (s *Store) GiftRules(ctx context.Context) ([]gift.Rule, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("rulestore not configured")
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, condition_field, condition_op, threshold::text, gift_type, value::text, active
		FROM gift_rules ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list gift rules: %w", err)
	}
	defer rows.Close()

	var out []gift.Rule
	for rows.Next() {
		var (
			id, name, field, op        string
			threshold, giftType, value string
			active                     bool
		)
		if err := rows.Scan(&id, &name, &field, &op, &threshold, &giftType, &value, &active); err != nil {
			return nil, fmt.Errorf("scan gift rule: %w", err)
		}
		r, err := giftRuleFromRow(id, name, field, op, threshold, giftType, value, active)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// giftRuleFromRow assembles a gift_rules row into the engine type. The
// stored condition field is canonicalised so legacy snake_case rows keep
// evaluating.
func giftRuleFromRow(id, name, field, op, threshold, giftType, value string, active bool) (gift.Rule, error) {
	r := gift.Rule{
		ID:     id,
		Name:   name,
		Type:   gift.Type(giftType),
		Active: active,
	}
	r.Predicate.Field = gift.ParseField(field)
	r.Predicate.Op = gift.Op(op)
	var err error
	if r.Predicate.Threshold, err = parseNumeric("threshold", threshold); err != nil {
		return gift.Rule{}, err
	}
	if r.Value, err = parseNumeric("value", value); err != nil {
		return gift.Rule{}, err
	}
	return r, nil
}

// AutoDiscountRules returns the volume discount configuration.
func (s *Store) AutoDiscountRules(ctx context.Context) ([]discount.AutoRule, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("rulestore not configured")
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, min_total::text, percent::text
		FROM auto_discounts ORDER BY min_total`)
	if err != nil {
		return nil, fmt.Errorf("list auto discounts: %w", err)
	}
	defer rows.Close()

	var out []discount.AutoRule
	for rows.Next() {
		var (
			r        discount.AutoRule
			minTotal string
			percent  string
		)
		if err := rows.Scan(&r.ID, &r.Name, &minTotal, &percent); err != nil {
			return nil, fmt.Errorf("scan auto discount: %w", err)
		}
		if r.MinTotal, err = parseNumeric("min_total", minTotal); err != nil {
			return nil, err
		}
		if r.Percent, err = parseNumeric("percent", percent); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
