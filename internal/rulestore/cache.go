package rulestore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bakehouse/pricing-api/internal/discount"
	"github.com/bakehouse/pricing-api/internal/gift"
	"github.com/bakehouse/pricing-api/internal/obs"
	"github.com/bakehouse/pricing-api/internal/pricing"
	"github.com/bakehouse/pricing-api/internal/tax"
)

// Cached is a read-through Redis cache in front of another store. Rule
// configuration changes rarely, so short TTLs keep quote latency flat
// without a manual invalidation protocol.
type Cached struct {
	Next   Source
	client *redis.Client
	ttl    time.Duration
}

// Source is the store interface Cached decorates.
type Source interface {
	Region(ctx context.Context, id string) (tax.Region, error)
	ListRegions(ctx context.Context) ([]tax.Region, error)
	PricingRules(ctx context.Context) ([]pricing.Rule, error)
	QuantityBreaks(ctx context.Context) ([]pricing.QuantityBreak, error)
	ExemptionsByCustomer(ctx context.Context, customerID string) ([]tax.Exemption, error)
	GiftRules(ctx context.Context) ([]gift.Rule, error)
	AutoDiscountRules(ctx context.Context) ([]discount.AutoRule, error)
}

// NewCached wraps next with a Redis cache. A nil client disables caching.
func NewCached(next Source, client *redis.Client, ttl time.Duration) *Cached {
	return &Cached{Next: next, client: client, ttl: ttl}
}

func (c *Cached) getJSON(ctx context.Context, key string, dst any) bool {
	if c == nil || c.client == nil || key == "" {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		obs.CountRuleCacheMiss()
		return false
	}
	if json.Unmarshal(data, dst) != nil {
		obs.CountRuleCacheMiss()
		return false
	}
	return true
}

func (c *Cached) setJSON(ctx context.Context, key string, v any) {
	if c == nil || c.client == nil || key == "" {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, c.ttl)
}

// Region loads a tax region, caching hits. Unknown regions are not cached
// so a freshly configured region becomes visible immediately.
func (c *Cached) Region(ctx context.Context, id string) (tax.Region, error) {
	key := "rules:region:" + id
	var region tax.Region
	if c.getJSON(ctx, key, &region) {
		return region, nil
	}
	region, err := c.Next.Region(ctx, id)
	if err != nil {
		return tax.Region{}, err
	}
	c.setJSON(ctx, key, region)
	return region, nil
}

func (c *Cached) ListRegions(ctx context.Context) ([]tax.Region, error) {
	const key = "rules:regions"
	var regions []tax.Region
	if c.getJSON(ctx, key, &regions) {
		return regions, nil
	}
	regions, err := c.Next.ListRegions(ctx)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, regions)
	return regions, nil
}

func (c *Cached) PricingRules(ctx context.Context) ([]pricing.Rule, error) {
	const key = "rules:pricing"
	var rules []pricing.Rule
	if c.getJSON(ctx, key, &rules) {
		return rules, nil
	}
	rules, err := c.Next.PricingRules(ctx)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, rules)
	return rules, nil
}

func (c *Cached) QuantityBreaks(ctx context.Context) ([]pricing.QuantityBreak, error) {
	const key = "rules:breaks"
	var breaks []pricing.QuantityBreak
	if c.getJSON(ctx, key, &breaks) {
		return breaks, nil
	}
	breaks, err := c.Next.QuantityBreaks(ctx)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, breaks)
	return breaks, nil
}

func (c *Cached) ExemptionsByCustomer(ctx context.Context, customerID string) ([]tax.Exemption, error) {
	key := "rules:exemptions:" + customerID
	var exemptions []tax.Exemption
	if c.getJSON(ctx, key, &exemptions) {
		return exemptions, nil
	}
	exemptions, err := c.Next.ExemptionsByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, exemptions)
	return exemptions, nil
}

func (c *Cached) GiftRules(ctx context.Context) ([]gift.Rule, error) {
	const key = "rules:gifts"
	var rules []gift.Rule
	if c.getJSON(ctx, key, &rules) {
		return rules, nil
	}
	rules, err := c.Next.GiftRules(ctx)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, rules)
	return rules, nil
}

func (c *Cached) AutoDiscountRules(ctx context.Context) ([]discount.AutoRule, error) {
	const key = "rules:autodiscounts"
	var rules []discount.AutoRule
	if c.getJSON(ctx, key, &rules) {
		return rules, nil
	}
	rules, err := c.Next.AutoDiscountRules(ctx)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, rules)
	return rules, nil
}
