package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReducedRate maps a set of product categories to a lower tax rate.
type ReducedRate struct {
	Name       string          `json:"name"`
	Rate       decimal.Decimal `json:"rate"`
	Categories []string        `json:"categories"`
}

// Region holds the tax configuration for one jurisdiction.
type Region struct {
	ID                     string          `json:"id"`
	Name                   string          `json:"name"`
	DefaultRate            decimal.Decimal `json:"defaultRate"`
	ReducedRates           []ReducedRate   `json:"reducedRates"`
	ReverseChargeThreshold decimal.Decimal `json:"reverseChargeThreshold"`
	DigitalServicesRate    decimal.Decimal `json:"digitalServicesRate"`
	Currency               string          `json:"currency"`
}

// RateFor resolves the tax rate for a product category. The first reduced
// rate whose category list contains the category wins, in declaration
// order; otherwise the region default applies.
func (r Region) RateFor(category string) decimal.Decimal {
	for _, reduced := range r.ReducedRates {
		for _, c := range reduced.Categories {
			if c == category {
				return reduced.Rate
			}
		}
	}
	return r.DefaultRate
}

// ExemptionType classifies a customer tax exemption.
type ExemptionType string

const (
	ExemptVATNumber  ExemptionType = "vat_number"
	ExemptCharity    ExemptionType = "charity"
	ExemptGovernment ExemptionType = "government"
	ExemptExport     ExemptionType = "export"
	ExemptDiplomatic ExemptionType = "diplomatic"
)

// Exemption records a customer's tax exemption. Expiry is evaluated at
// calculation time; records are never physically deleted.
type Exemption struct {
	ID         string        `json:"id"`
	CustomerID string        `json:"customerId"`
	Type       ExemptionType `json:"type"`
	Value      string        `json:"value"`
	ValidUntil *time.Time    `json:"validUntil,omitempty"`
	Regions    []string      `json:"regions"`
	Active     bool          `json:"active"`
}

// AppliesTo reports whether the exemption is usable for the region at the
// given instant. A nil ValidUntil never expires.
func (e Exemption) AppliesTo(regionID string, now time.Time) bool {
	if !e.Active {
		return false
	}
	if e.ValidUntil != nil && e.ValidUntil.Before(now) {
		return false
	}
	for _, r := range e.Regions {
		if r == regionID {
			return true
		}
	}
	return false
}

// ResolveExemption picks the first exemption applicable to the customer
// and region. At most one exemption is considered per calculation.
func ResolveExemption(exemptions []Exemption, customerID, regionID string, now time.Time) *Exemption {
	for i := range exemptions {
		e := exemptions[i]
		if e.CustomerID != customerID {
			continue
		}
		if e.AppliesTo(regionID, now) {
			return &e
		}
	}
	return nil
}
