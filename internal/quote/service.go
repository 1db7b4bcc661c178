package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/bakehouse/pricing-api/internal/discount"
	"github.com/bakehouse/pricing-api/internal/events"
	"github.com/bakehouse/pricing-api/internal/gift"
	"github.com/bakehouse/pricing-api/internal/money"
	"github.com/bakehouse/pricing-api/internal/pricing"
	"github.com/bakehouse/pricing-api/internal/tax"
)

// Store loads the rule configuration a quote computation depends on.
type Store interface {
	Region(ctx context.Context, id string) (tax.Region, error)
	PricingRules(ctx context.Context) ([]pricing.Rule, error)
	QuantityBreaks(ctx context.Context) ([]pricing.QuantityBreak, error)
	ExemptionsByCustomer(ctx context.Context, customerID string) ([]tax.Exemption, error)
	GiftRules(ctx context.Context) ([]gift.Rule, error)
	AutoDiscountRules(ctx context.Context) ([]discount.AutoRule, error)
}

// Config bundles every engine toggle. It is passed by value into each
// computation; there is no shared mutable settings object.
type Config struct {
	Pricing       pricing.Config
	Tax           tax.Settings
	AutoDiscounts bool
	AutoGifts     bool
}

// CartLine is one cart entry as submitted by the caller.
type CartLine struct {
	ProductID string
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Quantity  int
	Digital   bool
}

// Context carries the customer and timing data for one evaluation.
type Context struct {
	CustomerID string
	Tier       pricing.Tier
	RegionID   string
	OrderTime  time.Time
}

// Input is the fully-resolved input of a pure quote computation.
type Input struct {
	Lines             []CartLine
	Ctx               Context
	Rules             []pricing.Rule
	Breaks            []pricing.QuantityBreak
	Region            tax.Region
	Exemptions        []tax.Exemption
	AutoDiscountRules []discount.AutoRule
	ManualDiscounts   []discount.Discount
	GiftRules         []gift.Rule
	ManualGifts       []gift.Applied
}

// PricedLine pairs a cart line with its dynamic price calculation.
type PricedLine struct {
	ProductID string              `json:"productId"`
	Name      string              `json:"name"`
	Quantity  int                 `json:"quantity"`
	Unit      pricing.Calculation `json:"unit"`
	LineTotal decimal.Decimal     `json:"lineTotal"`
}

// Totals merges the engine outputs into the payable amounts.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal"`
	TaxTotal      decimal.Decimal `json:"taxTotal"`
	GiftValue     decimal.Decimal `json:"giftValue"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	GrandTotalSYP decimal.Decimal `json:"grandTotalSyp"`
	FormattedEUR  string          `json:"formattedEur"`
	FormattedSYP  string          `json:"formattedSyp"`
}

// Quote is the full recomputation result. It is rebuilt from scratch on
// every call; partial updates are never produced.
type Quote struct {
	Lines     []PricedLine    `json:"lines"`
	Tax       tax.Calculation `json:"tax"`
	Discounts discount.Result `json:"discounts"`
	Gifts     []gift.Applied  `json:"gifts"`
	Totals    Totals          `json:"totals"`
	Currency  string          `json:"currency"`
}

// Compute runs the full pipeline: per-line dynamic pricing, discount
// overlay, tax, gift overlay, then total aggregation. Gift value is
// reported but never subtracted from the payable total.
func Compute(in Input, cfg Config) (Quote, error) {
	q := Quote{Currency: "EUR"}

	var subtotal decimal.Decimal
	discountLines := make([]discount.Line, 0, len(in.Lines))
	taxLines := make([]tax.Line, 0, len(in.Lines))
	for _, l := range in.Lines {
		calc, err := pricing.Compute(pricing.Input{
			BasePrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Tier:      in.Ctx.Tier,
			OrderTime: in.Ctx.OrderTime,
			Rules:     in.Rules,
			Breaks:    in.Breaks,
		}, cfg.Pricing)
		if err != nil {
			return Quote{}, fmt.Errorf("price line %s: %w", l.ProductID, err)
		}
		lineTotal := calc.FinalPriceEUR.Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		q.Lines = append(q.Lines, PricedLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Unit:      calc,
			LineTotal: lineTotal,
		})
		discountLines = append(discountLines, discount.Line{
			ItemID:    l.ProductID,
			UnitPrice: calc.FinalPriceEUR,
			Quantity:  l.Quantity,
		})
		taxLines = append(taxLines, tax.Line{
			ProductID: l.ProductID,
			Name:      l.Name,
			Category:  l.Category,
			UnitPrice: calc.FinalPriceEUR,
			Quantity:  l.Quantity,
			Digital:   l.Digital,
		})
	}

	active := in.ManualDiscounts
	if cfg.AutoDiscounts {
		active = discount.ReplaceAuto(active, discount.Regenerate(subtotal, in.AutoDiscountRules))
	}
	q.Discounts = discount.Apply(subtotal, discountLines, active)

	taxCalc, err := tax.Compute(tax.Input{
		Lines:      taxLines,
		Region:     in.Region,
		Exemptions: in.Exemptions,
		CustomerID: in.Ctx.CustomerID,
		Now:        in.Ctx.OrderTime,
	}, cfg.Tax)
	if err != nil {
		return Quote{}, err
	}
	q.Tax = taxCalc
	if taxCalc.Currency != "" {
		q.Currency = taxCalc.Currency
	}

	q.Gifts = gift.Recompute(subtotal, in.GiftRules, in.ManualGifts, cfg.AutoGifts)

	grand := taxCalc.TotalAmount.Sub(q.Discounts.TotalDiscount)
	if grand.IsNegative() {
		grand = decimal.Zero
	}
	rate := cfg.Pricing.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	q.Totals = Totals{
		Subtotal:      subtotal,
		DiscountTotal: q.Discounts.TotalDiscount,
		TaxTotal:      taxCalc.TotalTax,
		GiftValue:     gift.TotalValue(q.Gifts),
		GrandTotal:    grand,
		GrandTotalSYP: grand.Mul(rate),
		FormattedEUR:  money.FormatEUR(grand),
		FormattedSYP:  money.FormatSYP(grand.Mul(rate)),
	}
	return q, nil
}

// Service loads rule configuration, runs the pure computation, and emits
// lifecycle events. All computation is synchronous; a newer request simply
// supersedes the previous result.
type Service struct {
	Store Store
	Bus   *events.Bus
	Log   zerolog.Logger
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Evaluate resolves store-backed configuration for the request context and
// computes a quote.
func (s *Service) Evaluate(ctx context.Context, lines []CartLine, qctx Context, cfg Config, manualDiscounts []discount.Discount, manualGifts []gift.Applied) (Quote, error) {
	if s == nil || s.Store == nil {
		return Quote{}, errors.New("quote service not configured")
	}
	if qctx.OrderTime.IsZero() {
		qctx.OrderTime = s.now()
	}

	region, err := s.Store.Region(ctx, qctx.RegionID)
	if err != nil {
		return Quote{}, err
	}
	rules, err := s.Store.PricingRules(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("load pricing rules: %w", err)
	}
	breaks, err := s.Store.QuantityBreaks(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("load quantity breaks: %w", err)
	}
	var exemptions []tax.Exemption
	if cfg.Tax.ExemptionsEnabled && qctx.CustomerID != "" {
		exemptions, err = s.Store.ExemptionsByCustomer(ctx, qctx.CustomerID)
		if err != nil {
			return Quote{}, fmt.Errorf("load exemptions: %w", err)
		}
	}
	giftRules, err := s.Store.GiftRules(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("load gift rules: %w", err)
	}
	autoRules, err := s.Store.AutoDiscountRules(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("load auto discounts: %w", err)
	}

	q, err := Compute(Input{
		Lines:             lines,
		Ctx:               qctx,
		Rules:             rules,
		Breaks:            breaks,
		Region:            region,
		Exemptions:        exemptions,
		AutoDiscountRules: autoRules,
		ManualDiscounts:   manualDiscounts,
		GiftRules:         giftRules,
		ManualGifts:       manualGifts,
	}, cfg)
	if err != nil {
		return Quote{}, err
	}

	s.emit(ctx, events.TopicPriceUpdated, map[string]any{
		"subtotal": q.Totals.Subtotal,
		"syp":      q.Totals.GrandTotalSYP,
	})
	s.emit(ctx, events.TopicTaxUpdated, map[string]any{
		"region":    q.Tax.Region,
		"taxAmount": q.Tax.TotalTax,
	})
	s.emit(ctx, events.TopicQuoteComputed, map[string]any{
		"region": q.Tax.Region,
		"total":  q.Totals.GrandTotal,
	})
	return q, nil
}

func (s *Service) emit(ctx context.Context, topic string, payload any) {
	if s.Bus == nil {
		return
	}
	if _, err := s.Bus.Emit(ctx, topic, payload); err != nil {
		s.Log.Error().Err(err).Str("topic", topic).Msg("emit quote event")
	}
}
