package quote

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/bakehouse/pricing-api/internal/common"
	"github.com/bakehouse/pricing-api/internal/discount"
	"github.com/bakehouse/pricing-api/internal/gift"
	"github.com/bakehouse/pricing-api/internal/obs"
	"github.com/bakehouse/pricing-api/internal/pricing"
	"github.com/bakehouse/pricing-api/internal/tax"
)

// Handler wires the quote service to HTTP.
type Handler struct {
	Svc      *Service
	Defaults Config
	// DefaultRegion is used when a request omits regionId.
	DefaultRegion string
	Validate      *validator.Validate
	Log           zerolog.Logger
}

type lineRequest struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name"`
	Category  string          `json:"category" validate:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	Digital   bool            `json:"digital"`
}

type discountRequest struct {
	ID           string          `json:"id"`
	Name         string          `json:"name" validate:"required"`
	Type         string          `json:"type" validate:"required,oneof=percentage fixed"`
	Target       string          `json:"target" validate:"required,oneof=order item"`
	TargetItemID string          `json:"targetItemId" validate:"required_if=Target item,excluded_if=Target order"`
	Value        decimal.Decimal `json:"value"`
	Stackable    bool            `json:"stackable"`
}

type giftRequest struct {
	Name  string          `json:"name" validate:"required"`
	Type  string          `json:"type" validate:"required,oneof=product shipping points service"`
	Value decimal.Decimal `json:"value"`
}

type settingsRequest struct {
	TaxInclusivePricing   *bool `json:"taxInclusivePricing"`
	RoundTaxAmounts       *bool `json:"roundTaxAmounts"`
	TaxExemptionsEnabled  *bool `json:"taxExemptionsEnabled"`
	ReverseChargeEnabled  *bool `json:"reverseChargeEnabled"`
	DigitalServicesTax    *bool `json:"digitalServicesTax"`
	DynamicPricingEnabled *bool `json:"dynamicPricingEnabled"`
	CustomerTierPricing   *bool `json:"customerTierPricing"`
	TimeBasedPricing      *bool `json:"timeBasedPricing"`
	AutoDiscounts         *bool `json:"autoDiscounts"`
	AutoGifts             *bool `json:"autoGifts"`
}

type quoteRequest struct {
	Lines      []lineRequest     `json:"lines" validate:"required,min=1,dive"`
	CustomerID string            `json:"customerId"`
	Tier       string            `json:"tier"`
	RegionID   string            `json:"regionId"`
	OrderTime  *time.Time        `json:"orderTime"`
	Discounts  []discountRequest `json:"discounts" validate:"dive"`
	Gifts      []giftRequest     `json:"gifts" validate:"dive"`
	Settings   *settingsRequest  `json:"settings"`
}

// Create evaluates a cart into a full quote.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid quote request", validationDetails(err))
			return
		}
	}

	if req.RegionID == "" {
		req.RegionID = h.DefaultRegion
	}
	if req.RegionID == "" {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "regionId is required", nil)
		return
	}

	cfg := h.Defaults
	applySettings(&cfg, req.Settings)

	lines := make([]CartLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, CartLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Category:  l.Category,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Digital:   l.Digital,
		})
	}

	manualDiscounts := make([]discount.Discount, 0, len(req.Discounts))
	for _, d := range req.Discounts {
		effect, err := discountEffect(d)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		id := d.ID
		if id == "" {
			id = "manual-" + d.Name
		}
		manualDiscounts = append(manualDiscounts, discount.Discount{
			ID:        id,
			Name:      d.Name,
			Stackable: d.Stackable,
			Effect:    effect,
		})
	}

	manualGifts := make([]gift.Applied, 0, len(req.Gifts))
	for _, g := range req.Gifts {
		manualGifts = append(manualGifts, gift.Applied{
			Name:  g.Name,
			Type:  gift.Type(g.Type),
			Value: g.Value,
		})
	}

	qctx := Context{
		CustomerID: req.CustomerID,
		Tier:       pricing.Tier(req.Tier),
		RegionID:   req.RegionID,
	}
	if req.OrderTime != nil {
		qctx.OrderTime = *req.OrderTime
	}

	start := time.Now()
	q, err := h.Svc.Evaluate(r.Context(), lines, qctx, cfg, manualDiscounts, manualGifts)
	obs.ObserveQuote(quoteResult(err), time.Since(start))
	if err != nil {
		h.writeError(w, err)
		return
	}
	obs.CountTaxWarnings(q.Tax.Warnings)
	common.JSONData(w, http.StatusOK, q)
}

func quoteResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, tax.ErrInvalidRegion):
		return "invalid_region"
	case errors.Is(err, pricing.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tax.ErrInvalidRegion):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_TAX_REGION", "invalid tax region", nil)
	case errors.Is(err, pricing.ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid pricing input", nil)
	default:
		h.Log.Error().Err(err).Msg("quote evaluation failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to compute quote", nil)
	}
}

// discountEffect maps the wire representation onto the closed variant set.
func discountEffect(d discountRequest) (discount.Effect, error) {
	switch {
	case d.Type == "percentage" && d.Target == "order":
		return discount.OrderPercent{Percent: d.Value}, nil
	case d.Type == "fixed" && d.Target == "order":
		return discount.OrderFixed{Amount: d.Value}, nil
	case d.Type == "percentage" && d.Target == "item":
		return discount.ItemPercent{ItemID: d.TargetItemID, Percent: d.Value}, nil
	case d.Type == "fixed" && d.Target == "item":
		return discount.ItemFixed{ItemID: d.TargetItemID, Amount: d.Value}, nil
	default:
		return nil, errors.New("unsupported discount type/target combination")
	}
}

func applySettings(cfg *Config, s *settingsRequest) {
	if s == nil {
		return
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&cfg.Tax.InclusivePricing, s.TaxInclusivePricing)
	setBool(&cfg.Tax.RoundAmounts, s.RoundTaxAmounts)
	setBool(&cfg.Tax.ExemptionsEnabled, s.TaxExemptionsEnabled)
	setBool(&cfg.Tax.ReverseChargeEnabled, s.ReverseChargeEnabled)
	setBool(&cfg.Tax.DigitalServicesTax, s.DigitalServicesTax)
	setBool(&cfg.Pricing.Enabled, s.DynamicPricingEnabled)
	setBool(&cfg.Pricing.Tier.Enabled, s.CustomerTierPricing)
	setBool(&cfg.Pricing.Time.Enabled, s.TimeBasedPricing)
	setBool(&cfg.AutoDiscounts, s.AutoDiscounts)
	setBool(&cfg.AutoGifts, s.AutoGifts)
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, map[string]string{
			"field": fe.Namespace(),
			"rule":  fe.Tag(),
		})
	}
	return details
}
