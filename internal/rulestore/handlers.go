package rulestore

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/bakehouse/pricing-api/internal/common"
	"github.com/bakehouse/pricing-api/internal/tax"
)

// Handler exposes read-only rule configuration endpoints.
type Handler struct {
	Store *Store
	Cache *Cached
	Log   zerolog.Logger
}

func (h *Handler) source() Source {
	if h.Cache != nil {
		return h.Cache
	}
	return h.Store
}

// Regions handles GET /api/v1/regions.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	src := h.source()
	if src == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rule store not configured", nil)
		return
	}
	regions, err := src.ListRegions(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, regions)
}

// RegionDetail handles GET /api/v1/regions/{id}.
func (h *Handler) RegionDetail(w http.ResponseWriter, r *http.Request) {
	src := h.source()
	if src == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rule store not configured", nil)
		return
	}
	region, err := src.Region(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, region)
}

// PricingRules handles GET /api/v1/pricing-rules with pagination.
func (h *Handler) PricingRules(w http.ResponseWriter, r *http.Request) {
	src := h.source()
	if src == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rule store not configured", nil)
		return
	}
	rules, err := src.PricingRules(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 25)
	start := (page - 1) * perPage
	if start > len(rules) {
		start = len(rules)
	}
	end := start + perPage
	if end > len(rules) {
		end = len(rules)
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       rules[start:end],
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(rules)},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, tax.ErrInvalidRegion) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "tax region not found", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	h.Log.Error().Err(err).Msg("rule store query failed")
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
