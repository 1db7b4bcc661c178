package quote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, store Store) *Handler {
	t.Helper()
	return &Handler{
		Svc:      &Service{Store: store},
		Defaults: defaultConfig(),
		Validate: validator.New(),
	}
}

func postQuote(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	return rec
}

func TestCreateQuoteHappyPath(t *testing.T) {
	h := newHandler(t, euStore())
	rec := postQuote(t, h, `{
		"regionId": "eu",
		"lines": [{"productId": "p1", "category": "bread", "unitPrice": 5, "quantity": 4}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data struct {
			Totals struct {
				Subtotal   string `json:"subtotal"`
				TaxTotal   string `json:"taxTotal"`
				GrandTotal string `json:"grandTotal"`
			} `json:"totals"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "20", payload.Data.Totals.Subtotal)
	require.Equal(t, "1", payload.Data.Totals.TaxTotal)
	require.Equal(t, "21", payload.Data.Totals.GrandTotal)
}

func TestCreateQuoteValidation(t *testing.T) {
	h := newHandler(t, euStore())

	rec := postQuote(t, h, `{"lines": []}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postQuote(t, h, `{
		"regionId": "eu",
		"lines": [{"productId": "p1", "category": "bread", "unitPrice": 5, "quantity": 0}]
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateQuoteItemDiscountRequiresTarget(t *testing.T) {
	h := newHandler(t, euStore())
	rec := postQuote(t, h, `{
		"regionId": "eu",
		"lines": [{"productId": "p1", "category": "bread", "unitPrice": 5, "quantity": 4}],
		"discounts": [{"name": "broken", "type": "percentage", "target": "item", "value": 10}]
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateQuoteUnknownRegion(t *testing.T) {
	h := newHandler(t, euStore())
	rec := postQuote(t, h, `{
		"regionId": "atlantis",
		"lines": [{"productId": "p1", "category": "bread", "unitPrice": 5, "quantity": 1}]
	}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "INVALID_TAX_REGION")
}

func TestCreateQuoteSettingsOverride(t *testing.T) {
	h := newHandler(t, euStore())
	rec := postQuote(t, h, `{
		"regionId": "eu",
		"lines": [{"productId": "p1", "category": "bread", "unitPrice": 5, "quantity": 4}],
		"settings": {"taxInclusivePricing": true}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data struct {
			Totals struct {
				GrandTotal string `json:"grandTotal"`
			} `json:"totals"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "20", payload.Data.Totals.GrandTotal, "inclusive pricing keeps the subtotal as the payable amount")
}

func TestCreateQuoteManualDiscountApplied(t *testing.T) {
	h := newHandler(t, euStore())
	rec := postQuote(t, h, `{
		"regionId": "eu",
		"lines": [{"productId": "p1", "category": "bread", "unitPrice": 5, "quantity": 4}],
		"discounts": [{"name": "opening week", "type": "fixed", "target": "order", "value": 5}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data struct {
			Totals struct {
				DiscountTotal string `json:"discountTotal"`
				GrandTotal    string `json:"grandTotal"`
			} `json:"totals"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "5", payload.Data.Totals.DiscountTotal)
	require.Equal(t, "16", payload.Data.Totals.GrandTotal)
}

func TestCreateQuoteDefaultRegionFallback(t *testing.T) {
	h := newHandler(t, euStore())
	h.DefaultRegion = "eu"
	rec := postQuote(t, h, `{
		"lines": [{"productId": "p1", "category": "bread", "unitPrice": 5, "quantity": 4}]
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	h.DefaultRegion = ""
	rec = postQuote(t, h, `{
		"lines": [{"productId": "p1", "category": "bread", "unitPrice": 5, "quantity": 4}]
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateQuoteMalformedJSON(t *testing.T) {
	h := newHandler(t, euStore())
	rec := postQuote(t, h, `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
