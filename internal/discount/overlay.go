// Package discount applies order-level and item-level discounts on top of
// an already-priced cart. Discounts resolve independently; stackability is
// recorded on each discount but does not currently constrain evaluation.
package discount

import (
	"github.com/shopspring/decimal"

	"github.com/bakehouse/pricing-api/internal/money"
)

// Line is a cart line item viewed by the discount overlay.
type Line struct {
	ItemID    string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l Line) total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Effect is the closed set of discount variants. Each variant carries only
// the fields valid for it; an item-targeted effect requires the item id and
// an order-targeted one cannot name an item.
type Effect interface {
	amount(orderTotal decimal.Decimal, lines []Line) decimal.Decimal
}

// OrderPercent reduces the order total by a percentage.
type OrderPercent struct {
	Percent decimal.Decimal
}

func (e OrderPercent) amount(orderTotal decimal.Decimal, _ []Line) decimal.Decimal {
	return money.Percent(orderTotal, e.Percent)
}

// OrderFixed subtracts a fixed amount from the order total.
type OrderFixed struct {
	Amount decimal.Decimal
}

func (e OrderFixed) amount(decimal.Decimal, []Line) decimal.Decimal {
	return e.Amount
}

// ItemPercent reduces one line's total by a percentage.
type ItemPercent struct {
	ItemID  string
	Percent decimal.Decimal
}

func (e ItemPercent) amount(_ decimal.Decimal, lines []Line) decimal.Decimal {
	for _, l := range lines {
		if l.ItemID == e.ItemID {
			return money.Percent(l.total(), e.Percent)
		}
	}
	return decimal.Zero
}

// ItemFixed subtracts a fixed amount attributed to one line.
type ItemFixed struct {
	ItemID string
	Amount decimal.Decimal
}

func (e ItemFixed) amount(_ decimal.Decimal, lines []Line) decimal.Decimal {
	for _, l := range lines {
		if l.ItemID == e.ItemID {
			return e.Amount
		}
	}
	return decimal.Zero
}

// Discount is one named reduction. Auto discounts are regenerated whenever
// the order total changes; manual ones persist until removed.
type Discount struct {
	ID        string
	Name      string
	Auto      bool
	Stackable bool
	Effect    Effect
}

// Applied reports the resolved amount for one discount.
type Applied struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Auto   bool            `json:"auto"`
	Amount decimal.Decimal `json:"amount"`
}

// Result summarises an overlay evaluation.
type Result struct {
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	FinalTotal    decimal.Decimal `json:"finalTotal"`
	Applied       []Applied       `json:"applied"`
}

// Apply resolves every discount independently against the order total or
// its named line and sums the amounts. The sum ignores Stackable.
func Apply(orderTotal decimal.Decimal, lines []Line, discounts []Discount) Result {
	res := Result{FinalTotal: orderTotal}
	for _, d := range discounts {
		if d.Effect == nil {
			continue
		}
		amount := d.Effect.amount(orderTotal, lines)
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		res.Applied = append(res.Applied, Applied{ID: d.ID, Name: d.Name, Auto: d.Auto, Amount: amount})
		res.TotalDiscount = res.TotalDiscount.Add(amount)
	}
	res.FinalTotal = orderTotal.Sub(res.TotalDiscount)
	if res.FinalTotal.IsNegative() {
		res.FinalTotal = decimal.Zero
	}
	return res
}

// ReplaceAuto swaps out the auto-generated discounts while preserving the
// manually-added ones.
func ReplaceAuto(current []Discount, regenerated []Discount) []Discount {
	out := make([]Discount, 0, len(current)+len(regenerated))
	for _, d := range current {
		if !d.Auto {
			out = append(out, d)
		}
	}
	return append(out, regenerated...)
}

// Remove drops a discount by id. Removing a manual discount never touches
// the auto-generated ones.
func Remove(current []Discount, id string) []Discount {
	out := make([]Discount, 0, len(current))
	for _, d := range current {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}

// AutoRule regenerates a volume discount once the order total passes its
// minimum.
type AutoRule struct {
	ID       string
	Name     string
	MinTotal decimal.Decimal
	Percent  decimal.Decimal
}

// Regenerate materialises the auto discounts qualifying for the order total.
func Regenerate(orderTotal decimal.Decimal, rules []AutoRule) []Discount {
	out := []Discount{}
	for _, r := range rules {
		if orderTotal.GreaterThan(r.MinTotal) {
			out = append(out, Discount{
				ID:     r.ID,
				Name:   r.Name,
				Auto:   true,
				Effect: OrderPercent{Percent: r.Percent},
			})
		}
	}
	return out
}
