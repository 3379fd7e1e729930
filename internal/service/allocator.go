package service

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

// AllocationOverrides carries per-item operator adjustments, keyed by the
// item's billing key. Exceptions replace the catalog price with a manually
// entered amount and never compete for the full-price slot.
type AllocationOverrides struct {
	Modes      map[string]models.PaymentMode
	Exceptions map[string]decimal.Decimal
}

// AllocatePrices assigns an amount to every pending item of one billing
// period. It is pure and deterministic: the same inputs always produce the
// same allocation, so callers re-run it whenever the item set, the global
// mode, or an override changes.
//
// Pricing rules, in order:
//   - an exception item uses its manual amount, untouched by the catalog;
//   - with a single enrollment in the period, the item is charged full price;
//   - with several enrollments and a full-price payment already on record for
//     the period, every remaining item is charged the discount price;
//   - otherwise the pending item with the highest cash full price is charged
//     full price and the rest get the discount price.
//
// Items without a reference price are returned unpriced (zero amount) and
// never take the full-price slot. Across paid and allocated items combined,
// at most one item per period ever carries the full price.
func AllocatePrices(items []models.PendingItem, periodCtx models.PeriodContext, mode models.PaymentMode, overrides AllocationOverrides) []models.PricedItem {
	if !mode.Valid() {
		mode = models.PaymentModeCash
	}

	fullPriceKey := ""
	if !periodCtx.HasFullPricePayment {
		fullPriceKey = pickFullPriceItem(items, overrides)
	}

	out := make([]models.PricedItem, 0, len(items))
	for _, item := range items {
		key := item.Key()
		itemMode := mode
		if m, ok := overrides.Modes[key]; ok && m.Valid() {
			itemMode = m
		}

		priced := models.PricedItem{PendingItem: item, Mode: itemMode}

		if amount, ok := overrides.Exceptions[key]; ok {
			priced.Amount = amount
			priced.IsException = true
			priced.Priced = true
			out = append(out, priced)
			continue
		}

		if item.ReferencePrice == nil {
			priced.Amount = decimal.Zero
			out = append(out, priced)
			continue
		}

		priced.Priced = true
		if periodCtx.TotalWorkshops <= 1 || key == fullPriceKey {
			priced.Amount = item.ReferencePrice.FullFor(itemMode)
			priced.IsFullPrice = true
		} else {
			priced.Amount = item.ReferencePrice.DiscountFor(itemMode)
		}
		out = append(out, priced)
	}
	return out
}

// pickFullPriceItem selects the pending item that pays full price when no
// full-price payment exists yet for the period: the candidate with the
// highest cash full price, regardless of the mode any item will be paid in.
// Ties break on the billing key so the choice is stable.
func pickFullPriceItem(items []models.PendingItem, overrides AllocationOverrides) string {
	best := ""
	var bestPrice decimal.Decimal
	for _, item := range items {
		key := item.Key()
		if _, isException := overrides.Exceptions[key]; isException {
			continue
		}
		if item.ReferencePrice == nil {
			continue
		}
		price := item.ReferencePrice.FullCash
		if best == "" || price.GreaterThan(bestPrice) || (price.Equal(bestPrice) && key < best) {
			best = key
			bestPrice = price
		}
	}
	return best
}
