package engine

import (
	"fmt"
	"strings"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// classifySpecial intercepts known synthetic cases before the general
// pipeline runs. It returns a complete MatchResult and true when the item is
// special, or a zero result and false otherwise.
func (e *Engine) classifySpecial(item model.SaleLineItem, used map[string]bool) (model.MatchResult, bool) {
	if cost, ok := e.excludedSKUCost(item.SKU); ok {
		cand := e.syntheticCandidate(item, cost, used)
		return model.MatchResult{
			Item:       item,
			Best:       &cand,
			Candidates: []model.MatchCandidate{cand},
			Notes: []model.Reason{{
				Code:   model.ReasonExcludedSKU,
				Detail: fmt.Sprintf("SKU %s is perpetually in stock at fixed cost", item.SKU),
			}},
		}, true
	}

	if e.isLiquidation(item.Title) {
		return model.MatchResult{
			Item: item,
			Notes: []model.Reason{{
				Code:   model.ReasonLiquidation,
				Detail: "liquidation listing, always matched manually",
			}},
		}, true
	}

	return model.MatchResult{}, false
}

func (e *Engine) excludedSKUCost(sku string) (float64, bool) {
	if sku == "" {
		return 0, false
	}
	cost, ok := e.cfg.ExcludedSKUs[strings.ToUpper(strings.TrimSpace(sku))]
	return cost, ok
}

// isLiquidation reports whether a sale title carries a discount percent
// marker. Toy-brand titles are exempt: their collectible designations end in
// a percent sign ("400%") that is not a discount.
func (e *Engine) isLiquidation(title string) bool {
	if e.isToyBrand(title) {
		return false
	}
	return titlePercentSuffixRe.MatchString(title) ||
		strings.Contains(title, "% ")
}

// syntheticCandidate builds the deterministic stand-in purchase for an
// excluded SKU: same inputs always produce the same synthetic order number.
// An order holding several units of the same excluded SKU yields identical
// line items sharing an OrderID, so a consumed base number gets a unit
// ordinal suffix to keep each unit's match 1:1.
func (e *Engine) syntheticCandidate(item model.SaleLineItem, cost float64, used map[string]bool) model.MatchCandidate {
	sku := strings.ToUpper(strings.TrimSpace(item.SKU))
	orderNumber := fmt.Sprintf("STOCK-%s-%s", sku, item.OrderID)
	for unit := 2; used[orderNumber]; unit++ {
		orderNumber = fmt.Sprintf("STOCK-%s-%s-%d", sku, item.OrderID, unit)
	}

	return model.MatchCandidate{
		Purchase: model.PurchaseCandidate{
			OrderID:     orderNumber,
			OrderNumber: orderNumber,
			PurchasedAt: item.CreatedAt,
			Title:       item.Title,
			SKUKey:      sku,
			Size:        item.Size,
			TotalCost:   &cost,
			Status:      model.PurchaseStatusOrdered,
		},
		Score:      e.cfg.BaseScore + timeProximityBonus(0),
		Confidence: model.ConfidenceHigh,
		Reasons: []model.Reason{{
			Code:   model.ReasonExcludedSKU,
			Detail: fmt.Sprintf("synthetic purchase at fixed cost %.2f", cost),
		}},
	}
}
