// Package engine implements the deterministic order-matching core: given a
// sale line item and a pool of candidate purchase orders, it decides which
// purchase (if any) fulfills that sale, with what confidence, and why.
//
// The engine is pure: it performs no I/O, never mutates its inputs, and
// produces byte-identical results for identical inputs. Absence of a match is
// a normal outcome, not an error.
package engine

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// Engine matches sale line items against supplier purchase orders.
type Engine struct {
	cfg       Config
	stopwords map[string]struct{}
}

// New creates an Engine with the given rules. The config is copied; later
// mutation of the caller's value does not affect the engine.
func New(cfg Config) *Engine {
	stopwords := make(map[string]struct{}, len(cfg.Stopwords))
	for _, w := range cfg.Stopwords {
		stopwords[strings.ToLower(w)] = struct{}{}
	}

	excluded := make(map[string]float64, len(cfg.ExcludedSKUs))
	for sku, cost := range cfg.ExcludedSKUs {
		excluded[strings.ToUpper(strings.TrimSpace(sku))] = cost
	}
	cfg.ExcludedSKUs = excluded
	cfg.ToyKeyword = strings.ToLower(strings.TrimSpace(cfg.ToyKeyword))

	return &Engine{cfg: cfg, stopwords: stopwords}
}

// MatchItem matches one sale line item against the candidate pool, excluding
// candidates whose order numbers appear in used. The used set is read, never
// written; batch consumption bookkeeping belongs to MatchBatch or the caller.
func (e *Engine) MatchItem(item model.SaleLineItem, pool []model.PurchaseCandidate, used map[string]bool) (model.MatchResult, error) {
	if err := validateItem(item); err != nil {
		return model.MatchResult{}, err
	}
	if err := validatePool(pool); err != nil {
		return model.MatchResult{}, err
	}
	return e.matchItem(item, pool, used), nil
}

// MatchBatch matches items in the given fixed order against a shared pool.
// Each winning purchase is consumed: it is unavailable to all subsequent
// items, which makes the batch order-sensitive and inherently sequential.
// The caller's used set is not mutated.
func (e *Engine) MatchBatch(items []model.SaleLineItem, pool []model.PurchaseCandidate, used map[string]bool) ([]model.MatchResult, error) {
	for _, item := range items {
		if err := validateItem(item); err != nil {
			return nil, err
		}
	}
	if err := validatePool(pool); err != nil {
		return nil, err
	}

	consumed := make(map[string]bool, len(used))
	for k, v := range used {
		consumed[k] = v
	}

	results := make([]model.MatchResult, 0, len(items))
	for _, item := range items {
		res := e.matchItem(item, pool, consumed)
		if res.Best != nil {
			consumed[res.Best.Purchase.OrderNumber] = true
		}
		results = append(results, res)
	}
	return results, nil
}

// matchItem runs the classifier and, when it does not short-circuit, the
// Normalizer -> Hard-Filter Pipeline -> Scorer -> Selector chain.
func (e *Engine) matchItem(item model.SaleLineItem, pool []model.PurchaseCandidate, used map[string]bool) model.MatchResult {
	if res, special := e.classifySpecial(item, used); special {
		return res
	}

	result := model.MatchResult{Item: item}
	var survivors []model.MatchCandidate

	seen := make(map[string]bool, len(pool))
	for _, cand := range pool {
		if seen[cand.OrderNumber] {
			continue
		}
		seen[cand.OrderNumber] = true

		if used[cand.OrderNumber] {
			result.Rejections = append(result.Rejections, model.Rejection{
				OrderNumber: cand.OrderNumber,
				Reason: model.Reason{
					Code:   model.ReasonAlreadyUsed,
					Detail: "purchase already consumed by an earlier match",
				},
			})
			continue
		}

		out := e.runFilters(item, cand)
		if !out.passed {
			result.Rejections = append(result.Rejections, model.Rejection{
				OrderNumber: cand.OrderNumber,
				Reason:      *out.rejection,
			})
			continue
		}
		survivors = append(survivors, e.scoreCandidate(cand, out))
	}

	result.Best, result.Candidates = e.selectBest(survivors)
	return result
}

func validateItem(item model.SaleLineItem) error {
	if item.CreatedAt.IsZero() {
		return eris.Errorf("engine: sale %s has no creation timestamp", item.OrderID)
	}
	return nil
}

// validatePool rejects pools that violate the caller contract: every
// candidate needs a timestamp, and the same order number may not appear twice
// with conflicting data. Identical duplicates are tolerated.
func validatePool(pool []model.PurchaseCandidate) error {
	seen := make(map[string]model.PurchaseCandidate, len(pool))
	for _, cand := range pool {
		if cand.PurchasedAt.IsZero() {
			return eris.Errorf("engine: purchase %s has no purchase timestamp", cand.OrderNumber)
		}
		prev, ok := seen[cand.OrderNumber]
		if !ok {
			seen[cand.OrderNumber] = cand
			continue
		}
		if prev.Title != cand.Title || prev.SKUKey != cand.SKUKey ||
			prev.Size != cand.Size || !prev.PurchasedAt.Equal(cand.PurchasedAt) {
			return eris.Errorf("engine: purchase %s appears twice with conflicting data", cand.OrderNumber)
		}
	}
	return nil
}
