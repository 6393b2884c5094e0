package engine

import (
	"fmt"
	"strings"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// filterOutcome carries a candidate through the hard-filter pipeline.
type filterOutcome struct {
	passed       bool
	rescued      bool
	skuExact     bool
	skuPartial   bool
	elapsedHours float64
	reasons      []model.Reason
	rejection    *model.Reason
}

// nameSimilarity computes word-overlap similarity between the cleaned sale
// title and the purchase title: |intersection| / |union| over comparable
// tokens. Exact normalized equality short-circuits to 1.0. When both titles
// carry the toy-brand keyword the remainders are compared by substring
// containment instead, since those products differ only in collectible
// designation, not sized variants.
func (e *Engine) nameSimilarity(saleTitle, purchaseTitle string) float64 {
	saleTokens := normalizeName(CleanTitle(saleTitle), e.stopwords)
	purchTokens := normalizeName(purchaseTitle, e.stopwords)

	saleNorm := strings.Join(saleTokens, " ")
	purchNorm := strings.Join(purchTokens, " ")
	if saleNorm != "" && saleNorm == purchNorm {
		return 1.0
	}

	if e.isToyBrand(saleTitle) && e.isToyBrand(purchaseTitle) {
		saleRest := e.stripToyKeyword(saleNorm)
		purchRest := e.stripToyKeyword(purchNorm)
		if saleRest == purchRest ||
			strings.Contains(saleRest, purchRest) ||
			strings.Contains(purchRest, saleRest) {
			return 1.0
		}
		return 0.0
	}

	saleSet := comparableTokens(saleTokens)
	purchSet := comparableTokens(purchTokens)
	if len(saleSet) == 0 || len(purchSet) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range saleSet {
		if _, ok := purchSet[tok]; ok {
			intersection++
		}
	}
	union := len(saleSet) + len(purchSet) - intersection
	return float64(intersection) / float64(union)
}

func (e *Engine) isToyBrand(title string) bool {
	return e.cfg.ToyKeyword != "" &&
		strings.Contains(strings.ToLower(title), e.cfg.ToyKeyword)
}

func (e *Engine) stripToyKeyword(normalized string) string {
	rest := strings.ReplaceAll(normalized, e.cfg.ToyKeyword, "")
	rest = multiSpaceRe.ReplaceAllString(rest, " ")
	return strings.TrimSpace(rest)
}

// runFilters applies the hard-filter pipeline to one candidate. The size and
// causality filters reject outright; a name-filter failure defers to the
// SKU-override rescue before the candidate is dropped.
func (e *Engine) runFilters(item model.SaleLineItem, cand model.PurchaseCandidate) filterOutcome {
	out := filterOutcome{
		elapsedHours: cand.PurchasedAt.Sub(item.CreatedAt).Hours(),
	}

	// Filter 1: name. Failure is provisional until the rescue runs.
	nameResolved := true
	sim := e.nameSimilarity(item.Title, cand.Title)
	switch {
	case sim >= 1.0:
		out.reasons = append(out.reasons, model.Reason{
			Code:   model.ReasonNameExact,
			Detail: "titles match exactly after normalization",
		})
	case sim >= e.cfg.NameSimilarityThreshold:
		out.reasons = append(out.reasons, model.Reason{
			Code:   model.ReasonNameOverlap,
			Detail: fmt.Sprintf("title similarity %.2f", sim),
		})
	default:
		nameResolved = false
	}

	// Filter 2: size. Skipped entirely for sizeless toy-brand products.
	if e.isToyBrand(item.Title) || e.isToyBrand(cand.Title) {
		out.reasons = append(out.reasons, model.Reason{
			Code:   model.ReasonSizeSkipped,
			Detail: "sizeless product, size filter skipped",
		})
	} else {
		saleSize := NormalizeSize(item.Size)
		candSize := NormalizeSize(cand.Size)
		switch {
		case saleSize == sizeNone && candSize == sizeNone:
			// No size required on either side.
		case saleSize == sizeNone && candSize == sizeOneSize,
			candSize == sizeNone && saleSize == sizeOneSize:
			// One side unsized, the other canonically one-size.
		case saleSize == candSize:
			out.reasons = append(out.reasons, model.Reason{
				Code:   model.ReasonSizeMatch,
				Detail: fmt.Sprintf("size %s matches", saleSize),
			})
		default:
			out.rejection = &model.Reason{
				Code:   model.ReasonSizeMismatch,
				Detail: fmt.Sprintf("sale size %q vs purchase size %q", saleSize, candSize),
			}
			return out
		}
	}

	// Filter 3: causality. In a buy-to-order model a purchase placed more
	// than the tolerance before the sale cannot be fulfilling it.
	if cand.PurchasedAt.Before(item.CreatedAt.Add(-e.cfg.CausalityTolerance)) {
		out.rejection = &model.Reason{
			Code: model.ReasonCausality,
			Detail: fmt.Sprintf("purchased %.1f minutes before sale",
				item.CreatedAt.Sub(cand.PurchasedAt).Minutes()),
		}
		return out
	}

	// Filter 4: SKU-override rescue, only for name-filter failures.
	if !nameResolved {
		exact, partial := e.skuStrength(item.SKU, cand.SKUKey)
		if out.elapsedHours <= e.cfg.SKUOverrideWindowHours && (exact || partial) {
			out.rescued = true
			out.skuExact = exact
			out.skuPartial = partial && !exact
			out.reasons = append(out.reasons, model.Reason{
				Code:   model.ReasonSKUOverride,
				Detail: fmt.Sprintf("name similarity %.2f below threshold, rescued by SKU match", sim),
			})
		} else {
			out.rejection = &model.Reason{
				Code:   model.ReasonNameMismatch,
				Detail: fmt.Sprintf("title similarity %.2f below %.2f, no SKU rescue", sim, e.cfg.NameSimilarityThreshold),
			}
			return out
		}
	} else {
		exact, partial := e.skuStrength(item.SKU, cand.SKUKey)
		out.skuExact = exact
		out.skuPartial = partial && !exact
	}

	out.passed = true
	return out
}

// skuStrength compares the sale's base SKU against the purchase SKU key.
// exact means equality after base extraction; partial means both strings are
// long enough and one contains the other at the configured length overlap.
func (e *Engine) skuStrength(saleSKU, purchaseSKU string) (exact, partial bool) {
	base := strings.ToUpper(BaseSKU(saleSKU))
	key := strings.ToUpper(strings.TrimSpace(purchaseSKU))
	if base == "" || key == "" {
		return false, false
	}
	if base == key {
		return true, false
	}

	short, long := base, key
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(base) >= e.cfg.SKUPartialMinLen && len(key) >= e.cfg.SKUPartialMinLen &&
		strings.Contains(long, short) &&
		float64(len(short))/float64(len(long)) >= e.cfg.SKUPartialOverlap {
		return false, true
	}
	return false, false
}
