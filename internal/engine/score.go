package engine

import (
	"fmt"
	"math"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// scoreCandidate turns a filter survivor into a scored MatchCandidate.
// Every survivor starts from the base score for passing all filters; time
// proximity and SKU agreement add on top.
func (e *Engine) scoreCandidate(cand model.PurchaseCandidate, out filterOutcome) model.MatchCandidate {
	elapsed := math.Max(out.elapsedHours, 0)
	score := e.cfg.BaseScore
	reasons := out.reasons

	bonus := timeProximityBonus(elapsed)
	score += bonus
	reasons = append(reasons, model.Reason{
		Code:   model.ReasonTimeBonus,
		Detail: fmt.Sprintf("purchased %.1fh after sale: +%.0f", elapsed, bonus),
	})

	switch {
	case out.skuExact:
		score += skuExactBonus
		reasons = append(reasons, model.Reason{
			Code:   model.ReasonSKUExactBonus,
			Detail: fmt.Sprintf("base SKU matches exactly: +%d", skuExactBonus),
		})
	case out.skuPartial:
		score += skuPartialBonus
		reasons = append(reasons, model.Reason{
			Code:   model.ReasonSKUPartial,
			Detail: fmt.Sprintf("SKU containment match: +%d", skuPartialBonus),
		})
	}

	overThreshold := elapsed > e.cfg.SKUOverrideWindowHours
	if overThreshold {
		reasons = append(reasons, model.Reason{
			Code:   model.ReasonOverThreshold,
			Detail: fmt.Sprintf("%.0fh between sale and purchase exceeds %.0fh window", elapsed, e.cfg.SKUOverrideWindowHours),
		})
	}

	return model.MatchCandidate{
		Purchase:      cand,
		Score:         score,
		Confidence:    e.confidenceFor(score, overThreshold),
		Reasons:       reasons,
		ElapsedHours:  elapsed,
		OverThreshold: overThreshold,
	}
}

// timeProximityBonus returns the fixed-tier bonus for the elapsed time
// between sale and purchase.
func timeProximityBonus(elapsedHours float64) float64 {
	for _, tier := range timeTiers {
		if elapsedHours <= tier.maxHours {
			return tier.bonus
		}
	}
	return lateBonus
}

// confidenceFor maps a final score to its coarse confidence tier. A candidate
// over the time window never reaches high regardless of score.
func (e *Engine) confidenceFor(score float64, overThreshold bool) model.Confidence {
	switch {
	case score >= e.cfg.HighScoreCutoff && !overThreshold:
		return model.ConfidenceHigh
	case score >= e.cfg.MediumScoreCutoff:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}
