package engine

import (
	"sort"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// selectBest ranks scored candidates and picks the winner. Candidates within
// the tie-break window of the top score are re-ranked by elapsed time so the
// earliest qualifying purchase wins; otherwise identical-product purchases
// (accessories with no distinguishing size) would win nondeterministically.
// When the runner-up is within the ambiguity window of a high-confidence
// winner, the winner is downgraded to medium to force manual review.
func (e *Engine) selectBest(candidates []model.MatchCandidate) (*model.MatchCandidate, []model.MatchCandidate) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ranked := make([]model.MatchCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ElapsedHours < ranked[j].ElapsedHours
	})

	// FIFO tie-break among near-equal top scores.
	tied := 1
	for tied < len(ranked) && ranked[0].Score-ranked[tied].Score <= e.cfg.TieBreakWindow {
		tied++
	}
	if tied > 1 {
		sort.SliceStable(ranked[:tied], func(i, j int) bool {
			return ranked[i].ElapsedHours < ranked[j].ElapsedHours
		})
	}

	best := ranked[0]

	if len(ranked) > 1 && best.Confidence == model.ConfidenceHigh {
		gap := best.Score - ranked[1].Score
		if gap < 0 {
			gap = -gap
		}
		if gap < e.cfg.AmbiguityWindow {
			best.Confidence = model.ConfidenceMedium
			best.Reasons = append(best.Reasons, model.Reason{
				Code:   model.ReasonAmbiguous,
				Detail: "runner-up candidate scores too close to call automatically",
			})
			ranked[0] = best
		}
	}

	return &best, ranked
}
