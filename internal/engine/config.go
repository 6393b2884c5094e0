package engine

import "time"

// Config holds the tunable matching rules. All thresholds that gate filter
// and confidence decisions live here rather than inline so tests and the
// rules file can vary them independently.
type Config struct {
	// NameSimilarityThreshold is the minimum word-overlap similarity for the
	// name filter to pass without a SKU-override rescue.
	NameSimilarityThreshold float64

	// CausalityTolerance is the clock-skew allowance: a purchase may precede
	// its sale by at most this much and still be considered causal.
	CausalityTolerance time.Duration

	// SKUOverrideWindowHours bounds how long after a sale a purchase can be
	// rescued by a strong SKU match despite a failed name filter. The same
	// window marks candidates as over-threshold for UI flagging.
	SKUOverrideWindowHours float64

	// SKUPartialMinLen and SKUPartialOverlap govern the "strong partial" SKU
	// comparison used by the rescue: both strings at least SKUPartialMinLen
	// characters, one containing the other at >= SKUPartialOverlap of the
	// longer string's length.
	SKUPartialMinLen  int
	SKUPartialOverlap float64

	// TieBreakWindow is the score distance from the top within which
	// candidates are considered tied and re-ranked by elapsed time.
	TieBreakWindow float64

	// AmbiguityWindow is the minimum score gap between the top two candidates
	// below which a high-confidence winner is downgraded to medium.
	AmbiguityWindow float64

	// Score thresholds for confidence tiers.
	BaseScore         float64
	HighScoreCutoff   float64
	MediumScoreCutoff float64

	// Stopwords are retail descriptor tokens dropped during name
	// normalization, including the marketplace's own name.
	Stopwords []string

	// ToyKeyword marks the sizeless collectible brand whose titles get the
	// substring-containment name rule and skip the size filter.
	ToyKeyword string

	// ExcludedSKUs maps perpetually-in-stock SKUs to their fixed unit cost.
	// Sales of these SKUs get a synthetic match and never enter the pipeline.
	ExcludedSKUs map[string]float64
}

// DefaultConfig returns the production matching rules.
func DefaultConfig() Config {
	return Config{
		NameSimilarityThreshold: 0.95,
		CausalityTolerance:      5 * time.Minute,
		SKUOverrideWindowHours:  96,
		SKUPartialMinLen:        6,
		SKUPartialOverlap:       0.90,
		TieBreakWindow:          1.0,
		AmbiguityWindow:         10.0,
		BaseScore:               100,
		HighScoreCutoff:         120,
		MediumScoreCutoff:       100,
		Stopwords: []string{
			"exclusive", "limited", "edition", "retailer", "online", "store", "stockx",
		},
		ToyKeyword:   "bearbrick",
		ExcludedSKUs: map[string]float64{},
	}
}

// timeTier maps an elapsed-hours ceiling to a proximity bonus.
type timeTier struct {
	maxHours float64
	bonus    float64
}

// timeTiers is ordered ascending; the first ceiling >= elapsed wins.
var timeTiers = []timeTier{
	{1, 50},
	{6, 45},
	{24, 40},
	{48, 30},
	{96, 20},
}

// lateBonus applies beyond the last tier ceiling.
const lateBonus = 5

// SKU bonus points stacked on top of the filter score.
const (
	skuExactBonus   = 10
	skuPartialBonus = 5
)
