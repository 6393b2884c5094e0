package model

// Confidence is the coarse certainty bucket for a match, used to gate
// auto-commit (high) versus manual review (medium/low).
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ReasonCode identifies a matching decision for audits and the review UI.
type ReasonCode string

const (
	ReasonNameExact      ReasonCode = "name_exact"
	ReasonNameOverlap    ReasonCode = "name_overlap"
	ReasonNameMismatch   ReasonCode = "name_mismatch"
	ReasonSizeMatch      ReasonCode = "size_match"
	ReasonSizeSkipped    ReasonCode = "size_skipped"
	ReasonSizeMismatch   ReasonCode = "size_mismatch"
	ReasonCausalityOK    ReasonCode = "causality_ok"
	ReasonCausality      ReasonCode = "causality_violation"
	ReasonSKUOverride    ReasonCode = "sku_override"
	ReasonSKUExactBonus  ReasonCode = "sku_exact_bonus"
	ReasonSKUPartial     ReasonCode = "sku_partial_bonus"
	ReasonTimeBonus      ReasonCode = "time_bonus"
	ReasonOverThreshold  ReasonCode = "over_threshold"
	ReasonAmbiguous      ReasonCode = "ambiguous"
	ReasonExcludedSKU    ReasonCode = "excluded_sku"
	ReasonLiquidation    ReasonCode = "liquidation"
	ReasonAlreadyUsed    ReasonCode = "already_used"
	ReasonNoSKUForRescue ReasonCode = "no_sku_for_rescue"
)

// Reason is a structured diagnostic event attached to a candidate decision:
// a stable code for automation plus human text for the review UI.
type Reason struct {
	Code   ReasonCode `json:"code"`
	Detail string     `json:"detail"`
}

// Rejection records why a candidate was dropped by a hard filter.
type Rejection struct {
	OrderNumber string `json:"order_number"`
	Reason      Reason `json:"reason"`
}

// MatchCandidate is a scored purchase candidate for a single sale line item.
type MatchCandidate struct {
	Purchase      PurchaseCandidate `json:"purchase"`
	Score         float64           `json:"score"`
	Confidence    Confidence        `json:"confidence"`
	Reasons       []Reason          `json:"reasons"`
	ElapsedHours  float64           `json:"elapsed_hours"`
	OverThreshold bool              `json:"over_threshold"`
}

// MatchResult is the engine's decision for one sale line item. Best is nil
// when no candidate qualifies; Candidates holds the full ranked list and
// Rejections the hard-filter drops, both for audit and manual review.
type MatchResult struct {
	Item       SaleLineItem     `json:"item"`
	Best       *MatchCandidate  `json:"best,omitempty"`
	Candidates []MatchCandidate `json:"candidates"`
	Rejections []Rejection      `json:"rejections,omitempty"`
	Notes      []Reason         `json:"notes,omitempty"`
}
