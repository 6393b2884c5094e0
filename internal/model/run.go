package model

import "time"

// RunStatus represents the current state of a matching run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusMatching  RunStatus = "matching"
	RunStatusReview    RunStatus = "review"
	RunStatusCommitted RunStatus = "committed"
	RunStatusFailed    RunStatus = "failed"
)

// MatchRun represents a single batch matching run over the sales ledger.
type MatchRun struct {
	ID        string     `json:"id"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult summarizes the outcome of a matching run.
type RunResult struct {
	ItemsTotal     int     `json:"items_total"`
	ItemsMatched   int     `json:"items_matched"`
	HighConfidence int     `json:"high_confidence"`
	NeedsReview    int     `json:"needs_review"`
	TotalRevenue   float64 `json:"total_revenue"`
	TotalCost      float64 `json:"total_cost"`
	Error          string  `json:"error,omitempty"`
}

// CommittedMatch is a confirmed sale-to-purchase pairing, either auto-committed
// at high confidence or confirmed by an operator in review.
type CommittedMatch struct {
	ID            string     `json:"id"`
	RunID         string     `json:"run_id"`
	SaleOrderID   string     `json:"sale_order_id"`
	OrderNumber   string     `json:"order_number"`
	SalePrice     float64    `json:"sale_price"`
	Currency      string     `json:"currency"`
	PurchaseCost  *float64   `json:"purchase_cost,omitempty"`
	Confidence    Confidence `json:"confidence"`
	CommittedBy   string     `json:"committed_by"`
	CommittedAt   time.Time  `json:"committed_at"`
}
