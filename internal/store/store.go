// Package store persists match runs, their results, and committed
// sale-to-purchase pairings. The store is the system of record for which
// purchase orders have already been consumed by earlier matches.
package store

import (
	"context"

	"github.com/resale-group/backoffice-cli/internal/model"
)

// RunFilter specifies criteria for listing match runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the matching back office.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.MatchRun, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.MatchRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.MatchRun, error)

	// Results
	SaveResults(ctx context.Context, runID string, results []model.MatchResult) error
	ListResults(ctx context.Context, runID string) ([]model.MatchResult, error)

	// Committed matches. CommitMatch enforces the global 1:1 constraint: a
	// purchase order number can be committed at most once.
	CommitMatch(ctx context.Context, m model.CommittedMatch) error
	ListCommitted(ctx context.Context, runID string) ([]model.CommittedMatch, error)
	UsedPurchaseNumbers(ctx context.Context) (map[string]bool, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
