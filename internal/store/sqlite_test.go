package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resale-group/backoffice-cli/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleResult(orderID string) model.MatchResult {
	purchasedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cost := 180.0
	return model.MatchResult{
		Item: model.SaleLineItem{
			OrderID:    orderID,
			OrderName:  "#" + orderID,
			CreatedAt:  purchasedAt.Add(2 * time.Hour),
			Title:      "Sneaker X",
			SKU:        "ABC12345",
			Size:       "EU 42",
			Currency:   "EUR",
			TotalPrice: 250,
		},
		Best: &model.MatchCandidate{
			Purchase: model.PurchaseCandidate{
				OrderID:     "po-" + orderID,
				OrderNumber: "PO-" + orderID,
				PurchasedAt: purchasedAt,
				Title:       "Sneaker X",
				SKUKey:      "ABC12345",
				Size:        "EU 42",
				TotalCost:   &cost,
				Status:      model.PurchaseStatusShipped,
			},
			Score:        155,
			Confidence:   model.ConfidenceHigh,
			ElapsedHours: 2,
		},
	}
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusMatching))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusMatching, got.Status)
	assert.Nil(t, got.Result)

	result := &model.RunResult{ItemsTotal: 10, ItemsMatched: 8, HighConfidence: 6, NeedsReview: 2}
	require.NoError(t, s.UpdateRunResult(ctx, run.ID, result))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusReview, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 10, got.Result.ItemsTotal)
	assert.Equal(t, 8, got.Result.ItemsMatched)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLiteUpdateRunStatusNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateRunStatus(context.Background(), "nope", model.RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestSQLiteListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateRun(ctx)
	require.NoError(t, err)
	second, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, second.ID, model.RunStatusCommitted))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	committed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusCommitted})
	require.NoError(t, err)
	require.Len(t, committed, 1)
	assert.Equal(t, second.ID, committed[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_ = first
}

func TestSQLiteSaveAndListResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)

	results := []model.MatchResult{sampleResult("1001"), sampleResult("1002")}
	require.NoError(t, s.SaveResults(ctx, run.ID, results))

	got, err := s.ListResults(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1001", got[0].Item.OrderID)
	require.NotNil(t, got[0].Best)
	assert.Equal(t, "PO-1001", got[0].Best.Purchase.OrderNumber)
	assert.Equal(t, model.ConfidenceHigh, got[0].Best.Confidence)
}

func TestSQLiteCommitMatchEnforcesOneToOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cost := 180.0
	m := model.CommittedMatch{
		RunID:        "run-1",
		SaleOrderID:  "1001",
		OrderNumber:  "PO-1001",
		SalePrice:    250,
		Currency:     "EUR",
		PurchaseCost: &cost,
		Confidence:   model.ConfidenceHigh,
		CommittedBy:  "ops",
	}
	require.NoError(t, s.CommitMatch(ctx, m))

	m.SaleOrderID = "1002"
	err := s.CommitMatch(ctx, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already committed")

	used, err := s.UsedPurchaseNumbers(ctx)
	require.NoError(t, err)
	assert.True(t, used["PO-1001"])
	assert.Len(t, used, 1)
}

func TestSQLiteListCommitted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, runID := range []string{"run-1", "run-1", "run-2"} {
		m := model.CommittedMatch{
			RunID:       runID,
			SaleOrderID: "100" + string(rune('1'+i)),
			OrderNumber: "PO-100" + string(rune('1'+i)),
			SalePrice:   100,
			Currency:    "EUR",
			Confidence:  model.ConfidenceMedium,
			CommittedBy: "ops",
		}
		require.NoError(t, s.CommitMatch(ctx, m))
	}

	all, err := s.ListCommitted(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	runOne, err := s.ListCommitted(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, runOne, 2)
}
