package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resale-group/backoffice-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresFromPool(mock), mock
}

func TestPostgresCreateRun(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO match_runs").
		WithArgs(pgxmock.AnyArg(), "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRunStatus(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE match_runs SET status").
		WithArgs("matching", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateRunStatus(context.Background(), "run-1", model.RunStatusMatching)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRunStatusNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE match_runs SET status").
		WithArgs("failed", pgxmock.AnyArg(), "nope").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "nope", model.RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestPostgresGetRun(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	resultJSON, err := json.Marshal(model.RunResult{ItemsTotal: 5, ItemsMatched: 4})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, status, result, created_at, updated_at FROM match_runs").
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "result", "created_at", "updated_at"}).
			AddRow("run-1", "review", resultJSON, now, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusReview, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, 5, run.Result.ItemsTotal)
}

func TestPostgresGetRunNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, status, result, created_at, updated_at FROM match_runs").
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestPostgresSaveResults(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"match_results"},
		[]string{"id", "run_id", "sale_order_id", "payload", "created_at"}).
		WillReturnResult(2)

	results := []model.MatchResult{sampleResult("1001"), sampleResult("1002")}
	err := s.SaveResults(context.Background(), "run-1", results)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCommitMatch(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO committed_matches").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	cost := 180.0
	err := s.CommitMatch(context.Background(), model.CommittedMatch{
		RunID:        "run-1",
		SaleOrderID:  "1001",
		OrderNumber:  "PO-1001",
		SalePrice:    250,
		Currency:     "EUR",
		PurchaseCost: &cost,
		Confidence:   model.ConfidenceHigh,
		CommittedBy:  "ops",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCommitMatchConflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO committed_matches").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := s.CommitMatch(context.Background(), model.CommittedMatch{
		OrderNumber: "PO-1001",
		Confidence:  model.ConfidenceHigh,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already committed")
}

func TestPostgresUsedPurchaseNumbers(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT order_number FROM committed_matches").
		WillReturnRows(pgxmock.NewRows([]string{"order_number"}).
			AddRow("PO-1001").AddRow("PO-1002"))

	used, err := s.UsedPurchaseNumbers(context.Background())
	require.NoError(t, err)
	assert.True(t, used["PO-1001"])
	assert.True(t, used["PO-1002"])
	assert.Len(t, used, 2)
}
