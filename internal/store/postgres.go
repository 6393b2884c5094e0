package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/resale-group/backoffice-cli/internal/db"
	"github.com/resale-group/backoffice-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool creates a PostgresStore from an existing pool. The
// store does not own the pool; Close is a no-op.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS match_runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS match_results (
	id            TEXT PRIMARY KEY,
	run_id        TEXT NOT NULL REFERENCES match_runs(id),
	sale_order_id TEXT NOT NULL,
	payload       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS committed_matches (
	id            TEXT PRIMARY KEY,
	run_id        TEXT NOT NULL,
	sale_order_id TEXT NOT NULL,
	order_number  TEXT NOT NULL UNIQUE,
	sale_price    DOUBLE PRECISION NOT NULL,
	currency      TEXT NOT NULL,
	purchase_cost DOUBLE PRECISION,
	confidence    TEXT NOT NULL,
	committed_by  TEXT NOT NULL,
	committed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_match_runs_status ON match_runs(status);
CREATE INDEX IF NOT EXISTS idx_match_results_run_id ON match_results(run_id);
CREATE INDEX IF NOT EXISTS idx_committed_matches_run_id ON committed_matches(run_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.MatchRun, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO match_runs (id, status, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		id, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.MatchRun{
		ID:        id,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE match_runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE match_runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusReview), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run result %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.MatchRun, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, result, created_at, updated_at FROM match_runs WHERE id = $1`,
		runID,
	)

	r, err := scanPgRun(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("run not found: %s", runID)
		}
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.MatchRun, error) {
	query := `SELECT id, status, result, created_at, updated_at FROM match_runs WHERE 1=1`
	var args []any
	argNum := 1

	if filter.Status != "" {
		query += ` AND status = $1`
		args = append(args, string(filter.Status))
		argNum++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT $` + strconv.Itoa(argNum)
	args = append(args, limit)
	argNum++

	if filter.Offset > 0 {
		query += ` OFFSET $` + strconv.Itoa(argNum)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.MatchRun
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SaveResults(ctx context.Context, runID string, results []model.MatchResult) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(results))
	for _, res := range results {
		payload, err := json.Marshal(res)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal result payload")
		}
		rows = append(rows, []any{uuid.New().String(), runID, res.Item.OrderID, payload, now})
	}

	_, err := db.CopyFrom(ctx, s.pool, "match_results",
		[]string{"id", "run_id", "sale_order_id", "payload", "created_at"}, rows)
	return eris.Wrapf(err, "postgres: save results for run %s", runID)
}

func (s *PostgresStore) ListResults(ctx context.Context, runID string) ([]model.MatchResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM match_results WHERE run_id = $1 ORDER BY created_at, sale_order_id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var results []model.MatchResult
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		var res model.MatchResult
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		results = append(results, res)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func (s *PostgresStore) CommitMatch(ctx context.Context, m model.CommittedMatch) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CommittedAt.IsZero() {
		m.CommittedAt = time.Now().UTC()
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO committed_matches
		 (id, run_id, sale_order_id, order_number, sale_price, currency, purchase_cost, confidence, committed_by, committed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (order_number) DO NOTHING`,
		m.ID, m.RunID, m.SaleOrderID, m.OrderNumber, m.SalePrice, m.Currency,
		m.PurchaseCost, string(m.Confidence), m.CommittedBy, m.CommittedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: commit match %s", m.OrderNumber)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("store: purchase %s already committed", m.OrderNumber)
	}
	return nil
}

func (s *PostgresStore) ListCommitted(ctx context.Context, runID string) ([]model.CommittedMatch, error) {
	query := `SELECT id, run_id, sale_order_id, order_number, sale_price, currency, purchase_cost, confidence, committed_by, committed_at
	          FROM committed_matches`
	var args []any
	if runID != "" {
		query += ` WHERE run_id = $1`
		args = append(args, runID)
	}
	query += ` ORDER BY committed_at, order_number`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list committed")
	}
	defer rows.Close()

	var matches []model.CommittedMatch
	for rows.Next() {
		var m model.CommittedMatch
		err := rows.Scan(&m.ID, &m.RunID, &m.SaleOrderID, &m.OrderNumber, &m.SalePrice,
			&m.Currency, &m.PurchaseCost, &m.Confidence, &m.CommittedBy, &m.CommittedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan committed match")
		}
		matches = append(matches, m)
	}
	return matches, eris.Wrap(rows.Err(), "postgres: list committed iterate")
}

func (s *PostgresStore) UsedPurchaseNumbers(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT order_number FROM committed_matches`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: used purchase numbers")
	}
	defer rows.Close()

	used := make(map[string]bool)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan order number")
		}
		used[n] = true
	}
	return used, eris.Wrap(rows.Err(), "postgres: used purchase numbers iterate")
}

func scanPgRun(row pgx.Row) (*model.MatchRun, error) {
	var r model.MatchRun
	var resultJSON []byte

	if err := row.Scan(&r.ID, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}
	if len(resultJSON) > 0 {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal run result")
		}
	}
	return &r, nil
}
