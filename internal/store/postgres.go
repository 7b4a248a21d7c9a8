package store

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/openings-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
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
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	records     INTEGER NOT NULL,
	entities    INTEGER NOT NULL,
	scored      INTEGER NOT NULL,
	qualified   INTEGER NOT NULL,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	entity     JSONB NOT NULL,
	result     JSONB NOT NULL,
	rule_name  TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	eta_start  TIMESTAMPTZ NOT NULL,
	eta_end    TIMESTAMPTZ NOT NULL,
	crm_id     TEXT,
	pushed_at  TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads(run_id);
CREATE INDEX IF NOT EXISTS idx_leads_rule_name ON leads(rule_name);
CREATE INDEX IF NOT EXISTS idx_leads_confidence ON leads(confidence);
CREATE INDEX IF NOT EXISTS idx_leads_pushed_at ON leads(pushed_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, summary model.RunSummary) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, records, entities, scored, qualified, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		summary.ID, summary.Records, summary.Entities, summary.Scored, summary.Qualified,
		summary.StartedAt.UTC(), summary.FinishedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: insert run")
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.RunSummary, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, records, entities, scored, qualified, started_at, finished_at
		 FROM runs WHERE id = $1`, runID)

	var r model.RunSummary
	err := row.Scan(&r.ID, &r.Records, &r.Entities, &r.Scored, &r.Qualified, &r.StartedAt, &r.FinishedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, records, entities, scored, qualified, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		if err := rows.Scan(&r.ID, &r.Records, &r.Entities, &r.Scored, &r.Qualified, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) SaveLeads(ctx context.Context, leads []model.Lead) error {
	for _, lead := range leads {
		entityJSON, resultJSON, err := marshalLead(lead)
		if err != nil {
			return err
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO leads (id, run_id, entity, result, rule_name, confidence, eta_start, eta_end, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			lead.ID, lead.RunID, entityJSON, resultJSON,
			lead.Result.RuleName, lead.Result.Confidence,
			lead.Result.ETAStart.UTC(), lead.Result.ETAEnd.UTC(), lead.CreatedAt.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert lead %s", lead.ID)
		}
	}
	return nil
}

func (s *PostgresStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, run_id, entity, result, created_at FROM leads WHERE id = $1`, leadID)
	lead, err := scanLead(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", leadID)
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, run_id, entity, result, created_at FROM leads WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.RunID != "" {
		query += ` AND run_id = ` + arg(filter.RunID)
	}
	if filter.RuleName != "" {
		query += ` AND rule_name = ` + arg(filter.RuleName)
	}
	if filter.MinConfidence > 0 {
		query += ` AND confidence >= ` + arg(filter.MinConfidence)
	}
	if filter.Unpushed {
		query += ` AND pushed_at IS NULL`
	}
	query += ` ORDER BY confidence DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)

	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) MarkPushed(ctx context.Context, leadID, crmID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET crm_id = $1, pushed_at = $2 WHERE id = $3`,
		crmID, time.Now().UTC(), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark pushed %s", leadID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", leadID)
	}
	return nil
}

