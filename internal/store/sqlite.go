package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/openings-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	records     INTEGER NOT NULL,
	entities    INTEGER NOT NULL,
	scored      INTEGER NOT NULL,
	qualified   INTEGER NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	entity     TEXT NOT NULL,
	result     TEXT NOT NULL,
	rule_name  TEXT NOT NULL,
	confidence REAL NOT NULL,
	eta_start  DATETIME NOT NULL,
	eta_end    DATETIME NOT NULL,
	crm_id     TEXT,
	pushed_at  DATETIME,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_run_id ON leads(run_id);
CREATE INDEX IF NOT EXISTS idx_leads_rule_name ON leads(rule_name);
CREATE INDEX IF NOT EXISTS idx_leads_confidence ON leads(confidence);
CREATE INDEX IF NOT EXISTS idx_leads_pushed_at ON leads(pushed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, summary model.RunSummary) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, records, entities, scored, qualified, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.ID, summary.Records, summary.Entities, summary.Scored, summary.Qualified,
		summary.StartedAt.UTC(), summary.FinishedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: insert run")
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.RunSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, records, entities, scored, qualified, started_at, finished_at
		 FROM runs WHERE id = ?`, runID)

	var r model.RunSummary
	err := row.Scan(&r.ID, &r.Records, &r.Entities, &r.Scored, &r.Qualified, &r.StartedAt, &r.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, records, entities, scored, qualified, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		if err := rows.Scan(&r.ID, &r.Records, &r.Entities, &r.Scored, &r.Qualified, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) SaveLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (id, run_id, entity, result, rule_name, confidence, eta_start, eta_end, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert lead")
	}
	defer stmt.Close()

	for _, lead := range leads {
		entityJSON, resultJSON, err := marshalLead(lead)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			lead.ID, lead.RunID, entityJSON, resultJSON,
			lead.Result.RuleName, lead.Result.Confidence,
			lead.Result.ETAStart.UTC(), lead.Result.ETAEnd.UTC(), lead.CreatedAt.UTC(),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert lead %s", lead.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit leads")
}

func (s *SQLiteStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, entity, result, created_at FROM leads WHERE id = ?`, leadID)
	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", leadID)
	}
	return lead, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, run_id, entity, result, created_at FROM leads WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.RuleName != "" {
		query += ` AND rule_name = ?`
		args = append(args, filter.RuleName)
	}
	if filter.MinConfidence > 0 {
		query += ` AND confidence >= ?`
		args = append(args, filter.MinConfidence)
	}
	if filter.Unpushed {
		query += ` AND pushed_at IS NULL`
	}
	query += ` ORDER BY confidence DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) MarkPushed(ctx context.Context, leadID, crmID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET crm_id = ?, pushed_at = ? WHERE id = ?`,
		crmID, time.Now().UTC(), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark pushed %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func marshalLead(lead model.Lead) (string, string, error) {
	entityJSON, err := json.Marshal(lead.Entity)
	if err != nil {
		return "", "", eris.Wrapf(err, "store: marshal entity for lead %s", lead.ID)
	}
	resultJSON, err := json.Marshal(lead.Result)
	if err != nil {
		return "", "", eris.Wrapf(err, "store: marshal result for lead %s", lead.ID)
	}
	return string(entityJSON), string(resultJSON), nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLead(row scannable) (*model.Lead, error) {
	var lead model.Lead
	var entityJSON, resultJSON string

	err := row.Scan(&lead.ID, &lead.RunID, &entityJSON, &resultJSON, &lead.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(entityJSON), &lead.Entity); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal lead entity")
	}
	if err := json.Unmarshal([]byte(resultJSON), &lead.Result); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal lead result")
	}
	return &lead, nil
}
