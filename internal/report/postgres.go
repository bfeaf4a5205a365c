package report

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	apperrors "risk-assessment/internal/common/errors"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresStore appends reports to a table.
type PostgresStore struct {
	db    *sql.DB
	table string
}

func NewPostgresStore(db *sql.DB, table string) (*PostgresStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid report table name %q", table)
	}
	return &PostgresStore{db: db, table: table}, nil
}

func (s *PostgresStore) Name() string { return "postgres" }

// EnsureTable creates the report table when it does not exist.
func (s *PostgresStore) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id UUID PRIMARY KEY,
	run_id UUID NOT NULL,
	source TEXT NOT NULL,
	rows_loaded INTEGER NOT NULL,
	rows_kept INTEGER NOT NULL,
	prompt TEXT NOT NULL,
	insights TEXT NOT NULL,
	model TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return apperrors.NewReportPersistFailedError(err)
	}
	return nil
}

func (s *PostgresStore) Publish(ctx context.Context, r *Report) error {
	query := fmt.Sprintf(`INSERT INTO %s
	(id, run_id, source, rows_loaded, rows_kept, prompt, insights, model, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, s.table)

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.RunID, r.Source, r.RowsLoaded, r.RowsKept, r.Prompt, r.Insights, r.Model, r.CreatedAt,
	)
	if err != nil {
		return apperrors.NewReportPersistFailedError(err)
	}
	return nil
}
