package retriever

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/dataset"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// PostgresRetriever materialises a query result as a dataset. SQL NULL
// becomes an empty cell, which the cleaner treats as missing.
type PostgresRetriever struct {
	db      *sql.DB
	query   string
	timeout time.Duration
	logger  logger.Logger
}

// NewPostgresRetriever reads with query, or SELECT * FROM table when query is empty.
func NewPostgresRetriever(db *sql.DB, table, query string, timeout time.Duration, log logger.Logger) (*PostgresRetriever, error) {
	if query == "" {
		if !identifierPattern.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
		query = "SELECT * FROM " + table
	}
	return &PostgresRetriever{
		db:      db,
		query:   query,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"retriever": "postgres"}),
	}, nil
}

func (r *PostgresRetriever) Source() string {
	return r.query
}

func (r *PostgresRetriever) Load(ctx context.Context) *dataset.Dataset {
	return loadOrEmpty(ctx, r.logger, r.query, r.load)
}

func (r *PostgresRetriever) load(ctx context.Context) (*dataset.Dataset, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	rows, err := r.db.QueryContext(ctx, r.query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrLoadFailed, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns: %v", ErrLoadFailed, err)
	}

	var data [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrLoadFailed, err)
		}

		row := make([]string, len(columns))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrLoadFailed, err)
	}

	return dataset.New(columns, data), nil
}
