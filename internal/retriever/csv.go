package retriever

import (
	"context"
	"fmt"

	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/dataset"
)

// CSVRetriever reads a CSV file from disk.
type CSVRetriever struct {
	path   string
	logger logger.Logger
}

func NewCSVRetriever(path string, log logger.Logger) *CSVRetriever {
	return &CSVRetriever{
		path:   path,
		logger: log.WithFields(map[string]interface{}{"retriever": "csv"}),
	}
}

func (r *CSVRetriever) Source() string {
	return r.path
}

// Load reads the file, returning an empty dataset if it is missing or invalid.
func (r *CSVRetriever) Load(ctx context.Context) *dataset.Dataset {
	return loadOrEmpty(ctx, r.logger, r.path, r.load)
}

func (r *CSVRetriever) load(ctx context.Context) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, err := dataset.LoadCSV(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return d, nil
}
