// Package retriever loads the dataset the pipeline works on.
package retriever

import (
	"context"
	"errors"

	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/dataset"
)

var ErrLoadFailed = errors.New("DATA_LOAD_FAILED")

// Retriever loads tabular data. Load never fails: errors are logged and an
// empty dataset is returned so the pipeline can carry on.
type Retriever interface {
	Load(ctx context.Context) *dataset.Dataset
	Source() string
}

// loadFunc is the error-returning half of a retriever.
type loadFunc func(ctx context.Context) (*dataset.Dataset, error)

func loadOrEmpty(ctx context.Context, log logger.Logger, source string, load loadFunc) *dataset.Dataset {
	d, err := load(ctx)
	if err != nil {
		log.Error("Error loading data", map[string]interface{}{
			"source": source,
			"error":  err.Error(),
		})
		return dataset.Empty()
	}

	log.Debug("data loaded", map[string]interface{}{
		"source":  source,
		"rows":    d.Len(),
		"columns": d.Columns,
	})
	return d
}
