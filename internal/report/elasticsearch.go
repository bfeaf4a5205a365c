package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "risk-assessment/internal/common/errors"
)

// ElasticsearchIndexer stores each report as a document keyed by report ID.
type ElasticsearchIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchIndexer(client *elasticsearch.Client, index string) *ElasticsearchIndexer {
	return &ElasticsearchIndexer{client: client, index: index}
}

func (e *ElasticsearchIndexer) Name() string { return "elasticsearch" }

func (e *ElasticsearchIndexer) Publish(ctx context.Context, r *Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return apperrors.NewReportIndexFailedError(fmt.Errorf("encode report: %w", err))
	}

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(body),
		e.client.Index.WithContext(ctx),
		e.client.Index.WithDocumentID(r.ID),
	)
	if err != nil {
		return apperrors.NewReportIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewReportIndexFailedError(fmt.Errorf("index %s: %s", e.index, res.Status()))
	}
	return nil
}
