// Package report publishes generated risk insights to downstream sinks.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"

	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/common/metrics"
)

// Report is the outcome of one pipeline run.
type Report struct {
	ID         string    `json:"id"`
	RunID      string    `json:"runId"`
	Source     string    `json:"source"`
	RowsLoaded int       `json:"rowsLoaded"`
	RowsKept   int       `json:"rowsKept"`
	Prompt     string    `json:"prompt"`
	Insights   string    `json:"insights"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"createdAt"`
}

func New(runID string) *Report {
	return &Report{
		ID:        uuid.New().String(),
		RunID:     runID,
		CreatedAt: time.Now().UTC(),
	}
}

// Sink receives finished reports.
type Sink interface {
	Name() string
	Publish(ctx context.Context, r *Report) error
}

// Publisher fans a report out to every sink. A failing sink is logged and
// does not stop the others.
type Publisher struct {
	sinks  []Sink
	logger logger.Logger
}

func NewPublisher(log logger.Logger, sinks ...Sink) *Publisher {
	return &Publisher{
		sinks:  sinks,
		logger: log.WithFields(map[string]interface{}{"component": "report-publisher"}),
	}
}

// Len is the number of configured sinks.
func (p *Publisher) Len() int {
	if p == nil {
		return 0
	}
	return len(p.sinks)
}

// Publish returns the number of sinks that accepted the report. Reports
// without insights are skipped.
func (p *Publisher) Publish(ctx context.Context, r *Report) int {
	if p == nil || r == nil || r.Insights == "" {
		return 0
	}

	delivered := 0
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, r); err != nil {
			metrics.ReportPublish.WithLabelValues(sink.Name(), "failed").Inc()
			p.logger.Error("report publish failed", map[string]interface{}{
				"sink":     sink.Name(),
				"reportId": r.ID,
				"error":    err.Error(),
			})
			continue
		}
		metrics.ReportPublish.WithLabelValues(sink.Name(), "ok").Inc()
		delivered++
	}

	p.logger.Info("report published", map[string]interface{}{
		"reportId":  r.ID,
		"delivered": delivered,
		"sinks":     len(p.sinks),
	})
	return delivered
}
