// Package pipeline runs the retrieve, clean and generate sequence.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/common/metrics"
	"risk-assessment/internal/common/observability"
	"risk-assessment/internal/common/validation"
	"risk-assessment/internal/dataset"
	"risk-assessment/internal/report"
	"risk-assessment/internal/retriever"
)

const DefaultSampleRows = 5

const (
	StatusSuccess    = "success"
	StatusNoInsights = "no_insights"
	StatusSkipped    = "skipped"
)

// Generator is the text generation step.
type Generator interface {
	GenerateText(ctx context.Context, data string) string
	Prompt(data string) string
	Model() string
}

// Result summarises one run. SchemaValid is false when a non-empty dataset
// lacks required columns.
type Result struct {
	RunID       string
	Status      string
	RowsLoaded  int
	RowsKept    int
	SchemaValid bool
	Prompt      string
	Insights    string
	Delivered   int
	Duration    time.Duration
}

type RiskAssessmentPipeline struct {
	retriever   retriever.Retriever
	generator   Generator
	publisher   *report.Publisher
	obs         *observability.Observability
	sampleRows  int
	requireData bool
	logger      logger.Logger
}

type Option func(*RiskAssessmentPipeline)

func WithPublisher(p *report.Publisher) Option {
	return func(rp *RiskAssessmentPipeline) { rp.publisher = p }
}

func WithObservability(o *observability.Observability) Option {
	return func(rp *RiskAssessmentPipeline) { rp.obs = o }
}

// WithSampleRows sets how many cleaned rows are embedded in the prompt.
func WithSampleRows(n int) Option {
	return func(rp *RiskAssessmentPipeline) {
		if n > 0 {
			rp.sampleRows = n
		}
	}
}

// WithRequireData stops a run before generation when nothing was loaded or
// the dataset lacks required columns. Such runs end with StatusSkipped and
// publish nothing.
func WithRequireData() Option {
	return func(rp *RiskAssessmentPipeline) { rp.requireData = true }
}

func New(r retriever.Retriever, g Generator, log logger.Logger, opts ...Option) *RiskAssessmentPipeline {
	p := &RiskAssessmentPipeline{
		retriever:  r,
		generator:  g,
		sampleRows: DefaultSampleRows,
		logger:     log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// With returns a copy of the pipeline reading from r, with opts applied.
func (p *RiskAssessmentPipeline) With(r retriever.Retriever, opts ...Option) *RiskAssessmentPipeline {
	cp := *p
	if r != nil {
		cp.retriever = r
	}
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Run executes the pipeline once. Step failures never abort the run: a
// failed load yields an empty dataset and a failed generation an empty
// insight.
func (p *RiskAssessmentPipeline) Run(ctx context.Context) *Result {
	start := time.Now()
	res := &Result{RunID: uuid.New().String()}
	log := p.logger.WithFields(map[string]interface{}{"runId": res.RunID})

	log.Info("Loading data...", map[string]interface{}{"source": p.retriever.Source()})
	var data *dataset.Dataset
	p.step(ctx, "load", func() { data = p.retriever.Load(ctx) })
	res.RowsLoaded = data.Len()
	metrics.PipelineRows.WithLabelValues("loaded").Add(float64(res.RowsLoaded))

	log.Info("Cleaning data...", nil)
	res.SchemaValid = p.checkColumns(log, data)
	var cleaned *dataset.Dataset
	p.step(ctx, "clean", func() { cleaned = dataset.Clean(data) })
	res.RowsKept = cleaned.Len()
	metrics.PipelineRows.WithLabelValues("kept").Add(float64(res.RowsKept))
	if cleaned.IsEmpty() {
		log.Warn("no rows left after cleaning", map[string]interface{}{"rowsLoaded": res.RowsLoaded})
	}

	if p.requireData && (res.RowsLoaded == 0 || !res.SchemaValid) {
		log.Warn("skipping generation", map[string]interface{}{
			"rowsLoaded":  res.RowsLoaded,
			"schemaValid": res.SchemaValid,
		})
		res.Status = StatusSkipped
		return p.finish(log, res, start)
	}

	log.Info("Generating insights...", map[string]interface{}{"rowsKept": res.RowsKept})
	preview := cleaned.Head(p.sampleRows).String()
	res.Prompt = p.generator.Prompt(preview)
	p.step(ctx, "generate", func() { res.Insights = p.generator.GenerateText(ctx, preview) })

	log.Info("Generated Insights", map[string]interface{}{"insights": res.Insights})

	res.Status = StatusSuccess
	if res.Insights == "" {
		res.Status = StatusNoInsights
	}

	if p.publisher.Len() > 0 && res.Insights != "" {
		p.step(ctx, "publish", func() { res.Delivered = p.publisher.Publish(ctx, p.report(res)) })
	}

	return p.finish(log, res, start)
}

func (p *RiskAssessmentPipeline) finish(log logger.Logger, res *Result, start time.Time) *Result {
	res.Duration = time.Since(start)
	metrics.PipelineRuns.WithLabelValues(res.Status).Inc()
	log.Debug("run finished", map[string]interface{}{
		"status":     res.Status,
		"durationMs": res.Duration.Milliseconds(),
	})
	return res
}

func (p *RiskAssessmentPipeline) step(ctx context.Context, name string, fn func()) {
	start := time.Now()
	fn()
	p.obs.RecordStep(ctx, name, time.Since(start))
}

func (p *RiskAssessmentPipeline) checkColumns(log logger.Logger, data *dataset.Dataset) bool {
	if data.IsEmpty() {
		return true
	}
	result, err := validation.ValidateColumns(data.Columns, dataset.MetricColumn)
	if err != nil {
		log.Warn("column validation failed", map[string]interface{}{"error": err.Error()})
		return true
	}
	if !result.Valid {
		log.Warn("dataset is missing required columns", map[string]interface{}{
			"columns": data.Columns,
			"errors":  result.Error(),
		})
	}
	return result.Valid
}

func (p *RiskAssessmentPipeline) report(res *Result) *report.Report {
	r := report.New(res.RunID)
	r.Source = p.retriever.Source()
	r.RowsLoaded = res.RowsLoaded
	r.RowsKept = res.RowsKept
	r.Prompt = res.Prompt
	r.Insights = res.Insights
	r.Model = p.generator.Model()
	return r
}
