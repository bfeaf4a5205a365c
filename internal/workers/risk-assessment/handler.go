// internal/workers/risk-assessment/handler.go
package riskassessment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "risk-assessment/internal/common/errors"
	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/common/metrics"
	"risk-assessment/internal/common/observability"
	"risk-assessment/internal/common/validation"
	"risk-assessment/internal/pipeline"
	"risk-assessment/internal/retriever"
)

const (
	TaskType = "risk-assessment"
)

// RetrieverFactory builds the retriever for a job's source and path.
type RetrieverFactory func(source, path string) (retriever.Retriever, error)

type Handler struct {
	config       *Config
	pipeline     *pipeline.RiskAssessmentPipeline
	retrievers   RetrieverFactory
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, p *pipeline.RiskAssessmentPipeline, retrievers RetrieverFactory, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		pipeline:     p,
		retrievers:   retrievers,
		errorHandler: apperrors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := ParseInput(job.Variables)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// ParseInput validates job variables against InputSchema. Empty variables
// are treated as an empty object.
func ParseInput(variables string) (*Input, error) {
	if strings.TrimSpace(variables) == "" {
		variables = "{}"
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &doc); err != nil {
		return nil, apperrors.NewInvalidJobInputError(fmt.Sprintf("parse variables: %v", err))
	}

	result, err := validation.Validate(InputSchema, doc)
	if err != nil {
		return nil, apperrors.NewInvalidJobInputError(err.Error())
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidJobInputError(result.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidJobInputError(fmt.Sprintf("decode input: %v", err))
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	source := input.Source
	if source == "" {
		source = h.config.DefaultSource
	}
	path := input.DataPath
	if path == "" {
		path = h.config.DefaultPath
	}
	sampleRows := input.SampleRows
	if sampleRows == 0 {
		sampleRows = h.config.SampleRows
	}

	r, err := h.retrievers(source, path)
	if err != nil {
		return nil, apperrors.NewDataLoadFailedError(source, err)
	}

	res := h.pipeline.With(r, pipeline.WithSampleRows(sampleRows), pipeline.WithRequireData()).Run(ctx)

	switch {
	case res.RowsLoaded == 0:
		return nil, apperrors.NewDatasetEmptyError(r.Source())
	case !res.SchemaValid:
		return nil, apperrors.NewDataSchemaInvalidError("dataset has no financial_metric column")
	case res.Insights == "":
		if ctx.Err() != nil {
			return nil, apperrors.NewLLMTimeoutError()
		}
		return nil, apperrors.NewLLMGenerationFailedError(nil)
	}

	return &Output{
		RunID:      res.RunID,
		RowsLoaded: res.RowsLoaded,
		RowsKept:   res.RowsKept,
		Insights:   res.Insights,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	ctx := context.Background()
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(ctx, "completed")
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	ctx := context.Background()
	stdErr := apperrors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

// Execute method for direct usage
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
