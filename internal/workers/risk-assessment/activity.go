// internal/workers/risk-assessment/activity.go
package riskassessment

import (
	"encoding/json"

	apperrors "risk-assessment/internal/common/errors"
	"risk-assessment/pkg/registry"
)

const OutputSchema = `{
	"type": "object",
	"properties": {
		"runId": {"type": "string"},
		"rowsLoaded": {"type": "integer"},
		"rowsKept": {"type": "integer"},
		"insights": {"type": "string"}
	},
	"required": ["runId", "rowsLoaded", "rowsKept", "insights"]
}`

// Activity describes the job worker for the activity registry.
func Activity(cfg *Config, retries int) registry.Activity {
	return registry.Activity{
		ID:                   TaskType,
		DisplayName:          "Risk Assessment",
		Description:          "Generates a narrative risk assessment from the positive financial metrics of a dataset",
		Category:             "ai",
		Version:              "1.0.0",
		TaskType:             TaskType,
		ImplementationStatus: "completed",
		InputSchema:          mustSchema(InputSchema),
		OutputSchema:         mustSchema(OutputSchema),
		ErrorCodes: []string{
			string(apperrors.ErrCodeInvalidJobInput),
			string(apperrors.ErrCodeDataLoadFailed),
			string(apperrors.ErrCodeDataSchemaInvalid),
			string(apperrors.ErrCodeDatasetEmpty),
			string(apperrors.ErrCodeLLMTimeout),
			string(apperrors.ErrCodeLLMGenerationFailed),
		},
		Metrics: []string{
			"risk_pipeline_runs_total",
			"risk_generation_requests_total",
			"worker_jobs_completed_total",
			"worker_jobs_failed_total",
			"worker_job_duration_seconds",
		},
		Timeout:   cfg.Timeout.String(),
		Retries:   retries,
		Workflows: []string{},
		Tags:      []string{"risk", "llm", "financial"},
	}
}

func mustSchema(schema string) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(schema), &m); err != nil {
		panic(err)
	}
	return m
}
