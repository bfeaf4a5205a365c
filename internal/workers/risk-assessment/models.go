// internal/workers/risk-assessment/models.go
package riskassessment

type Input struct {
	DataPath   string `json:"dataPath,omitempty"`
	Source     string `json:"source,omitempty"`
	SampleRows int    `json:"sampleRows,omitempty"`
}

type Output struct {
	RunID      string `json:"runId"`
	RowsLoaded int    `json:"rowsLoaded"`
	RowsKept   int    `json:"rowsKept"`
	Insights   string `json:"insights"`
}
