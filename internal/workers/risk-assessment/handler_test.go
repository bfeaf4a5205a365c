// internal/workers/risk-assessment/handler_test.go
package riskassessment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"risk-assessment/internal/common/config"
	apperrors "risk-assessment/internal/common/errors"
	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/pipeline"
	"risk-assessment/internal/report"
	"risk-assessment/internal/retriever"
)

// ==========================
// Test Helper Functions
// ==========================

type stubGenerator struct {
	text string
	data []string
}

func (s *stubGenerator) GenerateText(ctx context.Context, data string) string {
	s.data = append(s.data, data)
	return s.text
}

func (s *stubGenerator) Prompt(data string) string { return data }

func (s *stubGenerator) Model() string { return "stub" }

type recordingSink struct {
	reports []*report.Report
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Publish(ctx context.Context, rep *report.Report) error {
	r.reports = append(r.reports, rep)
	return nil
}

func createTestConfig(path string) *Config {
	return &Config{
		Timeout:       5 * time.Second,
		DefaultSource: config.SourceCSV,
		DefaultPath:   path,
		SampleRows:    5,
	}
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func csvFactory(log logger.Logger) RetrieverFactory {
	return func(source, path string) (retriever.Retriever, error) {
		if source != config.SourceCSV {
			return nil, errors.New("postgres source is not configured")
		}
		return retriever.NewCSVRetriever(path, log), nil
	}
}

func createTestHandler(t *testing.T, gen *stubGenerator, defaultPath string) *Handler {
	log := logger.NewTestLogger(t)
	p := pipeline.New(retriever.NewCSVRetriever(defaultPath, log), gen, log)
	return NewHandler(createTestConfig(defaultPath), p, csvFactory(log), nil, log)
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Input Tests
// ==========================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		want      *Input
		wantErr   bool
	}{
		{name: "empty variables", variables: "", want: &Input{}},
		{name: "empty object", variables: "{}", want: &Input{}},
		{
			name:      "all fields",
			variables: `{"dataPath":"q4.csv","source":"csv","sampleRows":10}`,
			want:      &Input{DataPath: "q4.csv", Source: "csv", SampleRows: 10},
		},
		{name: "unrelated process variables are ignored", variables: `{"customerId":"c-1"}`, want: &Input{}},
		{name: "unknown source", variables: `{"source":"s3"}`, wantErr: true},
		{name: "sample rows below one", variables: `{"sampleRows":0}`, wantErr: true},
		{name: "sample rows not an integer", variables: `{"sampleRows":"five"}`, wantErr: true},
		{name: "empty data path", variables: `{"dataPath":""}`, wantErr: true},
		{name: "malformed json", variables: `{"dataPath":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInput(tt.variables)
			if tt.wantErr {
				requireCode(t, err, apperrors.ErrCodeInvalidJobInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	path := writeCSV(t, "data.csv", "company,financial_metric\nAcme,10\nGlobex,-1\nInitech,4\n")
	gen := &stubGenerator{text: "Moderate risk."}
	h := createTestHandler(t, gen, path)

	out, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, 3, out.RowsLoaded)
	assert.Equal(t, 2, out.RowsKept)
	assert.Equal(t, "Moderate risk.", out.Insights)
}

func TestHandler_Execute_InputOverrides(t *testing.T) {
	defaultPath := writeCSV(t, "default.csv", "company,financial_metric\nAcme,10\n")
	jobPath := writeCSV(t, "job.csv", "company,financial_metric\na,1\nb,2\nc,3\n")
	gen := &stubGenerator{text: "ok"}
	h := createTestHandler(t, gen, defaultPath)

	out, err := h.Execute(context.Background(), &Input{DataPath: jobPath, SampleRows: 1})

	require.NoError(t, err)
	assert.Equal(t, 3, out.RowsKept)
	require.Len(t, gen.data, 1)
	assert.NotContains(t, gen.data[0], "b")
}

func TestHandler_Execute_Failures(t *testing.T) {
	t.Run("no insights", func(t *testing.T) {
		path := writeCSV(t, "data.csv", "company,financial_metric\nAcme,10\n")
		h := createTestHandler(t, &stubGenerator{}, path)

		_, err := h.Execute(context.Background(), &Input{})
		requireCode(t, err, apperrors.ErrCodeLLMGenerationFailed)
	})

	t.Run("missing file", func(t *testing.T) {
		h := createTestHandler(t, &stubGenerator{text: "ok"}, filepath.Join(t.TempDir(), "missing.csv"))

		_, err := h.Execute(context.Background(), &Input{})
		requireCode(t, err, apperrors.ErrCodeDatasetEmpty)
	})

	t.Run("missing metric column", func(t *testing.T) {
		path := writeCSV(t, "data.csv", "company,revenue\nAcme,10\n")
		h := createTestHandler(t, &stubGenerator{text: "ok"}, path)

		_, err := h.Execute(context.Background(), &Input{})
		requireCode(t, err, apperrors.ErrCodeDataSchemaInvalid)
	})

	t.Run("unavailable source", func(t *testing.T) {
		h := createTestHandler(t, &stubGenerator{text: "ok"}, "unused.csv")

		_, err := h.Execute(context.Background(), &Input{Source: config.SourcePostgres})
		requireCode(t, err, apperrors.ErrCodeDataLoadFailed)
	})
}

func TestHandler_Execute_FailedInputSkipsGenerationAndPublishing(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code apperrors.ErrorCode
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
			code: apperrors.ErrCodeDatasetEmpty,
		},
		{
			name: "missing metric column",
			path: func(t *testing.T) string { return writeCSV(t, "data.csv", "company,revenue\nAcme,10\n") },
			code: apperrors.ErrCodeDataSchemaInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.NewTestLogger(t)
			gen := &stubGenerator{text: "should not be generated"}
			sink := &recordingSink{}
			path := tt.path(t)

			p := pipeline.New(retriever.NewCSVRetriever(path, log), gen, log,
				pipeline.WithPublisher(report.NewPublisher(log, sink)))
			h := NewHandler(createTestConfig(path), p, csvFactory(log), nil, log)

			_, err := h.Execute(context.Background(), &Input{})

			requireCode(t, err, tt.code)
			assert.Empty(t, gen.data)
			assert.Empty(t, sink.reports)
		})
	}
}

func TestHandler_Execute_AllRowsCleanedAway(t *testing.T) {
	path := writeCSV(t, "data.csv", "company,financial_metric\nAcme,-1\nGlobex,0\n")
	gen := &stubGenerator{text: "Nothing to assess."}
	h := createTestHandler(t, gen, path)

	out, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 2, out.RowsLoaded)
	assert.Equal(t, 0, out.RowsKept)
	assert.Len(t, gen.data, 1)
}

func TestLoadConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Data.Source = config.SourceCSV
	cfg.Data.Path = "data/processed/processed_data.csv"
	cfg.Generator.SampleRows = 5
	cfg.Camunda.Timeout = 120000
	cfg.Workers = map[string]config.WorkerConfig{TaskType: {Enabled: true, Timeout: 30000}}

	c := LoadConfig(cfg)

	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, "data/processed/processed_data.csv", c.DefaultPath)
	assert.Equal(t, 5, c.SampleRows)
}

func TestActivity(t *testing.T) {
	a := Activity(createTestConfig("data.csv"), 3)

	assert.Equal(t, TaskType, a.TaskType)
	assert.Equal(t, "5s", a.Timeout)
	assert.Equal(t, 3, a.Retries)
	assert.Contains(t, a.ErrorCodes, string(apperrors.ErrCodeDatasetEmpty))
	assert.Contains(t, a.InputSchema["properties"], "sampleRows")
	assert.Equal(t, "object", a.OutputSchema["type"])
}
