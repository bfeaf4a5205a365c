package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "risk-assessment/internal/common/errors"
	"risk-assessment/internal/common/logger"
	"risk-assessment/internal/common/metrics"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type stubSink struct {
	name  string
	err   error
	calls int
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Publish(ctx context.Context, r *Report) error {
	s.calls++
	return s.err
}

// ==========================
// Test Helper Functions
// ==========================

func createTestReport() *Report {
	r := New("6f1c1b52-6a4f-4a53-9a5e-0d3f3f1a2b11")
	r.Source = "data/processed/processed_data.csv"
	r.RowsLoaded = 7
	r.RowsKept = 2
	r.Prompt = "Analyze the following financial data: ..."
	r.Insights = "Exposure is concentrated in two counterparties."
	r.Model = "gpt-4o-mini"
	r.CreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return r
}

func newTestElasticsearch(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)
	return client
}

// ==========================
// Publisher Tests
// ==========================

func TestPublisher_FanOut(t *testing.T) {
	ok := &stubSink{name: "ok-sink"}
	bad := &stubSink{name: "bad-sink", err: errors.New("down")}
	p := NewPublisher(logger.NewTestLogger(t), bad, ok)

	before := testutil.ToFloat64(metrics.ReportPublish.WithLabelValues("bad-sink", "failed"))

	delivered := p.Publish(context.Background(), createTestReport())

	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ReportPublish.WithLabelValues("bad-sink", "failed")))
}

func TestPublisher_SkipsEmptyInsights(t *testing.T) {
	sink := &stubSink{name: "sink"}
	p := NewPublisher(logger.NewTestLogger(t), sink)

	r := createTestReport()
	r.Insights = ""

	assert.Equal(t, 0, p.Publish(context.Background(), r))
	assert.Equal(t, 0, sink.calls)
}

func TestPublisher_Nil(t *testing.T) {
	var p *Publisher
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 0, p.Publish(context.Background(), createTestReport()))
}

// ==========================
// Postgres Tests
// ==========================

func TestPostgresStore_Publish(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := createTestReport()
	mock.ExpectExec(`INSERT INTO risk_reports`).
		WithArgs(r.ID, r.RunID, r.Source, r.RowsLoaded, r.RowsKept, r.Prompt, r.Insights, r.Model, r.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store, err := NewPostgresStore(db, "risk_reports")
	require.NoError(t, err)

	assert.NoError(t, store.Publish(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PublishError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO risk_reports`).WillReturnError(errors.New("relation does not exist"))

	store, err := NewPostgresStore(db, "risk_reports")
	require.NoError(t, err)

	err = store.Publish(context.Background(), createTestReport())

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeReportPersistFailed, stdErr.Code)
}

func TestPostgresStore_EnsureTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS risk_reports`).WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewPostgresStore(db, "risk_reports")
	require.NoError(t, err)

	assert.NoError(t, store.EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresStore_RejectsBadTable(t *testing.T) {
	_, err := NewPostgresStore(nil, "reports; --")
	assert.Error(t, err)
}

// ==========================
// Elasticsearch Tests
// ==========================

func TestElasticsearchIndexer_Publish(t *testing.T) {
	r := createTestReport()
	var path string
	var doc map[string]interface{}

	client := newTestElasticsearch(t, func(w http.ResponseWriter, req *http.Request) {
		path = req.URL.Path
		assert.NoError(t, json.NewDecoder(req.Body).Decode(&doc))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	err := NewElasticsearchIndexer(client, "risk-reports").Publish(context.Background(), r)

	require.NoError(t, err)
	assert.Equal(t, "/risk-reports/_doc/"+r.ID, path)
	assert.Equal(t, r.Insights, doc["insights"])
	assert.Equal(t, float64(2), doc["rowsKept"])
}

func TestElasticsearchIndexer_ErrorResponse(t *testing.T) {
	client := newTestElasticsearch(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := NewElasticsearchIndexer(client, "risk-reports").Publish(context.Background(), createTestReport())

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeReportIndexFailed, stdErr.Code)
}

// ==========================
// Notification Tests
// ==========================

func TestSNSNotifier_Publish(t *testing.T) {
	var input *sns.PublishInput
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			input = params
			return &sns.PublishOutput{}, nil
		},
	}

	r := createTestReport()
	err := NewSNSNotifier(mockSNS, "arn:aws:sns:us-east-1:123456789012:risk").Publish(context.Background(), r)

	require.NoError(t, err)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:risk", *input.TopicArn)
	assert.Equal(t, "Risk assessment "+r.RunID, *input.Subject)
	assert.True(t, strings.HasSuffix(*input.Message, r.Insights))
	assert.Contains(t, *input.Message, "Rows kept: 2 of 7")
}

func TestSNSNotifier_Error(t *testing.T) {
	mockSNS := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	err := NewSNSNotifier(mockSNS, "arn").Publish(context.Background(), createTestReport())

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeNotificationSendFailed, stdErr.Code)
}

func TestEmailNotifier_Publish(t *testing.T) {
	var input *ses.SendEmailInput
	mockSES := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			input = params
			return &ses.SendEmailOutput{}, nil
		},
	}

	to := []string{"risk@example.com", "cfo@example.com"}
	err := NewEmailNotifier(mockSES, "noreply@example.com", to).Publish(context.Background(), createTestReport())

	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", *input.Source)
	assert.Equal(t, to, input.Destination.ToAddresses)
	assert.Contains(t, *input.Message.Body.Text.Data, "Exposure is concentrated")
}

func TestSubject_Truncated(t *testing.T) {
	r := createTestReport()
	r.RunID = strings.Repeat("x", 200)
	assert.Len(t, subject(r), maxSubjectLen)
}
