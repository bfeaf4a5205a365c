// Package errors provides standardized error codes for the risk assessment
// pipeline and their conversion to BPMN errors for the workflow engine.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDataLoadFailed    ErrorCode = "DATA_LOAD_FAILED"
	ErrCodeDataSchemaInvalid ErrorCode = "DATA_SCHEMA_INVALID"
	ErrCodeDatasetEmpty      ErrorCode = "DATASET_EMPTY"

	ErrCodeLLMTimeout          ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMGenerationFailed ErrorCode = "LLM_GENERATION_FAILED"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeReportPersistFailed    ErrorCode = "REPORT_PERSIST_FAILED"
	ErrCodeReportIndexFailed      ErrorCode = "REPORT_INDEX_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInvalidJobInput ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataLoadFailedError reports a source that could not be read.
func NewDataLoadFailedError(source string, err error) *StandardError {
	return newError(ErrCodeDataLoadFailed, "Failed to load dataset",
		fmt.Sprintf("source: %s, error: %s", source, err.Error()), true)
}

// NewDataSchemaInvalidError reports a dataset missing required columns.
func NewDataSchemaInvalidError(details string) *StandardError {
	return newError(ErrCodeDataSchemaInvalid, "Dataset does not match the expected schema", details, false)
}

// NewDatasetEmptyError reports that the source yielded no rows at all.
func NewDatasetEmptyError(source string) *StandardError {
	return newError(ErrCodeDatasetEmpty, "No rows loaded from source", fmt.Sprintf("source: %s", source), false)
}

func NewLLMTimeoutError() *StandardError {
	return newError(ErrCodeLLMTimeout, "LLM request timed out", "", true)
}

func NewLLMGenerationFailedError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeLLMGenerationFailed, "LLM generation failed", details, true)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Completion cache unavailable", err.Error(), true)
}

func NewReportPersistFailedError(err error) *StandardError {
	return newError(ErrCodeReportPersistFailed, "Failed to persist report", err.Error(), true)
}

func NewReportIndexFailedError(err error) *StandardError {
	return newError(ErrCodeReportIndexFailed, "Failed to index report", err.Error(), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification send failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

// NewInvalidJobInputError creates a non-retryable job input error.
func NewInvalidJobInputError(details string) *StandardError {
	return newError(ErrCodeInvalidJobInput, "Invalid job variables", details, false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeDataLoadFailed:         "DATA_LOAD_FAILED",
	ErrCodeDataSchemaInvalid:      "DATA_SCHEMA_INVALID",
	ErrCodeDatasetEmpty:           "DATASET_EMPTY",
	ErrCodeLLMTimeout:             "LLM_TIMEOUT",
	ErrCodeLLMGenerationFailed:    "LLM_GENERATION_FAILED",
	ErrCodeCacheUnavailable:       "CACHE_UNAVAILABLE",
	ErrCodeReportPersistFailed:    "REPORT_PERSIST_FAILED",
	ErrCodeReportIndexFailed:      "REPORT_INDEX_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeInvalidJobInput:        "INVALID_JOB_INPUT",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDataLoadFailed,
		ErrCodeLLMGenerationFailed,
		ErrCodeReportPersistFailed,
		ErrCodeReportIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeCacheUnavailable:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0 // schema and input errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "DATA"):
		return "DATA"
	case strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "REPORT"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
