// Package errors provides standardized error handling for the BH-EA service.
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
	ErrCodeCSVParseFailed         ErrorCode = "CSV_PARSE_FAILED"
	ErrCodeMissingRequiredColumns ErrorCode = "MISSING_REQUIRED_COLUMNS"
	ErrCodeEmptyDataset           ErrorCode = "EMPTY_DATASET"
	ErrCodeUnsupportedFileType    ErrorCode = "UNSUPPORTED_FILE_TYPE"
	ErrCodeUploadTooLarge         ErrorCode = "UPLOAD_TOO_LARGE"
	ErrCodeUploadStoreFailed      ErrorCode = "UPLOAD_STORE_FAILED"

	ErrCodeERTProcessingFailed ErrorCode = "ERT_PROCESSING_FAILED"
	ErrCodeImageDecodeFailed   ErrorCode = "IMAGE_DECODE_FAILED"
	ErrCodeChartRenderFailed   ErrorCode = "CHART_RENDER_FAILED"

	ErrCodeInsightTimeout         ErrorCode = "INSIGHT_TIMEOUT"
	ErrCodeInsightCallFailed      ErrorCode = "INSIGHT_CALL_FAILED"
	ErrCodeInsightInvalidResponse ErrorCode = "INSIGHT_INVALID_RESPONSE"
	ErrCodeInsightNotConfigured   ErrorCode = "INSIGHT_NOT_CONFIGURED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeRegistryInsertFailed     ErrorCode = "REGISTRY_INSERT_FAILED"
	ErrCodeRegistryQueryFailed      ErrorCode = "REGISTRY_QUERY_FAILED"
	ErrCodeCacheFailed              ErrorCode = "CACHE_FAILED"

	ErrCodeDeployStepFailed ErrorCode = "DEPLOY_STEP_FAILED"
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
// 2. Error Constructors
// ==========================

// NewCSVParseFailedError creates a non-retryable CSV parse error.
func NewCSVParseFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCSVParseFailed,
		Message:   "Uploaded CSV could not be parsed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingRequiredColumnsError creates a non-retryable column error.
// The dashboard degrades to alerts for this case; it is an error only
// when a caller requires the columns to be present.
func NewMissingRequiredColumnsError(columns []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingRequiredColumns,
		Message:   "Required columns missing from dataset",
		Details:   fmt.Sprintf("missing: %s", strings.Join(columns, ", ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmptyDatasetError creates a non-retryable empty dataset error.
func NewEmptyDatasetError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyDataset,
		Message:   "Dataset contains no records",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedFileTypeError creates a non-retryable file type error.
func NewUnsupportedFileTypeError(filename string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedFileType,
		Message:   "Unsupported upload file type",
		Details:   fmt.Sprintf("filename: %s", filename),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadTooLargeError creates a non-retryable body size error.
func NewUploadTooLargeError(limit int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadTooLarge,
		Message:   "Upload exceeds maximum body size",
		Details:   fmt.Sprintf("limit: %d bytes", limit),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadStoreFailedError creates a retryable filesystem error.
func NewUploadStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadStoreFailed,
		Message:   "Failed to store uploaded file",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewERTProcessingFailedError creates a non-retryable ERT pipeline error.
func NewERTProcessingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeERTProcessingFailed,
		Message:   "ERT data processing failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewImageDecodeFailedError creates a non-retryable image decode error.
func NewImageDecodeFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeImageDecodeFailed,
		Message:   "Image could not be decoded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewChartRenderFailedError creates a non-retryable chart render error.
func NewChartRenderFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeChartRenderFailed,
		Message:   "Chart rendering failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInsightTimeoutError creates a retryable insight timeout error.
func NewInsightTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeInsightTimeout,
		Message:   "Insight generation timeout",
		Details:   "model call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInsightCallFailedError creates a retryable insight API error.
func NewInsightCallFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsightCallFailed,
		Message:   "Insight generation API error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInsightInvalidResponseError creates a non-retryable response shape error.
func NewInsightInvalidResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInsightInvalidResponse,
		Message:   "Insight response failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInsightNotConfiguredError creates a non-retryable configuration error.
func NewInsightNotConfiguredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeInsightNotConfigured,
		Message:   "Insight generation is not configured",
		Details:   "api key is not set",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryInsertFailedError creates a retryable registry insert error.
func NewRegistryInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryInsertFailed,
		Message:   "Upload registry insert failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryQueryFailedError creates a retryable registry query error.
func NewRegistryQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryQueryFailed,
		Message:   "Upload registry query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheFailedError creates a retryable cache error.
func NewCacheFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheFailed,
		Message:   "Cache operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeployStepFailedError creates a non-retryable deploy step error.
func NewDeployStepFailedError(step string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeployStepFailed,
		Message:   fmt.Sprintf("Deploy step '%s' failed", step),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeRegistryInsertFailed,
		ErrCodeRegistryQueryFailed,
		ErrCodeCacheFailed,
		ErrCodeInsightCallFailed,
		ErrCodeUploadStoreFailed:
		return 3 // Retryable technical errors

	case ErrCodeInsightTimeout:
		return 1

	default:
		return 0 // Validation and business errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CSV") || strings.Contains(codeStr, "DATASET") || strings.Contains(codeStr, "COLUMNS"):
		return "DATASET"
	case strings.Contains(codeStr, "UPLOAD") || strings.Contains(codeStr, "FILE"):
		return "UPLOAD"
	case strings.Contains(codeStr, "ERT") || strings.Contains(codeStr, "IMAGE") || strings.Contains(codeStr, "CHART"):
		return "RENDERING"
	case strings.Contains(codeStr, "INSIGHT"):
		return "AI"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "REGISTRY") || strings.Contains(codeStr, "CACHE"):
		return "STORAGE"
	case strings.Contains(codeStr, "DEPLOY"):
		return "DEPLOY"
	default:
		return "OTHER"
	}
}
