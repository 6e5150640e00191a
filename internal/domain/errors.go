package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FallbackMessage is shown to end users whenever an interpretation fails and no
// more specific user-facing message is available.
const FallbackMessage = "分析失败，请检查网络或输入内容的准确性。"

// ServiceError represents a standardized error response
type ServiceError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
	cause     error
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying failure for errors.Is/As.
func (e *ServiceError) Unwrap() error {
	return e.cause
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput       = "INVALID_INPUT"
	ErrValidation         = "VALIDATION_ERROR"
	ErrModelTransport     = "MODEL_TRANSPORT_ERROR"
	ErrModelParse         = "MODEL_PARSE_ERROR"
	ErrModelSchema        = "MODEL_SCHEMA_ERROR"
	ErrSubmissionConflict = "SUBMISSION_IN_FLIGHT"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
)

var (
	// ErrEmptyInput marks a submission whose findings are blank. It is never shown
	// to users; callers ignore the submission.
	ErrEmptyInput = errors.New("findings are empty")
	// ErrSubmissionInFlight is returned while another submission has not settled.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// TransportError is a failed model call: network, quota or provider failure.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s model call failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError means the model reply was not syntactically valid JSON.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model reply is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError lists required fields absent from an otherwise valid reply.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "model reply is missing required fields: " + strings.Join(e.Missing, ", ")
}

// NewServiceError creates a new ServiceError with timestamp
func NewServiceError(code, message, details, requestID string) *ServiceError {
	return &ServiceError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// WrapServiceError builds a ServiceError that keeps cause reachable via errors.As.
func WrapServiceError(code, message, requestID string, cause error) *ServiceError {
	e := NewServiceError(code, message, "", requestID)
	e.cause = cause
	return e
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// UserMessage returns the message to display for err. Low-level diagnostics are
// never exposed; failures without a usable message get FallbackMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && strings.TrimSpace(svcErr.Message) != "" {
		return svcErr.Message
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	return FallbackMessage
}
