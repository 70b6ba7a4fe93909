// Package errors defines the application error taxonomy and the machinery
// around it: retries for transient failures, a circuit breaker for flaky
// collaborators, and a handler that routes errors to logs and Sentry.
package errors

import "fmt"

// Severity ranks how urgently an error needs operator attention. The handler
// uses it to decide what reaches Sentry.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Application error codes, one per failure origin.
const (
	CodeValidation  = "E100"
	CodeDatabase    = "E200"
	CodeExternalAPI = "E300"
	CodeState       = "E400"
)

// classes fixes the default severity and retry policy per code. Retry applies
// to transient infrastructure failures only; bad input and refused lifecycle
// actions fail the same way every time.
var classes = map[string]struct {
	severity  Severity
	retryable bool
}{
	CodeValidation:  {SeverityLow, false},
	CodeDatabase:    {SeverityHigh, true},
	CodeExternalAPI: {SeverityMedium, true},
	CodeState:       {SeverityMedium, false},
}

// AppError is the error type the application raises. Code selects the class,
// Message is for logs, UserMessage is safe to show to a participant.
type AppError struct {
	Code        string
	Message     string
	UserMessage string
	Severity    Severity
	Retryable   bool
	cause       error
}

func newAppError(code, message, userMessage string, cause error) *AppError {
	class := classes[code]

	return &AppError{
		Code:        code,
		Message:     message,
		UserMessage: userMessage,
		Severity:    class.severity,
		Retryable:   class.retryable,
		cause:       cause,
	}
}

// NewValidationError reports malformed or missing input.
func NewValidationError(msg string) *AppError {
	return newAppError(CodeValidation, msg, "Invalid input. "+msg, nil)
}

// NewDatabaseError wraps a storage failure.
func NewDatabaseError(cause error) *AppError {
	msg := "Database error"
	if cause != nil {
		msg = fmt.Sprintf("Database error: %s", cause.Error())
	}

	return newAppError(CodeDatabase, msg, "Temporary problem, please try again later", cause)
}

// NewExternalAPIError wraps a failure talking to the named collaborator.
func NewExternalAPIError(apiName string, cause error) *AppError {
	msg := fmt.Sprintf("External API error: %s", apiName)

	return newAppError(CodeExternalAPI, msg, "Service is temporarily unavailable", cause)
}

// NewStateError reports a lifecycle action the participant's current state
// does not allow.
func NewStateError(msg string) *AppError {
	return newAppError(CodeState, msg, "The operation is not possible in the current state", nil)
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// Cause is an alias for Unwrap for call sites that prefer the name.
func (e *AppError) Cause() error {
	return e.Unwrap()
}

// WithSeverity returns a copy of the error escalated (or demoted) to the
// given severity.
func (e *AppError) WithSeverity(severity Severity) *AppError {
	if e == nil {
		return nil
	}

	clone := *e
	clone.Severity = severity

	return &clone
}
