// Package errors provides the error taxonomy of the HAL client.
// Every failure surfaced by decoding, proxy accessors or the REST gateway is
// an *AppError carrying a machine-readable code, so callers can branch with
// the Is* helpers or with errors.Is against a code sentinel.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the response status for transport errors (0 when no
	// response was received).
	HTTPStatus int `json:"-"`
	// Body is the response body for transport errors.
	Body []byte `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code, so
// errors.Is(err, errors.Sentinel(code)) matches any error of that code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Sentinel returns a bare error of the given code for use with errors.Is.
func Sentinel(code ErrorCode) error {
	return &AppError{Code: code}
}

// --- Constructors ---

// MalformedEnvelope creates an error for a document that is not a valid HAL envelope.
func MalformedEnvelope(reason string) *AppError {
	return &AppError{
		Code: ErrCodeMalformedEnvelope, Message: fmt.Sprintf("Malformed HAL document: %s", reason),
	}
}

// UnresolvableContextType creates an error for a decode with no usable target type.
func UnresolvableContextType(reason string) *AppError {
	return &AppError{
		Code: ErrCodeUnresolvableContextType, Message: fmt.Sprintf("Cannot resolve target type: %s", reason),
	}
}

// TypeConversion creates an error for a value that does not fit the declared type.
func TypeConversion(name string, value any, target string) *AppError {
	return &AppError{
		Code: ErrCodeTypeConversion, Message: fmt.Sprintf("Cannot convert %q value %T to %s", name, value, target),
		Details: map[string]any{"name": name, "target": target},
	}
}

// UnknownRelation creates an error for a name with no content, embedded resource or link.
func UnknownRelation(name string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownRelation, Message: fmt.Sprintf("No content, embedded resource or link named %q", name),
		Details: map[string]any{"relation": name},
	}
}

// UnresolvedTemplateVariable creates an error for a template expanded without a variable.
func UnresolvedTemplateVariable(href, variable string) *AppError {
	return &AppError{
		Code: ErrCodeUnresolvedTemplateVariable, Message: fmt.Sprintf("Template %q is missing variable %q", href, variable),
		Details: map[string]any{"href": href, "variable": variable},
	}
}

// Transport creates an error for a failed HTTP exchange. A zero status means
// no response was received.
func Transport(method, uri string, status int, body []byte, cause error) *AppError {
	msg := fmt.Sprintf("%s %s failed", method, uri)
	if status > 0 {
		msg = fmt.Sprintf("%s %s returned HTTP %d", method, uri, status)
	}
	return &AppError{
		Code: ErrCodeTransport, Message: msg,
		HTTPStatus: status, Body: body,
		Retryable: status == 0 || status == http.StatusTooManyRequests || status >= http.StatusInternalServerError,
		Details:   map[string]any{"method": method, "uri": uri},
		Cause:     cause,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// --- Predicates ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsMalformedEnvelope checks for ErrCodeMalformedEnvelope.
func IsMalformedEnvelope(err error) bool { return HasCode(err, ErrCodeMalformedEnvelope) }

// IsUnresolvableContextType checks for ErrCodeUnresolvableContextType.
func IsUnresolvableContextType(err error) bool {
	return HasCode(err, ErrCodeUnresolvableContextType)
}

// IsTypeConversion checks for ErrCodeTypeConversion.
func IsTypeConversion(err error) bool { return HasCode(err, ErrCodeTypeConversion) }

// IsUnknownRelation checks for ErrCodeUnknownRelation.
func IsUnknownRelation(err error) bool { return HasCode(err, ErrCodeUnknownRelation) }

// IsTransport checks for ErrCodeTransport.
func IsTransport(err error) bool { return HasCode(err, ErrCodeTransport) }

// IsUnresolvedTemplateVariable checks for ErrCodeUnresolvedTemplateVariable.
func IsUnresolvedTemplateVariable(err error) bool {
	return HasCode(err, ErrCodeUnresolvedTemplateVariable)
}

// IsRetryable checks if an error is marked retryable.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}
