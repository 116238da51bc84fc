package validation

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kbukum/halclient/errors"
)

// Validator collects field errors.
type Validator struct {
	errors []FieldError
}

// FieldError is a validation failure of one configuration key.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{errors: make([]FieldError, 0)}
}

// AddError records a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all recorded field errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Err returns an INVALID_INPUT AppError listing every field error, or nil.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return errors.Validation(strings.Join(messages, "; ")).
		WithDetail("fields", v.errors)
}

// Check records message for field unless cond holds.
func (v *Validator) Check(cond bool, field, message string) *Validator {
	if !cond {
		v.AddError(field, message)
	}
	return v
}

// Required checks that a string is not blank.
func (v *Validator) Required(field, value string) *Validator {
	return v.Check(strings.TrimSpace(value) != "", field, "is required")
}

// OneOf checks that a non-empty value is one of allowed.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if value == "" {
		return v
	}
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	return v
}

// AbsoluteURL checks that a non-empty value is an absolute http(s) URL.
func (v *Validator) AbsoluteURL(field, value string) *Validator {
	if value == "" {
		return v
	}
	u, err := url.Parse(value)
	ok := err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	return v.Check(ok, field, "must be an absolute http(s) URL")
}

// Positive checks that a duration is greater than zero.
func (v *Validator) Positive(field string, d time.Duration) *Validator {
	return v.Check(d > 0, field, "must be positive")
}

// NotAfter checks that a duration does not exceed limit when both are set.
func (v *Validator) NotAfter(field string, d, limit time.Duration) *Validator {
	if d == 0 || limit == 0 {
		return v
	}
	return v.Check(d <= limit, field, fmt.Sprintf("must not exceed %s", limit))
}
