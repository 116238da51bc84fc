package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldRelation  = "relation"
	FieldHref      = "href"
	FieldMethod    = "method"
	FieldStatus    = "status"
	FieldType      = "type"
	FieldAttempt   = "attempt"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Debug("fetched", logger.Fields(logger.FieldHref, "/people/1"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for a failed HTTP exchange.
func ErrorFields(method, href string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldMethod: method,
		FieldHref:   href,
		FieldError:  err.Error(),
	}
}

// DurationFields creates fields for a completed HTTP exchange.
func DurationFields(method, href string, status int, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldMethod:   method,
		FieldHref:     href,
		FieldStatus:   status,
		FieldDuration: d.Milliseconds(),
	}
}
