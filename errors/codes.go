package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Decoding errors
const (
	// ErrCodeMalformedEnvelope indicates a document that is not a HAL object
	// (or array of objects), or a link without an href.
	ErrCodeMalformedEnvelope ErrorCode = "MALFORMED_ENVELOPE"
	// ErrCodeUnresolvableContextType indicates no target type could be bound
	// for a decode. This is a wiring error and is never retried.
	ErrCodeUnresolvableContextType ErrorCode = "UNRESOLVABLE_CONTEXT_TYPE"
)

// Accessor errors
const (
	// ErrCodeTypeConversion indicates a content value that cannot be
	// converted to the accessor's declared type.
	ErrCodeTypeConversion ErrorCode = "TYPE_CONVERSION"
	// ErrCodeUnknownRelation indicates a name with no matching content,
	// embedded resource or link.
	ErrCodeUnknownRelation ErrorCode = "UNKNOWN_RELATION"
)

// Gateway errors
const (
	// ErrCodeTransport indicates a failed HTTP exchange (connection failure,
	// timeout or non-2xx status).
	ErrCodeTransport ErrorCode = "TRANSPORT_ERROR"
	// ErrCodeUnresolvedTemplateVariable indicates a templated href expanded
	// without one of its variables.
	ErrCodeUnresolvedTemplateVariable ErrorCode = "UNRESOLVED_TEMPLATE_VARIABLE"
)

// Configuration errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)
