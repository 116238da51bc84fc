package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/halclient/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the shared validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(keyName)
	})
	return validate
}

// squashed names an embedded struct whose fields sit at its parent's level.
const squashed = "<squashed>"

// keyName reports a field by its configuration key: the mapstructure tag,
// then the yaml tag, then the snake_cased Go name. "-" skips the field.
func keyName(fld reflect.StructField) string {
	for _, tag := range []string{"mapstructure", "yaml"} {
		name, opts, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return "-"
		}
		if name != "" {
			return name
		}
		if opts == "squash" || opts == "inline" {
			return squashed
		}
	}
	return toSnakeCase(fld.Name)
}

// Validate validates a struct using its `validate` tags.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation("validation failed").WithCause(err)
	}

	v := New()
	for _, e := range validationErrors {
		v.AddError(fieldPath(e.Namespace()), formatValidationError(e))
	}
	return v.Err()
}

// fieldPath drops the root struct name and squashed structs from a
// namespace.
func fieldPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	out := parts[:0]
	for _, p := range parts {
		if p != squashed {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if", "required_with":
		return "is required"
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "min", "gte":
		return "must be at least " + e.Param()
	case "max", "lte":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "file":
		return "must be an existing file"
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(r + 32)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
