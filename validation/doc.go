// Package validation checks configuration values before a client is built.
//
// Struct tag validation (go-playground/validator) covers per-field rules and
// reports fields by their configuration key:
//
//	type RetryConfig struct {
//	    MaxAttempts uint `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
//	}
//	err := validation.Validate(cfg) // "retry.max_attempts: must be at least 1"
//
// The programmatic Validator covers rules that span fields:
//
//	v := validation.New()
//	v.Check(cfg.Auth.Token != "", "auth.token", "is required for bearer auth")
//	err := v.Err()
//
// Both return an INVALID_INPUT *errors.AppError whose "fields" detail lists
// every failing field.
package validation
