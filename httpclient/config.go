package httpclient

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/kbukum/halclient/version"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP adapter.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Timeout is the default request timeout. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent on every request. Defaults to "halclient".
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// Auth configures default authentication applied to all requests.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`

	// TLS configures TLS settings for the HTTP transport.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Retry configures retry behavior. Nil disables retry.
	Retry *RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig configures exponential-backoff retries of retryable failures
// (connection errors, 429 and 5xx).
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts uint `yaml:"max_attempts" mapstructure:"max_attempts"`
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// DefaultRetryConfig returns a default retry config suitable for HTTP clients.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// backOff builds the backoff policy for one Do call.
func (r *RetryConfig) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if r.InitialBackoff > 0 {
		b.InitialInterval = r.InitialBackoff
	}
	if r.MaxBackoff > 0 {
		b.MaxInterval = r.MaxBackoff
	}
	return b
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
	if c.Retry != nil && c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}
