package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kbukum/halclient/logger"
)

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// Adapter is a configurable HTTP adapter with built-in auth, TLS, retry and
// request correlation. It is safe for concurrent use.
type Adapter struct {
	httpClient *http.Client
	config     Config
	log        *logger.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient replaces the underlying *http.Client (its Timeout is kept).
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.httpClient = c }
}

// WithLogger sets the logger used for request logging.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// New creates a new HTTP adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	a := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		log:    logger.Get("httpclient"),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Do executes an HTTP request and returns the complete response. On a
// non-2xx status both the response and a classified *Error are returned.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	if a.config.Retry == nil {
		return a.executeRequest(ctx, req)
	}

	// Reader bodies are buffered once; every attempt sends the same bytes.
	if r, ok := req.Body.(io.Reader); ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("read body: %v", err))
		}
		req.Body = data
	}

	attempt := 0
	var last *Response
	resp, err := backoff.Retry(ctx, func() (*Response, error) {
		attempt++
		resp, err := a.executeRequest(ctx, req)
		last = resp
		if err != nil && !IsRetryable(err) {
			return resp, backoff.Permanent(err)
		}
		return resp, err
	},
		backoff.WithBackOff(a.config.Retry.backOff()),
		backoff.WithMaxTries(a.config.Retry.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			a.log.WithContext(ctx).Debug("retrying request", logger.Fields(
				logger.FieldMethod, req.Method,
				logger.FieldHref, req.Path,
				logger.FieldAttempt, attempt,
				logger.FieldError, err.Error(),
				"backoff_ms", next.Milliseconds(),
			))
		}),
	)
	if err != nil && resp == nil {
		resp = last
	}
	return resp, err
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (a *Adapter) Unwrap() *http.Client {
	return a.httpClient
}

// Config returns the adapter's configuration after defaults.
func (a *Adapter) Config() Config {
	return a.config
}

// Close releases idle connections.
func (a *Adapter) Close() {
	a.httpClient.CloseIdleConnections()
}

// executeRequest builds and sends one HTTP request.
func (a *Adapter) executeRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	log := a.log.WithContext(logger.ContextWithRequestID(ctx, httpReq.Header.Get(HeaderRequestID)))
	start := time.Now()

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		log.Debug("request failed", logger.ErrorFields(req.Method, httpReq.URL.String(), err))
		if ctx.Err() != nil {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}

	log.Debug("request completed", logger.DurationFields(req.Method, httpReq.URL.String(), resp.StatusCode, time.Since(start)))

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
	}

	if classErr := ClassifyStatusCode(resp.StatusCode, body); classErr != nil {
		return result, classErr
	}

	return result, nil
}

// ResolveURL joins a path onto the configured base URL. Absolute URLs are
// returned unchanged.
func (a *Adapter) ResolveURL(path string) string {
	if a.config.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(a.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// buildRequest constructs an *http.Request from the adapter config and request.
func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, a.ResolveURL(req.Path), body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	httpReq.Header.Set("User-Agent", a.config.UserAgent)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if httpReq.Header.Get(HeaderRequestID) == "" {
		httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	// Request-level auth overrides adapter-level auth.
	auth := a.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	return httpReq, nil
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
