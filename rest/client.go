package rest

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	herrors "github.com/kbukum/halclient/errors"
	"github.com/kbukum/halclient/hal"
	"github.com/kbukum/halclient/httpclient"
	"github.com/kbukum/halclient/logger"
)

const tracerName = "github.com/kbukum/halclient/rest"

// acceptHAL prefers HAL but tolerates servers that only speak plain JSON.
const acceptHAL = hal.MediaType + ", application/json;q=0.9"

// Operations is the REST operations gateway. Implementations must be safe
// for concurrent use.
type Operations interface {
	// Get fetches uri and returns the raw response body.
	Get(ctx context.Context, uri string) ([]byte, error)
	// Follow resolves a link (expanding templates with vars) and fetches it.
	Follow(ctx context.Context, link hal.Link, vars Vars) ([]byte, error)
	// Post sends body to uri, typically a collection, to create a resource.
	Post(ctx context.Context, uri string, body any) (*PostResult, error)
	// Put replaces the resource at uri.
	Put(ctx context.Context, uri string, body any) ([]byte, error)
	// Patch partially updates the resource at uri.
	Patch(ctx context.Context, uri string, body any) ([]byte, error)
	// Delete removes the resource at uri.
	Delete(ctx context.Context, uri string) error
}

// PostResult is the outcome of a create request.
type PostResult struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Location is the URI of the created resource, when the server sent one.
	Location string
	// Body is the raw response body (often empty).
	Body []byte
}

// Client implements Operations on top of an httpclient.Adapter.
type Client struct {
	adapter *httpclient.Adapter
	tracer  trace.Tracer
	meter   metric.Meter
	metrics *metrics
	log     *logger.Logger
}

var _ Operations = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTracerProvider sets the tracer provider for request spans. Defaults to
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// WithMeterProvider sets the meter provider for request metrics. Defaults to
// the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) { c.meter = mp.Meter(tracerName) }
}

// WithLogger sets the gateway logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a gateway over the given adapter.
func New(adapter *httpclient.Adapter, opts ...Option) *Client {
	c := &Client{
		adapter: adapter,
		tracer:  otel.GetTracerProvider().Tracer(tracerName),
		meter:   otel.GetMeterProvider().Meter(tracerName),
		log:     logger.Get("rest"),
	}
	for _, opt := range opts {
		opt(c)
	}
	m, err := newMetrics(c.meter)
	if err != nil {
		c.log.Warn("request metrics disabled", logger.Fields(logger.FieldError, err.Error()))
	}
	c.metrics = m
	return c
}

// Adapter returns the underlying HTTP adapter.
func (c *Client) Adapter() *httpclient.Adapter {
	return c.adapter
}

// Get fetches uri.
func (c *Client) Get(ctx context.Context, uri string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Follow resolves link and fetches it.
func (c *Client) Follow(ctx context.Context, link hal.Link, vars Vars) ([]byte, error) {
	uri, err := Resolve(link, vars)
	if err != nil {
		return nil, err
	}
	return c.Get(ctx, uri)
}

// Post creates a resource.
func (c *Client) Post(ctx context.Context, uri string, body any) (*PostResult, error) {
	resp, err := c.do(ctx, http.MethodPost, uri, body)
	if err != nil {
		return nil, err
	}
	return &PostResult{
		StatusCode: resp.StatusCode,
		Location:   resp.Header("Location"),
		Body:       resp.Body,
	}, nil
}

// Put replaces a resource.
func (c *Client) Put(ctx context.Context, uri string, body any) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodPut, uri, body)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Patch partially updates a resource.
func (c *Client) Patch(ctx context.Context, uri string, body any) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodPatch, uri, body)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Delete removes a resource.
func (c *Client) Delete(ctx context.Context, uri string) error {
	_, err := c.do(ctx, http.MethodDelete, uri, nil)
	return err
}

// do runs one exchange inside a client span and maps every failure to a
// TRANSPORT_ERROR.
func (c *Client) do(ctx context.Context, method, uri string, body any) (*httpclient.Response, error) {
	full := c.adapter.ResolveURL(uri)
	ctx, span := c.tracer.Start(ctx, "HAL "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", full),
		),
	)
	defer span.End()

	start := time.Now()
	if c.metrics != nil {
		c.metrics.start(ctx)
	}

	headers := map[string]string{"Accept": acceptHAL}
	if _, ok := body.(*hal.Envelope); ok {
		headers["Content-Type"] = hal.MediaType
	}

	resp, err := c.adapter.Do(ctx, httpclient.Request{
		Method:  method,
		Path:    uri,
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		status, respBody := 0, []byte(nil)
		if e, ok := httpclient.AsError(err); ok {
			status, respBody = e.StatusCode, e.Body
		}
		if c.metrics != nil {
			c.metrics.end(ctx, method, status, time.Since(start))
		}
		if status > 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.WithContext(ctx).Warn("HAL request failed", logger.ErrorFields(method, full, err))
		return nil, herrors.Transport(method, full, status, respBody, err)
	}

	if c.metrics != nil {
		c.metrics.end(ctx, method, resp.StatusCode, time.Since(start))
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}
