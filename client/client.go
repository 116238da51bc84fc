package client

import (
	"context"
	"net/http"
	"reflect"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	herrors "github.com/kbukum/halclient/errors"
	"github.com/kbukum/halclient/config"
	"github.com/kbukum/halclient/hal"
	"github.com/kbukum/halclient/httpclient"
	"github.com/kbukum/halclient/logger"
	"github.com/kbukum/halclient/proxy"
	"github.com/kbukum/halclient/rest"
)

// Client is a configured HAL client. It is safe for concurrent use.
type Client struct {
	cfg     Config
	adapter *httpclient.Adapter
	ops     rest.Operations
	factory *proxy.Factory
	log     *logger.Logger
}

type options struct {
	ops        rest.Operations
	httpClient *http.Client
	tp         trace.TracerProvider
	mp         metric.MeterProvider
	log        *logger.Logger
}

// Option configures a Client.
type Option func(*options)

// WithOperations replaces the REST gateway, e.g. with a fake in tests.
func WithOperations(ops rest.Operations) Option {
	return func(o *options) { o.ops = ops }
}

// WithHTTPClient sets the *http.Client used by the adapter.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithTracerProvider sets the tracer provider for request spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithMeterProvider sets the meter provider for request metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.mp = mp }
}

// WithLogger sets the root logger. Defaults to a logger built from
// cfg.Logging.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New builds a client from cfg. Defaults are applied and the result is
// validated first.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log
	if log == nil {
		log = logger.New(cfg.Logging)
	}
	log = log.WithFields(logger.Fields("client", cfg.Name))

	adapterOpts := []httpclient.Option{httpclient.WithLogger(log.WithComponent("httpclient"))}
	if o.httpClient != nil {
		adapterOpts = append(adapterOpts, httpclient.WithHTTPClient(o.httpClient))
	}
	adapter, err := httpclient.New(cfg.Config, adapterOpts...)
	if err != nil {
		return nil, err
	}

	ops := o.ops
	if ops == nil {
		restOpts := []rest.Option{rest.WithLogger(log.WithComponent("rest"))}
		if o.tp != nil {
			restOpts = append(restOpts, rest.WithTracerProvider(o.tp))
		}
		if o.mp != nil {
			restOpts = append(restOpts, rest.WithMeterProvider(o.mp))
		}
		ops = rest.New(adapter, restOpts...)
	}

	return &Client{
		cfg:     cfg,
		adapter: adapter,
		ops:     ops,
		factory: proxy.NewFactory(proxy.WithLogger(log.WithComponent("proxy"))),
		log:     log.WithComponent("client"),
	}, nil
}

// Load loads the configuration for name and builds a client from it. Use
// LoadConfig and New to pass client options.
func Load(name string, opts ...config.LoaderOption) (*Client, error) {
	cfg, err := LoadConfig(name, opts...)
	if err != nil {
		return nil, err
	}
	return New(*cfg)
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Operations returns the REST gateway.
func (c *Client) Operations() rest.Operations {
	return c.ops
}

// Factory returns the proxy factory.
func (c *Client) Factory() *proxy.Factory {
	return c.factory
}

// Resolver returns a resolver bound to the client's gateway.
func (c *Client) Resolver() *proxy.Resolver {
	return c.factory.Resolver(c.ops)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.adapter.Close()
}

// Wrap wraps an already decoded envelope as T.
func Wrap[T any](c *Client, env *hal.Envelope) (T, error) {
	return proxy.Create[T](c.factory, env, c.ops)
}

// Fetch GETs uri and decodes the body as T. A slice T accepts an array
// body or a collection resource.
func Fetch[T any](ctx context.Context, c *Client, uri string) (T, error) {
	var zero T
	c.log.WithContext(ctx).Debug("fetching resource", logger.Fields(logger.FieldHref, uri))
	body, err := c.ops.Get(ctx, uri)
	if err != nil {
		return zero, err
	}
	return decode[T](c, body)
}

// FetchAll GETs uri and decodes every resource in the body as T.
func FetchAll[T any](ctx context.Context, c *Client, uri string) ([]T, error) {
	return Fetch[[]T](ctx, c, uri)
}

// Follow dereferences link, expanding templates with vars, as T.
func Follow[T any](ctx context.Context, c *Client, link hal.Link, vars rest.Vars) (T, error) {
	var zero T
	body, err := c.ops.Follow(ctx, link, vars)
	if err != nil {
		return zero, err
	}
	return decode[T](c, body)
}

func decode[T any](c *Client, body []byte) (T, error) {
	var zero T
	d, err := c.Resolver().ForType(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	v, err := d.Decode(body)
	if err != nil {
		return zero, err
	}
	out, _ := v.Interface().(T)
	return out, nil
}

// Create POSTs body to a collection and returns the created resource as T.
// When the server answers with a Location header the resource is fetched
// from there; otherwise the response body is decoded.
func Create[T any](ctx context.Context, c *Client, collection string, body any) (T, error) {
	var zero T
	res, err := c.ops.Post(ctx, collection, body)
	if err != nil {
		return zero, err
	}
	if res.Location != "" {
		return Fetch[T](ctx, c, res.Location)
	}
	if len(res.Body) == 0 {
		return zero, herrors.MalformedEnvelope("create response has neither Location nor body")
	}
	return decode[T](c, res.Body)
}

// Save PUTs the resource's current envelope back to its self link.
func Save(ctx context.Context, c *Client, r proxy.Resource) error {
	return Update(ctx, c, r, r.Envelope())
}

// Update PUTs body to the resource's self link.
func Update(ctx context.Context, c *Client, r proxy.Resource, body any) error {
	href, err := selfHref(r)
	if err != nil {
		return err
	}
	_, err = c.ops.Put(ctx, href, body)
	return err
}

// Patch sends a partial update to the resource's self link.
func Patch(ctx context.Context, c *Client, r proxy.Resource, changes any) error {
	href, err := selfHref(r)
	if err != nil {
		return err
	}
	_, err = c.ops.Patch(ctx, href, changes)
	return err
}

// Delete removes the resource at its self link.
func Delete(ctx context.Context, c *Client, r proxy.Resource) error {
	href, err := selfHref(r)
	if err != nil {
		return err
	}
	return c.ops.Delete(ctx, href)
}

// selfHref returns the write-back target of r. A templated self link must
// expand without variables.
func selfHref(r proxy.Resource) (string, error) {
	env := r.Envelope()
	if env == nil {
		return "", herrors.MalformedEnvelope("resource has no envelope")
	}
	self, ok := env.Self()
	if !ok {
		return "", herrors.UnknownRelation(hal.RelSelf)
	}
	return rest.Resolve(self, nil)
}
