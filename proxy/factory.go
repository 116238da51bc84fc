package proxy

import (
	"reflect"

	herrors "github.com/kbukum/halclient/errors"
	"github.com/kbukum/halclient/hal"
	"github.com/kbukum/halclient/logger"
	"github.com/kbukum/halclient/rest"
)

// Factory builds proxies over envelopes. A Factory holds no per-resource
// state and is safe for concurrent use.
type Factory struct {
	log *logger.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithLogger sets the logger used for link traversal.
func WithLogger(l *logger.Logger) FactoryOption {
	return func(f *Factory) { f.log = l }
}

// NewFactory creates a proxy factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{log: logger.Get("proxy")}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolver returns a resolver whose decoders fetch links through ops.
func (f *Factory) Resolver(ops rest.Operations) *Resolver {
	return NewResolver(f, ops)
}

// Create wraps env as t. Links are fetched through ops on first access.
func (f *Factory) Create(env *hal.Envelope, t reflect.Type, ops rest.Operations) (reflect.Value, error) {
	if env == nil {
		return reflect.Value{}, herrors.MalformedEnvelope("nil envelope")
	}
	tg, err := analyze(t)
	if err != nil {
		return reflect.Value{}, err
	}
	return tg.wrap(f.newProxy(env, ops)), nil
}

// Create wraps env as T.
func Create[T any](f *Factory, env *hal.Envelope, ops rest.Operations) (T, error) {
	var zero T
	v, err := f.Create(env, reflect.TypeFor[T](), ops)
	if err != nil {
		return zero, err
	}
	out, _ := v.Interface().(T)
	return out, nil
}

func (f *Factory) newProxy(env *hal.Envelope, ops rest.Operations) *Proxy {
	return &Proxy{
		env:     env,
		ops:     ops,
		factory: f,
		cells:   make(map[cacheKey]*cell),
	}
}
