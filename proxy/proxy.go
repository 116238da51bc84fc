package proxy

import (
	"context"
	"net/http"
	"net/url"
	"reflect"
	"sync"

	herrors "github.com/kbukum/halclient/errors"
	"github.com/kbukum/halclient/hal"
	"github.com/kbukum/halclient/logger"
	"github.com/kbukum/halclient/rest"
)

// Proxy is a lazy view over one HAL envelope. It owns its envelope and its
// relation cache; the gateway and factory are shared. Safe for concurrent
// use.
type Proxy struct {
	env     *hal.Envelope
	ops     rest.Operations
	factory *Factory

	mu    sync.Mutex
	cells map[cacheKey]*cell
}

// Resource is anything backed by a HAL envelope: *Proxy and every struct
// embedding it.
type Resource interface {
	Envelope() *hal.Envelope
}

type cacheKind byte

const (
	cacheEmbedded cacheKind = 'e'
	cacheLink     cacheKind = 'l'
)

type cacheKey struct {
	kind cacheKind
	rel  string
	name string
	vars string
}

// fetched is the cached result of following one link.
type fetched struct {
	items []*Proxy
	array bool
}

// Envelope returns the decoded resource.
func (p *Proxy) Envelope() *hal.Envelope {
	return p.env
}

// Operations returns the gateway used for link traversal.
func (p *Proxy) Operations() rest.Operations {
	return p.ops
}

// Self returns the resource's self link.
func (p *Proxy) Self() (hal.Link, bool) {
	return p.env.Self()
}

// Has reports whether name is a content field, embedded relation or link.
func (p *Proxy) Has(name string) bool {
	if _, ok := p.env.Field(name); ok {
		return true
	}
	return p.env.HasEmbedded(name) || p.env.Links().Has(name)
}

// Loaded reports whether the link relation rel has been fetched with the
// given options.
func (p *Proxy) Loaded(rel string, opts ...Option) bool {
	o := collect(opts)
	p.mu.Lock()
	c, ok := p.cells[o.key(rel)]
	p.mu.Unlock()
	return ok && c.loaded()
}

// Refresh drops every cached fetch of the link relation rel so the next
// access requests it again.
func (p *Proxy) Refresh(rel string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.cells {
		if k.kind == cacheLink && k.rel == rel {
			delete(p.cells, k)
		}
	}
}

// MarshalJSON encodes the underlying envelope as HAL.
func (p *Proxy) MarshalJSON() ([]byte, error) {
	return p.env.MarshalJSON()
}

func (p *Proxy) cell(k cacheKey) *cell {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.cells[k]
	if !ok {
		c = &cell{}
		p.cells[k] = c
	}
	return c
}

// scope selects which parts of the envelope an accessor may read.
type scope uint8

const (
	scopeContent scope = 1 << iota
	scopeEmbedded
	scopeLinks

	scopeRelations = scopeEmbedded | scopeLinks
	scopeAll       = scopeContent | scopeRelations
)

// resolve reads name as t: content, then embedded, then links.
func (p *Proxy) resolve(ctx context.Context, name string, t reflect.Type, s scope, o options) (reflect.Value, error) {
	if s&scopeContent != 0 {
		if v, ok := p.env.Field(name); ok {
			return p.convert(name, v, t)
		}
	}
	if s&scopeLinks != 0 && (t == linkType || t == linkSliceType) {
		return p.descriptor(name, t, o)
	}
	if s&scopeEmbedded != 0 && p.env.HasEmbedded(name) {
		return p.embedded(name, t)
	}
	if s&scopeLinks != 0 && p.env.Links().Has(name) {
		return p.linked(ctx, name, t, o)
	}
	return reflect.Value{}, herrors.UnknownRelation(name)
}

// descriptor returns link objects themselves without dereferencing them.
func (p *Proxy) descriptor(rel string, t reflect.Type, o options) (reflect.Value, error) {
	if t == linkSliceType {
		links, ok := p.env.Links().Get(rel)
		if !ok {
			return reflect.Value{}, herrors.UnknownRelation(rel)
		}
		return reflect.ValueOf(links), nil
	}
	link, err := p.link(rel, o.name)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(link), nil
}

func (p *Proxy) link(rel, name string) (hal.Link, error) {
	links := p.env.Links()
	if name == "" {
		if link, ok := links.First(rel); ok {
			return link, nil
		}
		return hal.Link{}, herrors.UnknownRelation(rel)
	}
	if link, ok := links.Named(rel, name); ok {
		return link, nil
	}
	return hal.Link{}, herrors.UnknownRelation(rel).WithDetail("name", name)
}

func (p *Proxy) embedded(rel string, t reflect.Type) (reflect.Value, error) {
	d, err := p.decoder(rel, t)
	if err != nil {
		return reflect.Value{}, err
	}
	return d.shape(rel, p.embeddedChildren(rel), p.env.EmbeddedIsArray(rel), false)
}

// embeddedChildren returns the cached proxies of one embedded relation.
func (p *Proxy) embeddedChildren(rel string) []*Proxy {
	v, _ := p.cell(cacheKey{kind: cacheEmbedded, rel: rel}).get(context.Background(), func() (any, error) {
		envs, _ := p.env.Embedded(rel)
		items := make([]*Proxy, len(envs))
		for i, env := range envs {
			items[i] = p.factory.newProxy(env, p.ops)
		}
		return items, nil
	})
	return v.([]*Proxy)
}

// embeddedItems returns the children of every embedded relation in relation
// order; this is how a collection resource lists its members.
func (p *Proxy) embeddedItems() []*Proxy {
	var out []*Proxy
	for _, rel := range p.env.EmbeddedRels() {
		out = append(out, p.embeddedChildren(rel)...)
	}
	return out
}

func (p *Proxy) linked(ctx context.Context, rel string, t reflect.Type, o options) (reflect.Value, error) {
	d, err := p.decoder(rel, t)
	if err != nil {
		return reflect.Value{}, err
	}
	link, err := p.link(rel, o.name)
	if err != nil {
		return reflect.Value{}, err
	}

	v, err := p.cell(o.key(rel)).get(ctx, func() (any, error) {
		p.factory.log.WithContext(ctx).Debug("following link", logger.Fields(
			logger.FieldRelation, rel,
			logger.FieldHref, link.Href,
		))
		body, err := p.ops.Follow(ctx, link, o.vars)
		if err != nil {
			return nil, err
		}
		doc, err := hal.DecodeDocument(body)
		if err != nil {
			return nil, err
		}
		f := &fetched{items: make([]*Proxy, len(doc.Items)), array: doc.Array}
		for i, env := range doc.Items {
			f.items[i] = p.factory.newProxy(env, p.ops)
		}
		return f, nil
	})
	if err != nil {
		if !herrors.IsAppError(err) && ctx.Err() != nil {
			err = herrors.Transport(http.MethodGet, link.Href, 0, nil, err)
		}
		return reflect.Value{}, err
	}
	f := v.(*fetched)
	return d.shape(rel, f.items, f.array, true)
}

// decoder binds t for one relation access. A type that cannot hold a
// resource is a conversion failure of that accessor.
func (p *Proxy) decoder(rel string, t reflect.Type) (*Decoder, error) {
	d, err := p.factory.Resolver(p.ops).ForType(t)
	if err != nil {
		if herrors.IsUnresolvableContextType(err) && t != nil {
			return nil, herrors.TypeConversion(rel, p.env, t.String()).WithCause(err)
		}
		return nil, err
	}
	return d, nil
}

// options are per-access settings.
type options struct {
	vars rest.Vars
	name string
}

// Option configures one relation access.
type Option func(*options)

// WithVars supplies URI template variables for a templated link.
func WithVars(vars rest.Vars) Option {
	return func(o *options) { o.vars = vars }
}

// WithName selects the link whose HAL name matches among several links of
// the same relation.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) key(rel string) cacheKey {
	vals := url.Values{}
	for k, v := range o.vars {
		vals.Set(k, v)
	}
	return cacheKey{kind: cacheLink, rel: rel, name: o.name, vars: vals.Encode()}
}
