package proxy

import (
	"context"
	"reflect"

	"github.com/kbukum/halclient/hal"
)

// Get reads name from p as T, looking in content, then embedded resources,
// then links. A link is fetched on first access and cached.
func Get[T any](ctx context.Context, p *Proxy, name string, opts ...Option) (T, error) {
	return access[T](ctx, p, name, scopeAll, opts)
}

// Property reads a content field as T. It never performs I/O.
func Property[T any](p *Proxy, name string) (T, error) {
	return access[T](context.Background(), p, name, scopeContent, nil)
}

// Relation reads the resource behind rel as T, from _embedded when present
// and otherwise by following the link.
func Relation[T any](ctx context.Context, p *Proxy, rel string, opts ...Option) (T, error) {
	return access[T](ctx, p, rel, scopeRelations, opts)
}

// Relations reads every resource behind rel as []T. A linked collection
// resource contributes its embedded items.
func Relations[T any](ctx context.Context, p *Proxy, rel string, opts ...Option) ([]T, error) {
	return access[[]T](ctx, p, rel, scopeRelations, opts)
}

// LinkOf returns the link descriptor registered under rel without
// dereferencing it. WithName selects among several links.
func LinkOf(p *Proxy, rel string, opts ...Option) (hal.Link, error) {
	return access[hal.Link](context.Background(), p, rel, scopeLinks, opts)
}

// LinksOf returns every link descriptor registered under rel.
func LinksOf(p *Proxy, rel string) ([]hal.Link, error) {
	return access[[]hal.Link](context.Background(), p, rel, scopeLinks, nil)
}

func access[T any](ctx context.Context, p *Proxy, name string, s scope, opts []Option) (T, error) {
	var zero T
	v, err := p.resolve(ctx, name, reflect.TypeFor[T](), s, collect(opts))
	if err != nil {
		return zero, err
	}
	out, _ := v.Interface().(T)
	return out, nil
}
