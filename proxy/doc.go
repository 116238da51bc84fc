// Package proxy turns decoded HAL envelopes into typed views whose relation
// accessors follow links lazily.
//
// A target type is *Proxy itself, map[string]any (raw content), or any
// struct that embeds *Proxy. Struct targets declare their capability set as
// ordinary methods written over the generic accessors:
//
//	type Person struct{ *proxy.Proxy }
//
//	func (p Person) Name() (string, error) {
//		return proxy.Property[string](p.Proxy, "name")
//	}
//
//	func (p Person) Manager(ctx context.Context) (Person, error) {
//		return proxy.Relation[Person](ctx, p.Proxy, "manager")
//	}
//
// An accessor looks its name up in content first, then in _embedded, then
// in _links. Embedded resources never cause a request. A linked resource is
// fetched through rest.Operations on first access and cached on the proxy;
// concurrent first accesses share one fetch and failures are not cached.
package proxy
