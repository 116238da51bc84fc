package proxy

import (
	"fmt"
	"reflect"

	herrors "github.com/kbukum/halclient/errors"
	"github.com/kbukum/halclient/hal"
	"github.com/kbukum/halclient/rest"
)

type targetKind int

const (
	kindProxy targetKind = iota
	kindEnvelope
	kindMap
	kindAny
	kindStruct
	kindStructPtr
)

var (
	proxyType     = reflect.TypeFor[*Proxy]()
	envelopeType  = reflect.TypeFor[*hal.Envelope]()
	plainMapType  = reflect.TypeFor[map[string]any]()
	linkType      = reflect.TypeFor[hal.Link]()
	linkSliceType = reflect.TypeFor[[]hal.Link]()
)

// target describes how to wrap a proxy as one declared type.
type target struct {
	t     reflect.Type
	kind  targetKind
	field int // index of the embedded *Proxy for struct kinds
}

// analyze binds a declared type to a wrapping strategy.
func analyze(t reflect.Type) (*target, error) {
	if t == nil {
		return nil, herrors.UnresolvableContextType("no declared type")
	}
	switch {
	case t == proxyType:
		return &target{t: t, kind: kindProxy}, nil
	case t == envelopeType:
		return &target{t: t, kind: kindEnvelope}, nil
	case t == plainMapType:
		return &target{t: t, kind: kindMap}, nil
	case t.Kind() == reflect.Interface && proxyType.Implements(t):
		return &target{t: t, kind: kindAny}, nil
	case t.Kind() == reflect.Struct:
		if i := proxyField(t); i >= 0 {
			return &target{t: t, kind: kindStruct, field: i}, nil
		}
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		if i := proxyField(t.Elem()); i >= 0 {
			return &target{t: t, kind: kindStructPtr, field: i}, nil
		}
	}
	return nil, herrors.UnresolvableContextType(fmt.Sprintf("%s is not a resource type (embed *proxy.Proxy)", t))
}

func proxyField(t reflect.Type) int {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type == proxyType {
			return i
		}
	}
	return -1
}

func (tg *target) wrap(p *Proxy) reflect.Value {
	switch tg.kind {
	case kindEnvelope:
		return reflect.ValueOf(p.env)
	case kindMap:
		return reflect.ValueOf(plain(p.env))
	case kindAny:
		out := reflect.New(tg.t).Elem()
		out.Set(reflect.ValueOf(p))
		return out
	case kindStruct:
		out := reflect.New(tg.t).Elem()
		out.Field(tg.field).Set(reflect.ValueOf(p))
		return out
	case kindStructPtr:
		out := reflect.New(tg.t.Elem())
		out.Elem().Field(tg.field).Set(reflect.ValueOf(p))
		return out
	}
	return reflect.ValueOf(p)
}

// Resolver derives decoders for declared types. Every call returns a new
// Decoder bound to exactly one type.
type Resolver struct {
	factory *Factory
	ops     rest.Operations
}

// NewResolver creates a resolver whose decoders build proxies with f and
// fetch links through ops.
func NewResolver(f *Factory, ops rest.Operations) *Resolver {
	return &Resolver{factory: f, ops: ops}
}

// ForType returns a decoder bound to t. t is a resource type or a slice of
// resource types.
func (r *Resolver) ForType(t reflect.Type) (*Decoder, error) {
	if t == nil {
		return nil, herrors.UnresolvableContextType("no declared type")
	}
	d := &Decoder{t: t, factory: r.factory, ops: r.ops}
	elem := t
	if t.Kind() == reflect.Slice {
		d.slice = true
		elem = t.Elem()
	}
	tg, err := analyze(elem)
	if err != nil {
		return nil, err
	}
	d.elem = tg
	return d, nil
}

// ForField returns a decoder bound to the declared type of a struct field.
func (r *Resolver) ForField(owner reflect.Type, field string) (*Decoder, error) {
	if owner == nil {
		return nil, herrors.UnresolvableContextType("no owner type for field " + field)
	}
	if owner.Kind() == reflect.Pointer {
		owner = owner.Elem()
	}
	if owner.Kind() != reflect.Struct {
		return nil, herrors.UnresolvableContextType(fmt.Sprintf("%s has no fields", owner))
	}
	f, ok := owner.FieldByName(field)
	if !ok {
		return nil, herrors.UnresolvableContextType(fmt.Sprintf("%s has no field %s", owner, field))
	}
	return r.ForType(f.Type)
}

// Decoder decodes HAL documents into one declared type. It holds no state
// besides the binding and may be reused for values of that type.
type Decoder struct {
	t       reflect.Type
	elem    *target
	slice   bool
	factory *Factory
	ops     rest.Operations
}

// Type returns the bound type.
func (d *Decoder) Type() reflect.Type {
	return d.t
}

// Decode parses data and wraps the result as the bound type. For a slice
// type an array body yields one element per object and a collection
// resource yields its embedded items.
func (d *Decoder) Decode(data []byte) (reflect.Value, error) {
	doc, err := hal.DecodeDocument(data)
	if err != nil {
		return reflect.Value{}, err
	}
	items := make([]*Proxy, len(doc.Items))
	for i, env := range doc.Items {
		items[i] = d.factory.newProxy(env, d.ops)
	}
	return d.shape("document", items, doc.Array, true)
}

// Wrap wraps one envelope as the bound type.
func (d *Decoder) Wrap(env *hal.Envelope) (reflect.Value, error) {
	if env == nil {
		return reflect.Value{}, herrors.MalformedEnvelope("nil envelope")
	}
	return d.shape("resource", []*Proxy{d.factory.newProxy(env, d.ops)}, false, false)
}

// shape fits a list of resources to the bound type. With collection set, a
// single resource read into a slice is replaced by its embedded items.
func (d *Decoder) shape(name string, items []*Proxy, array, collection bool) (reflect.Value, error) {
	if d.slice {
		if collection && !array && len(items) == 1 && len(items[0].env.EmbeddedRels()) > 0 {
			items = items[0].embeddedItems()
		}
		out := reflect.MakeSlice(d.t, len(items), len(items))
		for i, p := range items {
			out.Index(i).Set(d.elem.wrap(p))
		}
		return out, nil
	}
	if len(items) != 1 {
		return reflect.Value{}, herrors.TypeConversion(name, items, d.t.String()).
			WithDetail("count", len(items))
	}
	return d.elem.wrap(items[0]), nil
}

// DecodeAs decodes data into T.
func DecodeAs[T any](r *Resolver, data []byte) (T, error) {
	var zero T
	d, err := r.ForType(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	v, err := d.Decode(data)
	if err != nil {
		return zero, err
	}
	out, _ := v.Interface().(T)
	return out, nil
}
