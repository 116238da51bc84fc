package hal

import (
	"sort"

	"github.com/goccy/go-json"
)

// Reserved HAL keys.
const (
	KeyLinks    = "_links"
	KeyEmbedded = "_embedded"

	// RelSelf is the relation of a resource's canonical link.
	RelSelf = "self"
)

// MediaType is the HAL JSON media type.
const MediaType = "application/hal+json"

// Number is a JSON number kept in its textual form so integers round-trip
// exactly.
type Number = json.Number

type embeddedEntry struct {
	items []*Envelope
	array bool
}

// Envelope is one decoded HAL resource: business content, links and
// embedded child resources. An Envelope is immutable once built.
//
// Content values are nil, bool, string, Number, []any or *Envelope (JSON
// objects nested in content are envelopes too, so they keep their links).
type Envelope struct {
	content  map[string]any
	links    Links
	embedded map[string]embeddedEntry
}

// New builds an envelope. Each embedded relation holding more than one
// resource is an array relation; use NewWithArrays to control it.
func New(content map[string]any, links Links, embedded map[string][]*Envelope) *Envelope {
	arrays := make(map[string]bool, len(embedded))
	for rel, items := range embedded {
		arrays[rel] = len(items) != 1
	}
	return NewWithArrays(content, links, embedded, arrays)
}

// NewWithArrays builds an envelope, marking which embedded relations are
// arrays.
func NewWithArrays(content map[string]any, links Links, embedded map[string][]*Envelope, arrays map[string]bool) *Envelope {
	e := &Envelope{
		content:  make(map[string]any, len(content)),
		links:    links,
		embedded: make(map[string]embeddedEntry, len(embedded)),
	}
	for k, v := range content {
		e.content[k] = v
	}
	for rel, items := range embedded {
		cp := make([]*Envelope, len(items))
		copy(cp, items)
		e.embedded[rel] = embeddedEntry{items: cp, array: arrays[rel]}
	}
	return e
}

// Field returns the content value stored under name.
func (e *Envelope) Field(name string) (any, bool) {
	v, ok := e.content[name]
	return v, ok
}

// FieldNames returns the content keys in sorted order.
func (e *Envelope) FieldNames() []string {
	names := make([]string, 0, len(e.content))
	for k := range e.content {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Content returns a shallow copy of the business content.
func (e *Envelope) Content() map[string]any {
	out := make(map[string]any, len(e.content))
	for k, v := range e.content {
		out[k] = v
	}
	return out
}

// Links returns the link registry.
func (e *Envelope) Links() Links {
	return e.links
}

// Self returns the self link, if present.
func (e *Envelope) Self() (Link, bool) {
	return e.links.First(RelSelf)
}

// Embedded returns a copy of the resources embedded under rel.
func (e *Envelope) Embedded(rel string) ([]*Envelope, bool) {
	entry, ok := e.embedded[rel]
	if !ok {
		return nil, false
	}
	out := make([]*Envelope, len(entry.items))
	copy(out, entry.items)
	return out, true
}

// HasEmbedded reports whether rel is embedded.
func (e *Envelope) HasEmbedded(rel string) bool {
	_, ok := e.embedded[rel]
	return ok
}

// EmbeddedIsArray reports whether rel was embedded as a JSON array.
func (e *Envelope) EmbeddedIsArray(rel string) bool {
	return e.embedded[rel].array
}

// EmbeddedRels returns the embedded relation names in sorted order.
func (e *Envelope) EmbeddedRels() []string {
	rels := make([]string, 0, len(e.embedded))
	for rel := range e.embedded {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	return rels
}

// MarshalJSON re-encodes the envelope as a HAL document.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.content)+2)
	for k, v := range e.content {
		out[k] = v
	}
	if e.links.Len() > 0 {
		out[KeyLinks] = e.links
	}
	if len(e.embedded) > 0 {
		emb := make(map[string]any, len(e.embedded))
		for rel, entry := range e.embedded {
			if entry.array || len(entry.items) != 1 {
				emb[rel] = entry.items
			} else {
				emb[rel] = entry.items[0]
			}
		}
		out[KeyEmbedded] = emb
	}
	return marshal(out)
}

func marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
