package hal

import (
	"sort"

	herrors "github.com/kbukum/halclient/errors"
)

// Link is a single HAL link object.
type Link struct {
	// Rel is the relation the link was registered under. Not serialized;
	// the relation is the key in _links.
	Rel string `json:"-"`
	// Href is a URI or, when Templated is set, an RFC 6570 URI template.
	Href        string `json:"href"`
	Templated   bool   `json:"templated,omitempty"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	Title       string `json:"title,omitempty"`
	Deprecation string `json:"deprecation,omitempty"`
	Profile     string `json:"profile,omitempty"`
	HrefLang    string `json:"hreflang,omitempty"`
}

// Validate checks that the link can be dereferenced.
func (l Link) Validate() error {
	if l.Href == "" {
		return herrors.MalformedEnvelope("link " + l.Rel + " has no href")
	}
	return nil
}

// Links is the link registry of one envelope: relation name to one or more
// link descriptors. The zero value is an empty registry.
type Links struct {
	byRel  map[string][]Link
	arrays map[string]bool
}

// NewLinks groups links by relation. A relation with more than one link is
// an array relation.
func NewLinks(links ...Link) Links {
	l := Links{byRel: make(map[string][]Link), arrays: make(map[string]bool)}
	for _, link := range links {
		l.byRel[link.Rel] = append(l.byRel[link.Rel], link)
		if len(l.byRel[link.Rel]) > 1 {
			l.arrays[link.Rel] = true
		}
	}
	return l
}

func (l *Links) add(rel string, links []Link, array bool) {
	if l.byRel == nil {
		l.byRel = make(map[string][]Link)
		l.arrays = make(map[string]bool)
	}
	l.byRel[rel] = links
	l.arrays[rel] = array
}

// Get returns a copy of the links registered under rel.
func (l Links) Get(rel string) ([]Link, bool) {
	links, ok := l.byRel[rel]
	if !ok {
		return nil, false
	}
	out := make([]Link, len(links))
	copy(out, links)
	return out, true
}

// First returns the first link registered under rel.
func (l Links) First(rel string) (Link, bool) {
	links := l.byRel[rel]
	if len(links) == 0 {
		return Link{}, false
	}
	return links[0], true
}

// Named returns the link under rel whose name matches.
func (l Links) Named(rel, name string) (Link, bool) {
	for _, link := range l.byRel[rel] {
		if link.Name == name {
			return link, true
		}
	}
	return Link{}, false
}

// Has reports whether rel is registered.
func (l Links) Has(rel string) bool {
	_, ok := l.byRel[rel]
	return ok
}

// IsArray reports whether rel was written as a JSON array.
func (l Links) IsArray(rel string) bool {
	return l.arrays[rel]
}

// Rels returns the registered relation names in sorted order.
func (l Links) Rels() []string {
	rels := make([]string, 0, len(l.byRel))
	for rel := range l.byRel {
		rels = append(rels, rel)
	}
	sort.Strings(rels)
	return rels
}

// Len returns the number of registered relations.
func (l Links) Len() int {
	return len(l.byRel)
}

// MarshalJSON writes the registry in HAL form: a single link as an object,
// array relations as arrays.
func (l Links) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.byRel))
	for rel, links := range l.byRel {
		if l.arrays[rel] {
			out[rel] = links
		} else if len(links) == 1 {
			out[rel] = links[0]
		}
	}
	return marshal(out)
}
