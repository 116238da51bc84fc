package hal

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"

	herrors "github.com/kbukum/halclient/errors"
)

// Document is the result of decoding one HAL response body: either a
// single resource or an array of resources.
type Document struct {
	Items []*Envelope
	// Array reports whether the body was a JSON array.
	Array bool
}

// Decode parses a single HAL resource object.
func Decode(data []byte) (*Envelope, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	if doc.Array {
		return nil, herrors.MalformedEnvelope("expected a JSON object, got an array")
	}
	return doc.Items[0], nil
}

// DecodeAll parses a HAL resource object or an array of resource objects.
func DecodeAll(data []byte) ([]*Envelope, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// DecodeDocument parses a HAL resource object or an array of resource
// objects, keeping the array flag. data must hold exactly one JSON value.
func DecodeDocument(data []byte) (*Document, error) {
	if !json.Valid(data) {
		return nil, herrors.MalformedEnvelope("invalid JSON")
	}
	return walk(data)
}

// DecodeReader parses exactly one top-level JSON value from r.
func DecodeReader(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, herrors.MalformedEnvelope("unexpected end of document")
		}
		return nil, herrors.MalformedEnvelope("invalid JSON").WithCause(err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, herrors.MalformedEnvelope("unexpected data after top-level value")
	}
	return DecodeDocument(raw)
}

// walk builds the document from validated JSON. The token stream does not
// check separators, so data must have passed json.Valid.
func walk(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	p := &parser{dec: dec}

	tok, err := p.next()
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	switch tok {
	case json.Delim('{'):
		env, err := p.envelope()
		if err != nil {
			return nil, err
		}
		doc.Items = []*Envelope{env}
	case json.Delim('['):
		doc.Array = true
		doc.Items, err = p.envelopeArray("document")
		if err != nil {
			return nil, err
		}
	default:
		return nil, herrors.MalformedEnvelope(fmt.Sprintf("expected an object or array of objects, got %s", describe(tok)))
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, herrors.MalformedEnvelope("unexpected data after top-level value")
	}
	return doc, nil
}

// parser walks the goccy/go-json token stream. Keys arrive as strings,
// numbers as json.Number.
type parser struct {
	dec *json.Decoder
}

func (p *parser) next() (json.Token, error) {
	tok, err := p.dec.Token()
	if err == io.EOF {
		return nil, herrors.MalformedEnvelope("unexpected end of document")
	}
	if err != nil {
		return nil, herrors.MalformedEnvelope("invalid JSON").WithCause(err)
	}
	return tok, nil
}

// key reads the next object key, or reports the end of the object.
func (p *parser) key() (string, bool, error) {
	tok, err := p.next()
	if err != nil {
		return "", false, err
	}
	if tok == json.Delim('}') {
		return "", true, nil
	}
	k, ok := tok.(string)
	if !ok {
		return "", false, herrors.MalformedEnvelope(fmt.Sprintf("expected object key, got %s", describe(tok)))
	}
	return k, false, nil
}

// envelope reads an object whose opening brace was consumed.
func (p *parser) envelope() (*Envelope, error) {
	env := &Envelope{
		content:  make(map[string]any),
		embedded: make(map[string]embeddedEntry),
	}
	for {
		k, done, err := p.key()
		if err != nil {
			return nil, err
		}
		if done {
			return env, nil
		}
		switch k {
		case KeyLinks:
			if env.links, err = p.links(); err != nil {
				return nil, err
			}
		case KeyEmbedded:
			if env.embedded, err = p.embedded(); err != nil {
				return nil, err
			}
		default:
			if env.content[k], err = p.value(); err != nil {
				return nil, err
			}
		}
	}
}

// envelopeArray reads an array of objects whose opening bracket was consumed.
func (p *parser) envelopeArray(what string) ([]*Envelope, error) {
	items := []*Envelope{}
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		if tok == json.Delim(']') {
			return items, nil
		}
		if tok != json.Delim('{') {
			return nil, herrors.MalformedEnvelope(fmt.Sprintf("%s: expected object in array, got %s", what, describe(tok)))
		}
		env, err := p.envelope()
		if err != nil {
			return nil, err
		}
		items = append(items, env)
	}
}

func (p *parser) links() (Links, error) {
	var links Links
	if err := p.expectObject(KeyLinks); err != nil {
		return links, err
	}
	for {
		rel, done, err := p.key()
		if err != nil {
			return links, err
		}
		if done {
			return links, nil
		}
		tok, err := p.next()
		if err != nil {
			return links, err
		}
		switch tok {
		case json.Delim('{'):
			link, err := p.link(rel)
			if err != nil {
				return links, err
			}
			links.add(rel, []Link{link}, false)
		case json.Delim('['):
			var list []Link
			for {
				tok, err := p.next()
				if err != nil {
					return links, err
				}
				if tok == json.Delim(']') {
					break
				}
				if tok != json.Delim('{') {
					return links, herrors.MalformedEnvelope(fmt.Sprintf("link %s: expected object, got %s", rel, describe(tok)))
				}
				link, err := p.link(rel)
				if err != nil {
					return links, err
				}
				list = append(list, link)
			}
			links.add(rel, list, true)
		default:
			return links, herrors.MalformedEnvelope(fmt.Sprintf("link %s: expected object or array, got %s", rel, describe(tok)))
		}
	}
}

// link reads a link object whose opening brace was consumed. Unknown
// attributes are skipped.
func (p *parser) link(rel string) (Link, error) {
	link := Link{Rel: rel}
	for {
		k, done, err := p.key()
		if err != nil {
			return link, err
		}
		if done {
			break
		}
		v, err := p.value()
		if err != nil {
			return link, err
		}
		if k == "templated" {
			b, ok := v.(bool)
			if !ok {
				return link, herrors.MalformedEnvelope(fmt.Sprintf("link %s: templated must be a boolean", rel))
			}
			link.Templated = b
			continue
		}
		target := linkAttr(&link, k)
		if target == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return link, herrors.MalformedEnvelope(fmt.Sprintf("link %s: %s must be a string", rel, k))
		}
		*target = s
	}
	return link, link.Validate()
}

func linkAttr(link *Link, key string) *string {
	switch key {
	case "href":
		return &link.Href
	case "name":
		return &link.Name
	case "type":
		return &link.Type
	case "title":
		return &link.Title
	case "deprecation":
		return &link.Deprecation
	case "profile":
		return &link.Profile
	case "hreflang":
		return &link.HrefLang
	}
	return nil
}

func (p *parser) embedded() (map[string]embeddedEntry, error) {
	out := make(map[string]embeddedEntry)
	if err := p.expectObject(KeyEmbedded); err != nil {
		return nil, err
	}
	for {
		rel, done, err := p.key()
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch tok {
		case json.Delim('{'):
			env, err := p.envelope()
			if err != nil {
				return nil, err
			}
			out[rel] = embeddedEntry{items: []*Envelope{env}}
		case json.Delim('['):
			items, err := p.envelopeArray("embedded " + rel)
			if err != nil {
				return nil, err
			}
			out[rel] = embeddedEntry{items: items, array: true}
		default:
			return nil, herrors.MalformedEnvelope(fmt.Sprintf("embedded %s: expected object or array, got %s", rel, describe(tok)))
		}
	}
}

func (p *parser) expectObject(what string) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok != json.Delim('{') {
		return herrors.MalformedEnvelope(fmt.Sprintf("%s must be an object, got %s", what, describe(tok)))
	}
	return nil
}

// value reads any JSON value. Objects become envelopes.
func (p *parser) value() (any, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	return p.valueFrom(tok)
}

func (p *parser) valueFrom(tok json.Token) (any, error) {
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return p.envelope()
		case '[':
			list := []any{}
			for {
				tok, err := p.next()
				if err != nil {
					return nil, err
				}
				if tok == json.Delim(']') {
					return list, nil
				}
				item, err := p.valueFrom(tok)
				if err != nil {
					return nil, err
				}
				list = append(list, item)
			}
		}
		return nil, herrors.MalformedEnvelope(fmt.Sprintf("unexpected %s", describe(tok)))
	case float64:
		return json.Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	}
	return tok, nil
}

func describe(tok json.Token) string {
	switch v := tok.(type) {
	case json.Delim:
		return fmt.Sprintf("%q", v.String())
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	}
	return fmt.Sprintf("%T", tok)
}
