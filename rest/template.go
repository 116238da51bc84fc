package rest

import (
	"regexp"
	"strings"

	"github.com/yosida95/uritemplate/v3"

	herrors "github.com/kbukum/halclient/errors"
	"github.com/kbukum/halclient/hal"
)

// Vars are URI template variables.
type Vars map[string]string

// queryExpr matches form-style query expansions ({?a,b} and {&c}).
var queryExpr = regexp.MustCompile(`\{[?&]([^}]*)\}`)

// Expand resolves an RFC 6570 template. Variables of form-style query
// expansions may be omitted; every other variable must be supplied.
func Expand(href string, vars Vars) (string, error) {
	tmpl, err := uritemplate.New(href)
	if err != nil {
		return "", herrors.MalformedEnvelope("invalid URI template " + href).WithCause(err)
	}

	optional := optionalVars(href)
	values := uritemplate.Values{}
	for _, name := range tmpl.Varnames() {
		v, ok := vars[name]
		if !ok {
			if optional[name] {
				continue
			}
			return "", herrors.UnresolvedTemplateVariable(href, name)
		}
		values.Set(name, uritemplate.String(v))
	}
	return tmpl.Expand(values)
}

func optionalVars(href string) map[string]bool {
	out := make(map[string]bool)
	for _, m := range queryExpr.FindAllStringSubmatch(href, -1) {
		for _, spec := range strings.Split(m[1], ",") {
			// Strip modifiers: {?list*} and {?name:3}.
			name := strings.TrimSuffix(spec, "*")
			if i := strings.IndexByte(name, ':'); i >= 0 {
				name = name[:i]
			}
			out[strings.TrimSpace(name)] = true
		}
	}
	return out
}

// Resolve returns the dereferenceable URI of a link: the href itself, or
// the expanded template when the link is templated.
func Resolve(link hal.Link, vars Vars) (string, error) {
	if err := link.Validate(); err != nil {
		return "", err
	}
	if !link.Templated {
		return link.Href, nil
	}
	return Expand(link.Href, vars)
}
