package source

import (
	"net/url"
	"sort"
	"strings"

	"tokenagg/internal/application/port"

	"github.com/rs/zerolog/log"
)

// QueryPlaceholder is replaced by the escaped query in a URL template.
const QueryPlaceholder = "{query}"

// registry maps upstream names to URL templates. Providers register
// themselves from init().
var registry = make(map[string]string)

func Register(name, urlTemplate string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || urlTemplate == "" {
		log.Warn().Str("source", name).Msg("invalid source registration")
		return
	}
	if _, exists := registry[name]; exists {
		log.Warn().Str("source", name).Msg("source already registered, overwriting")
	}
	registry[name] = urlTemplate
}

// Lookup returns the built-in URL template for name.
func Lookup(name string) (string, bool) {
	tpl, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return tpl, ok
}

// Names lists registered sources, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// BuildURL substitutes query into tpl. Templates without a placeholder get
// the query appended as a path segment.
func BuildURL(tpl, query string) string {
	q := url.PathEscape(strings.TrimSpace(query))
	if strings.Contains(tpl, QueryPlaceholder) {
		return strings.ReplaceAll(tpl, QueryPlaceholder, q)
	}
	return strings.TrimRight(tpl, "/") + "/" + q
}

// Endpoint is a named upstream bound to a URL template.
type Endpoint struct {
	SourceName  string
	URLTemplate string
}

func (e Endpoint) Name() string            { return e.SourceName }
func (e Endpoint) URL(query string) string { return BuildURL(e.URLTemplate, query) }

var _ port.Source = Endpoint{}
