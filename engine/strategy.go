package engine

import (
	"fmt"
	"strings"
)

// Param is a single extractor hint appended to a strategy's invocation
// (rendered as "<extractor>:<Key>=<Value>").
type Param struct {
	Key   string
	Value string
}

// Strategy is one impersonation variant tried against the extraction tool.
type Strategy struct {
	// Client is the player client the tool should impersonate
	// (e.g. "web", "ios", "android", "mweb").
	Client string

	// Skip is an optional player_skip hint (e.g. "webpage").
	Skip string

	// Params are additional extractor hints, in order.
	Params []Param
}

// Label returns the human-readable name used in logs and diagnostics.
func (s Strategy) Label() string {
	if s.Skip == "" {
		return s.Client
	}
	return fmt.Sprintf("%s (skip: %s)", s.Client, s.Skip)
}

// defaultCatalog is ordered from the most general client (most often
// blocked) to the narrowest ones. Order is significant: first success wins.
var defaultCatalog = []Strategy{
	{Client: "web", Skip: "webpage"},
	{Client: "web"}, // without skip, needed for Shorts
	{Client: "ios"},
	{Client: "android"},
	{Client: "mweb"},
}

// DefaultCatalog returns a copy of the built-in strategy list.
func DefaultCatalog() []Strategy {
	out := make([]Strategy, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

// ParseCatalog parses a comma-separated strategy list of the form
//
//	client[:skip][;key=value...]
//
// e.g. "web:webpage,web,ios;player_params=8AEB". Entries keep their order.
// A comma inside a param value is written as "\,", as in
// "web;skip=dash\,translated_subs".
func ParseCatalog(spec string) ([]Strategy, error) {
	var out []Strategy
	for _, raw := range splitEntries(spec) {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ";")
		head := strings.TrimSpace(parts[0])
		client, skip, _ := strings.Cut(head, ":")
		client = strings.TrimSpace(client)
		if client == "" {
			return nil, fmt.Errorf("engine: strategy %q: missing client", entry)
		}

		s := Strategy{Client: client, Skip: strings.TrimSpace(skip)}
		for _, p := range parts[1:] {
			k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
			if !ok || strings.TrimSpace(k) == "" {
				return nil, fmt.Errorf("engine: strategy %q: malformed param %q", entry, p)
			}
			s.Params = append(s.Params, Param{Key: strings.TrimSpace(k), Value: strings.TrimSpace(v)})
		}
		out = append(out, s)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("engine: strategy list %q is empty", spec)
	}
	return out, nil
}

// splitEntries splits spec on commas not preceded by a backslash and
// unescapes "\," in each entry.
func splitEntries(spec string) []string {
	var (
		entries []string
		cur     strings.Builder
	)
	for i := 0; i < len(spec); i++ {
		switch {
		case spec[i] == '\\' && i+1 < len(spec) && spec[i+1] == ',':
			cur.WriteByte(',')
			i++
		case spec[i] == ',':
			entries = append(entries, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(spec[i])
		}
	}
	return append(entries, cur.String())
}
