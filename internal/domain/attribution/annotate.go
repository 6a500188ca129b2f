package attribution

import (
	"net/url"
	"strings"
)

// Annotator appends resolved attribution to outgoing links.
type Annotator struct {
	resolver Resolver
}

// NewAnnotator creates an annotator that reads attribution from resolver.
func NewAnnotator(resolver Resolver) *Annotator {
	return &Annotator{resolver: resolver}
}

// Annotate merges the resolved attribution with overrides (overrides win) and
// writes the result into rawURL's query. With nothing to add, rawURL is
// returned unchanged.
func (a *Annotator) Annotate(rawURL string, overrides Set) string {
	merged := Set{}
	if a.resolver != nil {
		merged = a.resolver.ResolveAll()
	}
	return AppendToURL(rawURL, merged.Merge(overrides))
}

// AppendToURL sets every key of set in rawURL's query. Existing parameters
// keep their position and encoding; a key already present is overwritten in
// place and any repeated occurrences are dropped. The fragment is preserved.
func AppendToURL(rawURL string, set Set) string {
	if len(set) == 0 {
		return rawURL
	}

	base, fragment := rawURL, ""
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base, fragment = base[:i], base[i:]
	}
	path, query, _ := strings.Cut(base, "?")

	written := make(map[Key]bool, len(set))
	segments := make([]string, 0, len(set)+strings.Count(query, "&")+1)

	for _, segment := range strings.Split(query, "&") {
		if segment == "" {
			continue
		}
		key := Key(segmentKey(segment))
		value, managed := set[key]
		if !managed {
			segments = append(segments, segment)
			continue
		}
		if written[key] {
			continue
		}
		written[key] = true
		segments = append(segments, encodePair(key, value))
	}

	for _, key := range set.OrderedKeys() {
		if !written[key] {
			segments = append(segments, encodePair(key, set[key]))
		}
	}

	return path + "?" + strings.Join(segments, "&") + fragment
}

func segmentKey(segment string) string {
	name, _, _ := strings.Cut(segment, "=")
	if decoded, err := url.QueryUnescape(name); err == nil {
		return decoded
	}
	return name
}

func encodePair(key Key, value string) string {
	return url.QueryEscape(string(key)) + "=" + url.QueryEscape(value)
}
