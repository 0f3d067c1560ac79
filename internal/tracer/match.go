package tracer

import (
	"path"
	"strings"
)

// matcher decides whether an event is captured. Patterns are matched against
// both the node id and the route id; the filter is a header predicate of the
// form "name" (header present) or "name=value".
type matcher struct {
	patterns    []string
	filterKey   string
	filterValue string
	filterEq    bool
}

func compileMatcher(pattern, filter string) matcher {
	var m matcher
	for _, p := range strings.Split(pattern, ",") {
		if p = strings.TrimSpace(p); p != "" {
			m.patterns = append(m.patterns, p)
		}
	}
	if filter = strings.TrimSpace(filter); filter != "" {
		if k, v, ok := strings.Cut(filter, "="); ok {
			m.filterKey, m.filterValue, m.filterEq = strings.TrimSpace(k), strings.TrimSpace(v), true
		} else {
			m.filterKey = filter
		}
	}
	return m
}

func (m matcher) accepts(ev Event) bool {
	if len(m.patterns) > 0 && !m.matchesPattern(ev) {
		return false
	}
	if m.filterKey == "" {
		return true
	}
	v, ok := ev.Headers[m.filterKey]
	if !ok {
		return false
	}
	return !m.filterEq || v == m.filterValue
}

func (m matcher) matchesPattern(ev Event) bool {
	for _, p := range m.patterns {
		for _, id := range []string{ev.NodeID, ev.RouteID} {
			if id == "" {
				continue
			}
			if id == p {
				return true
			}
			if ok, err := path.Match(p, id); err == nil && ok {
				return true
			}
		}
	}
	return false
}
