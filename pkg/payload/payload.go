// Package payload provides the string-keyed value tree carried by events and snapshot records.
package payload

import (
	"strings"
	"time"
)

// Payload is a string-keyed tree. Leaves are scalars (string, bool, numbers, time.Time, nil),
// sequences ([]any, []string) or nested maps.
type Payload map[string]any

// Lookup resolves a dot-separated path. The boolean is false when any segment is absent or an
// intermediate node is not a map.
func (p Payload) Lookup(path string) (any, bool) {
	if p == nil || path == "" {
		return nil, false
	}

	var current any = map[string]any(p)

	for _, segment := range strings.Split(path, ".") {
		node, ok := asMap(current)
		if !ok {
			return nil, false
		}

		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// String returns the value at path when it is a non-empty string.
func (p Payload) String(path string) (string, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return "", false
	}

	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}

// Clone returns a shallow copy with nested maps copied as well.
func (p Payload) Clone() Payload {
	if p == nil {
		return Payload{}
	}

	out := make(Payload, len(p))
	for k, v := range p {
		if m, ok := asMap(v); ok {
			out[k] = map[string]any(Payload(m).Clone())

			continue
		}

		out[k] = v
	}

	return out
}

// With returns a copy of p with key set to value.
func (p Payload) With(key string, value any) Payload {
	out := p.Clone()
	out[key] = value

	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Payload:
		return m, true
	default:
		return nil, false
	}
}

// Relative day labels produced by RelativeDay.
const (
	Today    = "today"
	Tomorrow = "tomorrow"
)

// RelativeDay labels t relative to now on the calendar of now's location.
// It returns Today, Tomorrow or an empty string.
func RelativeDay(t, now time.Time) string {
	t = t.In(now.Location())

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	ty, tm, td := t.Date()
	day := time.Date(ty, tm, td, 0, 0, 0, 0, now.Location())

	switch {
	case day.Equal(today):
		return Today
	case day.Equal(today.AddDate(0, 0, 1)):
		return Tomorrow
	default:
		return ""
	}
}
