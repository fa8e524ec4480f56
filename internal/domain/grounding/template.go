package grounding

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Template is a compiled placeholder template. Placeholders are written
// {field} or {relation.field}; the template is tokenized once and rendered
// by a single left-to-right scan per record.
type Template struct {
	segments []segment
}

// segment is either a literal run of text or one placeholder path.
type segment struct {
	literal string
	path    []string
}

// Compile tokenizes a template string into literal and placeholder
// segments. A brace that never closes, or an empty {}, stays literal.
func Compile(s string) *Template {
	t := &Template{}
	for len(s) > 0 {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			t.segments = append(t.segments, segment{literal: s})
			break
		}
		closing := strings.IndexByte(s[open:], '}')
		if closing < 0 {
			t.segments = append(t.segments, segment{literal: s})
			break
		}
		closing += open
		inner := s[open+1 : closing]
		if inner == "" {
			t.segments = append(t.segments, segment{literal: s[:closing+1]})
			s = s[closing+1:]
			continue
		}
		if open > 0 {
			t.segments = append(t.segments, segment{literal: s[:open]})
		}
		t.segments = append(t.segments, segment{path: strings.Split(inner, ".")})
		s = s[closing+1:]
	}
	return t
}

// Render substitutes every placeholder against the record. Unresolvable
// placeholders (absent field, null, invalid path) become the empty string;
// rendering is best-effort and never fails. The result is trimmed.
func (t *Template) Render(record map[string]any) string {
	var sb strings.Builder
	for _, seg := range t.segments {
		if seg.path == nil {
			sb.WriteString(seg.literal)
			continue
		}
		sb.WriteString(resolve(record, seg.path))
	}
	return strings.TrimSpace(sb.String())
}

// resolve descends the placeholder path through nested relation objects.
// When a list is met, the remaining path is resolved across all entries and
// the values joined with ", ".
func resolve(v any, path []string) string {
	for i, key := range path {
		switch cur := v.(type) {
		case map[string]any:
			v = cur[key]
		case []any:
			parts := make([]string, 0, len(cur))
			for _, item := range cur {
				if s := resolve(item, path[i:]); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, ", ")
		default:
			return ""
		}
	}
	return stringify(v)
}

// stringify converts a terminal value to text. Lists join their entries
// with ", "; objects join their non-empty values in key order.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := stringify(t[k]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
