package postgres

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// identPattern matches SQL identifiers that are safe to interpolate.
// Table and column names come from the manifest, which is operator-supplied,
// so they are validated rather than trusted.
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validIdent returns the identifier unchanged or an error when it cannot be
// safely embedded in a statement.
func validIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return name, nil
}

// singularize maps a plural table name to the singular used in foreign key
// column names: "contact_types" -> "contact_type", "timeline_categories" ->
// "timeline_category".
func singularize(table string) string {
	if strings.HasSuffix(table, "ies") {
		return table[:len(table)-3] + "y"
	}
	return strings.TrimSuffix(table, "s")
}

// keyText renders a JSON-decoded key value (number or string) as text for
// use in an id comparison cast to text.
func keyText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}
