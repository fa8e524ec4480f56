package manifest

import "strings"

// ColumnSpec is one entry of SectionConfig.Columns: either a plain column
// name, or a relation expansion such as "contact_types(name, icon)" that the
// row store resolves into a nested object or list on each record.
type ColumnSpec struct {
	Name    string
	Columns []string // relation sub-columns; nil for a plain column
}

// IsRelation reports whether the column expands a related table.
func (c ColumnSpec) IsRelation() bool {
	return c.Columns != nil
}

// ParseColumnSpec parses a single column entry. Malformed relation syntax
// falls back to a plain column of the trimmed input.
func ParseColumnSpec(s string) ColumnSpec {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return ColumnSpec{Name: s}
	}
	name := strings.TrimSpace(s[:open])
	inner := s[open+1 : len(s)-1]
	cols := make([]string, 0, 2)
	for _, c := range strings.Split(inner, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return ColumnSpec{Name: name, Columns: cols}
}

// ParseColumns parses every entry of a section's column projection.
func ParseColumns(columns []string) []ColumnSpec {
	specs := make([]ColumnSpec, 0, len(columns))
	for _, c := range columns {
		specs = append(specs, ParseColumnSpec(c))
	}
	return specs
}
