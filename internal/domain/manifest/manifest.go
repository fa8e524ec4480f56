// Package manifest defines the declarative retrieval manifest: which tables
// to query, how to render their rows, and at what priority they compete for
// the grounding-context token budget.
package manifest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rakesh-nandakumar/contextd/internal/domain"
)

// PrioritySentinel is the effective priority of a section that declares none.
// Large so that unprioritized sections sort last.
const PrioritySentinel = 999

// FallbackItemLimit is the hard per-section row cap used when neither the
// section nor the retrieval rules specify one.
const FallbackItemLimit = 5

// Manifest describes the sections assembled into grounding context.
type Manifest struct {
	Version        string                   `json:"version,omitempty"`
	Sections       map[string]SectionConfig `json:"sections"`
	RetrievalRules RetrievalRules           `json:"retrievalRules,omitempty"`
}

// SectionConfig binds one named section to a backing table, a column
// projection, a render template, and a priority.
type SectionConfig struct {
	Table         string   `json:"table"`
	Columns       []string `json:"columns,omitempty"`
	Priority      *int     `json:"priority,omitempty"`
	AlwaysInclude bool     `json:"alwaysInclude,omitempty"`
	ItemLimit     int      `json:"itemLimit,omitempty"`

	// SummaryTemplate renders the single logical row of a singular section;
	// ItemSummaryTemplate renders one bulleted line per row of a list section.
	SummaryTemplate     string `json:"summaryTemplate,omitempty"`
	ItemSummaryTemplate string `json:"itemSummaryTemplate,omitempty"`
}

// EffectivePriority returns the section's priority, or PrioritySentinel when
// none is declared. Lower values are processed earlier.
func (c SectionConfig) EffectivePriority() int {
	if c.Priority == nil {
		return PrioritySentinel
	}
	return *c.Priority
}

// Complete reports whether the section can be retrieved. A manifest may
// intentionally stage a section without table or columns; such sections are
// skipped, not rejected.
func (c SectionConfig) Complete() bool {
	return c.Table != "" && len(c.Columns) > 0
}

// RetrievalRules hold the per-section row caps.
type RetrievalRules struct {
	DefaultTopK      int            `json:"defaultTopK,omitempty"`
	MaxItemsPerTable map[string]int `json:"maxItemsPerTable,omitempty"`
}

// EnabledSections is the on/off toggle map layered on top of the manifest.
// Sections absent from the map are enabled.
type EnabledSections map[string]bool

// Enabled reports whether the named section is toggled on.
func (e EnabledSections) Enabled(name string) bool {
	v, ok := e[name]
	return !ok || v
}

// ItemLimitFor resolves the effective row cap for a section: the section's
// own itemLimit, then the per-table override, then defaultTopK, then the
// hard fallback.
func (m *Manifest) ItemLimitFor(name string, c SectionConfig) int {
	if c.ItemLimit > 0 {
		return c.ItemLimit
	}
	if n, ok := m.RetrievalRules.MaxItemsPerTable[name]; ok && n > 0 {
		return n
	}
	if m.RetrievalRules.DefaultTopK > 0 {
		return m.RetrievalRules.DefaultTopK
	}
	return FallbackItemLimit
}

// ActiveSection is one section selected and ordered for retrieval.
type ActiveSection struct {
	Name   string
	Config SectionConfig
}

// ActiveSections returns the sections to retrieve, in effective priority
// order. A section qualifies when it is toggled on (or flagged
// alwaysInclude) and is structurally complete. Priority ties are broken by
// section name so ordering is deterministic.
func (m *Manifest) ActiveSections(enabled EnabledSections) []ActiveSection {
	active := make([]ActiveSection, 0, len(m.Sections))
	for name, c := range m.Sections {
		if !enabled.Enabled(name) && !c.AlwaysInclude {
			continue
		}
		if !c.Complete() {
			continue
		}
		active = append(active, ActiveSection{Name: name, Config: c})
	}
	sort.Slice(active, func(i, j int) bool {
		pi, pj := active[i].Config.EffectivePriority(), active[j].Config.EffectivePriority()
		if pi != pj {
			return pi < pj
		}
		return active[i].Name < active[j].Name
	})
	return active
}

// Validate checks that the manifest is structurally sound for persistence.
// Staged sections may omit columns, but every section needs a table.
func (m *Manifest) Validate() error {
	if len(m.Sections) == 0 {
		return fmt.Errorf("%w: at least one section is required", domain.ErrValidation)
	}
	for name, c := range m.Sections {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: section name must not be empty", domain.ErrValidation)
		}
		if strings.TrimSpace(c.Table) == "" {
			return fmt.Errorf("%w: section %q: table is required", domain.ErrValidation, name)
		}
		for i, col := range c.Columns {
			if strings.TrimSpace(col) == "" {
				return fmt.Errorf("%w: section %q: columns[%d] must not be empty", domain.ErrValidation, name, i)
			}
		}
		if c.ItemLimit < 0 {
			return fmt.Errorf("%w: section %q: itemLimit must not be negative", domain.ErrValidation, name)
		}
	}
	if m.RetrievalRules.DefaultTopK < 0 {
		return fmt.Errorf("%w: retrievalRules.defaultTopK must not be negative", domain.ErrValidation)
	}
	for name, n := range m.RetrievalRules.MaxItemsPerTable {
		if n < 0 {
			return fmt.Errorf("%w: retrievalRules.maxItemsPerTable[%q] must not be negative", domain.ErrValidation, name)
		}
	}
	return nil
}
