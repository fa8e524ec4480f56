package manifest_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/rakesh-nandakumar/contextd/internal/domain"
	"github.com/rakesh-nandakumar/contextd/internal/domain/manifest"
)

func intp(n int) *int { return &n }

func validManifest() manifest.Manifest {
	return manifest.Manifest{
		Version: "1.0.0",
		Sections: map[string]manifest.SectionConfig{
			"profiles": {
				Table:           "profiles",
				Columns:         []string{"name", "title"},
				Priority:        intp(1),
				AlwaysInclude:   true,
				SummaryTemplate: "{name} works as {title}.",
			},
			"blogs": {
				Table:               "blogs",
				Columns:             []string{"title"},
				Priority:            intp(5),
				ItemSummaryTemplate: "{title}",
			},
		},
		RetrievalRules: manifest.RetrievalRules{DefaultTopK: 6},
	}
}

func TestManifest_Validate_Valid(t *testing.T) {
	m := validManifest()
	if err := m.Validate(); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestManifest_Validate_NoSections(t *testing.T) {
	m := manifest.Manifest{}
	err := m.Validate()
	if err == nil || !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got: %v", err)
	}
}

func TestManifest_Validate_MissingTable(t *testing.T) {
	m := validManifest()
	s := m.Sections["blogs"]
	s.Table = ""
	m.Sections["blogs"] = s
	err := m.Validate()
	if err == nil || !strings.Contains(err.Error(), "table is required") {
		t.Fatalf("expected table error, got: %v", err)
	}
}

func TestManifest_Validate_EmptyColumnEntry(t *testing.T) {
	m := validManifest()
	s := m.Sections["blogs"]
	s.Columns = []string{"title", "  "}
	m.Sections["blogs"] = s
	err := m.Validate()
	if err == nil || !strings.Contains(err.Error(), "columns[1]") {
		t.Fatalf("expected column error, got: %v", err)
	}
}

func TestManifest_Validate_NegativeItemLimit(t *testing.T) {
	m := validManifest()
	s := m.Sections["blogs"]
	s.ItemLimit = -1
	m.Sections["blogs"] = s
	if err := m.Validate(); err == nil {
		t.Fatal("expected error for negative itemLimit")
	}
}

func TestManifest_Validate_StagedSectionWithoutColumns(t *testing.T) {
	// A section may be saved with a table but no columns yet; retrieval
	// skips it instead.
	m := validManifest()
	m.Sections["drafts"] = manifest.SectionConfig{Table: "drafts"}
	if err := m.Validate(); err != nil {
		t.Fatalf("staged section should validate, got: %v", err)
	}
}

func TestSectionConfig_EffectivePriority(t *testing.T) {
	c := manifest.SectionConfig{}
	if got := c.EffectivePriority(); got != manifest.PrioritySentinel {
		t.Fatalf("expected sentinel %d, got %d", manifest.PrioritySentinel, got)
	}
	c.Priority = intp(3)
	if got := c.EffectivePriority(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestEnabledSections_AbsentMeansEnabled(t *testing.T) {
	e := manifest.EnabledSections{"blogs": false}
	if e.Enabled("blogs") {
		t.Fatal("blogs should be disabled")
	}
	if !e.Enabled("profiles") {
		t.Fatal("sections absent from the map should be enabled")
	}
}

func TestManifest_ActiveSections_PriorityOrder(t *testing.T) {
	m := manifest.Manifest{
		Sections: map[string]manifest.SectionConfig{
			"third":  {Table: "c", Columns: []string{"x"}, Priority: intp(9)},
			"first":  {Table: "a", Columns: []string{"x"}, Priority: intp(1)},
			"second": {Table: "b", Columns: []string{"x"}, Priority: intp(2)},
		},
	}
	active := m.ActiveSections(nil)
	got := make([]string, len(active))
	for i, s := range active {
		got[i] = s.Name
	}
	want := []string{"first", "second", "third"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}

func TestManifest_ActiveSections_TieBreakByName(t *testing.T) {
	m := manifest.Manifest{
		Sections: map[string]manifest.SectionConfig{
			"zeta":  {Table: "z", Columns: []string{"x"}, Priority: intp(2)},
			"alpha": {Table: "a", Columns: []string{"x"}, Priority: intp(2)},
		},
	}
	active := m.ActiveSections(nil)
	if active[0].Name != "alpha" || active[1].Name != "zeta" {
		t.Fatalf("expected name tie-break, got %q then %q", active[0].Name, active[1].Name)
	}
}

func TestManifest_ActiveSections_UnprioritizedSortLast(t *testing.T) {
	m := manifest.Manifest{
		Sections: map[string]manifest.SectionConfig{
			"aaa_unranked": {Table: "a", Columns: []string{"x"}},
			"ranked":       {Table: "b", Columns: []string{"x"}, Priority: intp(50)},
		},
	}
	active := m.ActiveSections(nil)
	if active[0].Name != "ranked" {
		t.Fatalf("ranked section should come first, got %q", active[0].Name)
	}
}

func TestManifest_ActiveSections_SkipsDisabled(t *testing.T) {
	m := validManifest()
	active := m.ActiveSections(manifest.EnabledSections{"blogs": false})
	for _, s := range active {
		if s.Name == "blogs" {
			t.Fatal("disabled section should be excluded")
		}
	}
}

func TestManifest_ActiveSections_AlwaysIncludeOverridesToggle(t *testing.T) {
	m := validManifest()
	active := m.ActiveSections(manifest.EnabledSections{"profiles": false})
	found := false
	for _, s := range active {
		if s.Name == "profiles" {
			found = true
		}
	}
	if !found {
		t.Fatal("alwaysInclude section should survive a disabled toggle")
	}
}

func TestManifest_ActiveSections_SkipsIncomplete(t *testing.T) {
	m := validManifest()
	m.Sections["drafts"] = manifest.SectionConfig{Table: "drafts"}
	for _, s := range m.ActiveSections(nil) {
		if s.Name == "drafts" {
			t.Fatal("section without columns should be skipped")
		}
	}
}

func TestManifest_ItemLimitFor_Precedence(t *testing.T) {
	m := manifest.Manifest{
		RetrievalRules: manifest.RetrievalRules{
			DefaultTopK:      6,
			MaxItemsPerTable: map[string]int{"blogs": 3},
		},
	}

	if got := m.ItemLimitFor("blogs", manifest.SectionConfig{ItemLimit: 2}); got != 2 {
		t.Fatalf("itemLimit should win, got %d", got)
	}
	if got := m.ItemLimitFor("blogs", manifest.SectionConfig{}); got != 3 {
		t.Fatalf("maxItemsPerTable should apply, got %d", got)
	}
	if got := m.ItemLimitFor("portfolios", manifest.SectionConfig{}); got != 6 {
		t.Fatalf("defaultTopK should apply, got %d", got)
	}

	empty := manifest.Manifest{}
	if got := empty.ItemLimitFor("blogs", manifest.SectionConfig{}); got != manifest.FallbackItemLimit {
		t.Fatalf("fallback cap should apply, got %d", got)
	}
}

func TestDefault_IsValidAndComplete(t *testing.T) {
	m := manifest.Default()
	if err := m.Validate(); err != nil {
		t.Fatalf("default manifest must validate: %v", err)
	}
	for name, c := range m.Sections {
		if !c.Complete() {
			t.Fatalf("default section %q must be complete", name)
		}
	}
	if len(m.ActiveSections(manifest.DefaultEnabled())) != len(m.Sections) {
		t.Fatal("all default sections should be active by default")
	}
}
