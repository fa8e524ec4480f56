package grounding_test

import (
	"strings"
	"testing"

	"github.com/rakesh-nandakumar/contextd/internal/domain/grounding"
	"github.com/rakesh-nandakumar/contextd/internal/domain/manifest"
)

func TestEstimateTokens(t *testing.T) {
	if got := grounding.EstimateTokens(""); got != 0 {
		t.Fatalf("empty string: got %d", got)
	}
	if got := grounding.EstimateTokens("ab"); got != 1 {
		t.Fatalf("short string rounds up to 1, got %d", got)
	}
	if got := grounding.EstimateTokens(strings.Repeat("x", 400)); got != 100 {
		t.Fatalf("400 chars: got %d", got)
	}
}

func TestBlock_Text(t *testing.T) {
	b := grounding.Block{Section: "profiles", Lines: []string{"Rakesh builds web apps."}}
	want := "PROFILES:\nRakesh builds web apps.\n\n"
	if got := b.Text(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderBlock_SummaryTemplateUsesFirstRecord(t *testing.T) {
	c := manifest.SectionConfig{SummaryTemplate: "{name} is a developer. {short_bio}"}
	records := []map[string]any{
		{"name": "Rakesh", "short_bio": "Builds web apps."},
		{"name": "Someone Else", "short_bio": "Ignored."},
	}
	b := grounding.RenderBlock("profiles", c, records)
	if len(b.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(b.Lines))
	}
	if b.Lines[0] != "Rakesh is a developer. Builds web apps." {
		t.Fatalf("got %q", b.Lines[0])
	}
}

func TestRenderBlock_ItemTemplateBulletsEachRecord(t *testing.T) {
	c := manifest.SectionConfig{ItemSummaryTemplate: "{title}: {description}"}
	records := []map[string]any{
		{"title": "Shop", "description": "An online store"},
		{"title": "Blog", "description": "A writing platform"},
	}
	b := grounding.RenderBlock("portfolios", c, records)
	if len(b.Lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(b.Lines))
	}
	if b.Lines[0] != "- Shop: An online store" {
		t.Fatalf("got %q", b.Lines[0])
	}
	if b.Lines[1] != "- Blog: A writing platform" {
		t.Fatalf("got %q", b.Lines[1])
	}
}

func TestRenderBlock_NoTemplateFallsBackToJSON(t *testing.T) {
	c := manifest.SectionConfig{}
	records := []map[string]any{{"title": "Shop"}}
	b := grounding.RenderBlock("portfolios", c, records)
	if len(b.Lines) != 1 || b.Lines[0] != `- {"title":"Shop"}` {
		t.Fatalf("got %v", b.Lines)
	}
}

func TestAssemble_IncludesEverythingUnderBudget(t *testing.T) {
	blocks := []grounding.Block{
		{Section: "a", Lines: []string{"one"}},
		{Section: "b", Lines: []string{"two"}},
	}
	out := grounding.Assemble(blocks, 1000)
	if len(out.Sections) != 2 {
		t.Fatalf("expected both sections, got %v", out.Sections)
	}
	if !strings.Contains(out.Text, "A:\n") || !strings.Contains(out.Text, "B:\n") {
		t.Fatalf("missing headers in %q", out.Text)
	}
	if out.TokenEstimate != grounding.EstimateTokens(blocks[0].Text())+grounding.EstimateTokens(blocks[1].Text()) {
		t.Fatalf("token estimate mismatch: %d", out.TokenEstimate)
	}
}

func TestAssemble_StopsAtFirstBlockOverBudget(t *testing.T) {
	big := strings.Repeat("x", 400) // 100 tokens of line text alone
	blocks := []grounding.Block{
		{Section: "first", Lines: []string{"short"}},
		{Section: "second", Lines: []string{big}},
		{Section: "third", Lines: []string{"also short"}},
	}
	budget := grounding.EstimateTokens(blocks[0].Text()) + 10
	out := grounding.Assemble(blocks, budget)
	if len(out.Sections) != 1 || out.Sections[0] != "first" {
		t.Fatalf("expected truncation after first, got %v", out.Sections)
	}
	if strings.Contains(out.Text, "THIRD") {
		t.Fatal("assembly must stop entirely, not skip ahead")
	}
}

func TestAssemble_ZeroBudgetYieldsEmptyContext(t *testing.T) {
	blocks := []grounding.Block{{Section: "a", Lines: []string{"one"}}}
	out := grounding.Assemble(blocks, 0)
	if out.Text != "" || out.TokenEstimate != 0 {
		t.Fatalf("expected empty context, got %+v", out)
	}
	if out.Sections == nil || len(out.Sections) != 0 {
		t.Fatalf("sections must be an empty list, got %#v", out.Sections)
	}
}

func TestAssemble_NoBlocks(t *testing.T) {
	out := grounding.Assemble(nil, 100)
	if out.Text != "" || len(out.Sections) != 0 {
		t.Fatalf("expected empty context, got %+v", out)
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	blocks := []grounding.Block{
		{Section: "profiles", Lines: []string{"Rakesh builds web apps."}},
		{Section: "contacts", Lines: []string{"- Email: rakesh@example.com"}},
	}
	first := grounding.Assemble(blocks, 500)
	second := grounding.Assemble(blocks, 500)
	if first.Text != second.Text || first.TokenEstimate != second.TokenEstimate {
		t.Fatal("same input must assemble identically")
	}
}
