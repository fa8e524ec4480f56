package manifest_test

import (
	"reflect"
	"testing"

	"github.com/rakesh-nandakumar/contextd/internal/domain/manifest"
)

func TestParseColumnSpec_Plain(t *testing.T) {
	spec := manifest.ParseColumnSpec(" title ")
	if spec.Name != "title" || spec.IsRelation() {
		t.Fatalf("expected plain column, got %+v", spec)
	}
}

func TestParseColumnSpec_Wildcard(t *testing.T) {
	spec := manifest.ParseColumnSpec("*")
	if spec.Name != "*" || spec.IsRelation() {
		t.Fatalf("expected plain wildcard, got %+v", spec)
	}
}

func TestParseColumnSpec_Relation(t *testing.T) {
	spec := manifest.ParseColumnSpec("contact_types(name, icon)")
	if !spec.IsRelation() {
		t.Fatalf("expected relation, got %+v", spec)
	}
	if spec.Name != "contact_types" {
		t.Fatalf("expected relation name contact_types, got %q", spec.Name)
	}
	if !reflect.DeepEqual(spec.Columns, []string{"name", "icon"}) {
		t.Fatalf("unexpected sub-columns: %v", spec.Columns)
	}
}

func TestParseColumnSpec_EmptyRelationColumns(t *testing.T) {
	spec := manifest.ParseColumnSpec("tags()")
	if !spec.IsRelation() || len(spec.Columns) != 0 {
		t.Fatalf("expected relation with no sub-columns, got %+v", spec)
	}
}

func TestParseColumnSpec_MalformedFallsBackToPlain(t *testing.T) {
	for _, in := range []string{"tags(name", "(name)", "tags)name("} {
		spec := manifest.ParseColumnSpec(in)
		if spec.IsRelation() {
			t.Fatalf("%q should parse as a plain column, got %+v", in, spec)
		}
	}
}

func TestParseColumns(t *testing.T) {
	specs := manifest.ParseColumns([]string{"name", "technologies(name)"})
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].IsRelation() || !specs[1].IsRelation() {
		t.Fatalf("unexpected spec kinds: %+v", specs)
	}
}
