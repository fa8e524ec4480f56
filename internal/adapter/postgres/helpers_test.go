package postgres

import "testing"

func TestValidIdent(t *testing.T) {
	for _, ok := range []string{"profiles", "contact_types", "_private", "t2"} {
		if _, err := validIdent(ok); err != nil {
			t.Errorf("%q should be valid: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "1table", "name; drop table x", `a"b`, "a-b", "a.b"} {
		if _, err := validIdent(bad); err == nil {
			t.Errorf("%q should be rejected", bad)
		}
	}
}

func TestSingularize(t *testing.T) {
	cases := map[string]string{
		"profiles":            "profile",
		"contact_types":       "contact_type",
		"timeline_categories": "timeline_category",
		"blogs":               "blog",
		"status":              "statu", // naive rule; acceptable for FK naming here
	}
	for in, want := range cases {
		if got := singularize(in); got != want {
			t.Errorf("singularize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestKeyText(t *testing.T) {
	if s, ok := keyText("abc-123"); !ok || s != "abc-123" {
		t.Fatalf("string key: got %q, %v", s, ok)
	}
	if s, ok := keyText(float64(42)); !ok || s != "42" {
		t.Fatalf("float key: got %q, %v", s, ok)
	}
	if _, ok := keyText(""); ok {
		t.Fatal("empty string key must be rejected")
	}
	if _, ok := keyText(nil); ok {
		t.Fatal("nil key must be rejected")
	}
}
