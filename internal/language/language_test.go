package language

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinRoutes(t *testing.T) {
	r := Builtin()

	tests := []struct {
		key       string
		route     Route
		transform bool
	}{
		{"javascript", Local, false},
		{"typescript", Local, true},
		{"python", Remote, false},
		{"java", Remote, false},
		{"cpp", Remote, false},
		{"kotlin", Remote, false},
	}

	for _, tc := range tests {
		d, err := r.Describe(tc.key)
		if err != nil {
			t.Fatalf("Describe(%q): %v", tc.key, err)
		}
		if d.Route != tc.route {
			t.Errorf("%s: route = %q, want %q", tc.key, d.Route, tc.route)
		}
		if d.NeedsTransform() != tc.transform {
			t.Errorf("%s: NeedsTransform = %v, want %v", tc.key, d.NeedsTransform(), tc.transform)
		}
		if d.Scaffold == "" {
			t.Errorf("%s: empty scaffold", tc.key)
		}
	}
}

func TestDescribeExactMatch(t *testing.T) {
	r := Builtin()

	for _, key := range []string{"JavaScript", "java ", "py", ""} {
		_, err := r.Describe(key)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Describe(%q) error = %v, want ErrNotFound", key, err)
		}
	}
}

func TestAllPreservesOrder(t *testing.T) {
	r := Builtin()
	all := r.All()
	if len(all) != 12 {
		t.Fatalf("got %d languages, want 12", len(all))
	}
	if all[0].Key != "javascript" || all[1].Key != "typescript" {
		t.Errorf("first keys = %q, %q", all[0].Key, all[1].Key)
	}

	// Mutating the returned slice must not leak into the registry.
	all[0].DisplayName = "changed"
	d, _ := r.Describe("javascript")
	if d.DisplayName != "JavaScript" {
		t.Errorf("registry mutated through All(): %q", d.DisplayName)
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse([]byte(`
languages:
  - key: js
    route: local
  - key: js
    route: remote
`))
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestParseRejectsUnknownRoute(t *testing.T) {
	_, err := Parse([]byte(`
languages:
  - key: js
    route: browser
`))
	if err == nil {
		t.Fatal("expected unknown route error")
	}
}

func TestParseDefaults(t *testing.T) {
	r, err := Parse([]byte(`
languages:
  - key: js
    route: local
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	d, _ := r.Describe("js")
	if d.Dialect != JavaScript {
		t.Errorf("dialect = %q, want %q", d.Dialect, JavaScript)
	}
	if d.DisplayName != "js" || d.SyntaxID != "js" {
		t.Errorf("defaults not applied: %+v", d)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "langs.yaml")
	os.WriteFile(path, []byte("languages:\n  - key: ruby\n    route: remote\n"), 0o644)

	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if keys := r.Keys(); len(keys) != 1 || keys[0] != "ruby" {
		t.Errorf("keys = %v", keys)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
