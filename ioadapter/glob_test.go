package ioadapter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandGlob_LexicographicOrder(t *testing.T) {
	dir := t.TempDir()
	names := []string{"part-002.json", "part-000.json", "part-001.json"}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("{}"), 0o644); err != nil {
			t.Fatalf("WriteFile(%s): %v", n, err)
		}
	}

	got, err := ExpandGlob(filepath.Join(dir, "*.json"))
	if err != nil {
		t.Fatalf("ExpandGlob: %v", err)
	}
	want := []string{"part-000.json", "part-001.json", "part-002.json"}
	if len(got) != len(want) {
		t.Fatalf("ExpandGlob returned %d matches, want %d", len(got), len(want))
	}
	for i, w := range want {
		if filepath.Base(got[i]) != w {
			t.Errorf("match %d = %q, want %q", i, filepath.Base(got[i]), w)
		}
	}
}

func TestExpandGlob_NoMatchesIsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	got, err := ExpandGlob(filepath.Join(dir, "*.missing"))
	if err != nil {
		t.Fatalf("ExpandGlob: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ExpandGlob with no matches = %v, want empty", got)
	}
}

func TestExpandGlob_MalformedPatternErrors(t *testing.T) {
	if _, err := ExpandGlob("[unterminated"); err == nil {
		t.Fatalf("expected an error for a malformed glob pattern")
	}
}
