package util

import "testing"

func TestStringInSlice(t *testing.T) {
	if !StringInSlice("b", []string{"a", "b", "c"}) {
		t.Error("expected to find 'b'")
	}
	if StringInSlice("z", []string{"a", "b"}) {
		t.Error("expected not to find 'z'")
	}
	if StringInSlice("a", nil) {
		t.Error("expected nil slice to contain nothing")
	}
}

func TestKeys(t *testing.T) {
	m := map[string]int{"a": 1, "b": 2}
	keys := Keys(m)
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if !StringInSlice("a", keys) || !StringInSlice("b", keys) {
		t.Errorf("expected keys to contain 'a' and 'b', got %v", keys)
	}
}

func TestKeysEmpty(t *testing.T) {
	keys := Keys(map[string]int{})
	if len(keys) != 0 {
		t.Errorf("expected empty keys, got %d", len(keys))
	}
}
