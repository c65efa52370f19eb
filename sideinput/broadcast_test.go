package sideinput

import "testing"

func TestRegisterThenResolve(t *testing.T) {
	r := NewRegistry()
	tok, err := r.Register(42)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	v, ok := r.Resolve(tok)
	if !ok {
		t.Fatalf("Resolve(%v) = (_, false), want true", tok)
	}
	if v.(int) != 42 {
		t.Errorf("Resolve(%v) = %v, want 42", tok, v)
	}
}

func TestResolve_UnknownTokenMisses(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Resolve(NewToken()); ok {
		t.Errorf("Resolve on a token never registered with this registry should miss")
	}
}

func TestRegister_RejectedAfterLock(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Register("before"); err != nil {
		t.Fatalf("Register before Lock: %v", err)
	}
	r.Lock()
	if _, err := r.Register("after"); err == nil {
		t.Fatalf("expected Register to fail once the registry is locked")
	}
}

func TestTwoTokens_AreDistinct(t *testing.T) {
	r := NewRegistry()
	a, err := r.Register("a")
	if err != nil {
		t.Fatalf("Register a: %v", err)
	}
	b, err := r.Register("b")
	if err != nil {
		t.Fatalf("Register b: %v", err)
	}
	if a == b {
		t.Errorf("two independent registrations minted the same token: %v", a)
	}
	av, _ := r.Resolve(a)
	bv, _ := r.Resolve(b)
	if av.(string) != "a" || bv.(string) != "b" {
		t.Errorf("tokens resolved to the wrong values: a=%v b=%v", av, bv)
	}
}
