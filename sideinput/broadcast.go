package sideinput

import (
	"sync"

	"github.com/google/uuid"
	"github.com/kbukum/flowbatch/perrors"
	"github.com/kbukum/flowbatch/util"
)

// Token is the opaque identifier a with_side node uses to look up its
// registered value. NewToken mints one per registration; tokens are not
// meant to be predictable or reused across pipelines.
type Token struct {
	id string
}

// NewToken mints a fresh, globally unique token.
func NewToken() Token {
	return Token{id: uuid.NewString()}
}

func (t Token) String() string { return t.id }

// Registry holds registered side values keyed by Token, with O(1) lookup.
// Register is rejected once Lock has been called (a run has begun),
// matching §4.5's "reject registration after a run begins".
type Registry struct {
	mu     sync.RWMutex
	values map[Token]any
	locked bool
}

// NewRegistry creates an empty, unlocked Registry.
func NewRegistry() *Registry {
	return &Registry{values: make(map[Token]any)}
}

// Register stores value under a freshly minted Token. Callers are
// responsible for passing an already read-only value (or a value they
// will not mutate again); Register does not deep-copy.
func (r *Registry) Register(value any) (Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked {
		return Token{}, perrors.PipelineLocked()
	}
	tok := NewToken()
	r.values[tok] = value
	return tok, nil
}

// Lock freezes the registry: subsequent Register calls fail. Called by
// the executor immediately before a run begins.
func (r *Registry) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// Resolve returns the value registered under tok. Every worker calls this
// independently; no cross-worker coordination is needed since the
// returned value is treated as read-only for the duration of the run.
func (r *Registry) Resolve(tok Token) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[tok]
	return v, ok
}

// Tokens returns every token currently registered, in no particular
// order. Used for debug logging at build time, not for lookups.
func (r *Registry) Tokens() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return util.Keys(r.values)
}
