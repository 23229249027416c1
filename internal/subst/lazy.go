package subst

import (
	"sync"
)

// Substituted is a value with a possibly pending, not-yet-applied
// substitution. Deferring composes pendings via Join instead of applying
// them, so a large body that is never needed is never rewritten. Forcing
// memoizes: the apply function runs at most once per instance.
type Substituted[T any] struct {
	mu      sync.Mutex
	value   T
	pending Substitution
	hasPend bool
}

// FromVal wraps an already-resolved value.
func FromVal[T any](x T) *Substituted[T] {
	return &Substituted[T]{value: x}
}

// Defer records s as pending on lv without forcing it. If lv already has
// a pending substitution s0 the new instance carries join(s0, s); the
// earlier pending is never dropped. lv itself is left untouched.
func Defer[T any](s Substitution, lv *Substituted[T]) *Substituted[T] {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	if lv.hasPend {
		return &Substituted[T]{value: lv.value, pending: lv.pending.Join(s), hasPend: true}
	}
	return &Substituted[T]{value: lv.value, pending: s, hasPend: true}
}

// Force applies any pending substitution through apply, caches the result
// as the resolved state, and returns it. Idempotent: later forces return
// the cached value without calling apply again. Safe for concurrent use.
func (lv *Substituted[T]) Force(apply func(Substitution, T) T) T {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	if lv.hasPend {
		lv.value = apply(lv.pending, lv.value)
		lv.pending = Substitution{}
		lv.hasPend = false
	}
	return lv.value
}

// Inspect exposes the pending substitution (if any) and the current
// pre-application value without forcing.
func (lv *Substituted[T]) Inspect() (Substitution, bool, T) {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return lv.pending, lv.hasPend, lv.value
}
