package subst

import (
	"sync"
	"testing"

	"github.com/funvibe/modsubst/internal/names"
	"github.com/funvibe/modsubst/internal/term"
)

func TestFromValIsResolved(t *testing.T) {
	v := term.Term(&term.Rel{Index: 1})
	lv := FromVal(v)

	_, pend, raw := lv.Inspect()
	if pend {
		t.Fatalf("FromVal must be resolved")
	}
	if raw != v {
		t.Fatalf("Inspect must expose the wrapped value")
	}

	calls := 0
	got := lv.Force(func(s Substitution, x term.Term) term.Term {
		calls++
		return x
	})
	if got != v || calls != 0 {
		t.Errorf("forcing a resolved value must be free, calls=%d", calls)
	}
}

func TestDeferComposesPendings(t *testing.T) {
	m := mustPath(t, "Lib.M")
	n := mustPath(t, "Lib.N")
	o := mustPath(t, "Lib.O")
	s1 := BindModulePath(m, n, EmptyDelta())
	s2 := BindModulePath(n, o, EmptyDelta())

	v := term.Term(&term.Const{Ref: names.Constant{Name: mustName(t, "Lib.M.c")}})
	lv := Defer(s2, Defer(s1, FromVal(v)))

	pending, pend, raw := lv.Inspect()
	if !pend {
		t.Fatalf("deferred value must be pending")
	}
	if raw != v {
		t.Fatalf("deferring must not rewrite the value")
	}
	if len(pending.Renamings()) != 2 {
		t.Fatalf("pendings must compose via Join, got %d steps", len(pending.Renamings()))
	}

	calls := 0
	got := lv.Force(func(s Substitution, x term.Term) term.Term {
		calls++
		return s.Term(x)
	})
	if calls != 1 {
		t.Fatalf("apply must run exactly once, ran %d times", calls)
	}
	cn, ok := got.(*term.Const)
	if !ok || cn.Ref.Name.String() != "Lib.O.c" {
		t.Errorf("forced value = %#v, want Lib.O.c occurrence", got)
	}

	// Second force is a cache hit.
	again := lv.Force(func(s Substitution, x term.Term) term.Term {
		calls++
		return s.Term(x)
	})
	if again != got || calls != 1 {
		t.Errorf("repeated force must return the cached value without re-applying")
	}
}

func TestDeferLeavesOriginalUntouched(t *testing.T) {
	s := BindModulePath(mustPath(t, "Lib.M"), mustPath(t, "Lib.N"), EmptyDelta())
	orig := FromVal(term.Term(&term.Rel{Index: 3}))
	_ = Defer(s, orig)

	if _, pend, _ := orig.Inspect(); pend {
		t.Fatalf("Defer must not mutate its argument")
	}
}

func TestConcurrentForceAppliesOnce(t *testing.T) {
	s := BindModulePath(mustPath(t, "Lib.M"), mustPath(t, "Lib.N"), EmptyDelta())
	lv := Defer(s, FromVal(term.Term(&term.Const{Ref: names.Constant{Name: mustName(t, "Lib.M.c")}})))

	var mu sync.Mutex
	calls := 0
	apply := func(s Substitution, x term.Term) term.Term {
		mu.Lock()
		calls++
		mu.Unlock()
		return s.Term(x)
	}

	var wg sync.WaitGroup
	results := make([]term.Term, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = lv.Force(apply)
		}(i)
	}
	wg.Wait()

	if calls != 1 {
		t.Fatalf("apply ran %d times under concurrent forcing", calls)
	}
	for i := 1; i < 8; i++ {
		if results[i] != results[0] {
			t.Fatalf("concurrent forces observed different values")
		}
	}
}
