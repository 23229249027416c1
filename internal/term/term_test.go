package term

import (
	"testing"

	"github.com/funvibe/modsubst/internal/names"
)

// renameRewrite maps one constant name to another, leaving everything
// else alone.
type renameRewrite struct {
	from names.Constant
	to   names.Constant
}

func (r renameRewrite) Constant(c names.Constant) (names.Constant, Term) {
	if c == r.from {
		return r.to, nil
	}
	return c, nil
}

func (r renameRewrite) MutInd(m names.MutInd) names.MutInd { return m }

// inlineRewrite replaces one constant occurrence with a term.
type inlineRewrite struct {
	at   names.Constant
	with Term
}

func (r inlineRewrite) Constant(c names.Constant) (names.Constant, Term) {
	if c == r.at {
		return c, r.with
	}
	return c, nil
}

func (r inlineRewrite) MutInd(m names.MutInd) names.MutInd { return m }

func constant(t *testing.T, s string) names.Constant {
	t.Helper()
	kn, err := names.ParseKernelName(s)
	if err != nil {
		t.Fatal(err)
	}
	return names.Constant{Name: kn}
}

func TestMapNamesReusesUntouchedNodes(t *testing.T) {
	c := constant(t, "Lib.M.c")
	body := &App{
		Fun:  &Const{Ref: c},
		Args: []Term{&Rel{Index: 1}, &Var{Name: "x"}},
	}
	tree := &Lambda{Name: "x", Type: &Sort{Kind: SSet}, Body: body}

	got := MapNames(tree, renameRewrite{from: constant(t, "Other.M.d"), to: constant(t, "Other.M.e")})
	if got != Term(tree) {
		t.Fatalf("no-op traversal must return the original node")
	}
}

func TestMapNamesRebuildsOnlyChangedSpine(t *testing.T) {
	c := constant(t, "Lib.M.c")
	d := constant(t, "Lib.N.c")

	left := &Const{Ref: c}
	right := &App{Fun: &Var{Name: "f"}, Args: []Term{&Rel{Index: 2}}}
	tree := &App{Fun: left, Args: []Term{right}}

	got := MapNames(tree, renameRewrite{from: c, to: d})
	app, ok := got.(*App)
	if !ok || got == Term(tree) {
		t.Fatalf("changed tree must be rebuilt, got %#v", got)
	}
	newConst, ok := app.Fun.(*Const)
	if !ok || newConst.Ref != d {
		t.Errorf("constant not renamed: %#v", app.Fun)
	}
	if app.Args[0] != Term(right) {
		t.Errorf("untouched subtree must be reused, not copied")
	}
}

func TestMapNamesInlineReplacement(t *testing.T) {
	c := constant(t, "Lib.M.c")
	repl := &Rel{Index: 7}
	tree := &App{Fun: &Const{Ref: c}, Args: []Term{&Var{Name: "x"}}}

	got := MapNames(tree, inlineRewrite{at: c, with: repl})
	app, ok := got.(*App)
	if !ok {
		t.Fatalf("expected App, got %#v", got)
	}
	if app.Fun != Term(repl) {
		t.Errorf("occurrence should be replaced by the inline body")
	}
}

func TestMapNamesInductives(t *testing.T) {
	ma, _ := names.ParseKernelName("Lib.M.nat")
	mb, _ := names.ParseKernelName("Lib.N.nat")
	ind := names.Ind{Mind: names.MutInd{Name: ma}, Index: 0}

	tree := &Case{
		Ind:      ind,
		Return:   &Sort{Kind: SProp},
		Scrut:    &ConstructT{Ref: names.Construct{Ind: ind, Index: 1}},
		Branches: []Term{&Rel{Index: 1}, &Rel{Index: 2}},
	}

	rw := mindRewrite{from: names.MutInd{Name: ma}, to: names.MutInd{Name: mb}}
	got := MapNames(tree, rw)
	cs, ok := got.(*Case)
	if !ok || got == Term(tree) {
		t.Fatalf("expected rebuilt Case, got %#v", got)
	}
	if cs.Ind.Mind.Name != mb {
		t.Errorf("case inductive not renamed: %s", cs.Ind)
	}
	ctor, ok := cs.Scrut.(*ConstructT)
	if !ok || ctor.Ref.Ind.Mind.Name != mb {
		t.Errorf("constructor not renamed: %#v", cs.Scrut)
	}
	if ctor.Ref.Index != 1 || cs.Ind.Index != 0 {
		t.Errorf("indices must be preserved")
	}
}

type mindRewrite struct {
	from names.MutInd
	to   names.MutInd
}

func (r mindRewrite) Constant(c names.Constant) (names.Constant, Term) { return c, nil }

func (r mindRewrite) MutInd(m names.MutInd) names.MutInd {
	if m == r.from {
		return r.to
	}
	return m
}
