// Package term defines the kernel term language, reduced to what the
// substitution engine needs: the node shapes that can embed global names,
// and a traversal that rewrites those names while reusing every node the
// rewrite does not touch.
package term

import (
	"github.com/funvibe/modsubst/internal/names"
)

// Term is a node of the kernel term language. Nodes are immutable
// pointer values; an unchanged traversal result is the same pointer.
type Term interface {
	termNode()
}

// SortKind distinguishes the built-in sorts.
type SortKind int

const (
	SProp SortKind = iota
	SSet
	SType
)

// Rel is a de Bruijn index into the local context.
type Rel struct {
	Index int
}

// Var is a named local or section variable.
type Var struct {
	Name names.Label
}

// Sort is a type universe.
type Sort struct {
	Kind SortKind
}

// Const is an occurrence of a global constant.
type Const struct {
	Ref names.Constant
}

// IndT is an occurrence of an inductive type.
type IndT struct {
	Ref names.Ind
}

// ConstructT is an occurrence of an inductive constructor.
type ConstructT struct {
	Ref names.Construct
}

// App applies Fun to one or more arguments.
type App struct {
	Fun  Term
	Args []Term
}

// Lambda is a typed abstraction.
type Lambda struct {
	Name names.Label
	Type Term
	Body Term
}

// Prod is a dependent product.
type Prod struct {
	Name names.Label
	Type Term
	Body Term
}

// LetIn binds Value (of type Type) in Body.
type LetIn struct {
	Name  names.Label
	Value Term
	Type  Term
	Body  Term
}

// Case is a pattern match on an inductive value.
type Case struct {
	Ind      names.Ind
	Return   Term
	Scrut    Term
	Branches []Term
}

func (*Rel) termNode()        {}
func (*Var) termNode()        {}
func (*Sort) termNode()       {}
func (*Const) termNode()      {}
func (*IndT) termNode()       {}
func (*ConstructT) termNode() {}
func (*App) termNode()        {}
func (*Lambda) termNode()     {}
func (*Prod) termNode()       {}
func (*LetIn) termNode()      {}
func (*Case) termNode()       {}

// NameRewrite is the per-name hook used by MapNames. Constant may return
// a non-nil replacement term, in which case the whole occurrence is
// replaced by it instead of being renamed.
type NameRewrite interface {
	Constant(c names.Constant) (names.Constant, Term)
	MutInd(m names.MutInd) names.MutInd
}

// MapNames rewrites every global name embedded in t through rw. A node is
// rebuilt only when at least one child or embedded name actually changed;
// otherwise the original node is returned, so == detects no-ops.
func MapNames(t Term, rw NameRewrite) Term {
	switch n := t.(type) {
	case *Rel, *Var, *Sort:
		return t

	case *Const:
		ref, repl := rw.Constant(n.Ref)
		if repl != nil {
			return repl
		}
		if ref == n.Ref {
			return n
		}
		return &Const{Ref: ref}

	case *IndT:
		mind := rw.MutInd(n.Ref.Mind)
		if mind == n.Ref.Mind {
			return n
		}
		return &IndT{Ref: names.Ind{Mind: mind, Index: n.Ref.Index}}

	case *ConstructT:
		mind := rw.MutInd(n.Ref.Ind.Mind)
		if mind == n.Ref.Ind.Mind {
			return n
		}
		ind := names.Ind{Mind: mind, Index: n.Ref.Ind.Index}
		return &ConstructT{Ref: names.Construct{Ind: ind, Index: n.Ref.Index}}

	case *App:
		fun := MapNames(n.Fun, rw)
		args, changed := mapSlice(n.Args, rw)
		if fun == n.Fun && !changed {
			return n
		}
		return &App{Fun: fun, Args: args}

	case *Lambda:
		typ := MapNames(n.Type, rw)
		body := MapNames(n.Body, rw)
		if typ == n.Type && body == n.Body {
			return n
		}
		return &Lambda{Name: n.Name, Type: typ, Body: body}

	case *Prod:
		typ := MapNames(n.Type, rw)
		body := MapNames(n.Body, rw)
		if typ == n.Type && body == n.Body {
			return n
		}
		return &Prod{Name: n.Name, Type: typ, Body: body}

	case *LetIn:
		val := MapNames(n.Value, rw)
		typ := MapNames(n.Type, rw)
		body := MapNames(n.Body, rw)
		if val == n.Value && typ == n.Type && body == n.Body {
			return n
		}
		return &LetIn{Name: n.Name, Value: val, Type: typ, Body: body}

	case *Case:
		mind := rw.MutInd(n.Ind.Mind)
		ret := MapNames(n.Return, rw)
		scrut := MapNames(n.Scrut, rw)
		branches, changed := mapSlice(n.Branches, rw)
		if mind == n.Ind.Mind && ret == n.Return && scrut == n.Scrut && !changed {
			return n
		}
		return &Case{
			Ind:      names.Ind{Mind: mind, Index: n.Ind.Index},
			Return:   ret,
			Scrut:    scrut,
			Branches: branches,
		}
	}
	return t
}

// mapSlice rewrites each element; the original slice is returned
// untouched when nothing changed.
func mapSlice(ts []Term, rw NameRewrite) ([]Term, bool) {
	var out []Term
	for i, t := range ts {
		nt := MapNames(t, rw)
		if out == nil {
			if nt == t {
				continue
			}
			out = make([]Term, len(ts))
			copy(out, ts[:i])
		}
		out[i] = nt
	}
	if out == nil {
		return ts, false
	}
	return out, true
}
