package subst

import (
	"github.com/funvibe/modsubst/internal/names"
	"github.com/funvibe/modsubst/internal/term"
)

// renaming is one elementary step: a bound module id or a concrete
// module path mapped to a destination path, carrying the delta resolver
// of the module the destination names.
type renaming struct {
	bound   names.BoundID
	isBound bool
	src     names.ModulePath // set when !isBound
	dst     names.ModulePath
	delta   DeltaResolver
}

// Substitution is an ordered list of renamings, applied left to right:
// each step is applied fully (including to the image of earlier steps)
// before the next. Substitutions form a monoid under Join, with the zero
// value as identity. Immutable: extends return new values.
type Substitution struct {
	steps []renaming
}

// Empty returns the identity substitution.
func Empty() Substitution {
	return Substitution{}
}

// IsEmpty reports whether s is the identity. Callers use this to skip
// substitution entirely on structures known to be unaffected.
func (s Substitution) IsEmpty() bool {
	return len(s.steps) == 0
}

// BindBoundID returns the one-entry substitution mapping the functor
// parameter id to dst, carrying dst's resolver.
func BindBoundID(id names.BoundID, dst names.ModulePath, delta DeltaResolver) Substitution {
	return Empty().ExtendBoundID(id, dst, delta)
}

// BindModulePath returns the one-entry substitution mapping the concrete
// path src to dst.
func BindModulePath(src, dst names.ModulePath, delta DeltaResolver) Substitution {
	return Empty().ExtendModulePath(src, dst, delta)
}

// ExtendBoundID appends a bound-id renaming, as when accumulating the
// renamings of one functor application with several parameters.
func (s Substitution) ExtendBoundID(id names.BoundID, dst names.ModulePath, delta DeltaResolver) Substitution {
	return s.extend(renaming{bound: id, isBound: true, dst: dst, delta: delta})
}

// ExtendModulePath appends a module-path renaming.
func (s Substitution) ExtendModulePath(src, dst names.ModulePath, delta DeltaResolver) Substitution {
	return s.extend(renaming{src: src, dst: dst, delta: delta})
}

func (s Substitution) extend(r renaming) Substitution {
	steps := make([]renaming, len(s.steps)+1)
	copy(steps, s.steps)
	steps[len(s.steps)] = r
	return Substitution{steps: steps}
}

// Join composes sequentially: applying the result to any value equals
// applying s then other. Because application folds the steps left to
// right, applying each fully before the next, concatenation is exact
// function composition; nothing is flattened eagerly.
func (s Substitution) Join(other Substitution) Substitution {
	if len(s.steps) == 0 {
		return other
	}
	if len(other.steps) == 0 {
		return s
	}
	steps := make([]renaming, 0, len(s.steps)+len(other.steps))
	steps = append(steps, s.steps...)
	steps = append(steps, other.steps...)
	return Substitution{steps: steps}
}

// Occurs reports whether id appears as a source key in s.
func (s Substitution) Occurs(id names.BoundID) bool {
	for i := range s.steps {
		if s.steps[i].isBound && s.steps[i].bound == id {
			return true
		}
	}
	return false
}

// matches reports whether the step's source key is exactly mp.
func (r *renaming) matches(mp names.ModulePath) bool {
	if r.isBound {
		bp, ok := mp.(*names.BoundPath)
		return ok && bp.ID == r.bound
	}
	return names.SameModulePath(r.src, mp)
}

// applyStep rewrites mp through one renaming: the whole path if it
// matches the key, else the deepest matching prefix. Reports whether
// anything was rewritten; on a miss mp comes back as the same pointer.
func applyStep(r *renaming, mp names.ModulePath) (names.ModulePath, bool) {
	if r.matches(mp) {
		return r.dst, true
	}
	if dot, ok := mp.(*names.DotPath); ok {
		parent, hit := applyStep(r, dot.Parent)
		if !hit {
			return mp, false
		}
		return names.NewDotPath(parent, dot.Label), true
	}
	return mp, false
}

// ModulePath rewrites mp through s. An unaffected path is returned as
// the exact same pointer; callers rely on == as a cheap no-op check.
// Step resolvers are not consulted here; they canonicalize constants
// and inductives, not bare paths.
func (s Substitution) ModulePath(mp names.ModulePath) names.ModulePath {
	cur := mp
	for i := range s.steps {
		cur, _ = applyStep(&s.steps[i], cur)
	}
	return cur
}

// constantName folds the steps over a kernel name. Every step that hits
// renames the module component and immediately canonicalizes the result
// through that step's resolver, so joining substitutions composes
// exactly like applying them one after the other. Unless mind is set,
// the inline record of the last hitting step whose resolver carries one
// is reported alongside. An untouched name comes back as the same
// pointer.
func (s Substitution) constantName(kn *names.KernelName, mind bool) (*names.KernelName, *InlineRecord) {
	cur := kn
	var rec *InlineRecord
	for i := range s.steps {
		mp, hit := applyStep(&s.steps[i], cur.Module)
		if !hit {
			continue
		}
		next := names.NewKernelName(mp, cur.Section, cur.Label)
		delta := s.steps[i].delta
		resolved := delta.resolveName(next)
		if !mind {
			if r := delta.inlineFor(next); r != nil {
				rec = r
			} else if resolved != next {
				if r := delta.inlineFor(resolved); r != nil {
					rec = r
				}
			}
		}
		cur = resolved
	}
	return cur, rec
}

// KernelName substitutes the module-path component of kn; the section
// path and label are untouched. Identity-preserving.
func (s Substitution) KernelName(kn *names.KernelName) *names.KernelName {
	mp := s.ModulePath(kn.Module)
	if mp == kn.Module {
		return kn
	}
	return names.NewKernelName(mp, kn.Section, kn.Label)
}

// Constant substitutes and canonicalizes a constant name. A step whose
// destination equals its source still counts as a hit, so binding a path
// to itself canonicalizes constants under it through the attached
// resolver. The second result is the replacement-term marker: nil when
// no inlining applies, otherwise the unfolded body with s already
// applied, letting the caller reduce the occurrence in this same pass.
func (s Substitution) Constant(c names.Constant) (names.Constant, term.Term) {
	kn, rec := s.constantName(c.Name, false)
	if kn == c.Name {
		return c, nil
	}
	var body term.Term
	if rec != nil && rec.Body != nil {
		body = Defer(s, rec.Body).Force(applyTerm)
	}
	return names.Constant{Name: kn}, body
}

// MutInd substitutes and canonicalizes an inductive block name.
// Inductives are never inlined.
func (s Substitution) MutInd(m names.MutInd) names.MutInd {
	kn, _ := s.constantName(m.Name, true)
	if kn == m.Name {
		return m
	}
	return names.MutInd{Name: kn}
}

// Ind substitutes the block name of one inductive.
func (s Substitution) Ind(i names.Ind) names.Ind {
	mind := s.MutInd(i.Mind)
	if mind == i.Mind {
		return i
	}
	return names.Ind{Mind: mind, Index: i.Index}
}

// Construct substitutes the block name of one constructor.
func (s Substitution) Construct(c names.Construct) names.Construct {
	ind := s.Ind(c.Ind)
	if ind == c.Ind {
		return c
	}
	return names.Construct{Ind: ind, Index: c.Index}
}

// Evaluable substitutes constant and inductive references. Local and
// section variable references are never substituted: a bare variable
// name refers to itself even when it collides with a source key, since
// expanding it through an eventual instantiation would be ambiguous.
func (s Substitution) Evaluable(ref names.Evaluable) names.Evaluable {
	switch r := ref.(type) {
	case names.EvalConstRef:
		c, _ := s.Constant(r.Const)
		if c == r.Const {
			return ref
		}
		return names.EvalConstRef{Const: c}
	case names.EvalIndRef:
		ind := s.Ind(r.Ind)
		if ind == r.Ind {
			return ref
		}
		return names.EvalIndRef{Ind: ind}
	case names.EvalVarRef:
		return ref
	}
	return ref
}

// Term rewrites every name embedded in t through s, reusing every node
// the rewrite does not touch. Inline markers returned for constants
// replace the occurrence outright.
func (s Substitution) Term(t term.Term) term.Term {
	if s.IsEmpty() {
		return t
	}
	return term.MapNames(t, engineRewrite{s: s})
}

// engineRewrite adapts the substitution to the term traversal hook.
type engineRewrite struct {
	s Substitution
}

func (r engineRewrite) Constant(c names.Constant) (names.Constant, term.Term) {
	return r.s.Constant(c)
}

func (r engineRewrite) MutInd(m names.MutInd) names.MutInd {
	return r.s.MutInd(m)
}

// applyTerm is the Force callback for lazy term bodies.
func applyTerm(s Substitution, t term.Term) term.Term {
	return s.Term(t)
}

// RenamingInfo is the debug view of one substitution step.
type RenamingInfo struct {
	BoundSrc *names.BoundID // set for bound-id steps
	PathSrc  names.ModulePath
	Dst      names.ModulePath
	Delta    DeltaResolver
}

// Renamings exposes the steps in application order, for rendering.
func (s Substitution) Renamings() []RenamingInfo {
	out := make([]RenamingInfo, 0, len(s.steps))
	for i := range s.steps {
		r := &s.steps[i]
		info := RenamingInfo{PathSrc: r.src, Dst: r.dst, Delta: r.delta}
		if r.isBound {
			id := r.bound
			info.BoundSrc = &id
			info.PathSrc = nil
		}
		out = append(out, info)
	}
	return out
}

// ReplaceModulePrefix rewrites literal occurrences of oldp as a prefix
// of kn's module path, independent of any substitution table. Low-level
// path surgery, not compositional with the engine above.
func ReplaceModulePrefix(oldp, newp names.ModulePath, kn *names.KernelName) *names.KernelName {
	mp := replacePrefix(oldp, newp, kn.Module)
	if mp == kn.Module {
		return kn
	}
	return names.NewKernelName(mp, kn.Section, kn.Label)
}

func replacePrefix(oldp, newp, mp names.ModulePath) names.ModulePath {
	if names.SameModulePath(mp, oldp) {
		return newp
	}
	if dot, ok := mp.(*names.DotPath); ok {
		parent := replacePrefix(oldp, newp, dot.Parent)
		if parent == dot.Parent {
			return mp
		}
		return names.NewDotPath(parent, dot.Label)
	}
	return mp
}
