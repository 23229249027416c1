// Package subst implements the kernel's renaming machinery: delta
// resolvers (canonicalization tables built while elaborating module
// bodies), substitutions (composable renamings of bound module ids and
// module paths), the engine that applies them to names and terms, and
// the lazy wrapper deferring application to large bodies.
//
// Everything here is immutable and persistent: adds return new values,
// so a resolver or substitution captured by one module body is never
// affected by later extensions used by another.
package subst

import (
	"fmt"
	"sort"

	"github.com/funvibe/modsubst/internal/config"
	"github.com/funvibe/modsubst/internal/names"
	"github.com/funvibe/modsubst/internal/persist"
	"github.com/funvibe/modsubst/internal/term"
)

// InlineRecord marks a constant as replaceable by its unfolded body up
// to the given priority level. Body is nil when only the level is known;
// otherwise it is kept lazy so transporting a resolver across an
// instantiation never forces unused bodies.
type InlineRecord struct {
	Level int
	Body  *Substituted[term.Term]
}

// nameEntry is one row of the kernel-name table: an optional alias
// target plus optional inline metadata.
type nameEntry struct {
	target *names.KernelName
	inline *InlineRecord
}

// DeltaResolver maps names to the "real" definition they refer to after
// aliasing and inlining. Lookups on absent names return the name itself;
// chains of entries are followed transitively at lookup time. The zero
// DeltaResolver is empty and ready to use.
//
// Resolvers must be acyclic; that is a caller invariant. Lookups guard
// with a depth limit and panic rather than loop forever (see config).
type DeltaResolver struct {
	mods *persist.Map[names.ModulePath, names.ModulePath]
	kns  *persist.Map[*names.KernelName, nameEntry]
}

// EmptyDelta returns a resolver with no entries.
func EmptyDelta() DeltaResolver {
	return DeltaResolver{}
}

func newModMap() *persist.Map[names.ModulePath, names.ModulePath] {
	return persist.NewMap[names.ModulePath, names.ModulePath](names.SameModulePath)
}

func newKnMap() *persist.Map[*names.KernelName, nameEntry] {
	return persist.NewMap[*names.KernelName, nameEntry](names.SameKernelName)
}

// AddModuleAlias records that src resolves toward dst.
func (d DeltaResolver) AddModuleAlias(src, dst names.ModulePath) DeltaResolver {
	m := d.mods
	if m == nil {
		m = newModMap()
	}
	return DeltaResolver{mods: m.Put(src, dst), kns: d.kns}
}

// AddNameAlias records that the kernel name src resolves toward dst.
// Constants, inductives and the like are handled uniformly. Inline
// metadata already recorded for src is kept.
func (d DeltaResolver) AddNameAlias(src, dst *names.KernelName) DeltaResolver {
	m := d.kns
	if m == nil {
		m = newKnMap()
	}
	e, _ := m.Get(src)
	e.target = dst
	return DeltaResolver{mods: d.mods, kns: m.Put(src, e)}
}

// AddInline attaches (or overwrites) inlining metadata for src. A nil
// body records the level only.
func (d DeltaResolver) AddInline(src *names.KernelName, level int, body term.Term) DeltaResolver {
	rec := &InlineRecord{Level: level}
	if body != nil {
		rec.Body = FromVal(body)
	}
	return d.addInlineRecord(src, rec)
}

func (d DeltaResolver) addInlineRecord(src *names.KernelName, rec *InlineRecord) DeltaResolver {
	m := d.kns
	if m == nil {
		m = newKnMap()
	}
	e, _ := m.Get(src)
	e.inline = rec
	return DeltaResolver{mods: d.mods, kns: m.Put(src, e)}
}

// Merge unions two resolvers. On key collision the entry from other
// wins, matching the left-to-right application order of substitutions.
func (d DeltaResolver) Merge(other DeltaResolver) DeltaResolver {
	mods := d.mods
	switch {
	case mods == nil:
		mods = other.mods
	case other.mods != nil:
		mods = mods.Merge(other.mods)
	}
	kns := d.kns
	switch {
	case kns == nil:
		kns = other.kns
	case other.kns != nil:
		kns = kns.Merge(other.kns)
	}
	return DeltaResolver{mods: mods, kns: kns}
}

// ResolveModule follows module aliases until a path with no further
// entry is reached. Submodule selections with no direct entry resolve
// through their parent: with M -> N recorded, M.x resolves to N.x.
func (d DeltaResolver) ResolveModule(mp names.ModulePath) names.ModulePath {
	return d.resolveModule(mp, 0)
}

func (d DeltaResolver) resolveModule(mp names.ModulePath, depth int) names.ModulePath {
	for {
		depth++
		if depth > config.MaxResolveDepth {
			panic(fmt.Sprintf("subst: module alias chain exceeds %d entries at %s (resolver cycle?)",
				config.MaxResolveDepth, mp))
		}
		if dst, ok := d.mods.Get(mp); ok {
			mp = dst
			continue
		}
		dot, ok := mp.(*names.DotPath)
		if !ok {
			return mp
		}
		parent := d.resolveModule(dot.Parent, depth)
		if parent == dot.Parent {
			return mp
		}
		mp = names.NewDotPath(parent, dot.Label)
	}
}

// resolveName chases the kernel-name chain, then canonicalizes the
// module component of the final name through the module map. Unchanged
// names come back as the same pointer.
func (d DeltaResolver) resolveName(kn *names.KernelName) *names.KernelName {
	depth := 0
	for {
		depth++
		if depth > config.MaxResolveDepth {
			panic(fmt.Sprintf("subst: name alias chain exceeds %d entries at %s (resolver cycle?)",
				config.MaxResolveDepth, kn))
		}
		e, ok := d.kns.Get(kn)
		if !ok || e.target == nil {
			break
		}
		kn = e.target
	}
	mp := d.ResolveModule(kn.Module)
	if mp == kn.Module {
		return kn
	}
	return names.NewKernelName(mp, kn.Section, kn.Label)
}

// ResolveConstName resolves a kernel name to the constant it canonically
// refers to.
func (d DeltaResolver) ResolveConstName(kn *names.KernelName) names.Constant {
	return names.Constant{Name: d.resolveName(kn)}
}

// ResolveMindName resolves a kernel name to the inductive block it
// canonically refers to.
func (d DeltaResolver) ResolveMindName(kn *names.KernelName) names.MutInd {
	return names.MutInd{Name: d.resolveName(kn)}
}

// ResolveConst resolves a constant's underlying name.
func (d DeltaResolver) ResolveConst(c names.Constant) names.Constant {
	kn := d.resolveName(c.Name)
	if kn == c.Name {
		return c
	}
	return names.Constant{Name: kn}
}

// HasModule reports whether an explicit entry exists for mp. Distinct
// from "resolves to itself": an explicit identity entry also counts.
func (d DeltaResolver) HasModule(mp names.ModulePath) bool {
	return d.mods.Contains(mp)
}

// HasConst reports whether an explicit entry exists for the constant.
func (d DeltaResolver) HasConst(c names.Constant) bool {
	return d.kns.Contains(c.Name)
}

// HasMind reports whether an explicit entry exists for the inductive.
func (d DeltaResolver) HasMind(m names.MutInd) bool {
	return d.kns.Contains(m.Name)
}

// inlineFor returns the inline record attached to kn, if any.
func (d DeltaResolver) inlineFor(kn *names.KernelName) *InlineRecord {
	e, ok := d.kns.Get(kn)
	if !ok {
		return nil
	}
	return e.inline
}

// InlineEntry is one result of ListInlinable.
type InlineEntry struct {
	Level int
	Name  *names.KernelName
}

// ListInlinable returns every inline entry, sorted by name so the order
// is stable for a given resolver.
func (d DeltaResolver) ListInlinable() []InlineEntry {
	return d.listInlinable(0, false)
}

// ListInlinableUpTo returns the inline entries whose level is <= max,
// sorted by name.
func (d DeltaResolver) ListInlinableUpTo(max int) []InlineEntry {
	return d.listInlinable(max, true)
}

func (d DeltaResolver) listInlinable(max int, bounded bool) []InlineEntry {
	var out []InlineEntry
	for _, it := range d.kns.Items() {
		if it.Val.inline == nil {
			continue
		}
		if bounded && it.Val.inline.Level > max {
			continue
		}
		out = append(out, InlineEntry{Level: it.Val.inline.Level, Name: it.Key})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name.String() < out[j].Name.String()
	})
	return out
}

// MapDomain rewrites every key of the resolver's tables through s. Used
// when a resolver built inside a functor body is transported across an
// instantiation. Inline records travel with their entries.
func (d DeltaResolver) MapDomain(s Substitution) DeltaResolver {
	return d.mapTables(s, true, false)
}

// MapCodomain rewrites every value through s; embedded inline bodies are
// deferred via the lazy mechanism, never forced here.
func (d DeltaResolver) MapCodomain(s Substitution) DeltaResolver {
	return d.mapTables(s, false, true)
}

// MapBoth rewrites keys and values through s.
func (d DeltaResolver) MapBoth(s Substitution) DeltaResolver {
	return d.mapTables(s, true, true)
}

func (d DeltaResolver) mapTables(s Substitution, dom, codom bool) DeltaResolver {
	if s.IsEmpty() {
		return d
	}
	res := DeltaResolver{}
	if d.mods != nil {
		m := newModMap()
		for _, it := range d.mods.Items() {
			key, val := it.Key, it.Val
			if dom {
				key = s.ModulePath(key)
			}
			if codom {
				val = s.ModulePath(val)
			}
			m = m.Put(key, val)
		}
		res.mods = m
	}
	if d.kns != nil {
		m := newKnMap()
		for _, it := range d.kns.Items() {
			key, e := it.Key, it.Val
			if dom {
				key = s.KernelName(key)
			}
			if codom {
				if e.target != nil {
					e.target = s.KernelName(e.target)
				}
				if e.inline != nil && e.inline.Body != nil {
					e.inline = &InlineRecord{
						Level: e.inline.Level,
						Body:  Defer(s, e.inline.Body),
					}
				}
			}
			m = m.Put(key, e)
		}
		res.kns = m
	}
	return res
}

// ModuleAliases returns the module table in deterministic order, for
// rendering and snapshotting.
func (d DeltaResolver) ModuleAliases() [][2]names.ModulePath {
	items := d.mods.Items()
	out := make([][2]names.ModulePath, 0, len(items))
	for _, it := range items {
		out = append(out, [2]names.ModulePath{it.Key, it.Val})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i][0].String() < out[j][0].String()
	})
	return out
}

// NameAlias is one kernel-name row as exposed by NameAliases.
type NameAlias struct {
	Src    *names.KernelName
	Dst    *names.KernelName // nil when the row carries inline data only
	Inline *InlineRecord
}

// NameAliases returns the kernel-name table in deterministic order.
func (d DeltaResolver) NameAliases() []NameAlias {
	items := d.kns.Items()
	out := make([]NameAlias, 0, len(items))
	for _, it := range items {
		out = append(out, NameAlias{Src: it.Key, Dst: it.Val.target, Inline: it.Val.inline})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Src.String() < out[j].Src.String()
	})
	return out
}
