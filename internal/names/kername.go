package names

import (
	"fmt"
	"strings"
)

// KernelName is the fully qualified name of a kernel-level object: the
// module it lives in, the section-local path inside that module, and the
// object's own label. KernelNames are immutable; share them freely and
// compare with SameKernelName (pointer fast path included).
type KernelName struct {
	Module  ModulePath
	Section DirPath
	Label   Label
}

// NewKernelName builds the name of the object label in module mp under
// the (possibly empty) section path.
func NewKernelName(mp ModulePath, section DirPath, label Label) *KernelName {
	return &KernelName{Module: mp, Section: section, Label: label}
}

func (k *KernelName) String() string {
	var sb strings.Builder
	sb.WriteString(k.Module.String())
	if k.Section != "" {
		sb.WriteByte('.')
		sb.WriteString(string(k.Section))
	}
	sb.WriteByte('.')
	sb.WriteString(string(k.Label))
	return sb.String()
}

func (k *KernelName) Hash() uint32 {
	h := k.Module.Hash() * fnvPrime32
	h = hashString(h^0x05, string(k.Section))
	return hashString(h, string(k.Label))
}

// SameKernelName reports structural equality with a pointer fast path.
func SameKernelName(a, b *KernelName) bool {
	if a == b {
		return true
	}
	return a.Section == b.Section && a.Label == b.Label &&
		SameModulePath(a.Module, b.Module)
}

// ParseKernelName parses the dotted rendering produced by String (section
// paths have no textual form): the last segment is the label, the rest
// the module path.
func ParseKernelName(s string) (*KernelName, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return nil, fmt.Errorf("malformed kernel name %q", s)
	}
	mp, err := ParseModulePath(s[:i])
	if err != nil {
		return nil, err
	}
	return NewKernelName(mp, "", NewLabel(s[i+1:])), nil
}

// Constant is the name of a constant. The wrapper carries kind only; the
// substitution rules are those of the underlying kernel name.
type Constant struct {
	Name *KernelName
}

// MutInd is the name of a block of mutually defined inductives.
type MutInd struct {
	Name *KernelName
}

// Ind designates one inductive inside a MutInd block.
type Ind struct {
	Mind  MutInd
	Index int
}

// Construct designates one constructor of an inductive. Indices are
// 1-based, matching the order of declaration.
type Construct struct {
	Ind   Ind
	Index int
}

func (c Constant) String() string { return c.Name.String() }
func (m MutInd) String() string   { return m.Name.String() }

func (i Ind) String() string {
	return fmt.Sprintf("%s[%d]", i.Mind.Name, i.Index)
}

func (c Construct) String() string {
	return fmt.Sprintf("%s(%d)", c.Ind, c.Index)
}

// SameConstant reports name equality of two constants.
func SameConstant(a, b Constant) bool {
	return SameKernelName(a.Name, b.Name)
}

// SameMutInd reports name equality of two inductive blocks.
func SameMutInd(a, b MutInd) bool {
	return SameKernelName(a.Name, b.Name)
}

// Evaluable is a reference the reduction machinery can unfold: a
// constant, an inductive, or a bare local/section variable.
type Evaluable interface {
	evaluable()
	String() string
}

// EvalConstRef is an evaluable reference to a constant.
type EvalConstRef struct {
	Const Constant
}

// EvalIndRef is an evaluable reference to an inductive.
type EvalIndRef struct {
	Ind Ind
}

// EvalVarRef is an evaluable reference to a local or section variable.
// Substitution never touches these (see the engine).
type EvalVarRef struct {
	Name Label
}

func (EvalConstRef) evaluable() {}
func (EvalIndRef) evaluable()   {}
func (EvalVarRef) evaluable()   {}

func (r EvalConstRef) String() string { return r.Const.String() }
func (r EvalIndRef) String() string   { return r.Ind.String() }
func (r EvalVarRef) String() string   { return string(r.Name) }
