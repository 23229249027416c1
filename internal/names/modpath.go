package names

import (
	"fmt"
	"strings"
)

// ModulePath identifies a module: a top-level root, an unapplied functor
// parameter, or a submodule selection. Paths are immutable pointer nodes;
// any transformation that leaves a path unchanged must return the same
// pointer, so callers can use == as a cheap no-op check before falling
// back to SameModulePath.
type ModulePath interface {
	modulePath()
	String() string
	Hash() uint32
}

// TopPath is a root module named by its logical directory path.
type TopPath struct {
	Dir DirPath
}

// BoundPath is an as-yet-unapplied functor parameter.
type BoundPath struct {
	ID BoundID
}

// DotPath selects the submodule Label inside Parent.
type DotPath struct {
	Parent ModulePath
	Label  Label
}

func (*TopPath) modulePath()   {}
func (*BoundPath) modulePath() {}
func (*DotPath) modulePath()   {}

// NewTopPath returns the path of the root module named by dir.
func NewTopPath(dir DirPath) *TopPath {
	return &TopPath{Dir: dir}
}

// NewBoundPath returns the path standing for the functor parameter id.
func NewBoundPath(id BoundID) *BoundPath {
	return &BoundPath{ID: id}
}

// NewDotPath selects the submodule label inside parent.
func NewDotPath(parent ModulePath, label Label) *DotPath {
	return &DotPath{Parent: parent, Label: label}
}

func (p *TopPath) String() string {
	if p.Dir == "" {
		return "<top>"
	}
	return string(p.Dir)
}

func (p *BoundPath) String() string {
	return p.ID.String()
}

func (p *DotPath) String() string {
	return p.Parent.String() + "." + string(p.Label)
}

func (p *TopPath) Hash() uint32 {
	return hashString(fnvOffset32^0x01, string(p.Dir))
}

func (p *BoundPath) Hash() uint32 {
	h := hashUint64(fnvOffset32^0x02, p.ID.Tag)
	return hashString(h, string(p.ID.Name))
}

func (p *DotPath) Hash() uint32 {
	h := p.Parent.Hash() * fnvPrime32
	return hashString(h^0x03, string(p.Label))
}

// SameModulePath reports structural equality of two paths, with a pointer
// fast path on every level.
func SameModulePath(a, b ModulePath) bool {
	if a == b {
		return true
	}
	switch pa := a.(type) {
	case *TopPath:
		pb, ok := b.(*TopPath)
		return ok && pa.Dir == pb.Dir
	case *BoundPath:
		pb, ok := b.(*BoundPath)
		return ok && pa.ID == pb.ID
	case *DotPath:
		pb, ok := b.(*DotPath)
		return ok && pa.Label == pb.Label && SameModulePath(pa.Parent, pb.Parent)
	}
	return false
}

// ContainsBound reports whether any node of mp is an unapplied functor
// parameter. Such paths have no textual form and cannot be persisted.
func ContainsBound(mp ModulePath) bool {
	for {
		switch p := mp.(type) {
		case *BoundPath:
			return true
		case *DotPath:
			mp = p.Parent
		default:
			return false
		}
	}
}

// ParseModulePath parses the dotted rendering produced by String: the
// first segment names the top-level root, each following segment a
// submodule selection. Bound paths have no textual form.
func ParseModulePath(s string) (ModulePath, error) {
	if s == "" {
		return nil, fmt.Errorf("empty module path")
	}
	parts := strings.Split(s, ".")
	var mp ModulePath = NewTopPath(DirPath(parts[0]))
	for _, part := range parts[1:] {
		if part == "" {
			return nil, fmt.Errorf("malformed module path %q", s)
		}
		mp = NewDotPath(mp, NewLabel(part))
	}
	return mp, nil
}
