package names

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// Label is an interned identifier naming a module component (a submodule,
// a constant, an inductive). Labels compare with ==.
type Label string

var (
	labelMu    sync.RWMutex
	labelTable = make(map[string]Label)
)

// NewLabel interns s and returns it as a Label. Repeated calls with equal
// strings share one backing string.
func NewLabel(s string) Label {
	labelMu.RLock()
	l, ok := labelTable[s]
	labelMu.RUnlock()
	if ok {
		return l
	}
	labelMu.Lock()
	defer labelMu.Unlock()
	if l, ok := labelTable[s]; ok {
		return l
	}
	l = Label(strings.Clone(s))
	labelTable[s] = l
	return l
}

func (l Label) String() string {
	return string(l)
}

// DirPath is a logical directory path naming a root module, stored in
// dotted form ("Lib.Data"). The empty DirPath is valid (anonymous root).
type DirPath string

// MakeDirPath builds a DirPath from its segments.
func MakeDirPath(parts ...string) DirPath {
	return DirPath(strings.Join(parts, "."))
}

// Parts splits the path back into its segments.
func (d DirPath) Parts() []string {
	if d == "" {
		return nil
	}
	return strings.Split(string(d), ".")
}

func (d DirPath) String() string {
	return string(d)
}

// BoundID is the globally-unique identifier of an unapplied functor
// parameter: a fresh integer tag paired with the source-level identifier.
// BoundIDs compare with ==.
type BoundID struct {
	Tag  uint64
	Name Label
}

var boundIDCounter atomic.Uint64

// FreshBoundID mints a BoundID for the given source identifier with a tag
// never handed out before in this process.
func FreshBoundID(name Label) BoundID {
	return BoundID{Tag: boundIDCounter.Add(1), Name: name}
}

func (b BoundID) String() string {
	return fmt.Sprintf("%s#%d", b.Name, b.Tag)
}

// fnv32a is the seed-free hash used for all name keys. Deterministic
// across processes so persistent-map iteration order is reproducible.
const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
)

func hashString(h uint32, s string) uint32 {
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime32
	}
	return h
}

func hashUint64(h uint32, v uint64) uint32 {
	for i := 0; i < 8; i++ {
		h ^= uint32(v >> (8 * i) & 0xff)
		h *= fnvPrime32
	}
	return h
}
