// Package persist provides the immutable Hash Array Mapped Trie backing
// the canonicalization tables. Every Put returns a new map sharing
// unaffected substructure with the old one, so a table captured by one
// module body is unaffected by later extensions used by another.
package persist

const (
	hamtBits = 5
	hamtSize = 1 << hamtBits // 32
	hamtMask = hamtSize - 1
)

// Key is anything hashable into the trie. Hashes must be seed-free so
// iteration order is reproducible across processes.
type Key interface {
	Hash() uint32
}

// Map is an immutable hash map from K to V. The zero *Map is not usable;
// construct with NewMap so the key-equality function is set.
type Map[K Key, V any] struct {
	root  *node[K, V]
	count int
	eq    func(K, K) bool
}

type node[K Key, V any] struct {
	bitmap uint32 // which indices are populated
	slots  []any  // entry[K,V] or *node[K,V]
}

type entry[K Key, V any] struct {
	hash uint32
	key  K
	val  V
}

// Item is one key-value pair, as returned by Items.
type Item[K Key, V any] struct {
	Key K
	Val V
}

// NewMap returns an empty map using eq for key comparison.
func NewMap[K Key, V any](eq func(K, K) bool) *Map[K, V] {
	return &Map[K, V]{eq: eq}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return m.count
}

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	var zero V
	if m == nil || m.root == nil {
		return zero, false
	}
	return m.root.get(m.eq, key.Hash(), key, 0)
}

// Contains reports whether an entry exists for key.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Put returns a new map with key bound to val, replacing any previous
// binding. The receiver is unchanged.
func (m *Map[K, V]) Put(key K, val V) *Map[K, V] {
	hash := key.Hash()

	var newRoot *node[K, V]
	var added bool
	if m.root == nil {
		newRoot = &node[K, V]{}
		newRoot, added = newRoot.put(m.eq, hash, key, val, 0)
	} else {
		newRoot, added = m.root.put(m.eq, hash, key, val, 0)
	}

	count := m.count
	if added {
		count++
	}
	return &Map[K, V]{root: newRoot, count: count, eq: m.eq}
}

// Merge returns a new map with every entry of other added; other wins on
// key collision.
func (m *Map[K, V]) Merge(other *Map[K, V]) *Map[K, V] {
	res := m
	for _, it := range other.Items() {
		res = res.Put(it.Key, it.Val)
	}
	return res
}

// Items returns all entries in trie order. The order depends only on the
// key hashes, so it is stable for a given map.
func (m *Map[K, V]) Items() []Item[K, V] {
	if m == nil || m.root == nil {
		return nil
	}
	items := make([]Item[K, V], 0, m.count)
	m.root.collect(&items)
	return items
}

func (n *node[K, V]) get(eq func(K, K) bool, hash uint32, key K, shift uint) (V, bool) {
	var zero V
	if shift >= 32 {
		// Collision bucket search
		for _, slot := range n.slots {
			if e, ok := slot.(entry[K, V]); ok && eq(e.key, key) {
				return e.val, true
			}
		}
		return zero, false
	}

	idx := (hash >> shift) & hamtMask
	bit := uint32(1) << idx
	if n.bitmap&bit == 0 {
		return zero, false
	}

	pos := popcount(n.bitmap & (bit - 1))
	switch v := n.slots[pos].(type) {
	case entry[K, V]:
		if v.hash == hash && eq(v.key, key) {
			return v.val, true
		}
		return zero, false
	case *node[K, V]:
		return v.get(eq, hash, key, shift+hamtBits)
	}
	return zero, false
}

func (n *node[K, V]) put(eq func(K, K) bool, hash uint32, key K, val V, shift uint) (*node[K, V], bool) {
	// Past the last hash bits entries live in a flat collision bucket.
	if shift >= 32 {
		newNode := n.clone()
		for i, slot := range newNode.slots {
			if e, ok := slot.(entry[K, V]); ok && eq(e.key, key) {
				newNode.slots[i] = entry[K, V]{hash: hash, key: key, val: val}
				return newNode, false
			}
		}
		newNode.slots = append(newNode.slots, entry[K, V]{hash: hash, key: key, val: val})
		return newNode, true
	}

	idx := (hash >> shift) & hamtMask
	bit := uint32(1) << idx
	newNode := n.clone()

	if n.bitmap&bit == 0 {
		newNode.bitmap |= bit
		pos := popcount(newNode.bitmap & (bit - 1))
		newNode.slots = append(newNode.slots, nil)
		copy(newNode.slots[pos+1:], newNode.slots[pos:])
		newNode.slots[pos] = entry[K, V]{hash: hash, key: key, val: val}
		return newNode, true
	}

	pos := popcount(n.bitmap & (bit - 1))
	switch v := newNode.slots[pos].(type) {
	case entry[K, V]:
		if v.hash == hash && eq(v.key, key) {
			newNode.slots[pos] = entry[K, V]{hash: hash, key: key, val: val}
			return newNode, false
		}
		// Two keys in one slot: push both down into a child node.
		child := &node[K, V]{}
		child, _ = child.put(eq, v.hash, v.key, v.val, shift+hamtBits)
		child, added := child.put(eq, hash, key, val, shift+hamtBits)
		newNode.slots[pos] = child
		return newNode, added
	case *node[K, V]:
		newChild, added := v.put(eq, hash, key, val, shift+hamtBits)
		newNode.slots[pos] = newChild
		return newNode, added
	}
	return newNode, false
}

func (n *node[K, V]) clone() *node[K, V] {
	c := &node[K, V]{bitmap: n.bitmap, slots: make([]any, len(n.slots))}
	copy(c.slots, n.slots)
	return c
}

func (n *node[K, V]) collect(items *[]Item[K, V]) {
	for _, slot := range n.slots {
		switch v := slot.(type) {
		case entry[K, V]:
			*items = append(*items, Item[K, V]{Key: v.key, Val: v.val})
		case *node[K, V]:
			v.collect(items)
		}
	}
}

// popcount counts set bits.
func popcount(x uint32) int {
	x = x - ((x >> 1) & 0x55555555)
	x = (x & 0x33333333) + ((x >> 2) & 0x33333333)
	x = (x + (x >> 4)) & 0x0f0f0f0f
	x = x + (x >> 8)
	x = x + (x >> 16)
	return int(x & 0x3f)
}
