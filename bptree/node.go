package bptree

import (
	"encoding/binary"

	"github.com/intellect4all/ticketstore/pager"
)

// Node type tags, stored as the first four bytes of every node page so a
// handle can be dereferenced without knowing in advance whether it
// addresses a leaf or an interior node -- needed because the tree's root
// toggles between the two as height changes (spec.md §3, "Handle").
const (
	nodeTagLeaf     uint32 = 0
	nodeTagInterior uint32 = 1
)

// Leaf layout: [tag u32][size u32][sibling u32][ (key,value) * size ]
const leafHeaderSize = 12

// Interior layout: [tag u32][layer u32][size u32][ (key,indexValue) * size ][ child pageID u32 * size ]
const interiorHeaderSize = 12

// leafNode is the decoded, in-memory form of a B+ tree leaf page: keys
// and values kept in ascending (key, value) order, plus a handle to the
// next leaf (null at the rightmost), spec.md §3.
type leafNode[K Ordered[K], V any] struct {
	sibling pager.PageID
	keys    []K
	vals    []V
}

func (t *Tree[K, V, IDX]) decodeLeaf(buf []byte) *leafNode[K, V] {
	size := binary.BigEndian.Uint32(buf[4:8])
	sibling := pager.PageID(binary.BigEndian.Uint32(buf[8:12]))

	n := &leafNode[K, V]{
		sibling: sibling,
		keys:    make([]K, size),
		vals:    make([]V, size),
	}
	off := leafHeaderSize
	for i := 0; i < int(size); i++ {
		n.keys[i] = decodeFixed[K](buf[off : off+t.keySize])
		off += t.keySize
		n.vals[i] = decodeFixed[V](buf[off : off+t.valSize])
		off += t.valSize
	}
	return n
}

func (t *Tree[K, V, IDX]) encodeLeaf(buf []byte, n *leafNode[K, V]) {
	binary.BigEndian.PutUint32(buf[0:4], nodeTagLeaf)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(n.keys)))
	binary.BigEndian.PutUint32(buf[8:12], uint32(n.sibling))

	off := leafHeaderSize
	for i := range n.keys {
		copy(buf[off:], encodeFixed(n.keys[i], t.keySize))
		off += t.keySize
		copy(buf[off:], encodeFixed(n.vals[i], t.valSize))
		off += t.valSize
	}
}

// interiorNode is the decoded, in-memory form of an interior page:
// data[i] is the separator routing to children[i] (spec.md §3). Splits,
// inserts and removals set it to the minimum (key, indexValue) reachable
// through children[i], except that a node which lost its first entry and
// then borrows from its right sibling or absorbs it in a merge keeps its
// old separator: data[i] can then be below that minimum, never above it.
type interiorNode[K Ordered[K], IDX Ordered[IDX]] struct {
	layer    uint32
	keys     []K
	idxVals  []IDX
	children []pager.PageID
}

func (t *Tree[K, V, IDX]) decodeInterior(buf []byte) *interiorNode[K, IDX] {
	layer := binary.BigEndian.Uint32(buf[4:8])
	size := binary.BigEndian.Uint32(buf[8:12])

	n := &interiorNode[K, IDX]{
		layer:    layer,
		keys:     make([]K, size),
		idxVals:  make([]IDX, size),
		children: make([]pager.PageID, size),
	}

	off := interiorHeaderSize
	for i := 0; i < int(size); i++ {
		n.keys[i] = decodeFixed[K](buf[off : off+t.keySize])
		off += t.keySize
		n.idxVals[i] = decodeFixed[IDX](buf[off : off+t.idxSize])
		off += t.idxSize
	}
	for i := 0; i < int(size); i++ {
		n.children[i] = pager.PageID(binary.BigEndian.Uint32(buf[off : off+4]))
		off += 4
	}
	return n
}

func (t *Tree[K, V, IDX]) encodeInterior(buf []byte, n *interiorNode[K, IDX]) {
	binary.BigEndian.PutUint32(buf[0:4], nodeTagInterior)
	binary.BigEndian.PutUint32(buf[4:8], n.layer)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(n.keys)))

	off := interiorHeaderSize
	for i := range n.keys {
		copy(buf[off:], encodeFixed(n.keys[i], t.keySize))
		off += t.keySize
		copy(buf[off:], encodeFixed(n.idxVals[i], t.idxSize))
		off += t.idxSize
	}
	for i := range n.children {
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(n.children[i]))
		off += 4
	}
}

func pageTag(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf[0:4])
}
