// Package bptree implements the generic persistent B+ tree of spec.md §4.5:
// an ordered multimap over a buffer pool, with duplicate keys kept ordered
// by value, sibling-chained leaves for range scans, and an optional
// index-value projection that narrows what interior nodes replicate.
package bptree

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/intellect4all/ticketstore/bufferpool"
	"github.com/intellect4all/ticketstore/configstore"
	"github.com/intellect4all/ticketstore/pager"
)

// RootState is the (height, size, root) triple spec.md §4.5 says lives in
// the config store, one set of slots per tree.
type RootState struct {
	Height *configstore.Slot[uint32]
	Size   *configstore.Slot[uint64]
	Root   *configstore.Slot[pager.PageID]
}

// Tree is a persistent ordered multimap (K -> V) built on a buffer pool.
// IDX is the type interior nodes actually store alongside K; pass V itself
// when there is no projection, or a narrower identifier type obtained via
// project.
type Tree[K Ordered[K], V any, IDX Ordered[IDX]] struct {
	pool    *bufferpool.Pool
	log     *zap.Logger
	root    RootState
	project func(V) IDX

	keySize int
	valSize int
	idxSize int

	capL int
	capI int

	splitL, mergeL int
	splitI, mergeI int
}

// New constructs a Tree over pool, persisting its bookkeeping in slots.
// project maps a value to the index-value interior nodes store; pass
// identity (func(v V) IDX { return any(v).(IDX) }) when V and IDX coincide,
// or a narrower projection when V implements Projectable.
func New[K Ordered[K], V any, IDX Ordered[IDX]](pool *bufferpool.Pool, slots RootState, project func(V) IDX, log *zap.Logger) (*Tree[K, V, IDX], error) {
	keySize, err := fixedSize[K]()
	if err != nil {
		return nil, err
	}
	valSize, err := fixedSize[V]()
	if err != nil {
		return nil, err
	}
	idxSize, err := fixedSize[IDX]()
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}

	t := &Tree[K, V, IDX]{
		pool: pool, log: log, root: slots, project: project,
		keySize: keySize, valSize: valSize, idxSize: idxSize,
	}

	pageSize := int(pool.PageSize())
	t.capL = (pageSize - leafHeaderSize) / (keySize + valSize)
	t.capI = (pageSize - interiorHeaderSize) / (keySize + idxSize + 4)
	if t.capL < 4 {
		return nil, errors.Errorf("bptree: leaf capacity %d too small for page size %d", t.capL, pageSize)
	}
	if t.capI < 4 {
		return nil, errors.Errorf("bptree: interior capacity %d too small for page size %d", t.capI, pageSize)
	}

	t.splitL = t.capL * 3 / 4
	t.mergeL = t.capL / 4
	t.splitI = t.capI * 3 / 4
	t.mergeI = t.capI / 4

	return t, nil
}

// Size returns the number of (key, value) pairs currently stored.
func (t *Tree[K, V, IDX]) Size() uint64 { return t.root.Size.Get() }

// Height returns the tree's current height (0 for an empty tree).
func (t *Tree[K, V, IDX]) Height() uint32 { return t.root.Height.Get() }

// pathEntry is one frame of the descent stack: the handle visited and
// which child index was taken from it, per spec.md §4.5.1.
type pathEntry struct {
	page  pager.PageID
	child int
}

// compareKV orders by key first, then by index value -- the comparison
// descent and separators both use (spec.md §4.5.1, §3).
func compareKV[K Ordered[K], IDX Ordered[IDX]](k1 K, i1 IDX, k2 K, i2 IDX) int {
	if c := k1.CompareTo(k2); c != 0 {
		return c
	}
	return i1.CompareTo(i2)
}

// Insert adds (key, value), keeping duplicate keys ordered by value.
func (t *Tree[K, V, IDX]) Insert(key K, value V) error {
	idx := t.project(value)

	if t.Height() == 0 {
		id, err := t.pool.Allocate()
		if err != nil {
			return err
		}
		ref, err := t.pool.PinWrite(id)
		if err != nil {
			return err
		}
		leaf := &leafNode[K, V]{sibling: pager.NullPage, keys: []K{key}, vals: []V{value}}
		t.encodeLeaf(ref.MutableBytes(), leaf)
		ref.Release()

		t.root.Root.Set(id)
		t.root.Height.Set(1)
		t.root.Size.Set(1)
		return nil
	}

	path, leafID, leaf, err := t.descendForInsert(key, idx)
	if err != nil {
		return err
	}

	pos := t.leafInsertPos(leaf, key, idx)
	leaf.keys = append(leaf.keys, key)
	leaf.vals = append(leaf.vals, value)
	copy(leaf.keys[pos+1:], leaf.keys[pos:])
	copy(leaf.vals[pos+1:], leaf.vals[pos:])
	leaf.keys[pos] = key
	leaf.vals[pos] = value

	if err := t.writeLeaf(leafID, leaf); err != nil {
		return err
	}
	t.root.Size.Set(t.root.Size.Get() + 1)

	if pos == 0 {
		if err := t.fixSeparatorAbove(path, key, idx); err != nil {
			return err
		}
	}

	if len(leaf.keys) >= t.splitL {
		return t.splitLeafAndPropagate(path, leafID, leaf)
	}
	return nil
}

// descendForInsert walks from root to the leaf where (key, idx) belongs,
// recording the path, and returns the leaf decoded.
func (t *Tree[K, V, IDX]) descendForInsert(key K, idx IDX) ([]pathEntry, pager.PageID, *leafNode[K, V], error) {
	var path []pathEntry
	cur := t.root.Root.Get()

	for {
		ref, err := t.pool.PinRead(cur)
		if err != nil {
			return nil, 0, nil, err
		}
		tag := pageTag(ref.Bytes())
		if tag == nodeTagLeaf {
			leaf := t.decodeLeaf(ref.Bytes())
			ref.Release()
			return path, cur, leaf, nil
		}
		node := t.decodeInterior(ref.Bytes())
		ref.Release()

		i := t.interiorSearch(node, key, idx)
		path = append(path, pathEntry{page: cur, child: i})
		cur = node.children[i]
	}
}

// interiorSearch finds the largest i with data[i] <= (key, idx), or 0.
func (t *Tree[K, V, IDX]) interiorSearch(node *interiorNode[K, IDX], key K, idx IDX) int {
	lo, hi := 0, len(node.keys)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if compareKV[K, IDX](node.keys[mid], node.idxVals[mid], key, idx) <= 0 {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

// leafInsertPos finds where (key, idx-ordered value) belongs among a
// leaf's ascending (key, value) pairs.
func (t *Tree[K, V, IDX]) leafInsertPos(leaf *leafNode[K, V], key K, idx IDX) int {
	lo, hi := 0, len(leaf.keys)
	for lo < hi {
		mid := (lo + hi) / 2
		c := compareKV[K, IDX](leaf.keys[mid], t.project(leaf.vals[mid]), key, idx)
		if c < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (t *Tree[K, V, IDX]) writeLeaf(id pager.PageID, leaf *leafNode[K, V]) error {
	ref, err := t.pool.PinWrite(id)
	if err != nil {
		return err
	}
	defer ref.Release()
	t.encodeLeaf(ref.MutableBytes(), leaf)
	return nil
}

func (t *Tree[K, V, IDX]) writeInterior(id pager.PageID, node *interiorNode[K, IDX]) error {
	ref, err := t.pool.PinWrite(id)
	if err != nil {
		return err
	}
	defer ref.Release()
	t.encodeInterior(ref.MutableBytes(), node)
	return nil
}

func (t *Tree[K, V, IDX]) readInterior(id pager.PageID) (*interiorNode[K, IDX], error) {
	ref, err := t.pool.PinRead(id)
	if err != nil {
		return nil, err
	}
	defer ref.Release()
	return t.decodeInterior(ref.Bytes()), nil
}

// splitLeafAndPropagate splits an overflowing leaf and threads the new
// separator into the parent, recursing up into interior splits as needed
// (spec.md §4.5.2 steps 3-4).
func (t *Tree[K, V, IDX]) splitLeafAndPropagate(path []pathEntry, leafID pager.PageID, leaf *leafNode[K, V]) error {
	mid := len(leaf.keys) / 2

	newID, err := t.pool.Allocate()
	if err != nil {
		return err
	}
	newLeaf := &leafNode[K, V]{
		sibling: leaf.sibling,
		keys:    append([]K(nil), leaf.keys[mid:]...),
		vals:    append([]V(nil), leaf.vals[mid:]...),
	}
	leaf.keys = leaf.keys[:mid]
	leaf.vals = leaf.vals[:mid]
	leaf.sibling = newID

	if err := t.writeLeaf(leafID, leaf); err != nil {
		return err
	}
	if err := t.writeLeaf(newID, newLeaf); err != nil {
		return err
	}

	sepKey := newLeaf.keys[0]
	sepIdx := t.project(newLeaf.vals[0])

	if len(path) == 0 {
		return t.wrapRootOverLeaves(leafID, newID, sepKey, sepIdx)
	}

	return t.insertIntoParent(path, sepKey, sepIdx, newID)
}

// wrapRootOverLeaves builds the first interior root, spec.md §4.5.2 step 4,
// specialised to the case where the splitting node was the (leaf) root.
func (t *Tree[K, V, IDX]) wrapRootOverLeaves(oldRoot, newChild pager.PageID, sepKey K, sepIdx IDX) error {
	oldRef, err := t.pool.PinRead(oldRoot)
	if err != nil {
		return err
	}
	firstLeaf := t.decodeLeaf(oldRef.Bytes())
	oldRef.Release()

	rootKey := firstLeaf.keys[0]
	rootIdx := t.project(firstLeaf.vals[0])

	newRootID, err := t.pool.Allocate()
	if err != nil {
		return err
	}
	newRoot := &interiorNode[K, IDX]{
		layer:    0,
		keys:     []K{rootKey, sepKey},
		idxVals:  []IDX{rootIdx, sepIdx},
		children: []pager.PageID{oldRoot, newChild},
	}
	if err := t.writeInterior(newRootID, newRoot); err != nil {
		return err
	}

	t.root.Root.Set(newRootID)
	t.root.Height.Set(2)
	return nil
}

// insertIntoParent inserts (sepKey, sepIdx, newChild) at position
// path[last].child+1 in the node at path[last], splitting that interior
// and recursing further up if it now overflows.
func (t *Tree[K, V, IDX]) insertIntoParent(path []pathEntry, sepKey K, sepIdx IDX, newChild pager.PageID) error {
	last := len(path) - 1
	parentID := path[last].page
	pos := path[last].child + 1

	node, err := t.readInterior(parentID)
	if err != nil {
		return err
	}

	node.keys = append(node.keys, sepKey)
	node.idxVals = append(node.idxVals, sepIdx)
	node.children = append(node.children, newChild)
	copy(node.keys[pos+1:], node.keys[pos:len(node.keys)-1])
	copy(node.idxVals[pos+1:], node.idxVals[pos:len(node.idxVals)-1])
	copy(node.children[pos+1:], node.children[pos:len(node.children)-1])
	node.keys[pos] = sepKey
	node.idxVals[pos] = sepIdx
	node.children[pos] = newChild

	if err := t.writeInterior(parentID, node); err != nil {
		return err
	}

	if len(node.keys) < t.splitI {
		return nil
	}

	mid := len(node.keys) / 2
	newID, err := t.pool.Allocate()
	if err != nil {
		return err
	}
	newNode := &interiorNode[K, IDX]{
		layer:    node.layer,
		keys:     append([]K(nil), node.keys[mid:]...),
		idxVals:  append([]IDX(nil), node.idxVals[mid:]...),
		children: append([]pager.PageID(nil), node.children[mid:]...),
	}
	node.keys = node.keys[:mid]
	node.idxVals = node.idxVals[:mid]
	node.children = node.children[:mid]

	if err := t.writeInterior(parentID, node); err != nil {
		return err
	}
	if err := t.writeInterior(newID, newNode); err != nil {
		return err
	}

	upSepKey := newNode.keys[0]
	upSepIdx := newNode.idxVals[0]

	if last == 0 {
		return t.wrapRootOverInteriors(parentID, newID, node.layer+1, upSepKey, upSepIdx)
	}
	return t.insertIntoParent(path[:last], upSepKey, upSepIdx, newID)
}

func (t *Tree[K, V, IDX]) wrapRootOverInteriors(oldRoot, newChild pager.PageID, childLayer uint32, sepKey K, sepIdx IDX) error {
	oldNode, err := t.readInterior(oldRoot)
	if err != nil {
		return err
	}

	newRootID, err := t.pool.Allocate()
	if err != nil {
		return err
	}
	newRoot := &interiorNode[K, IDX]{
		layer:    childLayer,
		keys:     []K{oldNode.keys[0], sepKey},
		idxVals:  []IDX{oldNode.idxVals[0], sepIdx},
		children: []pager.PageID{oldRoot, newChild},
	}
	if err := t.writeInterior(newRootID, newRoot); err != nil {
		return err
	}

	t.root.Root.Set(newRootID)
	t.root.Height.Set(t.root.Height.Get() + 1)
	return nil
}

// Remove deletes one stored pair whose key equals key and whose value
// projects to the same index value as value; returns whether such a pair
// was found. With an identity projection that is an exact (key, value)
// match; with a narrower projection, values sharing one index value are
// not told apart.
func (t *Tree[K, V, IDX]) Remove(key K, value V) (bool, error) {
	if t.Height() == 0 {
		return false, nil
	}
	idx := t.project(value)

	path, leafID, leaf, err := t.descendForInsert(key, idx)
	if err != nil {
		return false, err
	}
	pos := t.leafInsertPos(leaf, key, idx)
	if pos >= len(leaf.keys) || leaf.keys[pos].CompareTo(key) != 0 || t.project(leaf.vals[pos]).CompareTo(idx) != 0 {
		return false, nil
	}

	copy(leaf.keys[pos:], leaf.keys[pos+1:])
	copy(leaf.vals[pos:], leaf.vals[pos+1:])
	leaf.keys = leaf.keys[:len(leaf.keys)-1]
	leaf.vals = leaf.vals[:len(leaf.vals)-1]

	if err := t.writeLeaf(leafID, leaf); err != nil {
		return false, err
	}
	t.root.Size.Set(t.root.Size.Get() - 1)

	if err := t.fixUnderflowLeaf(path, leafID, leaf); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveAll deletes every (key, *) pair, returning the count removed.
func (t *Tree[K, V, IDX]) RemoveAll(key K) (int, error) {
	count := 0
	for {
		vals, err := t.FindAll(key)
		if err != nil {
			return count, err
		}
		if len(vals) == 0 {
			return count, nil
		}
		ok, err := t.Remove(key, vals[0])
		if err != nil {
			return count, err
		}
		if !ok {
			return count, nil
		}
		count++
	}
}

// fixUnderflowLeaf propagates underflow fixes bottom-up from a leaf,
// spec.md §4.5.3 steps 3-4.
func (t *Tree[K, V, IDX]) fixUnderflowLeaf(path []pathEntry, leafID pager.PageID, leaf *leafNode[K, V]) error {
	if len(path) == 0 {
		// Root is the leaf itself.
		if len(leaf.keys) == 0 {
			if err := t.pool.Free(leafID); err != nil {
				return err
			}
			t.root.Root.Set(pager.NullPage)
			t.root.Height.Set(0)
		}
		return nil
	}

	if len(leaf.keys) > t.mergeL {
		return t.fixSeparatorAbove(path, leaf.keys[0], t.project(leaf.vals[0]))
	}

	last := len(path) - 1
	parentID := path[last].page
	childIdx := path[last].child

	node, err := t.readInterior(parentID)
	if err != nil {
		return err
	}

	if childIdx > 0 {
		leftID := node.children[childIdx-1]
		leftRef, err := t.pool.PinRead(leftID)
		if err != nil {
			return err
		}
		left := t.decodeLeaf(leftRef.Bytes())
		leftRef.Release()

		if len(left.keys) > t.mergeL+1 {
			n := len(left.keys) - 1
			borrowKey, borrowVal := left.keys[n], left.vals[n]
			left.keys = left.keys[:n]
			left.vals = left.vals[:n]
			leaf.keys = append([]K{borrowKey}, leaf.keys...)
			leaf.vals = append([]V{borrowVal}, leaf.vals...)

			if err := t.writeLeaf(leftID, left); err != nil {
				return err
			}
			if err := t.writeLeaf(leafID, leaf); err != nil {
				return err
			}
			node.keys[childIdx] = leaf.keys[0]
			node.idxVals[childIdx] = t.project(leaf.vals[0])
			if err := t.writeInterior(parentID, node); err != nil {
				return err
			}
			return t.fixSeparatorAbove(path[:last], node.keys[0], node.idxVals[0])
		}
	}

	if childIdx < len(node.children)-1 {
		rightID := node.children[childIdx+1]
		rightRef, err := t.pool.PinRead(rightID)
		if err != nil {
			return err
		}
		right := t.decodeLeaf(rightRef.Bytes())
		rightRef.Release()

		if len(right.keys) > t.mergeL+1 {
			borrowKey, borrowVal := right.keys[0], right.vals[0]
			right.keys = right.keys[1:]
			right.vals = right.vals[1:]
			leaf.keys = append(leaf.keys, borrowKey)
			leaf.vals = append(leaf.vals, borrowVal)

			if err := t.writeLeaf(rightID, right); err != nil {
				return err
			}
			if err := t.writeLeaf(leafID, leaf); err != nil {
				return err
			}
			node.keys[childIdx+1] = right.keys[0]
			node.idxVals[childIdx+1] = t.project(right.vals[0])
			if err := t.writeInterior(parentID, node); err != nil {
				return err
			}
			return t.fixSeparatorAbove(path[:last], node.keys[0], node.idxVals[0])
		}

		// Merge with right sibling.
		leaf.keys = append(leaf.keys, right.keys...)
		leaf.vals = append(leaf.vals, right.vals...)
		leaf.sibling = right.sibling
		if err := t.writeLeaf(leafID, leaf); err != nil {
			return err
		}
		if err := t.pool.Free(rightID); err != nil {
			return err
		}
		return t.removeChildFromInterior(path[:last], parentID, node, childIdx+1)
	}

	// Merge into left sibling (childIdx is the rightmost child).
	leftID := node.children[childIdx-1]
	leftRef, err := t.pool.PinRead(leftID)
	if err != nil {
		return err
	}
	left := t.decodeLeaf(leftRef.Bytes())
	leftRef.Release()

	left.keys = append(left.keys, leaf.keys...)
	left.vals = append(left.vals, leaf.vals...)
	left.sibling = leaf.sibling
	if err := t.writeLeaf(leftID, left); err != nil {
		return err
	}
	if err := t.pool.Free(leafID); err != nil {
		return err
	}
	return t.removeChildFromInterior(path[:last], parentID, node, childIdx)
}

// fixSeparatorAbove updates the separator entry for path[last] in its
// parent after an insert, removal or borrow changed path[last]'s minimum,
// propagating upward while the new minimum keeps changing.
func (t *Tree[K, V, IDX]) fixSeparatorAbove(path []pathEntry, newKey K, newIdx IDX) error {
	if len(path) == 0 {
		return nil
	}
	last := len(path) - 1
	parentID := path[last].page
	childIdx := path[last].child

	node, err := t.readInterior(parentID)
	if err != nil {
		return err
	}
	if node.keys[childIdx].CompareTo(newKey) == 0 && node.idxVals[childIdx].CompareTo(newIdx) == 0 {
		return nil
	}
	node.keys[childIdx] = newKey
	node.idxVals[childIdx] = newIdx
	if err := t.writeInterior(parentID, node); err != nil {
		return err
	}
	if childIdx == 0 {
		return t.fixSeparatorAbove(path[:last], node.keys[0], node.idxVals[0])
	}
	return nil
}

// removeChildFromInterior removes the entry at removeIdx from node (whose
// page is nodeID, reached via path) and, if node now underflows,
// propagates borrow/merge at the interior level (spec.md §4.5.3 with
// interior-node bookkeeping instead of leaf bookkeeping).
func (t *Tree[K, V, IDX]) removeChildFromInterior(path []pathEntry, nodeID pager.PageID, node *interiorNode[K, IDX], removeIdx int) error {
	copy(node.keys[removeIdx:], node.keys[removeIdx+1:])
	copy(node.idxVals[removeIdx:], node.idxVals[removeIdx+1:])
	copy(node.children[removeIdx:], node.children[removeIdx+1:])
	node.keys = node.keys[:len(node.keys)-1]
	node.idxVals = node.idxVals[:len(node.idxVals)-1]
	node.children = node.children[:len(node.children)-1]

	if err := t.writeInterior(nodeID, node); err != nil {
		return err
	}

	last := len(path) - 1 // path[last] is this node's own entry in its parent (or absent at root)

	if last < 0 {
		// node is the root.
		if len(node.children) <= 1 {
			newRootID := node.children[0]
			if err := t.pool.Free(nodeID); err != nil {
				return err
			}
			t.root.Root.Set(newRootID)
			t.root.Height.Set(t.root.Height.Get() - 1)
		}
		return nil
	}

	if len(node.keys) > t.mergeI {
		return t.fixSeparatorAbove(path, node.keys[0], node.idxVals[0])
	}

	parentID := path[last].page
	childIdx := path[last].child
	parent, err := t.readInterior(parentID)
	if err != nil {
		return err
	}

	if childIdx > 0 {
		leftID := parent.children[childIdx-1]
		left, err := t.readInterior(leftID)
		if err != nil {
			return err
		}
		if len(left.keys) > t.mergeI+1 {
			n := len(left.keys) - 1
			bk, bi, bc := left.keys[n], left.idxVals[n], left.children[n]
			left.keys, left.idxVals, left.children = left.keys[:n], left.idxVals[:n], left.children[:n]
			node.keys = append([]K{bk}, node.keys...)
			node.idxVals = append([]IDX{bi}, node.idxVals...)
			node.children = append([]pager.PageID{bc}, node.children...)

			if err := t.writeInterior(leftID, left); err != nil {
				return err
			}
			if err := t.writeInterior(nodeID, node); err != nil {
				return err
			}
			parent.keys[childIdx] = node.keys[0]
			parent.idxVals[childIdx] = node.idxVals[0]
			if err := t.writeInterior(parentID, parent); err != nil {
				return err
			}
			return t.fixSeparatorAbove(path[:last], parent.keys[0], parent.idxVals[0])
		}
	}

	if childIdx < len(parent.children)-1 {
		rightID := parent.children[childIdx+1]
		right, err := t.readInterior(rightID)
		if err != nil {
			return err
		}
		if len(right.keys) > t.mergeI+1 {
			bk, bi, bc := right.keys[0], right.idxVals[0], right.children[0]
			right.keys, right.idxVals, right.children = right.keys[1:], right.idxVals[1:], right.children[1:]
			node.keys = append(node.keys, bk)
			node.idxVals = append(node.idxVals, bi)
			node.children = append(node.children, bc)

			if err := t.writeInterior(rightID, right); err != nil {
				return err
			}
			if err := t.writeInterior(nodeID, node); err != nil {
				return err
			}
			parent.keys[childIdx+1] = right.keys[0]
			parent.idxVals[childIdx+1] = right.idxVals[0]
			if err := t.writeInterior(parentID, parent); err != nil {
				return err
			}
			return t.fixSeparatorAbove(path[:last], parent.keys[0], parent.idxVals[0])
		}

		node.keys = append(node.keys, right.keys...)
		node.idxVals = append(node.idxVals, right.idxVals...)
		node.children = append(node.children, right.children...)
		if err := t.writeInterior(nodeID, node); err != nil {
			return err
		}
		if err := t.pool.Free(rightID); err != nil {
			return err
		}
		return t.removeChildFromInterior(path[:last], parentID, parent, childIdx+1)
	}

	leftID := parent.children[childIdx-1]
	left, err := t.readInterior(leftID)
	if err != nil {
		return err
	}
	left.keys = append(left.keys, node.keys...)
	left.idxVals = append(left.idxVals, node.idxVals...)
	left.children = append(left.children, node.children...)
	if err := t.writeInterior(leftID, left); err != nil {
		return err
	}
	if err := t.pool.Free(nodeID); err != nil {
		return err
	}
	return t.removeChildFromInterior(path[:last], parentID, parent, childIdx)
}

// FindAll returns every value stored under key, in ascending order.
func (t *Tree[K, V, IDX]) FindAll(key K) ([]V, error) {
	var out []V
	err := t.FindAllDo(key, func(v V) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// FindAllDo visits every value stored under key, in ascending order,
// without materialising a slice (spec.md §4.5.4).
func (t *Tree[K, V, IDX]) FindAllDo(key K, visit func(V) error) error {
	if t.Height() == 0 {
		return nil
	}

	cur := t.root.Root.Get()

	for {
		ref, err := t.pool.PinRead(cur)
		if err != nil {
			return err
		}
		tag := pageTag(ref.Bytes())
		if tag == nodeTagLeaf {
			leaf := t.decodeLeaf(ref.Bytes())
			ref.Release()
			return t.scanFromLeaf(leaf, key, visit)
		}
		node := t.decodeInterior(ref.Bytes())
		ref.Release()
		i := t.interiorSearchByKey(node, key)
		cur = node.children[i]
	}
}

// interiorSearchByKey finds the largest i with node.keys[i] strictly less
// than key, or 0 if no such i exists. Used for find_all-style descent,
// where only a key is known, not a specific (key, idx) pair to match
// interiorSearch's exact comparator against.
//
// This deliberately never compares on idx. A run of values sharing one
// key can split across several children, each carrying key as its own
// leading separator; picking "largest i with data[i] <= (key, idx)" for
// any fixed idx risks landing on a later child in that run and missing
// earlier siblings whose idx happens to sort after it, which silently
// drops entries for IDX types (e.g. signed integers) whose zero value is
// not their minimum. Landing at or before the run's first child is
// always safe here because scanFromLeaf then walks forward through the
// leaf sibling chain until it rules out every remaining candidate.
func (t *Tree[K, V, IDX]) interiorSearchByKey(node *interiorNode[K, IDX], key K) int {
	lo, hi := 0, len(node.keys)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if node.keys[mid].CompareTo(key) < 0 {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}

func (t *Tree[K, V, IDX]) scanFromLeaf(leaf *leafNode[K, V], key K, visit func(V) error) error {
	pos := 0
	for pos < len(leaf.keys) && leaf.keys[pos].CompareTo(key) < 0 {
		pos++
	}

	for {
		for pos < len(leaf.keys) {
			if leaf.keys[pos].CompareTo(key) != 0 {
				return nil
			}
			if err := visit(leaf.vals[pos]); err != nil {
				return err
			}
			pos++
		}
		if leaf.sibling.IsNull() {
			return nil
		}
		ref, err := t.pool.PinRead(leaf.sibling)
		if err != nil {
			return err
		}
		leaf = t.decodeLeaf(ref.Bytes())
		ref.Release()
		pos = 0
	}
}
