package bufferpool

import "github.com/intellect4all/ticketstore/pager"

// frame is the in-memory mirror of one page: a byte buffer, the page id it
// currently holds, a dirty flag, a pin count, and LRU-K access history.
// Spec.md §3 "Frame".
type frame struct {
	pageID   pager.PageID
	buf      []byte
	dirty    bool
	pinCount int
	history  lruKHistory
}

func newFrame(pageSize uint32, k int) *frame {
	return &frame{
		pageID:  pager.NullPage,
		buf:     make([]byte, pageSize),
		history: newLRUKHistory(k),
	}
}

// evictable reports whether this frame may be chosen as an eviction
// victim: pin count zero.
func (f *frame) evictable() bool {
	return f.pinCount == 0
}
