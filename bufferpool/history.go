package bufferpool

// lruKHistory is a fixed-capacity ring buffer of the last K access
// timestamps for one frame, per spec.md §3 "Frame": "an LRU-K history
// (ring buffer of the last K access timestamps, missing slots treated as
// infinite age)".
//
// Here "infinite age" means that a frame with fewer than K recorded
// accesses sorts as older (more evictable) than any frame with a full K
// history; full() tells the two groups apart. Within a group, oldest()
// gives the timestamp to compare frames against each other.
type lruKHistory struct {
	entries []uint64
	count   int
	next    int
}

func newLRUKHistory(k int) lruKHistory {
	return lruKHistory{entries: make([]uint64, k)}
}

// record appends a fresh access timestamp, evicting the oldest entry once
// the ring is full.
func (h *lruKHistory) record(ts uint64) {
	k := len(h.entries)
	h.entries[h.next] = ts
	h.next = (h.next + 1) % k
	if h.count < k {
		h.count++
	}
}

// reset clears the history, as happens when a frame is rebound to a
// different page id.
func (h *lruKHistory) reset() {
	h.count = 0
	h.next = 0
}

// full reports whether this frame has K recorded accesses.
func (h *lruKHistory) full() bool {
	return h.count == len(h.entries)
}

// oldest returns the K-th most recent access timestamp: the oldest entry
// still being tracked. For a frame with fewer than K accesses, this is its
// very first access (or zero for a never-accessed frame); for a full
// history it is the entry about to be overwritten by the next record.
func (h *lruKHistory) oldest() uint64 {
	if !h.full() {
		if h.count == 0 {
			return 0
		}
		return h.entries[0]
	}
	return h.entries[h.next]
}
