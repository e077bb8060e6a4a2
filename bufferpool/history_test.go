package bufferpool

import "testing"

func TestLRUKHistoryPartialFillIsOlderThanFull(t *testing.T) {
	partial := newLRUKHistory(3)
	partial.record(100)

	full := newLRUKHistory(3)
	full.record(1)
	full.record(2)
	full.record(3)

	if partial.full() {
		t.Fatalf("expected partial history to not be full")
	}
	if !full.full() {
		t.Fatalf("expected full history to be full")
	}
	// A frame with fewer than K accesses is treated as older than any
	// frame with a full K history (spec.md §4.2 step 2), regardless of
	// raw timestamp value: partial's only access (100) is later than full's
	// oldest tracked access (1), yet the pool picks partial as the victim.
	if partial.oldest() != 100 || full.oldest() != 1 {
		t.Fatalf("expected oldest()=100 and 1, got %d and %d", partial.oldest(), full.oldest())
	}
	p := &Pool{frames: []*frame{{history: full}, {history: partial}}}
	idx, err := p.victim()
	if err != nil {
		t.Fatalf("victim: %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected the partially filled frame (index 1) as victim, got %d", idx)
	}
}

func TestLRUKHistoryRingWraps(t *testing.T) {
	h := newLRUKHistory(2)
	h.record(1)
	h.record(2)
	if h.oldest() != 1 {
		t.Fatalf("expected oldest=1, got %d", h.oldest())
	}
	h.record(3)
	// Ring now holds [3, 2]; the entry about to be overwritten (index of
	// the next write) is the oldest remaining one, 2.
	if h.oldest() != 2 {
		t.Fatalf("expected oldest=2 after wraparound, got %d", h.oldest())
	}
}

func TestLRUKHistoryResetClearsFullness(t *testing.T) {
	h := newLRUKHistory(2)
	h.record(1)
	h.record(2)
	if !h.full() {
		t.Fatalf("expected full after 2 records with K=2")
	}
	h.reset()
	if h.full() {
		t.Fatalf("expected not full after reset")
	}
	if h.oldest() != 0 {
		t.Fatalf("expected oldest=0 for a never-accessed history, got %d", h.oldest())
	}
}
