package segment

import (
	"path/filepath"
	"testing"
)

type record struct {
	A uint32
	B uint32
}

func TestAllocateGetSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg")
	l, err := Open[record](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	seg, err := l.Allocate(3)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if seg.Offset != 0 || seg.Length != 3 {
		t.Fatalf("unexpected segment %+v", seg)
	}

	for i := uint64(0); i < 3; i++ {
		if err := l.Set(seg, i, record{A: uint32(i), B: uint32(i * 10)}); err != nil {
			t.Fatalf("Set %d: %v", i, err)
		}
	}
	for i := uint64(0); i < 3; i++ {
		got, err := l.Get(seg, i)
		if err != nil {
			t.Fatalf("Get %d: %v", i, err)
		}
		if got.A != uint32(i) || got.B != uint32(i*10) {
			t.Fatalf("record %d: got %+v", i, got)
		}
	}
}

func TestOutOfRangeIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg")
	l, err := Open[record](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	seg, err := l.Allocate(2)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if _, err := l.Get(seg, 2); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestReopenPreservesTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seg")

	l, err := Open[record](path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	seg, err := l.Allocate(5)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := l.Set(seg, 4, record{A: 99, B: 100}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	l2, err := Open[record](path)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer l2.Close()

	seg2, err := l2.Allocate(1)
	if err != nil {
		t.Fatalf("Allocate after reopen: %v", err)
	}
	if seg2.Offset != 5 {
		t.Fatalf("expected new allocation to start at 5, got %d", seg2.Offset)
	}

	got, err := l2.Get(Segment{Offset: 4, Length: 5}, 0)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.A != 99 || got.B != 100 {
		t.Fatalf("expected preserved record, got %+v", got)
	}
}

func TestNaiveListAppendAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "naive")
	n, err := OpenNaive[record](path)
	if err != nil {
		t.Fatalf("OpenNaive: %v", err)
	}
	defer n.Close()

	idx, err := n.Append(record{A: 1, B: 2})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	idx2, err := n.Append(record{A: 3, B: 4})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idx2 != idx+1 {
		t.Fatalf("expected sequential indices, got %d then %d", idx, idx2)
	}

	got, err := n.Get(idx2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.A != 3 || got.B != 4 {
		t.Fatalf("unexpected record %+v", got)
	}

	if err := n.Set(idx, record{A: 5, B: 6}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got0, err := n.Get(idx)
	if err != nil {
		t.Fatalf("Get after Set: %v", err)
	}
	if got0.A != 5 || got0.B != 6 {
		t.Fatalf("unexpected record after Set %+v", got0)
	}
}
