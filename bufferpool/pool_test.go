package bufferpool

import (
	"path/filepath"
	"testing"

	"github.com/intellect4all/ticketstore/pager"
)

func openTestPool(t *testing.T, opts ...OptionFunc) *Pool {
	t.Helper()
	dir := t.TempDir()
	p, err := Open(filepath.Join(dir, "data"), filepath.Join(dir, "data.cfg"), opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestAllocateAndPinWriteRead(t *testing.T) {
	p := openTestPool(t)

	id, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	ref, err := p.PinWrite(id)
	if err != nil {
		t.Fatalf("PinWrite: %v", err)
	}
	buf := ref.MutableBytes()
	buf[0] = 0x42
	ref.Release()

	ref2, err := p.PinRead(id)
	if err != nil {
		t.Fatalf("PinRead: %v", err)
	}
	defer ref2.Release()
	if ref2.Bytes()[0] != 0x42 {
		t.Fatalf("expected byte 0x42, got %#x", ref2.Bytes()[0])
	}
}

func TestPinnedCountTracksReleases(t *testing.T) {
	p := openTestPool(t)

	id, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	ref, err := p.PinRead(id)
	if err != nil {
		t.Fatalf("PinRead: %v", err)
	}
	if p.PinnedCount() != 1 {
		t.Fatalf("expected PinnedCount=1, got %d", p.PinnedCount())
	}
	ref.Release()
	if p.PinnedCount() != 0 {
		t.Fatalf("expected PinnedCount=0 after release, got %d", p.PinnedCount())
	}
}

func TestEvictionWritesBackDirtyFrames(t *testing.T) {
	p := openTestPool(t, WithSlotCount(4), WithLRUK(2))

	ids := make([]pager.PageID, 6)
	for i := range ids {
		id, err := p.Allocate()
		if err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
		ids[i] = id

		ref, err := p.PinWrite(id)
		if err != nil {
			t.Fatalf("PinWrite %d: %v", i, err)
		}
		ref.MutableBytes()[0] = byte(i + 1)
		ref.Release()
	}

	// Every page should have been persisted correctly even though the pool
	// only has 4 slots for 6 distinct pages (spec.md §8 scenario 6).
	for i, id := range ids {
		ref, err := p.PinRead(id)
		if err != nil {
			t.Fatalf("PinRead %d: %v", i, err)
		}
		got := ref.Bytes()[0]
		ref.Release()
		if got != byte(i+1) {
			t.Fatalf("page %d: expected %d, got %d", i, i+1, got)
		}
	}
}

func TestPinBufferPoolExhausted(t *testing.T) {
	p := openTestPool(t, WithSlotCount(MinSlotCount))

	refs := make([]*ReadRef, 0, MinSlotCount)
	for i := 0; i < MinSlotCount; i++ {
		id, err := p.Allocate()
		if err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
		ref, err := p.PinRead(id)
		if err != nil {
			t.Fatalf("PinRead %d: %v", i, err)
		}
		refs = append(refs, ref)
	}

	// All frames are pinned; one more distinct page should fail.
	extra, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate extra: %v", err)
	}
	if _, err := p.PinRead(extra); err == nil {
		t.Fatalf("expected ErrBufferPoolExhausted")
	}

	for _, ref := range refs {
		ref.Release()
	}
}

func TestFreeAndReallocate(t *testing.T) {
	p := openTestPool(t)

	id, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := p.Free(id); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if p.FreePageCount() != 1 {
		t.Fatalf("expected FreePageCount=1, got %d", p.FreePageCount())
	}

	reused, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate (reuse): %v", err)
	}
	if reused != id {
		t.Fatalf("expected Allocate to reuse freed page %d, got %d", id, reused)
	}
	if p.FreePageCount() != 0 {
		t.Fatalf("expected FreePageCount=0 after reuse, got %d", p.FreePageCount())
	}
}

func TestFreeOfPinnedPageFails(t *testing.T) {
	p := openTestPool(t)

	id, err := p.Allocate()
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	ref, err := p.PinRead(id)
	if err != nil {
		t.Fatalf("PinRead: %v", err)
	}
	defer ref.Release()

	if err := p.Free(id); err == nil {
		t.Fatalf("expected error freeing a pinned page")
	}
}

func TestCloseAndReopenPersistsAllocatorState(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "data")
	cfgPath := filepath.Join(dir, "data.cfg")

	p, err := Open(dataPath, cfgPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var ids []pager.PageID
	for i := 0; i < 3; i++ {
		id, err := p.Allocate()
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		ids = append(ids, id)
	}
	if err := p.Free(ids[1]); err != nil {
		t.Fatalf("Free: %v", err)
	}
	wantNext := p.NextPageID()
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	p2, err := Open(dataPath, cfgPath)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer p2.Close()

	if p2.NextPageID() != wantNext {
		t.Fatalf("expected NextPageID=%d after reopen, got %d", wantNext, p2.NextPageID())
	}
	if p2.FreePageCount() != 1 {
		t.Fatalf("expected FreePageCount=1 after reopen, got %d", p2.FreePageCount())
	}
}
