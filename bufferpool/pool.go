// Package bufferpool implements the fixed-frame buffer pool described in
// spec.md §4.2: page allocation over a recycled free-page stack, LRU-K
// eviction under pinning, and durable teardown. It is the only component
// that talks to pager.Pager.
package bufferpool

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/intellect4all/ticketstore/enginecommon"
	"github.com/intellect4all/ticketstore/pager"
)

// Pool is a fixed array of in-memory frames serving pinned references to
// pages of a single backing file, plus the allocator counter and free-page
// stack for that file. It is meant to be a process-wide singleton per data
// file while the engine is open (spec.md §9): callers pass *Pool through
// rather than reaching a package-level global, which also makes tests
// trivially isolated.
type Pool struct {
	pager *pager.Pager
	log   *zap.Logger

	frames      []*frame
	pageToFrame map[pager.PageID]int
	clock       uint64

	nextPageID pager.PageID
	freeStack  []pager.PageID

	dataConfigPath string
	closed         bool
}

// Open opens (or creates) dataPath as the backing data file and
// dataConfigPath as the sidecar that persists the page allocator's
// next-page-id counter and free-page stack (spec.md §6, item 2).
func Open(dataPath, dataConfigPath string, opts ...OptionFunc) (*Pool, error) {
	o := resolveOptions(opts...)

	pg, _, err := pager.Open(dataPath, o.PageSize)
	if err != nil {
		return nil, errors.Wrap(err, "bufferpool: open data file")
	}

	p := &Pool{
		pager:          pg,
		log:            o.Logger,
		pageToFrame:    make(map[pager.PageID]int, o.SlotCount),
		clock:          1,
		dataConfigPath: dataConfigPath,
	}
	for i := 0; i < o.SlotCount; i++ {
		p.frames = append(p.frames, newFrame(o.PageSize, o.LRUK))
	}

	if err := p.loadDataConfig(); err != nil {
		pg.Close()
		return nil, err
	}

	p.log.Info("bufferpool opened",
		zap.String("data_file", dataPath),
		zap.Int("slot_count", o.SlotCount),
		zap.Int("lru_k", o.LRUK),
		zap.Uint32("page_id_cursor", uint32(p.nextPageID)),
		zap.Int("free_pages", len(p.freeStack)))

	return p, nil
}

// PageSize returns the fixed page size frames in this pool hold.
func (p *Pool) PageSize() uint32 { return p.pager.PageSize() }

// Allocate returns a fresh page id: a recycled one from the free-page
// stack if available, otherwise the next never-used id, growing the
// backing file to cover it.
func (p *Pool) Allocate() (pager.PageID, error) {
	if p.closed {
		return pager.NullPage, enginecommon.ErrClosed
	}

	if n := len(p.freeStack); n > 0 {
		id := p.freeStack[n-1]
		p.freeStack = p.freeStack[:n-1]
		return id, nil
	}

	id := p.nextPageID
	p.nextPageID++
	if err := p.pager.GrowTo(uint32(p.nextPageID)); err != nil {
		p.nextPageID--
		return pager.NullPage, err
	}
	return id, nil
}

// Free pushes id onto the free-page stack for future reuse. The caller
// must have already run any in-page destructor and must not call Free
// while id is pinned.
func (p *Pool) Free(id pager.PageID) error {
	if p.closed {
		return enginecommon.ErrClosed
	}

	if idx, ok := p.pageToFrame[id]; ok {
		f := p.frames[idx]
		if f.pinCount != 0 {
			return errors.Wrapf(enginecommon.ErrOutOfRange, "bufferpool: free of pinned page %d", id)
		}
		delete(p.pageToFrame, id)
		f.pageID = pager.NullPage
		f.dirty = false
		f.history.reset()
	}

	p.freeStack = append(p.freeStack, id)
	return nil
}

// PinRead pins id and returns a read-only scoped reference. Release must
// be called on every exit path, including error unwinding, or the pin
// leaks and may eventually trip ErrBufferPoolExhausted.
func (p *Pool) PinRead(id pager.PageID) (*ReadRef, error) {
	f, err := p.pin(id, false)
	if err != nil {
		return nil, err
	}
	return &ReadRef{pool: p, frame: f, pageID: id}, nil
}

// PinWrite pins id and returns a writable scoped reference, marking the
// frame dirty immediately on acquisition (spec.md §4.2 step 4).
func (p *Pool) PinWrite(id pager.PageID) (*WriteRef, error) {
	f, err := p.pin(id, true)
	if err != nil {
		return nil, err
	}
	return &WriteRef{ReadRef: ReadRef{pool: p, frame: f, pageID: id}}, nil
}

func (p *Pool) pin(id pager.PageID, write bool) (*frame, error) {
	if p.closed {
		return nil, enginecommon.ErrClosed
	}
	if id.IsNull() || uint32(id) >= uint32(p.nextPageID) {
		return nil, errors.Wrapf(enginecommon.ErrOutOfRange, "bufferpool: pin of out-of-range page %d", id)
	}

	if idx, ok := p.pageToFrame[id]; ok {
		f := p.frames[idx]
		p.clock++
		f.history.record(p.clock)
		f.pinCount++
		if write {
			f.dirty = true
		}
		return f, nil
	}

	idx, err := p.victim()
	if err != nil {
		return nil, err
	}
	f := p.frames[idx]

	if f.dirty {
		if err := p.pager.WritePage(f.pageID, f.buf); err != nil {
			return nil, errors.Wrap(err, "bufferpool: write back dirty victim")
		}
		p.log.Debug("evicted dirty frame", zap.Uint32("old_page", uint32(f.pageID)), zap.Uint32("new_page", uint32(id)))
		f.dirty = false
	}

	if err := p.pager.ReadPage(id, f.buf); err != nil {
		return nil, errors.Wrap(err, "bufferpool: load page")
	}

	if !f.pageID.IsNull() {
		delete(p.pageToFrame, f.pageID)
	}
	f.pageID = id
	p.pageToFrame[id] = idx
	f.history.reset()
	p.clock++
	f.history.record(p.clock)
	f.pinCount++
	if write {
		f.dirty = true
	}

	return f, nil
}

// victim picks the unpinned frame with the oldest K-th most recent
// access, per spec.md §4.2 step 2.
func (p *Pool) victim() (int, error) {
	best := -1
	var bestFull bool
	var bestTS uint64

	for i, f := range p.frames {
		if !f.evictable() {
			continue
		}
		full := f.history.full()
		ts := f.history.oldest()
		if best == -1 || (!full && bestFull) || (full == bestFull && ts < bestTS) {
			best, bestFull, bestTS = i, full, ts
		}
	}

	if best == -1 {
		return 0, enginecommon.ErrBufferPoolExhausted
	}
	return best, nil
}

func (p *Pool) release(f *frame) {
	f.pinCount--
}

// FlushAll writes every dirty frame back through the pager and clears its
// dirty bit. Pin counts are not consulted (spec.md §4.2).
func (p *Pool) FlushAll() error {
	for _, f := range p.frames {
		if !f.dirty {
			continue
		}
		if err := p.pager.WritePage(f.pageID, f.buf); err != nil {
			return errors.Wrap(err, "bufferpool: flush")
		}
		f.dirty = false
	}
	return nil
}

// PinnedCount returns how many frames currently have a nonzero pin count.
// Tests use this to assert pin cleanliness at call boundaries (spec.md §8).
func (p *Pool) PinnedCount() int {
	n := 0
	for _, f := range p.frames {
		if f.pinCount != 0 {
			n++
		}
	}
	return n
}

// FreePageCount and NextPageID report the free_stack_size and next_page_id
// terms of the page-accounting invariant of spec.md §8:
// free_stack_size + pages_reachable_from_any_root == next_page_id.
// The pool does not count pages reachable from tree roots.
func (p *Pool) FreePageCount() int        { return len(p.freeStack) }
func (p *Pool) NextPageID() pager.PageID  { return p.nextPageID }

// Close flushes dirty frames, persists the allocator counter and free-page
// stack, and closes the backing file. A crash before Close loses all work
// since the last clean shutdown (spec.md §5, Non-goals §1).
func (p *Pool) Close() error {
	if p.closed {
		return nil
	}
	if err := p.FlushAll(); err != nil {
		return err
	}
	if err := p.saveDataConfig(); err != nil {
		return err
	}
	if err := p.pager.Sync(); err != nil {
		return err
	}
	p.closed = true
	p.log.Info("bufferpool closed",
		zap.Uint32("page_id_cursor", uint32(p.nextPageID)),
		zap.Int("free_pages", len(p.freeStack)))
	return p.pager.Close()
}

// loadDataConfig reads the [u32 next_page_id][u32 free_count][u32
// free_pages...] sidecar file (spec.md §6, item 2), leaving defaults in
// place if the file does not yet exist or is empty.
func (p *Pool) loadDataConfig() error {
	data, err := os.ReadFile(p.dataConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "bufferpool: read data-config file")
	}
	if len(data) == 0 {
		return nil
	}
	if len(data) < 8 {
		return errors.Wrapf(enginecommon.ErrCorruptState, "bufferpool: data-config file truncated (%d bytes)", len(data))
	}

	p.nextPageID = pager.PageID(binary.BigEndian.Uint32(data[0:4]))
	freeCount := binary.BigEndian.Uint32(data[4:8])

	need := 8 + int(freeCount)*4
	if len(data) < need {
		return errors.Wrapf(enginecommon.ErrCorruptState,
			"bufferpool: data-config claims %d free pages but file holds only %d bytes", freeCount, len(data))
	}

	p.freeStack = make([]pager.PageID, freeCount)
	for i := uint32(0); i < freeCount; i++ {
		off := 8 + int(i)*4
		p.freeStack[i] = pager.PageID(binary.BigEndian.Uint32(data[off : off+4]))
	}
	return nil
}

func (p *Pool) saveDataConfig() error {
	buf := make([]byte, 8+len(p.freeStack)*4)
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.nextPageID))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(p.freeStack)))
	for i, id := range p.freeStack {
		off := 8 + i*4
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(id))
	}
	return errors.Wrap(os.WriteFile(p.dataConfigPath, buf, 0o644), "bufferpool: write data-config file")
}
