package bufferpool

import "github.com/intellect4all/ticketstore/pager"

// ReadRef is a scoped read-only reference to a pinned frame. Acquiring it
// pins the frame; the frame is immune from eviction until Release is
// called. ReadRef is not safe to copy: copying it would duplicate the pin
// bookkeeping without duplicating the underlying pin count, so treat it as
// a value you hold by pointer and release exactly once, on every exit
// path (spec.md §5, "Resource scoping rule").
type ReadRef struct {
	pool     *Pool
	frame    *frame
	pageID   pager.PageID
	released bool
}

// PageID returns the page id this reference is pinned to.
func (r *ReadRef) PageID() pager.PageID { return r.pageID }

// Bytes returns the frame's underlying buffer. The slice is only valid
// while the reference is held; do not retain it past Release.
func (r *ReadRef) Bytes() []byte { return r.frame.buf }

// Release decrements the pin count. Calling Release more than once on the
// same reference is a no-op.
func (r *ReadRef) Release() {
	if r.released {
		return
	}
	r.released = true
	r.pool.release(r.frame)
}

// WriteRef is a scoped writable reference. It embeds ReadRef so it shares
// the same Release/Bytes/PageID surface; its presence sets the frame's
// dirty bit on acquisition. Nothing stops a second PinWrite of a page that
// already has a live WriteRef: both references are handed the same frame
// and write into the same buffer.
type WriteRef struct {
	ReadRef
}

// MutableBytes returns the frame's buffer for in-place mutation.
func (w *WriteRef) MutableBytes() []byte { return w.frame.buf }
