// Package pager translates (page_id, buffer) pairs to bytes on a single
// backing file and grows that file by whole pages. It is the lowest layer
// of the storage engine (spec.md §4.1): it does not interpret page
// contents and knows nothing about frames, pins, or node layouts.
package pager

import (
	"os"

	"github.com/pkg/errors"

	"github.com/intellect4all/ticketstore/enginecommon"
)

// PageID addresses a page. NullPage encodes "no page".
type PageID uint32

// NullPage is the sentinel "no page" value, spec.md §3.
const NullPage PageID = ^PageID(0)

// IsNull reports whether id is the null-page sentinel.
func (id PageID) IsNull() bool { return id == NullPage }

// Pager owns the single open file descriptor for a data file and performs
// whole-page reads, writes, and file growth. The file length is always a
// multiple of PageSize.
type Pager struct {
	file     *os.File
	pageSize uint32
	numPages uint32
}

// Open opens (creating if necessary) the backing file at path for pages of
// pageSize bytes. created reports whether the file did not previously
// exist.
func Open(path string, pageSize uint32) (p *Pager, created bool, err error) {
	_, statErr := os.Stat(path)
	created = os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, false, errors.Wrapf(err, "pager: open %s", path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, false, errors.Wrapf(err, "pager: stat %s", path)
	}

	if info.Size()%int64(pageSize) != 0 {
		file.Close()
		return nil, false, errors.Wrapf(enginecommon.ErrCorruptState,
			"pager: %s size %d is not a multiple of page size %d", path, info.Size(), pageSize)
	}

	return &Pager{
		file:     file,
		pageSize: pageSize,
		numPages: uint32(info.Size() / int64(pageSize)),
	}, created, nil
}

// PageSize returns the fixed page size this pager was opened with.
func (p *Pager) PageSize() uint32 { return p.pageSize }

// NumPages returns how many whole pages the backing file currently holds.
func (p *Pager) NumPages() uint32 { return p.numPages }

// ReadPage seeks to page id and reads exactly PageSize bytes into out.
// len(out) must equal PageSize.
func (p *Pager) ReadPage(id PageID, out []byte) error {
	if err := p.checkRange(id); err != nil {
		return err
	}
	if uint32(len(out)) != p.pageSize {
		return errors.Wrap(enginecommon.ErrOutOfRange, "pager: read buffer size mismatch")
	}

	off := int64(id) * int64(p.pageSize)
	n, err := p.file.ReadAt(out, off)
	if err != nil {
		return errors.Wrapf(err, "pager: read page %d", id)
	}
	if n != int(p.pageSize) {
		return errors.Errorf("pager: short read of page %d: got %d of %d bytes", id, n, p.pageSize)
	}
	return nil
}

// WritePage seeks to page id and writes exactly PageSize bytes from in.
// len(in) must equal PageSize.
func (p *Pager) WritePage(id PageID, in []byte) error {
	if err := p.checkRange(id); err != nil {
		return err
	}
	if uint32(len(in)) != p.pageSize {
		return errors.Wrap(enginecommon.ErrOutOfRange, "pager: write buffer size mismatch")
	}

	off := int64(id) * int64(p.pageSize)
	n, err := p.file.WriteAt(in, off)
	if err != nil {
		return errors.Wrapf(err, "pager: write page %d", id)
	}
	if n != int(p.pageSize) {
		return errors.Errorf("pager: short write of page %d: wrote %d of %d bytes", id, n, p.pageSize)
	}
	return nil
}

// GrowTo resizes the backing file to hold exactly pageCount pages. It is
// only ever called with a pageCount greater than the current NumPages; the
// buffer pool is responsible for reusing freed pages before growing.
func (p *Pager) GrowTo(pageCount uint32) error {
	if pageCount <= p.numPages {
		return nil
	}
	if err := p.file.Truncate(int64(pageCount) * int64(p.pageSize)); err != nil {
		return errors.Wrapf(err, "pager: grow to %d pages", pageCount)
	}
	p.numPages = pageCount
	return nil
}

// Sync flushes the OS-level file buffers to stable storage.
func (p *Pager) Sync() error {
	return errors.Wrap(p.file.Sync(), "pager: sync")
}

// Close closes the underlying file descriptor.
func (p *Pager) Close() error {
	return errors.Wrap(p.file.Close(), "pager: close")
}

func (p *Pager) checkRange(id PageID) error {
	if id.IsNull() || uint32(id) >= p.numPages {
		return errors.Wrapf(enginecommon.ErrOutOfRange, "pager: page id %d out of range (numPages=%d)", id, p.numPages)
	}
	return nil
}
