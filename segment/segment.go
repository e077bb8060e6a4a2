// Package segment implements the paired small-record file (the
// FiledSegmentList of spec.md §4.3): an append-only run allocator over a
// second flat file used for variable-arity per-train data such as price
// vectors and remaining-seat counts, kept out of the B+ tree's node pages
// because a fat record would otherwise bloat interior-node fan-out.
//
// There is no in-memory cache here and segments are never freed; every
// access is a direct seek+read/write and the file grows monotonically,
// byte-for-byte layout with no write buffering.
package segment

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"

	"github.com/intellect4all/ticketstore/enginecommon"
)

const headerSize = 4 // u32 total_records

// Segment is a contiguous run of records: (offset, length) in records,
// not bytes.
type Segment struct {
	Offset uint64
	Length uint64
}

// List is a FiledSegmentList[T]: a flat file laid out as
// [u32 total_records][record_0][record_1]... . T must have a determinate
// size under encoding/binary.
type List[T any] struct {
	file       *os.File
	recordSize int
	total      uint64
}

// Open opens (creating if necessary) the segment file at path.
func Open[T any](path string) (*List[T], error) {
	var zero T
	recordSize := binary.Size(zero)
	if recordSize < 0 {
		return nil, errors.Errorf("segment: type %T has no fixed binary size", zero)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "segment: open %s", path)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "segment: stat")
	}

	l := &List[T]{file: file, recordSize: recordSize}

	if info.Size() == 0 {
		if err := l.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
		return l, nil
	}

	if info.Size() < headerSize {
		file.Close()
		return nil, errors.Wrapf(enginecommon.ErrCorruptState, "segment: %s header truncated", path)
	}

	header := make([]byte, headerSize)
	if _, err := file.ReadAt(header, 0); err != nil {
		file.Close()
		return nil, errors.Wrap(err, "segment: read header")
	}
	l.total = uint64(binary.BigEndian.Uint32(header))

	want := int64(headerSize) + int64(l.total)*int64(recordSize)
	if info.Size() < want {
		file.Close()
		return nil, errors.Wrapf(enginecommon.ErrCorruptState,
			"segment: %s claims %d records but file holds only %d bytes", path, l.total, info.Size())
	}

	return l, nil
}

// Allocate appends n records' worth of space, uninitialised, and returns
// a Segment pointer to it. Callers must Set every record before reading
// it; spec.md §9 leaves enforcing this as an open question, and this
// implementation does not enforce it either -- a read before a write
// returns whatever zero-filled bytes the OS handed back for the grown
// region.
func (l *List[T]) Allocate(n uint64) (Segment, error) {
	seg := Segment{Offset: l.total, Length: n}
	l.total += n

	size := int64(headerSize) + int64(l.total)*int64(l.recordSize)
	if err := l.file.Truncate(size); err != nil {
		l.total -= n
		return Segment{}, errors.Wrap(err, "segment: grow file")
	}
	if err := l.writeHeader(); err != nil {
		return Segment{}, err
	}
	return seg, nil
}

// Get reads the i-th record of seg.
func (l *List[T]) Get(seg Segment, i uint64) (T, error) {
	var out T
	if i >= seg.Length {
		return out, errors.Wrapf(enginecommon.ErrOutOfRange, "segment: index %d out of range [0,%d)", i, seg.Length)
	}

	buf := make([]byte, l.recordSize)
	off := l.recordOffset(seg, i)
	if _, err := l.file.ReadAt(buf, off); err != nil {
		return out, errors.Wrap(err, "segment: read record")
	}
	if err := binary.Read(bytes.NewReader(buf), binary.BigEndian, &out); err != nil {
		return out, errors.Wrap(err, "segment: decode record")
	}
	return out, nil
}

// Set writes the i-th record of seg.
func (l *List[T]) Set(seg Segment, i uint64, v T) error {
	if i >= seg.Length {
		return errors.Wrapf(enginecommon.ErrOutOfRange, "segment: index %d out of range [0,%d)", i, seg.Length)
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
		return errors.Wrap(err, "segment: encode record")
	}

	off := l.recordOffset(seg, i)
	if _, err := l.file.WriteAt(buf.Bytes(), off); err != nil {
		return errors.Wrap(err, "segment: write record")
	}
	return nil
}

func (l *List[T]) recordOffset(seg Segment, i uint64) int64 {
	return int64(headerSize) + int64(seg.Offset+i)*int64(l.recordSize)
}

func (l *List[T]) writeHeader() error {
	var header [headerSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(l.total))
	_, err := l.file.WriteAt(header[:], 0)
	return errors.Wrap(err, "segment: write header")
}

// Close closes the backing file. Every write already went straight to
// disk (there is no cache to flush).
func (l *List[T]) Close() error {
	return errors.Wrap(l.file.Close(), "segment: close")
}

// NaiveList is the FiledNaiveList sibling from the original source: a
// segment list that hands out exactly one record per logical entry,
// convenient for scalar-per-train vectors (prices, capacities) whose
// arity is known at creation time and never needs a multi-record run.
type NaiveList[T any] struct {
	inner *List[T]
}

// OpenNaive opens a NaiveList at path.
func OpenNaive[T any](path string) (*NaiveList[T], error) {
	inner, err := Open[T](path)
	if err != nil {
		return nil, err
	}
	return &NaiveList[T]{inner: inner}, nil
}

// Append allocates and initialises a single new record, returning its
// absolute index.
func (n *NaiveList[T]) Append(v T) (uint64, error) {
	seg, err := n.inner.Allocate(1)
	if err != nil {
		return 0, err
	}
	if err := n.inner.Set(seg, 0, v); err != nil {
		return 0, err
	}
	return seg.Offset, nil
}

// Get reads the record at absolute index idx.
func (n *NaiveList[T]) Get(idx uint64) (T, error) {
	return n.inner.Get(Segment{Offset: idx, Length: idx + 1}, 0)
}

// Set writes the record at absolute index idx.
func (n *NaiveList[T]) Set(idx uint64, v T) error {
	return n.inner.Set(Segment{Offset: idx, Length: idx + 1}, 0, v)
}

// Close closes the backing file.
func (n *NaiveList[T]) Close() error {
	return n.inner.Close()
}
