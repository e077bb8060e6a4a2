// Package configstore persists a tuple of heterogeneous scalars across
// runs: each client that wants a value to survive restarts calls Track at
// startup and gets back a handle bound to a sequential byte offset
// (spec.md §4.4). Registration order must be identical across runs; that
// is the caller's responsibility, typically satisfied by registering the
// same fixed set of roots at startup (spec.md §5, "Startup").
package configstore

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"

	"github.com/intellect4all/ticketstore/enginecommon"
)

// trackedSlot is the type-erased interface every Slot[T] satisfies so the
// Store can write all of them back in registration order without knowing
// their concrete T.
type trackedSlot interface {
	flush(file *os.File) error
}

// Store owns the config file: a flat binary region that is the
// concatenation of the byte images of every tracked scalar, in the order
// they were registered.
type Store struct {
	path      string
	file      *os.File
	hadData   bool
	cursor    int64
	slots     []trackedSlot
	closed    bool
}

// Open opens (creating if necessary) the config file at path. If it was
// empty (or did not exist), every subsequently tracked slot is
// initialised from its default; otherwise slots are read back from disk
// in registration order.
func Open(path string) (*Store, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "configstore: open %s", path)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "configstore: stat")
	}
	return &Store{
		path:    path,
		file:    file,
		hadData: info.Size() > 0,
	}, nil
}

// Slot is a persistent scalar bound to a fixed byte offset in the config
// file. T must have a determinate size under encoding/binary (fixed-width
// integers, arrays, and structs built from them) -- no slices, strings,
// maps, or pointers.
type Slot[T any] struct {
	store  *Store
	offset int64
	size   int
	val    T
}

// Track reserves space for a new scalar at the current cursor and either
// seeds it from defaultValue (fresh config file) or loads it from disk
// (pre-existing config file), per spec.md §4.4.
func Track[T any](s *Store, defaultValue T) (*Slot[T], error) {
	size := binary.Size(defaultValue)
	if size < 0 {
		return nil, errors.Errorf("configstore: type %T has no fixed binary size", defaultValue)
	}

	slot := &Slot[T]{store: s, offset: s.cursor, size: size, val: defaultValue}
	s.cursor += int64(size)

	if s.hadData {
		buf := make([]byte, size)
		n, err := s.file.ReadAt(buf, slot.offset)
		if err != nil && n != size {
			return nil, errors.Wrapf(enginecommon.ErrCorruptState, "configstore: read slot at offset %d: %v", slot.offset, err)
		}
		if err := binary.Read(bytes.NewReader(buf), binary.BigEndian, &slot.val); err != nil {
			return nil, errors.Wrapf(enginecommon.ErrCorruptState, "configstore: decode slot at offset %d: %v", slot.offset, err)
		}
	}

	s.slots = append(s.slots, slot)
	return slot, nil
}

// Get returns the slot's current in-memory value.
func (s *Slot[T]) Get() T { return s.val }

// Set updates the slot's in-memory value; it is written back on Flush or
// Close.
func (s *Slot[T]) Set(v T) { s.val = v }

func (s *Slot[T]) flush(file *os.File) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, s.val); err != nil {
		return errors.Wrapf(err, "configstore: encode slot at offset %d", s.offset)
	}
	if _, err := file.WriteAt(buf.Bytes(), s.offset); err != nil {
		return errors.Wrapf(err, "configstore: write slot at offset %d", s.offset)
	}
	return nil
}

// Flush writes every tracked slot back to disk, in registration order.
func (s *Store) Flush() error {
	for _, slot := range s.slots {
		if err := slot.flush(s.file); err != nil {
			return err
		}
	}
	return errors.Wrap(s.file.Sync(), "configstore: sync")
}

// Close flushes every tracked slot and closes the backing file.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	if err := s.Flush(); err != nil {
		return err
	}
	s.closed = true
	return errors.Wrap(s.file.Close(), "configstore: close")
}
