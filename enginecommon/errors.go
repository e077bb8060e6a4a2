// Package enginecommon holds the error taxonomy used across the storage
// engine packages (pager, bufferpool, configstore, segment, bptree).
package enginecommon

import "errors"

var (
	// ErrOutOfRange is returned when a page id, segment index, or tree
	// index falls outside the valid interval. Always a programmer error;
	// typically indicates corruption or a bug upstream.
	ErrOutOfRange = errors.New("enginecommon: id or index out of range")

	// ErrBufferPoolExhausted is returned when every frame in the buffer
	// pool is pinned at eviction time. Fatal: it means a caller held a
	// reference across an operation that needed more frames than the
	// pool has slots for.
	ErrBufferPoolExhausted = errors.New("enginecommon: buffer pool exhausted")

	// ErrNotFound names the "no such (key, value) pair" outcome. No
	// operation returns it: bptree's Remove reports that outcome as a
	// false return instead.
	ErrNotFound = errors.New("enginecommon: key/value pair not found")

	// ErrCorruptState is returned at startup when the config file or a
	// data file parses inconsistently. Fatal: the engine refuses to open.
	ErrCorruptState = errors.New("enginecommon: persisted state is corrupt")

	// ErrClosed is returned by the buffer pool's Allocate, Free, PinRead
	// and PinWrite when they are called after the pool has been closed.
	ErrClosed = errors.New("enginecommon: already closed")
)
