package bptree

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// fixedSize returns the binary.Size of the zero value of T, failing if T
// is not a fixed-width type (no slices, strings, maps, or pointers).
func fixedSize[T any]() (int, error) {
	var zero T
	size := binary.Size(zero)
	if size < 0 {
		return 0, errors.Errorf("bptree: type %T has no fixed binary size", zero)
	}
	return size, nil
}

func encodeFixed[T any](v T, size int) []byte {
	var buf bytes.Buffer
	buf.Grow(size)
	// fixed-size T by construction (checked via fixedSize at tree
	// creation), so this never fails.
	_ = binary.Write(&buf, binary.BigEndian, v)
	out := make([]byte, size)
	copy(out, buf.Bytes())
	return out
}

func decodeFixed[T any](b []byte) T {
	var v T
	_ = binary.Read(bytes.NewReader(b), binary.BigEndian, &v)
	return v
}
