package configstore

import (
	"path/filepath"
	"testing"
)

func TestTrackDefaultsOnFreshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	height, err := Track[uint32](s, 7)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if height.Get() != 7 {
		t.Fatalf("expected default 7, got %d", height.Get())
	}
}

func TestRoundTripAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	height, err := Track[uint32](s, 0)
	if err != nil {
		t.Fatalf("Track height: %v", err)
	}
	size, err := Track[uint64](s, 0)
	if err != nil {
		t.Fatalf("Track size: %v", err)
	}

	height.Set(3)
	size.Set(123456)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer s2.Close()

	height2, err := Track[uint32](s2, 0)
	if err != nil {
		t.Fatalf("Track height (reopen): %v", err)
	}
	size2, err := Track[uint64](s2, 0)
	if err != nil {
		t.Fatalf("Track size (reopen): %v", err)
	}

	if height2.Get() != 3 {
		t.Fatalf("expected height=3 after reopen, got %d", height2.Get())
	}
	if size2.Get() != 123456 {
		t.Fatalf("expected size=123456 after reopen, got %d", size2.Get())
	}
}

func TestRegistrationOrderMustMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	a, err := Track[uint32](s, 0)
	if err != nil {
		t.Fatalf("Track a: %v", err)
	}
	b, err := Track[uint64](s, 0)
	if err != nil {
		t.Fatalf("Track b: %v", err)
	}
	a.Set(11)
	b.Set(22)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopening and registering in the same order recovers the same values.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer s2.Close()
	a2, err := Track[uint32](s2, 0)
	if err != nil {
		t.Fatalf("Track a2: %v", err)
	}
	b2, err := Track[uint64](s2, 0)
	if err != nil {
		t.Fatalf("Track b2: %v", err)
	}
	if a2.Get() != 11 || b2.Get() != 22 {
		t.Fatalf("expected (11,22), got (%d,%d)", a2.Get(), b2.Get())
	}
}
