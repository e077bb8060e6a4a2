package pager

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/intellect4all/ticketstore/enginecommon"
)

func TestOpenCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	p, created, err := Open(path, 4096)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	if !created {
		t.Fatalf("expected created=true for a fresh file")
	}
	if p.NumPages() != 0 {
		t.Fatalf("expected 0 pages, got %d", p.NumPages())
	}
}

func TestGrowToAndReadWritePage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	p, _, err := Open(path, 16)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	if err := p.GrowTo(2); err != nil {
		t.Fatalf("GrowTo: %v", err)
	}
	if p.NumPages() != 2 {
		t.Fatalf("expected 2 pages, got %d", p.NumPages())
	}

	in := make([]byte, 16)
	for i := range in {
		in[i] = byte(i)
	}
	if err := p.WritePage(1, in); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	out := make([]byte, 16)
	if err := p.ReadPage(1, out); err != nil {
		t.Fatalf("ReadPage: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("byte %d: wrote %d, read %d", i, in[i], out[i])
		}
	}
}

func TestReadPageOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	p, _, err := Open(path, 16)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer p.Close()

	out := make([]byte, 16)
	err = p.ReadPage(0, out)
	if err == nil {
		t.Fatalf("expected error reading page 0 of an empty file")
	}
}

func TestOpenRejectsSizeNotMultipleOfPageSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	p, _, err := Open(path, 16)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := p.GrowTo(1); err != nil {
		t.Fatalf("GrowTo: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Re-open with a page size that doesn't evenly divide the file.
	_, _, err = Open(path, 5)
	if !errors.Is(err, enginecommon.ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
}
