// Command demo is a small worked example wiring the storage engine's
// layers together: pager -> buffer pool -> config store -> segment list ->
// B+ tree, standing in for the ticket/train upper layer spec.md §4.6
// treats as an external collaborator.
//
// It models a tiny slice of that domain: a train's per-date remaining-seat
// counts live in a segment list (one record per date, spec.md §4.3), while
// a B+ tree maps trainID -> the segment offset of each date's record, so a
// lookup by train finds every date it runs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/intellect4all/ticketstore/bptree"
	"github.com/intellect4all/ticketstore/bufferpool"
	"github.com/intellect4all/ticketstore/configstore"
	"github.com/intellect4all/ticketstore/pager"
	"github.com/intellect4all/ticketstore/segment"
)

// seatRecord is one date's remaining-seat count for a train, the
// fixed-width record type the segment list stores (spec.md §4.3).
type seatRecord struct {
	Date           uint32
	RemainingSeats uint32
}

func main() {
	dir := flag.String("dir", "", "working directory for demo data files (default: a temp dir)")
	flag.Parse()

	workDir := *dir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "ticketstore-demo-")
		if err != nil {
			fail(err)
		}
		workDir = tmp
		fmt.Println("working directory:", workDir)
	}

	log, _ := zap.NewDevelopment()
	defer log.Sync()

	pool, err := bufferpool.Open(
		filepath.Join(workDir, "trains.data"),
		filepath.Join(workDir, "trains.data.cfg"),
		bufferpool.WithLogger(log),
	)
	if err != nil {
		fail(err)
	}
	defer pool.Close()

	store, err := configstore.Open(filepath.Join(workDir, "trains.config"))
	if err != nil {
		fail(err)
	}
	defer store.Close()

	height, err := configstore.Track[uint32](store, 0)
	if err != nil {
		fail(err)
	}
	size, err := configstore.Track[uint64](store, 0)
	if err != nil {
		fail(err)
	}
	root, err := configstore.Track[pager.PageID](store, pager.NullPage)
	if err != nil {
		fail(err)
	}

	// index: trainID -> segment offset of each date's seat record.
	index, err := bptree.New[bptree.FixedString24, bptree.Scalar[uint64], bptree.Scalar[uint64]](
		pool,
		bptree.RootState{Height: height, Size: size, Root: root},
		func(v bptree.Scalar[uint64]) bptree.Scalar[uint64] { return v },
		log,
	)
	if err != nil {
		fail(err)
	}

	seats, err := segment.Open[seatRecord](filepath.Join(workDir, "trains.seats"))
	if err != nil {
		fail(err)
	}
	defer seats.Close()

	trainID := bptree.NewFixedString24("G1024")
	dates := []uint32{20260801, 20260802, 20260803}

	for _, date := range dates {
		seg, err := seats.Allocate(1)
		if err != nil {
			fail(err)
		}
		if err := seats.Set(seg, 0, seatRecord{Date: date, RemainingSeats: 200}); err != nil {
			fail(err)
		}
		if err := index.Insert(trainID, bptree.Scalar[uint64]{Value: seg.Offset}); err != nil {
			fail(err)
		}
	}

	offsets, err := index.FindAll(trainID)
	if err != nil {
		fail(err)
	}

	fmt.Printf("train %s runs on %d dates:\n", trainID.String(), len(offsets))
	for _, off := range offsets {
		rec, err := seats.Get(segment.Segment{Offset: off.Value, Length: 1}, 0)
		if err != nil {
			fail(err)
		}
		fmt.Printf("  date=%d remaining_seats=%d\n", rec.Date, rec.RemainingSeats)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "demo:", err)
	os.Exit(1)
}
