// Command bench drives enginebench workloads against a throwaway instance
// of the B+ tree engine.
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
	"github.com/intellect4all/ticketstore/enginebench"
	"github.com/intellect4all/ticketstore/pager"
)

func main() {
	dir := flag.String("dir", "", "working directory for benchmark data files (default: a temp dir)")
	quick := flag.Bool("quick", false, "run the quick preset workloads instead of the standard ones")
	slots := flag.Int("slots", 256, "buffer pool slot count")
	flag.Parse()

	workDir := *dir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "ticketstore-bench-")
		if err != nil {
			fmt.Fprintln(os.Stderr, "bench:", err)
			os.Exit(1)
		}
		workDir = tmp
		defer os.RemoveAll(workDir)
	}

	log, _ := zap.NewProduction()
	defer log.Sync()

	pool, err := bufferpool.Open(
		filepath.Join(workDir, "bench.data"),
		filepath.Join(workDir, "bench.data.cfg"),
		bufferpool.WithSlotCount(*slots),
		bufferpool.WithLogger(log),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
	defer pool.Close()

	store, err := configstore.Open(filepath.Join(workDir, "bench.config"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
	defer store.Close()

	height, err := configstore.Track[uint32](store, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
	size, err := configstore.Track[uint64](store, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}
	root, err := configstore.Track[pager.PageID](store, pager.NullPage)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}

	tree, err := bptree.New[bptree.Scalar[uint64], bptree.Scalar[uint64], bptree.Scalar[uint64]](
		pool,
		bptree.RootState{Height: height, Size: size, Root: root},
		func(v bptree.Scalar[uint64]) bptree.Scalar[uint64] { return v },
		log,
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bench:", err)
		os.Exit(1)
	}

	workloads := enginebench.StandardWorkloads()
	if *quick {
		workloads = enginebench.QuickWorkloads()
	}

	for _, cfg := range workloads {
		fmt.Printf("\n=== %s ===\n", cfg.Name)
		bench := enginebench.NewBenchmark(tree, pool, cfg)
		result, err := bench.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "bench: %s: %v\n", cfg.Name, err)
			continue
		}
		enginebench.PrintResult(result)
	}
}
