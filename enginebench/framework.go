// Package enginebench is a single-threaded load generator for the B+ tree
// engine (spec.md §1 Non-goals exclude concurrency, so the worker pool
// collapses to one control flow issuing operations back to back).
package enginebench

import (
	"fmt"
	"time"

	"github.com/intellect4all/ticketstore/bptree"
	"github.com/intellect4all/ticketstore/bufferpool"
)

// Tree is the concrete instantiation under benchmark: a scalar-keyed,
// scalar-valued multimap with identity projection (no id-narrowing).
type Tree = bptree.Tree[bptree.Scalar[uint64], bptree.Scalar[uint64], bptree.Scalar[uint64]]

// WorkloadType defines the read/write mix.
type WorkloadType string

const (
	WorkloadWriteHeavy WorkloadType = "write-heavy" // 95% writes
	WorkloadReadHeavy  WorkloadType = "read-heavy"  // 95% reads
	WorkloadBalanced   WorkloadType = "balanced"    // 50/50
	WorkloadReadOnly   WorkloadType = "read-only"   // 100% reads
	WorkloadWriteOnly  WorkloadType = "write-only"  // 100% writes
)

// Config defines a benchmark scenario. Concurrency is retained as a
// field for workload-preset compatibility, but the harness always issues
// operations from a single control flow; a value other than 1 is
// accepted and ignored.
type Config struct {
	Name string

	WorkloadType    WorkloadType
	KeyDistribution KeyDistribution

	NumKeys int

	Duration    time.Duration
	Concurrency int

	PreloadKeys int

	Seed int64
}

// EngineStats snapshots the introspection surface spec.md §8 names as
// testable properties, taken at the end of a run.
type EngineStats struct {
	Height         uint32
	Size           uint64
	PinnedCount    int
	FreePageCount  int
	NextPageIDSeen uint32
}

type Result struct {
	Config Config

	TotalOps  int64
	WriteOps  int64
	ReadOps   int64
	Duration  time.Duration
	OpsPerSec float64

	WriteLatency LatencyStats
	ReadLatency  LatencyStats

	EngineStats EngineStats
}

// Benchmark drives a Tree with a generated workload.
type Benchmark struct {
	tree *Tree
	pool *bufferpool.Pool
	cfg  Config

	writeLatencies *LatencyHistogram
	readLatencies  *LatencyHistogram

	writeCount int64
	readCount  int64
	errorCount int64

	keyGen *KeyGenerator
}

func NewBenchmark(tree *Tree, pool *bufferpool.Pool, cfg Config) *Benchmark {
	return &Benchmark{
		tree:           tree,
		pool:           pool,
		cfg:            cfg,
		writeLatencies: NewLatencyHistogram(),
		readLatencies:  NewLatencyHistogram(),
		keyGen:         NewKeyGenerator(cfg.NumKeys, cfg.KeyDistribution, cfg.Seed),
	}
}

// Run executes the configured workload and returns aggregate results.
func (b *Benchmark) Run() (*Result, error) {
	if b.cfg.PreloadKeys > 0 {
		fmt.Printf("preloading %d keys...\n", b.cfg.PreloadKeys)
		if err := b.preload(); err != nil {
			return nil, err
		}
	}

	fmt.Println("warming up...")
	if err := b.runWorkload(2 * time.Second); err != nil {
		return nil, err
	}

	b.writeLatencies = NewLatencyHistogram()
	b.readLatencies = NewLatencyHistogram()
	b.writeCount, b.readCount, b.errorCount = 0, 0, 0

	fmt.Printf("running benchmark for %v...\n", b.cfg.Duration)
	start := time.Now()
	if err := b.runWorkload(b.cfg.Duration); err != nil {
		return nil, err
	}
	duration := time.Since(start)

	return b.calculateResults(duration), nil
}

func (b *Benchmark) preload() error {
	for i := 0; i < b.cfg.PreloadKeys; i++ {
		key := b.keyGen.GenerateSequential(i)
		v := bptree.Scalar[uint64]{Value: key}
		if err := b.tree.Insert(bptree.Scalar[uint64]{Value: key}, v); err != nil {
			return err
		}
		if i > 0 && i%10000 == 0 {
			fmt.Printf("  loaded %d keys\n", i)
		}
	}
	return nil
}

// runWorkload issues operations back to back, single-threaded, until
// duration elapses.
func (b *Benchmark) runWorkload(duration time.Duration) error {
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if b.shouldWrite() {
			if err := b.doWrite(); err != nil {
				return err
			}
		} else {
			if err := b.doRead(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Benchmark) shouldWrite() bool {
	switch b.cfg.WorkloadType {
	case WorkloadWriteOnly:
		return true
	case WorkloadReadOnly:
		return false
	case WorkloadWriteHeavy:
		return b.writeCount+b.readCount == 0 || (b.writeCount*100)/(b.writeCount+b.readCount+1) < 95
	case WorkloadReadHeavy:
		return (b.writeCount*100)/(b.writeCount+b.readCount+1) < 5
	default:
		return (b.writeCount+b.readCount)%2 == 0
	}
}

func (b *Benchmark) doWrite() error {
	key := b.keyGen.NextKey()
	v := bptree.Scalar[uint64]{Value: key}

	start := time.Now()
	err := b.tree.Insert(bptree.Scalar[uint64]{Value: key}, v)
	latency := time.Since(start)

	if err != nil {
		b.errorCount++
		return err
	}
	b.writeLatencies.Record(latency)
	b.writeCount++
	return nil
}

func (b *Benchmark) doRead() error {
	key := b.keyGen.NextKey()

	start := time.Now()
	_, err := b.tree.FindAll(bptree.Scalar[uint64]{Value: key})
	latency := time.Since(start)

	if err != nil {
		b.errorCount++
		return err
	}
	b.readLatencies.Record(latency)
	b.readCount++
	return nil
}

func (b *Benchmark) calculateResults(duration time.Duration) *Result {
	totalOps := b.writeCount + b.readCount

	return &Result{
		Config:    b.cfg,
		TotalOps:  totalOps,
		WriteOps:  b.writeCount,
		ReadOps:   b.readCount,
		Duration:  duration,
		OpsPerSec: float64(totalOps) / duration.Seconds(),

		WriteLatency: b.writeLatencies.Stats(),
		ReadLatency:  b.readLatencies.Stats(),

		EngineStats: EngineStats{
			Height:         b.tree.Height(),
			Size:           b.tree.Size(),
			PinnedCount:    b.pool.PinnedCount(),
			FreePageCount:  b.pool.FreePageCount(),
			NextPageIDSeen: uint32(b.pool.NextPageID()),
		},
	}
}
