package enginebench

import (
	"fmt"
	"time"
)

// StandardWorkloads returns a representative set of benchmark presets,
// narrowed to this package's single-tree Config shape (no per-key/value
// byte sizing: the tree under test is a scalar (Scalar[uint64],
// Scalar[uint64]) multimap).
func StandardWorkloads() []Config {
	return []Config{
		{
			Name:            "write-heavy-uniform",
			WorkloadType:    WorkloadWriteHeavy,
			KeyDistribution: DistUniform,
			NumKeys:         1_000_000,
			Duration:        30 * time.Second,
			PreloadKeys:     100_000,
			Seed:            12345,
		},
		{
			Name:            "read-heavy-zipfian",
			WorkloadType:    WorkloadReadHeavy,
			KeyDistribution: DistZipfian,
			NumKeys:         1_000_000,
			Duration:        30 * time.Second,
			PreloadKeys:     500_000,
			Seed:            12345,
		},
		{
			Name:            "balanced-uniform",
			WorkloadType:    WorkloadBalanced,
			KeyDistribution: DistUniform,
			NumKeys:         1_000_000,
			Duration:        30 * time.Second,
			PreloadKeys:     100_000,
			Seed:            12345,
		},
		{
			Name:            "write-only-sequential",
			WorkloadType:    WorkloadWriteOnly,
			KeyDistribution: DistSequential,
			NumKeys:         1_000_000,
			Duration:        15 * time.Second,
			PreloadKeys:     0,
			Seed:            12345,
		},
	}
}

// QuickWorkloads returns faster presets suitable for a smoke-test run.
func QuickWorkloads() []Config {
	return []Config{
		{
			Name:            "quick-write-heavy",
			WorkloadType:    WorkloadWriteHeavy,
			KeyDistribution: DistUniform,
			NumKeys:         50_000,
			Duration:        3 * time.Second,
			PreloadKeys:     5_000,
			Seed:            12345,
		},
		{
			Name:            "quick-balanced",
			WorkloadType:    WorkloadBalanced,
			KeyDistribution: DistUniform,
			NumKeys:         50_000,
			Duration:        3 * time.Second,
			PreloadKeys:     10_000,
			Seed:            12345,
		},
		{
			Name:            "quick-read-heavy",
			WorkloadType:    WorkloadReadHeavy,
			KeyDistribution: DistZipfian,
			NumKeys:         50_000,
			Duration:        3 * time.Second,
			PreloadKeys:     30_000,
			Seed:            12345,
		},
	}
}

// PrintResult writes a human-readable summary of a single run to stdout.
func PrintResult(r *Result) {
	fmt.Printf("\nresults for: %s\n", r.Config.Name)
	fmt.Printf("  throughput: %.0f ops/sec\n", r.OpsPerSec)
	fmt.Printf("  total ops: %d (writes: %d, reads: %d)\n", r.TotalOps, r.WriteOps, r.ReadOps)

	if r.WriteOps > 0 {
		fmt.Printf("  write latency (us): p50=%d p95=%d p99=%d p999=%d\n",
			r.WriteLatency.P50.Microseconds(), r.WriteLatency.P95.Microseconds(),
			r.WriteLatency.P99.Microseconds(), r.WriteLatency.P999.Microseconds())
	}
	if r.ReadOps > 0 {
		fmt.Printf("  read latency (us): p50=%d p95=%d p99=%d p999=%d\n",
			r.ReadLatency.P50.Microseconds(), r.ReadLatency.P95.Microseconds(),
			r.ReadLatency.P99.Microseconds(), r.ReadLatency.P999.Microseconds())
	}

	fmt.Printf("  tree: height=%d size=%d\n", r.EngineStats.Height, r.EngineStats.Size)
	fmt.Printf("  pool: pinned=%d free_pages=%d\n", r.EngineStats.PinnedCount, r.EngineStats.FreePageCount)
}
