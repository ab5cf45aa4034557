// mpkv-bench drives put/get/delete workloads against a throwaway vault
// directory and reports per-phase throughput and latency.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/zhangyunhao116/fastrand"

	"mpkv/pkg/store"
)

type benchResult struct {
	TotalOps      int
	SuccessfulOps int
	FailedOps     int
	Duration      time.Duration
	OpsPerSec     float64
	AvgLatency    time.Duration
	MinLatency    time.Duration
	MaxLatency    time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mpkv-bench: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir := flag.String("dir", "", "vault directory (default: a fresh temp dir, removed afterwards)")
	n := flag.Int("n", 10000, "operations per phase")
	readers := flag.Int("readers", 8, "concurrent readers in the get phase")
	valueSize := flag.Int("value-size", 256, "value size in bytes")
	flag.Parse()

	workDir := *dir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "mpkv-bench-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)
		workDir = tmp
	}

	opts := store.DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	st, err := store.Open(workDir, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	keys := make([]string, *n)
	for i := range keys {
		keys[i] = fmt.Sprintf("bench-%08d-%08x", i, fastrand.Uint32())
	}
	value := make([]byte, *valueSize)
	for i := range value {
		value[i] = byte(fastrand.Uint32())
	}

	fmt.Println("=== mpkv benchmark ===")
	fmt.Printf("Dir: %s\n", workDir)
	fmt.Printf("Ops per phase: %d\n", *n)
	fmt.Printf("Value size: %d bytes\n", *valueSize)
	fmt.Println()

	fmt.Printf("Phase 1: Sequential Puts (%d operations)\n", *n)
	printResult(runPhase(*n, 1, func(i int) error {
		_, err := st.Put(keys[i], value)
		return err
	}))

	fmt.Printf("\nPhase 2: Concurrent Gets (%d operations, %d goroutines)\n", *n, *readers)
	printResult(runPhase(*n, *readers, func(i int) error {
		_, err := st.Get(keys[i])
		return err
	}))

	fmt.Printf("\nPhase 3: Sequential Deletes (%d operations)\n", *n)
	printResult(runPhase(*n, 1, func(i int) error {
		_, err := st.Delete(keys[i])
		return err
	}))

	fmt.Println("\nPhase 4: Compact")
	stats, err := st.Compact()
	if err != nil {
		return err
	}
	fmt.Printf("  Records kept: %d\n", stats.RecordsKept)
	fmt.Printf("  Records dropped: %d\n", stats.RecordsDropped)
	fmt.Printf("  Bytes: %d down to %d\n", stats.BytesBefore, stats.BytesAfter)

	fmt.Println("\n=== benchmark complete ===")
	return nil
}

// runPhase splits totalOps across concurrency goroutines, each working a
// contiguous index range, and gathers latency stats under a mutex.
func runPhase(totalOps, concurrency int, op func(i int) error) benchResult {
	start := time.Now()
	var wg sync.WaitGroup
	var mu sync.Mutex

	successful := 0
	failed := 0
	latencies := make([]time.Duration, 0, totalOps)

	opsPerGoroutine := totalOps / concurrency
	remainder := totalOps % concurrency

	next := 0
	for g := 0; g < concurrency; g++ {
		ops := opsPerGoroutine
		if g < remainder {
			ops++
		}
		lo := next
		next += ops

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				opStart := time.Now()
				err := op(i)
				latency := time.Since(opStart)

				mu.Lock()
				if err == nil {
					successful++
				} else {
					failed++
				}
				latencies = append(latencies, latency)
				mu.Unlock()
			}
		}(lo, next)
	}

	wg.Wait()
	duration := time.Since(start)

	var minLat, maxLat, sumLat time.Duration
	if len(latencies) > 0 {
		minLat = latencies[0]
		maxLat = latencies[0]
		for _, lat := range latencies {
			if lat < minLat {
				minLat = lat
			}
			if lat > maxLat {
				maxLat = lat
			}
			sumLat += lat
		}
	}
	var avgLat time.Duration
	if len(latencies) > 0 {
		avgLat = sumLat / time.Duration(len(latencies))
	}

	return benchResult{
		TotalOps:      totalOps,
		SuccessfulOps: successful,
		FailedOps:     failed,
		Duration:      duration,
		OpsPerSec:     float64(successful) / duration.Seconds(),
		AvgLatency:    avgLat,
		MinLatency:    minLat,
		MaxLatency:    maxLat,
	}
}

func printResult(r benchResult) {
	fmt.Printf("  Total Operations: %d\n", r.TotalOps)
	fmt.Printf("  Successful: %d\n", r.SuccessfulOps)
	fmt.Printf("  Failed: %d\n", r.FailedOps)
	fmt.Printf("  Duration: %v\n", r.Duration)
	fmt.Printf("  Operations/sec: %.2f\n", r.OpsPerSec)
	fmt.Printf("  Avg Latency: %v\n", r.AvgLatency)
	fmt.Printf("  Min Latency: %v\n", r.MinLatency)
	fmt.Printf("  Max Latency: %v\n", r.MaxLatency)
}
