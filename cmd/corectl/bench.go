package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/corekit/core/container"
	"github.com/joshuapare/corekit/core/memory"
)

var (
	benchEntries    int
	benchAllocators []string
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVarP(&benchEntries, "entries", "n", 100_000, "Number of keys to insert")
	cmd.Flags().StringSliceVar(&benchAllocators, "allocators", []string{"heap", "proxy", "pages", "linear"},
		"Allocators to compare (heap, proxy, pages, linear)")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure HashMap throughput over each allocator",
		Long: `The bench command fills a HashMap[int, int] with sequential keys, looks
every key up again and reports the time per operation for each allocator.

Example:
  corectl bench
  corectl bench -n 1000000 --allocators heap,linear
  corectl bench --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench()
		},
	}
	return cmd
}

// BenchResult is the measurement for one allocator.
type BenchResult struct {
	Allocator  string  `json:"allocator"`
	Entries    int     `json:"entries"`
	Capacity   int     `json:"capacity"`
	InsertNsOp float64 `json:"insert_ns_op"`
	LookupNsOp float64 `json:"lookup_ns_op"`
}

func runBench() (err error) {
	if benchEntries <= 0 {
		return fmt.Errorf("--entries must be > 0, got %d", benchEntries)
	}

	s, err := startSession()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	results := make([]BenchResult, 0, len(benchAllocators))
	for _, name := range benchAllocators {
		a, release, err := benchAllocator(name, benchEntries)
		if err != nil {
			return err
		}
		printVerbose("benchmarking %s\n", name)
		r, err := benchHashMap(a, benchEntries)
		release()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		r.Allocator = name
		results = append(results, r)
	}

	if jsonOut {
		return printJSON(results)
	}

	printInfo("%-8s %10s %10s %14s %14s\n", "ALLOC", "ENTRIES", "CAPACITY", "INSERT ns/op", "LOOKUP ns/op")
	for _, r := range results {
		printInfo("%-8s %10d %10d %14.1f %14.1f\n",
			r.Allocator, r.Entries, r.Capacity, r.InsertNsOp, r.LookupNsOp)
	}
	return nil
}

// benchAllocator builds the named allocator. release tears down anything
// the allocator owns.
func benchAllocator(name string, entries int) (memory.Allocator, func(), error) {
	switch strings.ToLower(name) {
	case "heap":
		return memory.Default(), func() {}, nil
	case "proxy":
		return memory.NewProxy(memory.Default(), "bench"), func() {}, nil
	case "pages":
		return memory.Pages(), func() {}, nil
	case "linear":
		size := tableFootprint(entries)
		if size > uint64(^uint32(0)) {
			return nil, nil, fmt.Errorf("linear arena for %d entries exceeds 4 GiB", entries)
		}
		l := memory.NewLinear(memory.Pages(), uint32(size))
		return l, func() {
			l.Clear()
			l.Close()
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown allocator %q", name)
	}
}

// tableFootprint is the arena size needed to grow a HashMap[int, int] to
// entries keys without ever reusing memory: every table it passes through
// stays allocated.
func tableFootprint(entries int) uint64 {
	const slotSize, entrySize, align = 8, 16, 8
	var total uint64
	for c := uint64(16); ; c *= 2 {
		total += c*(slotSize+entrySize) + 2*align
		if float64(entries) < float64(c)*0.9 {
			return total
		}
	}
}

func benchHashMap(a memory.Allocator, n int) (BenchResult, error) {
	m := container.NewHashMap[int, int](a)
	defer m.Close()

	start := time.Now()
	for i := range n {
		m.Set(i, i)
	}
	insert := time.Since(start)

	start = time.Now()
	sum := 0
	for i := range n {
		sum += m.Get(i, 0)
	}
	lookup := time.Since(start)
	if sum != n*(n-1)/2 {
		return BenchResult{}, fmt.Errorf("lookups returned wrong values (sum %d)", sum)
	}

	return BenchResult{
		Entries:    n,
		Capacity:   m.Cap(),
		InsertNsOp: float64(insert.Nanoseconds()) / float64(n),
		LookupNsOp: float64(lookup.Nanoseconds()) / float64(n),
	}, nil
}
