package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/corekit/core/container"
	"github.com/joshuapare/corekit/core/memory"
	"github.com/joshuapare/corekit/core/strid"
	"github.com/joshuapare/corekit/internal/fatal"
)

var selftestFilter string

func init() {
	cmd := newSelftestCmd()
	cmd.Flags().StringVar(&selftestFilter, "run", "", "Only run checks whose name contains this substring")
	rootCmd.AddCommand(cmd)
}

func newSelftestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Run the built-in allocator and container checks",
		Long: `The selftest command runs the memory and container checks against the
process-wide allocators and fails if any check fails or leaks memory.

Example:
  corectl selftest
  corectl selftest --run container
  corectl selftest --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelftest()
		},
	}
	return cmd
}

// check is one named self check. It allocates through a.
type check struct {
	name string
	fn   func(a memory.Allocator) error
}

// CheckResult is the outcome of one check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

var checks = []check{
	{"memory/heap", checkHeap},
	{"memory/linear", checkLinear},
	{"memory/stack", checkStack},
	{"memory/pool", checkPool},
	{"memory/proxy", checkProxy},
	{"container/hash_map", checkHashMap},
	{"container/hash_set", checkHashSet},
	{"container/sort_map", checkSortMap},
	{"strid", checkStringID},
}

func runSelftest() (err error) {
	s, err := startSession()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	results := runChecks(memory.NewProxy(memory.Default(), "selftest"), selftestFilter)

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Passed {
				printInfo("PASS  %s\n", r.Name)
			} else {
				printInfo("FAIL  %s: %s\n", r.Name, r.Error)
			}
		}
		printInfo("\n%d checks, %d failed\n", len(results), failed)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	return nil
}

// runChecks runs every check whose name contains filter. An assertion
// failure inside a check fails that check only.
func runChecks(a memory.Allocator, filter string) []CheckResult {
	var results []CheckResult
	for _, c := range checks {
		if filter != "" && !strings.Contains(c.name, filter) {
			continue
		}
		printVerbose("running %s\n", c.name)

		var err error
		if f := fatal.Catch(func() { err = c.fn(a) }); f != nil {
			err = f
		}

		r := CheckResult{Name: c.name, Passed: err == nil}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}

func ensure(cond bool, format string, args ...any) error {
	if !cond {
		return fmt.Errorf(format, args...)
	}
	return nil
}

func checkHeap(a memory.Allocator) error {
	p := a.Allocate(32, 0)
	if p == nil {
		return memory.ErrOutOfMemory
	}
	defer a.Deallocate(p)
	return ensure(len(p) == 32, "allocated %d bytes, want 32", len(p))
}

func checkLinear(a memory.Allocator) error {
	l := memory.NewLinear(a, 256)
	defer func() {
		l.Clear()
		l.Close()
	}()

	for l.Allocate(16, 16) != nil {
	}
	full := l.Offset()
	l.Clear()

	if err := ensure(full > 256-32, "linear stopped at %d of 256 bytes", full); err != nil {
		return err
	}
	return ensure(l.Allocate(256-8, 8) != nil, "cleared arena did not release its capacity")
}

func checkStack(a memory.Allocator) error {
	s := memory.NewStack(a, 256)
	defer s.Close()

	first := s.Allocate(16, 8)
	second := s.Allocate(16, 8)
	if first == nil || second == nil {
		return memory.ErrOutOfMemory
	}

	outOfOrder := fatal.Catch(func() { s.Deallocate(first) })
	s.Deallocate(second)
	s.Deallocate(first)

	return ensure(outOfOrder != nil, "out-of-order deallocation was accepted")
}

func checkPool(a memory.Allocator) error {
	const blocks = 8
	p := memory.NewPool(a, blocks, 24, 8)
	defer p.Close()

	seen := make(map[*byte]bool, blocks)
	live := make([][]byte, 0, blocks)
	for range blocks {
		b := p.Allocate(24, 8)
		if seen[&b[0]] {
			return errors.New("pool returned the same block twice")
		}
		seen[&b[0]] = true
		live = append(live, b)
	}
	if fatal.Catch(func() { p.Allocate(24, 8) }) == nil {
		return errors.New("exhausted pool kept allocating")
	}

	p.Deallocate(live[3])
	again := p.Allocate(24, 8)
	reused := &again[0] == &live[3][0]
	live[3] = again
	for _, b := range live {
		p.Deallocate(b)
	}
	return ensure(reused, "freed block was not reused")
}

type countingTracker struct{ allocs, frees int }

func (c *countingTracker) OnAllocate(string, uint32)   { c.allocs++ }
func (c *countingTracker) OnDeallocate(string, uint32) { c.frees++ }

func checkProxy(a memory.Allocator) error {
	ct := &countingTracker{}
	p := memory.NewProxy(a, "selftest/proxy", memory.WithTracker(ct))
	p.Deallocate(p.Allocate(8, 4))
	return ensure(ct.allocs == 1 && ct.frees == 1, "tracker saw %d/%d events, want 1/1", ct.allocs, ct.frees)
}

func checkHashMap(a memory.Allocator) error {
	m := container.NewHashMap[int, int](a)
	defer m.Close()

	for i := range 100 {
		m.Set(i, i*i)
	}
	if err := ensure(m.Get(50, -1) == 2500, "get(50) = %d, want 2500", m.Get(50, -1)); err != nil {
		return err
	}
	m.Remove(20)
	if err := ensure(!m.Has(20), "removed key still present"); err != nil {
		return err
	}
	m.Clear()
	for i := range 100 {
		if m.Has(i) {
			return fmt.Errorf("key %d survived clear", i)
		}
	}
	return ensure(m.Len() == 0, "size %d after clear", m.Len())
}

func checkHashSet(a memory.Allocator) error {
	s := container.NewHashSet[int](a)
	defer s.Close()

	for i := range 100 {
		s.Insert(i * i)
	}
	s.Remove(25)
	for i := range 100 {
		if want := i != 5; s.Has(i*i) != want {
			return fmt.Errorf("has(%d) = %v, want %v", i*i, !want, want)
		}
	}
	return nil
}

func checkSortMap(a memory.Allocator) error {
	m := container.NewSortMap[string, int](a)
	b := m.Edit()
	for i, k := range []string{"delta", "alpha", "charlie", "bravo", "alpha"} {
		b = b.Set(k, i)
	}
	m = b.Sort()
	defer m.Close()

	var keys []string
	for k := range m.All() {
		keys = append(keys, k)
	}
	if err := ensure(strings.Join(keys, ",") == "alpha,bravo,charlie,delta", "order %v", keys); err != nil {
		return err
	}
	return ensure(m.Get("alpha", -1) == 4, "alpha = %d, want the last write 4", m.Get("alpha", -1))
}

func checkStringID(memory.Allocator) error {
	id := strid.Hash32("murmur32")
	if err := ensure(id == strid.Hash32("murmur32"), "ids are not deterministic"); err != nil {
		return err
	}
	return ensure(len(strid.Hash64("murmur64").String()) == 16, "64-bit ids render as 16 hex digits")
}
