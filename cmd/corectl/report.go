package main

import (
	"fmt"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/joshuapare/corekit/core/container"
	"github.com/joshuapare/corekit/core/memory"
	"github.com/joshuapare/corekit/core/memtrack"
	"github.com/joshuapare/corekit/core/strid"
)

var reportScale int

func init() {
	cmd := newReportCmd()
	cmd.Flags().IntVar(&reportScale, "scale", 1000, "Number of objects each subsystem creates")
	rootCmd.AddCommand(cmd)
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run a sample workload and print per-tag memory usage",
		Long: `The report command runs a small workload where each subsystem allocates
through its own proxy allocator, prints the memory usage per tag while the
workload is live, then releases everything and verifies nothing leaked.

Example:
  corectl report
  corectl report --scale 50000 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport()
		},
	}
	return cmd
}

// TagReport is the usage of one tag.
type TagReport struct {
	Tag           string `json:"tag"`
	Allocations   uint64 `json:"allocations"`
	Deallocations uint64 `json:"deallocations"`
	LiveBytes     uint64 `json:"live_bytes"`
	PeakBytes     uint64 `json:"peak_bytes"`
}

func runReport() (err error) {
	if reportScale <= 0 {
		return fmt.Errorf("--scale must be > 0, got %d", reportScale)
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

	release := runWorkload(reportScale)
	snapshot := s.tracker.Snapshot()
	release()

	reports := make([]TagReport, 0, len(snapshot))
	for _, u := range snapshot {
		reports = append(reports, tagReport(u))
	}

	if jsonOut {
		return printJSON(reports)
	}

	printInfo("%-12s %8s %8s %12s %12s\n", "TAG", "ALLOCS", "FREES", "LIVE", "PEAK")
	for _, r := range reports {
		printInfo("%-12s %8d %8d %12s %12s\n",
			r.Tag, r.Allocations, r.Deallocations, formatBytes(r.LiveBytes), formatBytes(r.PeakBytes))
	}
	return nil
}

func tagReport(u memtrack.Usage) TagReport {
	return TagReport{
		Tag:           u.Name,
		Allocations:   u.Allocations,
		Deallocations: u.Deallocations,
		LiveBytes:     u.LiveBytes,
		PeakBytes:     u.PeakBytes,
	}
}

type particle struct {
	X, Y, Z    float32
	VX, VY, VZ float32
}

// runWorkload allocates through one proxy per subsystem and returns a
// function releasing everything it holds.
func runWorkload(n int) (release func()) {
	heap := memory.Default()

	// physics: a pool of fixed-size bodies.
	physics := memory.NewProxy(heap, "physics")
	bodies := memory.NewPool(physics, uint32(n), uint32(unsafe.Sizeof(particle{})), uint32(unsafe.Alignof(particle{})))
	live := make([]*particle, 0, n)
	for range n {
		live = append(live, memory.New[particle](bodies))
	}

	// assets: a name index keyed by hashed ids.
	assets := memory.NewProxy(heap, "assets")
	index := container.NewHashMap[strid.ID64, int](assets)
	for i := range n {
		index.Set(strid.Hash64(fmt.Sprintf("asset/%d", i)), i)
	}

	// render: per-frame data in the scratch arena plus a sorted draw list.
	render := memory.NewProxy(heap, "render")
	draw := container.NewSortMap[uint32, int](render).Edit()
	for i := range n {
		draw = draw.Set(uint32(n-i), i)
	}
	drawList := draw.Sort()
	if scratch := memory.Scratch(); scratch != nil {
		scratch.Allocate(uint32(min(n*16, int(scratch.Size()/2))), 16)
	}

	return func() {
		if scratch := memory.Scratch(); scratch != nil {
			scratch.Clear()
		}
		drawList.Close()
		index.Close()
		for _, p := range live {
			memory.Delete(bodies, p)
		}
		bodies.Close()
	}
}
