package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/corekit/core/memory"
)

func TestSelftest_AllChecksPass(t *testing.T) {
	resetFlags()
	jsonOut = true

	output, err := captureOutput(t, runSelftest)
	require.NoError(t, err, output)

	var results []CheckResult
	decodeJSON(t, output, &results)
	require.Len(t, results, len(checks))
	for _, r := range results {
		assert.True(t, r.Passed, "%s: %s", r.Name, r.Error)
	}
}

func TestSelftest_Filter(t *testing.T) {
	resetFlags()
	selftestFilter = "container"

	output, err := captureOutput(t, runSelftest)
	require.NoError(t, err)
	assert.Contains(t, output, "PASS  container/hash_map")
	assert.NotContains(t, output, "memory/")
	assert.Contains(t, output, "3 checks, 0 failed")
}

func TestRunChecks_AssertionFailsOneCheck(t *testing.T) {
	resetFlags()
	saved := checks
	t.Cleanup(func() { checks = saved })

	checks = []check{
		{"boom", func(a memory.Allocator) error {
			a.Allocate(8, 3)
			return nil
		}},
		{"fine", func(memory.Allocator) error { return nil }},
	}

	results := runChecks(memory.NewHeap(), "")
	require.Len(t, results, 2)
	assert.False(t, results[0].Passed)
	assert.Contains(t, results[0].Error, "power of two")
	assert.True(t, results[1].Passed)
}

func TestBench_SmallRun(t *testing.T) {
	resetFlags()
	jsonOut = true
	benchEntries = 2000

	output, err := captureOutput(t, runBench)
	require.NoError(t, err, output)

	var results []BenchResult
	decodeJSON(t, output, &results)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.Equal(t, 2000, r.Entries, r.Allocator)
		assert.Equal(t, 4096, r.Capacity, r.Allocator)
		assert.Positive(t, r.InsertNsOp)
	}
}

func TestBench_UnknownAllocator(t *testing.T) {
	resetFlags()
	benchEntries = 10
	benchAllocators = []string{"tlsf"}

	_, err := captureOutput(t, runBench)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown allocator "tlsf"`)
}

func TestTableFootprint(t *testing.T) {
	const table16 = 16*24 + 16
	assert.Equal(t, uint64(table16), tableFootprint(1))
	assert.Equal(t, uint64(table16), tableFootprint(14))
	assert.Equal(t, uint64(table16+32*24+16), tableFootprint(15))
}

func TestReport_TagsAreSortedAndReleased(t *testing.T) {
	resetFlags()
	jsonOut = true
	reportScale = 200

	output, err := captureOutput(t, runReport)
	require.NoError(t, err, output)

	var reports []TagReport
	decodeJSON(t, output, &reports)

	var tags []string
	for _, r := range reports {
		tags = append(tags, r.Tag)
		assert.Positive(t, r.LiveBytes, r.Tag)
		assert.GreaterOrEqual(t, r.PeakBytes, r.LiveBytes, r.Tag)
	}
	assert.Equal(t, []string{"assets", "physics", "render"}, tags)
}

func TestReport_TextOutput(t *testing.T) {
	resetFlags()
	reportScale = 10

	output, err := captureOutput(t, runReport)
	require.NoError(t, err)
	assert.Contains(t, output, "TAG")
	assert.Contains(t, output, "physics")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "2.0 KB", formatBytes(2048))
	assert.Equal(t, "1.5 MB", formatBytes(3<<19))
}
