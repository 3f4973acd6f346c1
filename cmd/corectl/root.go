package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/corekit/core/memory"
	"github.com/joshuapare/corekit/core/memtrack"
	"github.com/joshuapare/corekit/internal/config"
	"github.com/joshuapare/corekit/internal/logger"
)

var (
	// Global flags
	verbose  bool
	quiet    bool
	jsonOut  bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "corectl",
	Short: "Exercise and inspect the corekit allocators and containers",
	Long: `corectl drives the corekit memory core: it runs the built-in
self checks, benchmarks the hash containers over the different allocators,
and reports per-tag memory usage collected through proxy allocators.

Settings are read from CORE_* environment variables (CORE_LOG_LEVEL,
CORE_LOG_ALLOC, CORE_SCRATCH_SIZE, ...).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "Override CORE_LOG_LEVEL and enable logging")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session is the process-wide allocator setup shared by the commands.
type session struct {
	cfg     config.Config
	tracker *memtrack.Registry
}

// startSession loads the configuration, configures logging and installs
// the global allocators with a memtrack registry as default tracker.
func startSession() (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogEnabled = true
		cfg.LogLevel = logLevel
	}

	logger.Init(logger.Options{
		Enabled: cfg.LogEnabled,
		Level:   logger.ParseLevel(cfg.LogLevel),
		JSON:    cfg.LogJSON,
	})

	tracker := memtrack.New(memtrack.WithAllocationLog(cfg.LogAlloc))
	memory.Init(memory.GlobalOptions{
		Tracker:     tracker,
		ScratchSize: cfg.ScratchSize,
		PageBacking: cfg.PageBacking,
	})

	printVerbose("scratch arena: %d bytes (page backing: %v)\n", cfg.ScratchSize, cfg.PageBacking)
	return &session{cfg: cfg, tracker: tracker}, nil
}

// close tears the globals down and reports leaks, both per allocator and
// per tag.
func (s *session) close() error {
	verr := s.tracker.Verify()
	serr := memory.Shutdown()
	s.tracker.Close()

	if verr != nil {
		return fmt.Errorf("tagged allocations leaked: %w", verr)
	}
	if serr != nil {
		return fmt.Errorf("allocator shutdown: %w", serr)
	}
	return nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// formatBytes renders n with a binary unit.
func formatBytes(n uint64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
