package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/opalloc/internal/logger"
	"github.com/joshuapare/opalloc/pool"
	"github.com/joshuapare/opalloc/pool/backing"
)

var (
	// Global flags
	verbose     bool
	quiet       bool
	jsonOut     bool
	noColor     bool
	logDir      string
	backingName string
	budget      int64
)

var rootCmd = &cobra.Command{
	Use:   "opctl",
	Short: "Run and inspect fixed-layout object pool workloads",
	Long: `opctl replays scripted allocate/free workloads against the opalloc
pool engine and reports capacity, occupancy, growth and chunk layout. Workloads
are YAML files describing one pool and a list of steps.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	SilenceUsage: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Write JSON logs to this directory")
	rootCmd.PersistentFlags().
		StringVar(&backingName, "backing", "heap", "Backing store for pool memory: heap or mmap")
	rootCmd.PersistentFlags().
		Int64Var(&budget, "budget", 0, "Cap backing memory at this many bytes (0 = unlimited)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging routes engine failures and workload logs according to the
// global flags.
func setupLogging() error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	if err := logger.Init(logger.Options{
		Enabled: !quiet || logDir != "",
		LogDir:  logDir,
		Level:   level,
	}); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	pool.SetErrorHook(pool.SlogHook(logger.L))
	return nil
}

// newStore builds the backing store selected by --backing, wrapped in a
// Limit so reservations are always tracked. Without --budget the limit is
// never reached.
func newStore() (*backing.Limit, error) {
	store, err := backing.ByName(backingName)
	if err != nil {
		return nil, err
	}
	b := budget
	if b <= 0 {
		b = math.MaxInt64
	}
	return backing.NewLimit(store, b), nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprint(os.Stdout, numbers.Sprintf(format, args...))
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprint(os.Stdout, numbers.Sprintf(format, args...))
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
