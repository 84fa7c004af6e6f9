package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/opalloc/internal/workload"
)

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <workload.yaml>",
		Short: "Show pool statistics after every step",
		Long: `The stats command runs a workload and prints the pool's capacity and
occupancy after each step, followed by the engine's counters.

Example:
  opctl stats testdata/linear_chunk.yaml
  opctl stats testdata/linear_chunk.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(args)
		},
	}
	return cmd
}

func runStats(args []string) error {
	res, _, err := runFile(args[0], workload.Options{})
	if res == nil {
		return err
	}

	if jsonOut {
		if jerr := printJSON(res); jerr != nil {
			return jerr
		}
		return err
	}

	printInfo("\nPool Statistics: %s (%s)\n", res.Name, res.Mode)
	printInfo("%s\n\n", strings.Repeat("=", 40))
	printInfo("%-6s %-8s %10s %10s\n", "step", "action", "maximum", "active")
	for _, st := range res.Trace {
		printInfo("%-6d %-8s %10d %10d\n", st.Index, st.Kind, st.Stats.MaxObjects, st.Stats.ActiveObjects)
	}

	c := res.Counters
	printInfo("\nCounters:\n")
	printInfo("  Allocate calls:   %d (%d fast, %d after growth)\n", c.AllocCalls, c.AllocFastPath, c.AllocSlowPath)
	printInfo("  Slots reused:     %d\n", c.Reused)
	printInfo("  Slots backed:     %d\n", c.Fresh)
	printInfo("  Frees:            %d\n", c.FreeCalls)
	printInfo("  Grow calls:       %d\n", c.GrowCalls)
	printInfo("  Chunks reserved:  %d\n", c.ChunksAllocated)
	printInfo("  Bytes reserved:   %s\n", formatBytes(c.BytesReserved))
	return err
}
