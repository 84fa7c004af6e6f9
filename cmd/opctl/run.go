package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/opalloc/internal/workload"
	"github.com/joshuapare/opalloc/pool/backing"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <workload.yaml>...",
		Short: "Run workloads and print final pool stats",
		Long: `The run command replays each workload against a fresh pool, checks its
expect steps, closes the pool and prints the final statistics.

Example:
  opctl run testdata/reuse_after_free.yaml
  opctl run --backing mmap --budget 4096 workloads/*.yaml
  opctl run scenario.yaml --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args)
		},
	}
	return cmd
}

// RunReport is the JSON shape of one run.
type RunReport struct {
	File   string           `json:"file"`
	Result *workload.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func runRun(args []string) error {
	var reports []RunReport
	failed := 0

	for _, path := range args {
		printVerbose("Running workload: %s\n", path)
		res, limit, err := runFile(path, workload.Options{})
		report := RunReport{File: path, Result: res}
		if err != nil {
			report.Error = err.Error()
			failed++
		}
		reports = append(reports, report)

		if jsonOut {
			continue
		}
		printRunSummary(path, res, err)
		if limit != nil && budget > 0 {
			printVerbose("  backing:   %s of %s still reserved\n",
				formatBytes(limit.InUse()), formatBytes(limit.Budget()))
		}
	}

	if jsonOut {
		if err := printJSON(reports); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d workloads failed", failed, len(args))
	}
	return nil
}

func printRunSummary(path string, res *workload.Result, err error) {
	status := "ok"
	if err != nil {
		status = "FAILED"
	}
	name := path
	if res != nil && res.Name != "" {
		name = res.Name
	}
	printInfo("%s [%s]\n", name, status)
	if res != nil {
		printInfo("  mode:      %s\n", res.Mode)
		printInfo("  objects:   %d active / %d maximum (%d bytes each)\n",
			res.Stats.ActiveObjects, res.Stats.MaxObjects, res.Stats.ObjectSize)
		printInfo("  growth:    %d grow calls, %d chunks, %s reserved\n",
			res.Counters.GrowCalls, res.Counters.ChunksAllocated, formatBytes(res.Counters.BytesReserved))
		printInfo("  reuse:     %d reused, %d fresh\n", res.Counters.Reused, res.Counters.Fresh)
	}
	if err != nil {
		printInfo("  error:     %s\n", strings.TrimSpace(err.Error()))
	}
}

// runFile loads and runs one workload with the store chosen by the global flags.
func runFile(path string, opts workload.Options) (*workload.Result, *backing.Limit, error) {
	w, err := workload.Load(path)
	if err != nil {
		return nil, nil, err
	}
	limit, err := newStore()
	if err != nil {
		return nil, nil, err
	}
	opts.Store = limit
	res, err := workload.Run(w, opts)
	return res, limit, err
}
