package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/opalloc/internal/workload"
	"github.com/joshuapare/opalloc/pool"
)

func init() {
	rootCmd.AddCommand(newCheckCmd())
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <workload.yaml>...",
		Short: "Run workloads and validate pool invariants",
		Long: `The check command runs each workload and, before closing the pool,
validates its slot directory: capacity bookkeeping, the no-gap rule of
individual layout, and chunk boundaries matching the growth policy. It also
verifies that closing returns every reserved byte to the backing store.

Example:
  opctl check testdata/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args)
		},
	}
	return cmd
}

func runCheck(args []string) error {
	failed := 0
	for _, path := range args {
		res, limit, err := runFile(path, workload.Options{
			Inspect: func(p *pool.Pool) error { return p.Validate() },
		})
		if err == nil && limit != nil && limit.InUse() != 0 {
			err = fmt.Errorf("%d bytes still reserved after close", limit.InUse())
		}
		name := path
		if res != nil && res.Name != "" {
			name = res.Name
		}
		if err != nil {
			failed++
			printInfo("FAIL %s: %v\n", name, err)
			continue
		}
		printInfo("ok   %s\n", name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d workloads failed validation", failed, len(args))
	}
	return nil
}
