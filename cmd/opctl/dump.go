package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/joshuapare/opalloc/internal/workload"
	"github.com/joshuapare/opalloc/pool"
)

var dumpWidth int

func init() {
	cmd := newDumpCmd()
	cmd.Flags().IntVar(&dumpWidth, "width", 32, "Slots per row in the slot map")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <workload.yaml>",
		Short: "Show the slot map at the end of a workload",
		Long: `The dump command runs a workload and, before the pool is closed, draws
its slot directory: one cell per slot, marking slots in use, free for reuse,
or not yet backed by storage. With --verbose the raw engine dump follows.

Legend:
  #  in use
  o  free
  .  unallocated

Example:
  opctl dump testdata/reuse_after_free.yaml
  opctl dump testdata/reuse_after_free.yaml --no-color --width 16`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

// SlotMap is the JSON shape of a dump.
type SlotMap struct {
	Name  string     `json:"name"`
	Mode  pool.Mode  `json:"mode"`
	Stats pool.Stats `json:"stats"`
	Slots []string   `json:"slots"`
}

type slotStyles struct {
	inUse, free, unallocated lipgloss.Style
}

func newSlotStyles(color bool) slotStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return slotStyles{inUse: plain, free: plain, unallocated: plain}
	}
	return slotStyles{
		inUse:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		free:        lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		unallocated: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func runDump(args []string) error {
	var (
		slotMap SlotMap
		raw     strings.Builder
	)
	_, _, err := runFile(args[0], workload.Options{
		Inspect: func(p *pool.Pool) error {
			slotMap.Mode = p.Mode()
			slotMap.Stats = p.Stats()
			for _, st := range p.Slots() {
				slotMap.Slots = append(slotMap.Slots, st.String())
			}
			if verbose {
				return p.Dump(&raw)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	slotMap.Name = args[0]

	if jsonOut {
		return printJSON(slotMap)
	}

	printInfo("%s (%s)\n", slotMap.Name, slotMap.Mode)
	printInfo("%d active / %d maximum\n\n", slotMap.Stats.ActiveObjects, slotMap.Stats.MaxObjects)
	printInfo("%s", renderSlotMap(slotMap.Slots, dumpWidth, newSlotStyles(!noColor)))
	if verbose {
		printInfo("\n%s", raw.String())
	}
	return nil
}

// renderSlotMap draws one cell per slot, width cells per row, each row
// prefixed with the index of its first slot.
func renderSlotMap(states []string, width int, styles slotStyles) string {
	if width <= 0 {
		width = 32
	}
	var b strings.Builder
	for row := 0; row < len(states); row += width {
		end := min(row+width, len(states))
		b.WriteString(fmt.Sprintf("%6d  ", row))
		for _, st := range states[row:end] {
			switch st {
			case pool.SlotInUse.String():
				b.WriteString(styles.inUse.Render("#"))
			case pool.SlotFree.String():
				b.WriteString(styles.free.Render("o"))
			default:
				b.WriteString(styles.unallocated.Render("."))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
