package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/opalloc/pool"
)

var modeDescriptions = map[pool.Mode]string{
	pool.DoublingIndividual: "capacity doubles; each object gets its own block on first use",
	pool.DoublingChunk:      "capacity doubles; each growth step reserves one block",
	pool.LinearIndividual:   "capacity grows by the initial count; one block per object",
	pool.LinearChunk:        "capacity grows by the initial count; one block per step",
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "modes",
		Short: "List pool growth and layout modes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModes()
		},
	})
}

// ModeInfo is the JSON shape of one mode.
type ModeInfo struct {
	Name        string `json:"name"`
	Chunked     bool   `json:"chunked"`
	Linear      bool   `json:"linear"`
	Description string `json:"description"`
}

func runModes() error {
	var infos []ModeInfo
	for _, m := range pool.Modes() {
		infos = append(infos, ModeInfo{
			Name:        m.String(),
			Chunked:     m.Chunked(),
			Linear:      m.Linear(),
			Description: modeDescriptions[m],
		})
	}
	if jsonOut {
		return printJSON(infos)
	}
	for _, info := range infos {
		printInfo("%-20s %s\n", info.Name, info.Description)
	}
	return nil
}
