package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/heapkit/heap/memmap"
)

var mapKeepNullPage bool

func init() {
	cmd := newMapCmd()
	cmd.Flags().BoolVar(&mapKeepNullPage, "keep-null-page", false, "Allow the page at address 0 to back the heap")
	rootCmd.AddCommand(cmd)
}

func newMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map <memmap.yaml>",
		Short: "List memory map descriptors and usable ranges",
		Long: `The map command prints every descriptor of a memory map file followed by
the conventional ranges the boot heap would consume.

Example:
  heapctl map firmware.yaml
  heapctl map firmware.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(args)
		},
	}
}

type mapReport struct {
	Descriptors []memmap.Descriptor `json:"descriptors"`
	Usable      []memmap.Range      `json:"usable"`
	UsableBytes uint64              `json:"usable_bytes"`
}

func runMap(args []string) error {
	printVerbose("Loading memory map: %s\n", args[0])
	m, err := memmap.LoadFile(args[0])
	if err != nil {
		return err
	}

	report := mapReport{
		Descriptors: m.Descriptors,
		Usable:      m.Usable(!mapKeepNullPage),
		UsableBytes: m.UsableBytes(!mapKeepNullPage),
	}
	if jsonOut {
		return printJSON(report)
	}

	p := message.NewPrinter(language.English)
	printInfo("%-22s  %-18s  %-18s  %10s\n", "TYPE", "START", "END", "PAGES")
	for _, d := range report.Descriptors {
		printInfo("%s", p.Sprintf("%-22s  %s  %s  %10d\n",
			d.Type.String(), hexAddr(d.PhysicalStart), hexAddr(d.End()), d.NumberOfPages))
	}

	printInfo("\nUsable ranges:\n")
	for _, r := range report.Usable {
		printInfo("%s", p.Sprintf("  [%s, %s)  %d bytes\n", hexAddr(r.Start), hexAddr(r.End()), r.Len))
	}
	printInfo("%s", p.Sprintf("Total usable: %d bytes in %d ranges\n", report.UsableBytes, len(report.Usable)))
	return nil
}

// hexAddr renders a fixed-width address column.
func hexAddr(a uint64) string {
	return fmt.Sprintf("%#016x", a)
}

// formatAddr renders a physical address for op results.
func formatAddr(a uint64) string {
	return fmt.Sprintf("%#x", a)
}
