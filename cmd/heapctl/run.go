package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/memmap"
)

var runKeepNullPage bool

func init() {
	cmd := newRunCmd()
	cmd.Flags().BoolVar(&runKeepNullPage, "keep-null-page", false, "Allow the page at address 0 to back the heap")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <memmap.yaml> <op>...",
		Short: "Replay allocations against a heap grown from a memory map",
		Long: `The run command creates an allocator over the usable ranges of a memory
map and applies each op in order:

  alloc:<size>[:<align>]  allocate size bytes (align defaults to 0)
  page                    allocate one 4 KiB page aligned to 4 KiB
  free:<n>                free the n-th allocation (1-based)

The resulting chunk chain and counters are printed at the end. Freeing an
allocation twice aborts the run.

Example:
  heapctl run firmware.yaml alloc:100:16 page free:1
  heapctl run firmware.yaml alloc:64 alloc:64 free:2 --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(args)
		},
	}
}

type opKind int

const (
	opAlloc opKind = iota
	opFree
)

type op struct {
	kind  opKind
	size  uint64
	align uint64
	n     int
}

func parseOp(s string) (op, error) {
	parts := strings.Split(s, ":")
	switch parts[0] {
	case "page":
		if len(parts) != 1 {
			break
		}
		return op{kind: opAlloc, size: alloc.LayoutPage4K.Size, align: alloc.LayoutPage4K.Align}, nil
	case "alloc":
		if len(parts) < 2 || len(parts) > 3 {
			break
		}
		size, err := strconv.ParseUint(parts[1], 0, 64)
		if err != nil {
			return op{}, fmt.Errorf("op %q: bad size: %w", s, err)
		}
		var align uint64
		if len(parts) == 3 {
			if align, err = strconv.ParseUint(parts[2], 0, 64); err != nil {
				return op{}, fmt.Errorf("op %q: bad align: %w", s, err)
			}
		}
		return op{kind: opAlloc, size: size, align: align}, nil
	case "free":
		if len(parts) != 2 {
			break
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return op{}, fmt.Errorf("op %q: bad index: %w", s, err)
		}
		return op{kind: opFree, n: n}, nil
	}
	return op{}, fmt.Errorf("op %q: expected alloc:<size>[:<align>], page or free:<n>", s)
}

type opResult struct {
	Index int    `json:"index"`
	Op    string `json:"op"`
	Addr  string `json:"addr,omitempty"`
	Error string `json:"error,omitempty"`
}

type runReport struct {
	Ops    []opResult        `json:"ops"`
	Chunks []alloc.ChunkInfo `json:"chunks"`
	Stats  alloc.Stats       `json:"stats"`
}

type allocation struct {
	addr  alloc.Addr
	size  uint64
	align uint64
	ok    bool
}

func runRun(args []string) error {
	ops := make([]op, 0, len(args)-1)
	for _, s := range args[1:] {
		o, err := parseOp(s)
		if err != nil {
			return err
		}
		ops = append(ops, o)
	}

	printVerbose("Loading memory map: %s\n", args[0])
	m, err := memmap.LoadFile(args[0])
	if err != nil {
		return err
	}
	src := memmap.NewSource(m, &memmap.Options{ReserveNullPage: !runKeepNullPage})
	defer src.Close()

	a := alloc.New(src, &alloc.Config{Logger: newLogger()})

	var allocs []allocation
	results := make([]opResult, 0, len(ops))
	for i, o := range ops {
		res := opResult{Index: i + 1, Op: args[i+1]}
		switch o.kind {
		case opAlloc:
			p, err := a.Allocate(o.size, o.align)
			if err != nil {
				res.Error = err.Error()
				allocs = append(allocs, allocation{})
				break
			}
			res.Addr = formatAddr(p)
			allocs = append(allocs, allocation{addr: p, size: o.size, align: o.align, ok: true})
		case opFree:
			if o.n < 1 || o.n > len(allocs) || !allocs[o.n-1].ok {
				return fmt.Errorf("op %q: no allocation #%d", args[i+1], o.n)
			}
			al := allocs[o.n-1]
			if err := deallocate(a, al); err != nil {
				return fmt.Errorf("op %q: %w", args[i+1], err)
			}
			res.Addr = formatAddr(al.addr)
		}
		results = append(results, res)
	}
	if err := src.Err(); err != nil {
		printVerbose("warning: %v\n", err)
	}

	if jsonOut {
		return printJSON(runReport{Ops: results, Chunks: a.Chunks(), Stats: a.Stats()})
	}

	for _, r := range results {
		if r.Error != "" {
			printInfo("#%d %-16s failed: %s\n", r.Index, r.Op, r.Error)
			continue
		}
		printInfo("#%d %-16s %s\n", r.Index, r.Op, r.Addr)
	}
	if quiet {
		return nil
	}
	fmt.Fprintln(os.Stdout)
	return a.WriteReport(os.Stdout)
}

// deallocate turns the allocator's fatal panic into an error so the command
// can exit cleanly.
func deallocate(a *alloc.Arena, al allocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("fatal: %w", e)
		}
	}()
	a.Deallocate(al.addr, al.size, al.align)
	return nil
}
