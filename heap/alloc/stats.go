package alloc

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats holds arena counters.
type Stats struct {
	AllocCalls       int `json:"alloc_calls"`        // Total Allocate calls that passed validation
	AllocFastPath    int `json:"alloc_fast_path"`    // Satisfied from the existing chain
	AllocSlowPath    int `json:"alloc_slow_path"`    // Satisfied after growing
	AllocFailures    int `json:"alloc_failures"`     // Returned ErrOutOfMemory
	FreeCalls        int `json:"free_calls"`         // Successful Deallocate calls
	GrowCalls        int `json:"grow_calls"`         // Regions ingested from the Source
	Splits           int `json:"splits"`             // Chunks carved by the split
	CoalesceForward  int `json:"coalesce_forward"`   // Merges with the following chunk
	CoalesceBackward int `json:"coalesce_backward"`  // Merges into the preceding chunk

	BytesInUse uint64 `json:"bytes_in_use"` // Allocated chunk bytes, headers included
	Capacity   uint64 `json:"capacity"`     // Bytes across all regions
	Regions    int    `json:"regions"`
}

// Stats returns a snapshot of the arena counters.
func (a *Arena) Stats() Stats {
	a.g.lock()
	defer a.g.unlock()

	s := a.stats
	s.Regions = len(a.regions)
	for _, r := range a.regions {
		s.Capacity += uint64(len(r.Mem))
	}
	return s
}

// Chunks returns the chain in address order.
func (a *Arena) Chunks() []ChunkInfo {
	a.g.lock()
	defer a.g.unlock()

	var out []ChunkInfo
	for cur := a.head; cur != NoChunk; {
		h := a.mustHeader(cur)
		out = append(out, h.info())
		cur = h.next()
	}
	return out
}

// FreeBytes returns the total size of free chunks, headers included.
func (a *Arena) FreeBytes() uint64 {
	var n uint64
	for _, c := range a.Chunks() {
		if !c.Allocated {
			n += c.Size
		}
	}
	return n
}

// Check verifies the chain invariants:
//   - chunks are strictly address ordered
//   - each region is covered exactly, with no gaps or overlaps
//   - every size is a non-zero multiple of HeaderSize
//   - no two address-adjacent chunks of a region are both free
func (a *Arena) Check() error {
	a.g.lock()
	defer a.g.unlock()

	var errs []error
	ri := 0
	var prev header
	havePrev := false
	expect := NoChunk // next expected chunk address within the current region

	for cur := a.head; cur != NoChunk; {
		h, ok := a.headerAt(cur)
		if !ok {
			return fmt.Errorf("chunk %#x outside managed regions", cur)
		}
		if havePrev && h.addr <= prev.addr {
			errs = append(errs, fmt.Errorf("chunk %#x follows %#x", h.addr, prev.addr))
		}
		if h.size() < HeaderSize || h.size()%HeaderSize != 0 {
			errs = append(errs, fmt.Errorf("chunk %#x has bad size %d", h.addr, h.size()))
		}

		if expect == NoChunk {
			// First chunk of the next region must sit at its base.
			if ri >= len(a.regions) || a.regions[ri].Base != h.addr {
				errs = append(errs, fmt.Errorf("chunk %#x does not start region %d", h.addr, ri))
			}
		} else {
			if h.addr != expect {
				errs = append(errs, fmt.Errorf("gap or overlap: chunk %#x, expected %#x", h.addr, expect))
			}
			if !prev.allocated() && !h.allocated() {
				errs = append(errs, fmt.Errorf("adjacent free chunks %#x and %#x", prev.addr, h.addr))
			}
		}

		if ri < len(a.regions) && h.endAddr() > a.regions[ri].End() {
			errs = append(errs, fmt.Errorf("chunk %#x overruns region end %#x", h.addr, a.regions[ri].End()))
		}
		if ri < len(a.regions) && h.endAddr() >= a.regions[ri].End() {
			ri++
			expect = NoChunk
		} else {
			expect = h.endAddr()
		}

		prev, havePrev = h, true
		cur = h.next()
	}
	if ri != len(a.regions) {
		errs = append(errs, fmt.Errorf("chain covers %d of %d regions", ri, len(a.regions)))
	}
	return errors.Join(errs...)
}

// hexAddr renders a as 0x followed by 16 hex digits.
func hexAddr(a Addr) string {
	return fmt.Sprintf("%#016x", a)
}

// WriteReport writes the chain and counters in a human readable table.
func (a *Arena) WriteReport(w io.Writer) error {
	chunks := a.Chunks()
	s := a.Stats()
	p := message.NewPrinter(language.English)

	if _, err := p.Fprintf(w, "%-18s  %14s  %s\n", "ADDRESS", "SIZE", "STATE"); err != nil {
		return err
	}
	for _, c := range chunks {
		state := "free"
		if c.Allocated {
			state = "allocated"
		}
		if _, err := p.Fprintf(w, "%s  %14d  %s\n", hexAddr(c.Addr), c.Size, state); err != nil {
			return err
		}
	}
	_, err := p.Fprintf(w,
		"\nregions: %d  capacity: %d bytes  in use: %d bytes\n"+
			"allocs: %d (fast %d, slow %d, failed %d)  frees: %d  grows: %d\n"+
			"splits: %d  coalesce fwd: %d  coalesce back: %d\n",
		s.Regions, s.Capacity, s.BytesInUse,
		s.AllocCalls, s.AllocFastPath, s.AllocSlowPath, s.AllocFailures, s.FreeCalls, s.GrowCalls,
		s.Splits, s.CoalesceForward, s.CoalesceBackward)
	return err
}
