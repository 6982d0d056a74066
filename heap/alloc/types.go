package alloc

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/format"
)

// Addr is a physical address inside memory managed by an Arena.
type Addr = uint64

const (
	// HeaderSize is the size of the header preceding every chunk.
	HeaderSize = format.HeaderSize

	// NoChunk is the chain terminator.
	NoChunk Addr = format.NoChunk
)

// Region is a usable physical range together with the bytes backing it.
// Mem[0] is the byte at Base.
type Region struct {
	Base Addr
	Mem  []byte
}

// End returns the first address past the region.
func (r Region) End() Addr {
	return r.Base + Addr(len(r.Mem))
}

// Source supplies usable regions on demand. Next reports false once the
// memory map has nothing left to offer.
type Source interface {
	Next() (Region, bool)
}

// SourceFunc adapts an ordinary function to Source.
type SourceFunc func() (Region, bool)

// Next calls f.
func (f SourceFunc) Next() (Region, bool) { return f() }

// Regions returns a Source yielding rs in order.
func Regions(rs ...Region) Source {
	i := 0
	return SourceFunc(func() (Region, bool) {
		if i >= len(rs) {
			return Region{}, false
		}
		r := rs[i]
		i++
		return r, true
	})
}

// ChunkInfo describes one chunk of the chain.
type ChunkInfo struct {
	Addr      Addr   `json:"addr"`
	Size      uint64 `json:"size"`
	Allocated bool   `json:"allocated"`
}

// Layout is a size and power-of-two alignment pair.
type Layout struct {
	Size  uint64
	Align uint64
}

// LayoutPage4K requests one whole 4 KiB page.
var LayoutPage4K = Layout{Size: format.PageSize, Align: format.PageSize}

// NewLayout validates align and returns the layout. An alignment of zero
// means no constraint beyond HeaderSize.
func NewLayout(size, align uint64) (Layout, error) {
	if align != 0 && !format.IsPow2(align) {
		return Layout{}, fmt.Errorf("%w: %d", ErrBadAlign, align)
	}
	return Layout{Size: size, Align: align}, nil
}
