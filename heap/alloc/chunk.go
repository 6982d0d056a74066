package alloc

import (
	"fmt"
	"sort"

	"github.com/joshuapare/heapkit/internal/format"
)

// header is a view of the chunk header stored at addr. b aliases the
// HeaderSize bytes of region memory holding it.
type header struct {
	addr Addr
	b    []byte
}

func (h header) next() Addr {
	return format.ReadU64(h.b, format.HeaderNextOffset)
}

func (h header) setNext(a Addr) {
	format.PutU64(h.b, format.HeaderNextOffset, a)
}

func (h header) size() uint64 {
	return format.ReadU64(h.b, format.HeaderSizeOffset)
}

func (h header) setSize(n uint64) {
	format.PutU64(h.b, format.HeaderSizeOffset, n)
}

func (h header) allocated() bool {
	return format.ReadU64(h.b, format.HeaderFlagsOffset)&format.FlagAllocated != 0
}

func (h header) setAllocated(v bool) {
	var flags uint64
	if v {
		flags = format.FlagAllocated
	}
	format.PutU64(h.b, format.HeaderFlagsOffset, flags)
}

// endAddr returns the first address past the chunk.
func (h header) endAddr() Addr {
	return h.addr + h.size()
}

// canProvide reports whether the chunk is large enough for a normalized
// request. One HeaderSize is for the allocated header, the other for the
// padding chunk; align bounds the slack lost to alignment.
func (h header) canProvide(size, align uint64) bool {
	return h.size() >= format.AddSat(format.AddSat(size, 2*HeaderSize), align)
}

func (h header) info() ChunkInfo {
	return ChunkInfo{Addr: h.addr, Size: h.size(), Allocated: h.allocated()}
}

// regionIndex returns the index of the region containing addr, or -1.
func (a *Arena) regionIndex(addr Addr) int {
	i := sort.Search(len(a.regions), func(i int) bool {
		return a.regions[i].End() > addr
	})
	if i < len(a.regions) && a.regions[i].Base <= addr {
		return i
	}
	return -1
}

func (a *Arena) sameRegion(x, y Addr) bool {
	i := a.regionIndex(x)
	return i >= 0 && i == a.regionIndex(y)
}

// headerAt returns the header view at addr, or false if addr does not leave
// room for a header inside a managed region.
func (a *Arena) headerAt(addr Addr) (header, bool) {
	i := a.regionIndex(addr)
	if i < 0 {
		return header{}, false
	}
	r := a.regions[i]
	off := addr - r.Base
	if format.CheckHeader(r.Mem, off) != nil {
		return header{}, false
	}
	return header{addr: addr, b: r.Mem[off : off+HeaderSize : off+HeaderSize]}, true
}

// mustHeader is headerAt for addresses taken from the chain itself. A miss
// means the chain is corrupt.
func (a *Arena) mustHeader(addr Addr) header {
	h, ok := a.headerAt(addr)
	if !ok {
		panic(fmt.Sprintf("alloc: chain references unmanaged address %#x", addr))
	}
	return h
}

// newHeader writes a fresh header at addr: zero size, free, no successor.
func (a *Arena) newHeader(addr Addr) header {
	h := a.mustHeader(addr)
	clear(h.b)
	h.setNext(NoChunk)
	return h
}

// fromAllocatedRegion returns the header address for a payload pointer.
func fromAllocatedRegion(p Addr) (Addr, bool) {
	if p < HeaderSize {
		return 0, false
	}
	return p - HeaderSize, true
}

// locate walks the chain to the chunk containing addr. It returns that
// chunk and its predecessor (NoChunk for the head).
func (a *Arena) locate(addr Addr) (prev Addr, h header, ok bool) {
	prev = NoChunk
	for cur := a.head; cur != NoChunk && cur <= addr; {
		c := a.mustHeader(cur)
		if addr < c.endAddr() {
			return prev, c, true
		}
		prev = cur
		cur = c.next()
	}
	return NoChunk, header{}, false
}
