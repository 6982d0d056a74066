// Package alloc provides the heap allocator used before any general purpose
// allocator exists: a first-fit free list over firmware-reported physical
// memory.
//
// # Overview
//
// Every region handed to the allocator is partitioned into chunks. A chunk
// starts with a fixed 32-byte header recording the address of the next
// chunk, the chunk size (header included) and whether the payload is in use.
// The headers form a singly linked chain in ascending address order which
// covers each region with no gaps and no overlaps.
//
//	region:  |hdr|------- free ---------|hdr|-- payload --|hdr|- pad -|
//	          ^ chunk A                  ^ chunk B         ^ chunk C
//
// # Allocation
//
// Allocate rounds the size up to a power of two (at least HeaderSize) and
// raises the alignment to at least HeaderSize. It then walks the chain and
// splits the first free chunk that can hold the request:
//
//   - the payload is placed at the highest aligned address that fits, so the
//     original header stays where it is and only its size shrinks
//   - a new allocated header is written just below the payload
//   - alignment slack above the payload becomes a free padding chunk
//
// A chunk of size S can host (size, align) only if S >= size+2*HeaderSize+align.
//
// When no chunk fits, the arena asks its Source for one more usable region,
// links it into the chain and retries exactly once.
//
// # Deallocation
//
// Deallocate recovers the header at address-HeaderSize, marks it free and
// coalesces it with a free successor and a free predecessor inside the same
// region. The predecessor is found by walking the chain from the head. After
// every Deallocate no two address-adjacent chunks of a region are both free.
//
// Freeing an address twice, or an address the arena never returned, is a
// contract violation. Deallocate panics with ErrDoubleFree or ErrInvalidFree
// instead of continuing with a possibly corrupt chain.
//
// # Usage Example
//
//	src := alloc.Regions(alloc.Region{Base: 0x100000, Mem: mem})
//	a := alloc.New(src, nil)
//
//	p, err := a.Allocate(100, 16)
//	if err != nil {
//	    return err
//	}
//	buf, _ := a.Bytes(p, 100)
//	copy(buf, payload)
//
//	a.Deallocate(p, 100, 16)
//
// # Thread Safety
//
// All Arena methods take an internal guard. A nested acquisition from the
// goroutine already holding it (for example a Source or OnGrow hook calling
// back into the arena) panics with ErrReentrant rather than deadlocking.
//
// # Related Packages
//
//   - github.com/joshuapare/heapkit/heap/memmap: firmware memory map and Source
//   - github.com/joshuapare/heapkit/internal/format: header layout constants
package alloc
