package alloc

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"

	"github.com/joshuapare/heapkit/internal/format"
)

// Config holds optional Arena settings.
type Config struct {
	// Logger receives debug records about growth and failures. Nil discards.
	Logger *slog.Logger

	// OnGrow is called with every region the arena ingests, while the arena
	// guard is held. It must not call back into the arena.
	OnGrow func(Region)
}

// DefaultConfig is used when New receives a nil config.
var DefaultConfig = Config{}

// Arena is a first-fit heap over physical regions.
type Arena struct {
	g guard

	src     Source
	head    Addr     // first chunk of the chain, NoChunk when empty
	regions []Region // sorted by Base, never overlapping

	log    *slog.Logger
	onGrow func(Region)
	stats  Stats
}

// New creates an arena that grows from src on demand. The arena starts with
// an empty chain; the first Allocate ingests the first usable region. src may
// be nil, in which case only regions added with AddRegion are used.
func New(src Source, config *Config) *Arena {
	if config == nil {
		config = &DefaultConfig
	}
	log := config.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Arena{
		src:    src,
		head:   NoChunk,
		log:    log,
		onGrow: config.OnGrow,
	}
}

// Allocate returns the address of size bytes aligned to align.
//
// Errors: ErrBadAlign, ErrOutOfRange, ErrOutOfMemory.
func (a *Arena) Allocate(size, align uint64) (Addr, error) {
	req, err := normalize(size, align)
	if err != nil {
		return 0, err
	}

	a.g.lock()
	defer a.g.unlock()

	a.stats.AllocCalls++
	if p, ok := a.firstFit(req); ok {
		a.stats.AllocFastPath++
		return p, nil
	}

	if err := a.grow(); err != nil {
		a.stats.AllocFailures++
		a.log.Debug("alloc: cannot grow", "size", size, "align", align, "err", err)
		return 0, fmt.Errorf("%w: size=%d align=%d", ErrOutOfMemory, size, align)
	}

	if p, ok := a.firstFit(req); ok {
		a.stats.AllocSlowPath++
		return p, nil
	}
	a.stats.AllocFailures++
	a.log.Debug("alloc: no chunk fits after grow", "size", req.size, "align", req.align)
	return 0, fmt.Errorf("%w: size=%d align=%d", ErrOutOfMemory, size, align)
}

// AllocateZeroed is Allocate followed by clearing the first size bytes.
func (a *Arena) AllocateZeroed(size, align uint64) (Addr, error) {
	p, err := a.Allocate(size, align)
	if err != nil {
		return 0, err
	}
	b, err := a.Bytes(p, size)
	if err != nil {
		return 0, err
	}
	clear(b)
	return p, nil
}

// AllocateLayout allocates l.Size bytes aligned to l.Align.
func (a *Arena) AllocateLayout(l Layout) (Addr, error) {
	return a.Allocate(l.Size, l.Align)
}

// Deallocate frees an allocation returned by Allocate with the same size and
// align. Freeing anything else panics with ErrDoubleFree or ErrInvalidFree.
func (a *Arena) Deallocate(p Addr, size, align uint64) {
	req, err := normalize(size, align)
	if err != nil {
		panic(fmt.Errorf("%w: %w", ErrInvalidFree, err))
	}

	a.g.lock()
	defer a.g.unlock()

	if err := a.release(p, req); err != nil {
		a.log.Error("alloc: fatal deallocation", "addr", p, "size", size, "align", align, "err", err)
		panic(err)
	}
}

// DeallocateLayout frees an allocation made with AllocateLayout(l).
func (a *Arena) DeallocateLayout(p Addr, l Layout) {
	a.Deallocate(p, l.Size, l.Align)
}

// Bytes returns the first n payload bytes of the live allocation at p.
func (a *Arena) Bytes(p Addr, n uint64) ([]byte, error) {
	a.g.lock()
	defer a.g.unlock()

	addr, ok := fromAllocatedRegion(p)
	if !ok {
		return nil, fmt.Errorf("%w: %#x", ErrBadRef, p)
	}
	_, h, ok := a.locate(addr)
	if !ok || h.addr != addr || !h.allocated() {
		return nil, fmt.Errorf("%w: %#x", ErrBadRef, p)
	}
	if n > h.size()-HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds payload of %d", ErrBadRef, n, h.size()-HeaderSize)
	}
	r := a.regions[a.regionIndex(p)]
	off := p - r.Base
	return r.Mem[off : off+n : off+n], nil
}

// AddRegion hands r to the arena immediately instead of waiting for a
// failed allocation to pull it from the Source.
func (a *Arena) AddRegion(r Region) error {
	a.g.lock()
	defer a.g.unlock()
	return a.ingest(r)
}

// Fill ingests every region the Source still has and returns how many were
// accepted.
func (a *Arena) Fill() int {
	a.g.lock()
	defer a.g.unlock()

	n := 0
	for a.grow() == nil {
		n++
	}
	return n
}

// grow pulls regions from the Source until one is accepted.
func (a *Arena) grow() error {
	if a.src == nil {
		return ErrOutOfMemory
	}
	for {
		r, ok := a.src.Next()
		if !ok {
			return ErrOutOfMemory
		}
		if err := a.ingest(r); err != nil {
			a.log.Debug("alloc: skipping region", "base", r.Base, "len", len(r.Mem), "err", err)
			continue
		}
		a.stats.GrowCalls++
		if a.onGrow != nil {
			a.onGrow(r)
		}
		return nil
	}
}

// ingest turns r into one free chunk and links it into the chain in address
// order. The usable part of r is trimmed to HeaderSize boundaries so every
// chunk address and size stays a multiple of HeaderSize.
func (a *Arena) ingest(r Region) error {
	if uint64(len(r.Mem)) > NoChunk-r.Base {
		return fmt.Errorf("%w: %#x+%d overflows", ErrBadRegion, r.Base, len(r.Mem))
	}
	base, ok := format.AlignUp(r.Base, HeaderSize)
	end := format.AlignDown(r.End(), HeaderSize)
	if !ok || end <= base || end-base < 2*HeaderSize {
		return fmt.Errorf("%w: %#x+%d", ErrBadRegion, r.Base, len(r.Mem))
	}

	i := sort.Search(len(a.regions), func(i int) bool {
		return a.regions[i].Base >= base
	})
	if (i > 0 && a.regions[i-1].End() > base) || (i < len(a.regions) && a.regions[i].Base < end) {
		return fmt.Errorf("%w: [%#x, %#x)", ErrOverlap, base, end)
	}
	a.regions = slices.Insert(a.regions, i, Region{
		Base: base,
		Mem:  r.Mem[base-r.Base : end-r.Base : end-r.Base],
	})

	h := a.newHeader(base)
	h.setSize(end - base)

	if a.head == NoChunk || base < a.head {
		h.setNext(a.head)
		a.head = base
	} else {
		cur := a.mustHeader(a.head)
		for n := cur.next(); n != NoChunk && n < base; n = cur.next() {
			cur = a.mustHeader(n)
		}
		h.setNext(cur.next())
		cur.setNext(base)
	}

	a.log.Debug("alloc: region added", "base", base, "len", end-base)
	return nil
}
