package alloc

import "fmt"

// release frees the allocation whose payload starts at p and coalesces it
// with free neighbours in the same region.
func (a *Arena) release(p Addr, req request) error {
	addr, ok := fromAllocatedRegion(p)
	if !ok {
		return fmt.Errorf("%w: %#x", ErrInvalidFree, p)
	}

	prev, h, ok := a.locate(addr)
	switch {
	case !ok:
		return fmt.Errorf("%w: %#x is not managed by this arena", ErrInvalidFree, p)
	case h.addr != addr && !h.allocated():
		// The header was already freed and folded into a neighbour.
		return fmt.Errorf("%w: %#x lies in free chunk %#x", ErrDoubleFree, p, h.addr)
	case h.addr != addr:
		return fmt.Errorf("%w: %#x is inside allocation %#x", ErrInvalidFree, p, h.addr+HeaderSize)
	case !h.allocated():
		return fmt.Errorf("%w: %#x", ErrDoubleFree, p)
	case h.size() != req.size+HeaderSize:
		return fmt.Errorf("%w: %#x has size %d, layout implies %d",
			ErrInvalidFree, p, h.size()-HeaderSize, req.size)
	case p%req.align != 0:
		return fmt.Errorf("%w: %#x is not aligned to %d", ErrInvalidFree, p, req.align)
	}

	h.setAllocated(false)
	a.stats.FreeCalls++
	a.stats.BytesInUse -= h.size()

	if n := h.next(); n == h.endAddr() && a.sameRegion(h.addr, n) {
		next := a.mustHeader(n)
		if !next.allocated() {
			h.setSize(h.size() + next.size())
			h.setNext(next.next())
			a.stats.CoalesceForward++
		}
	}

	if prev != NoChunk {
		ph := a.mustHeader(prev)
		if !ph.allocated() && ph.endAddr() == h.addr && a.sameRegion(ph.addr, h.addr) {
			ph.setSize(ph.size() + h.size())
			ph.setNext(h.next())
			a.stats.CoalesceBackward++
		}
	}
	return nil
}
