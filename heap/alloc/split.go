package alloc

import "github.com/joshuapare/heapkit/internal/format"

// provide carves req out of the free chunk h. The payload goes at the
// highest req.align-aligned address leaving req.size bytes before the end
// of h, so h keeps its header and only shrinks.
//
//	before: |h ----------------------------------------|
//	after:  |h -------------|blk| payload     |pad ----|
//
// provide returns false when h is allocated or too small.
func (a *Arena) provide(h header, req request) (Addr, bool) {
	if h.allocated() || !h.canProvide(req.size, req.align) {
		return 0, false
	}

	end := h.endAddr()
	p := format.AlignDown(end-req.size, req.align)
	next := h.next()

	// Slack above the payload is below req.align and, like every chunk
	// boundary, a multiple of HeaderSize.
	if tail := end - (p + req.size); tail != 0 {
		pad := a.newHeader(p + req.size)
		pad.setSize(tail)
		pad.setNext(next)
		next = pad.addr
	}

	blk := a.newHeader(p - HeaderSize)
	blk.setSize(req.size + HeaderSize)
	blk.setAllocated(true)
	blk.setNext(next)

	// canProvide leaves at least 2*HeaderSize between h and blk.
	h.setSize(blk.addr - h.addr)
	h.setNext(blk.addr)

	a.stats.Splits++
	a.stats.BytesInUse += blk.size()
	return p, true
}

// firstFit offers req to every chunk in address order.
func (a *Arena) firstFit(req request) (Addr, bool) {
	for cur := a.head; cur != NoChunk; {
		h := a.mustHeader(cur)
		if p, ok := a.provide(h, req); ok {
			return p, true
		}
		cur = h.next()
	}
	return 0, false
}
