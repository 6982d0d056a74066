package memmap

import (
	stderrors "errors"
	"math"

	"github.com/pkg/errors"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/physmem"
)

// Backer provides n writable bytes for a physical range and a function
// releasing them.
type Backer func(n int) ([]byte, func() error, error)

// Options configures a Source.
type Options struct {
	// ReserveNullPage keeps the page at address 0 out of the heap.
	ReserveNullPage bool

	// Backer supplies the bytes behind each range. Nil uses physmem.Map.
	Backer Backer
}

// DefaultOptions is used when NewSource receives nil options.
var DefaultOptions = Options{ReserveNullPage: true}

// Source hands the usable ranges of a Map to an alloc.Arena one at a time,
// backing each range only when the arena asks for it.
type Source struct {
	ranges   []Range
	next     int
	backer   Backer
	cleanups []func() error
	err      error
}

var _ alloc.Source = (*Source)(nil)

// NewSource returns a Source over m's usable ranges.
func NewSource(m *Map, opts *Options) *Source {
	if opts == nil {
		opts = &DefaultOptions
	}
	backer := opts.Backer
	if backer == nil {
		backer = physmem.Map
	}
	return &Source{
		ranges: m.Usable(opts.ReserveNullPage),
		backer: backer,
	}
}

// Next backs and returns the next usable range. Ranges that cannot be backed
// are skipped; the first such failure is reported by Err.
func (s *Source) Next() (alloc.Region, bool) {
	for s.next < len(s.ranges) {
		r := s.ranges[s.next]
		s.next++

		if r.Len > math.MaxInt {
			s.setErr(errors.Errorf("memmap: range at %#x too large to back (%d bytes)", r.Start, r.Len))
			continue
		}
		mem, cleanup, err := s.backer(int(r.Len))
		if err != nil {
			s.setErr(errors.Wrapf(err, "memmap: back range at %#x", r.Start))
			continue
		}
		s.cleanups = append(s.cleanups, cleanup)
		return alloc.Region{Base: r.Start, Mem: mem}, true
	}
	return alloc.Region{}, false
}

// Remaining returns how many ranges have not been handed out yet.
func (s *Source) Remaining() int {
	return len(s.ranges) - s.next
}

// Err returns the first backing failure, if any.
func (s *Source) Err() error {
	return s.err
}

// Close releases the backing of every range handed out. The arena using
// them must not be touched afterwards.
func (s *Source) Close() error {
	var errs []error
	for _, c := range s.cleanups {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	s.cleanups = nil
	return stderrors.Join(errs...)
}

func (s *Source) setErr(err error) {
	if s.err == nil {
		s.err = err
	}
}
