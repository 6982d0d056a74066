package alloc

import "errors"

var (
	// ErrOutOfRange indicates a size that cannot be rounded up to a
	// representable power of two.
	ErrOutOfRange = errors.New("alloc: size out of range")

	// ErrOutOfMemory indicates that no chunk, nor a freshly grown region, can
	// satisfy the request.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrBadAlign indicates an alignment that is not a power of two.
	ErrBadAlign = errors.New("alloc: alignment must be a power of two")

	// ErrDoubleFree indicates a deallocation of memory that is already free.
	ErrDoubleFree = errors.New("alloc: double free")

	// ErrInvalidFree indicates a deallocation of an address or layout that
	// does not match a live allocation.
	ErrInvalidFree = errors.New("alloc: invalid free")

	// ErrBadRef indicates an address that is not the payload of a live allocation.
	ErrBadRef = errors.New("alloc: bad reference")

	// ErrReentrant indicates a nested acquisition of the arena guard by the
	// goroutine that already holds it.
	ErrReentrant = errors.New("alloc: reentrant arena access")

	// ErrBadRegion indicates a region too small to hold a chunk after
	// alignment, or one whose end overflows the address space.
	ErrBadRegion = errors.New("alloc: unusable region")

	// ErrOverlap indicates a region overlapping one the arena already manages.
	ErrOverlap = errors.New("alloc: region overlaps managed memory")

	// ErrAlreadyInstalled indicates a second attempt to install the
	// process-wide arena.
	ErrAlreadyInstalled = errors.New("alloc: arena already installed")
)
