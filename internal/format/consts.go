// Package format describes the in-memory layout of heap chunk headers. The
// allocator never stores Go pointers inside managed memory; every header is a
// fixed 32-byte little-endian record written into the backing bytes so the
// chain survives being viewed as raw physical memory.
package format

const (
	// HeaderSize is the size of a chunk header in bytes. It must stay a power
	// of two: max(align, HeaderSize) is used as a header placement alignment.
	//
	// Layout (little-endian):
	//   0x00  next       u64  address of the following header, NoChunk at the tail
	//   0x08  size       u64  chunk length including this header
	//   0x10  allocated  u64  1 when the payload is owned by a caller
	//   0x18  reserved   u64  always zero
	HeaderSize = 32

	// HeaderNextOffset is the offset of the next-header link.
	HeaderNextOffset = 0x00

	// HeaderSizeOffset is the offset of the chunk size.
	HeaderSizeOffset = 0x08

	// HeaderFlagsOffset is the offset of the allocated flag word.
	HeaderFlagsOffset = 0x10

	// HeaderReservedOffset is the offset of the reserved padding word.
	HeaderReservedOffset = 0x18

	// FlagAllocated marks a chunk whose payload is in use.
	FlagAllocated = 1

	// NoChunk terminates the chain. Address 0 is a valid physical address, so
	// the sentinel is the all-ones value instead.
	NoChunk = ^uint64(0)

	// PageSize is the firmware page granularity (4 KiB).
	PageSize = 0x1000
)

// Compile-time check that HeaderSize is a power of two.
var _ = [1]struct{}{}[HeaderSize&(HeaderSize-1)]
