package alloc

import (
	"fmt"
	"math/bits"

	"github.com/joshuapare/heapkit/internal/format"
)

// RoundUpPow2 returns the smallest power of two >= v. Zero rounds to 1.
// It fails with ErrOutOfRange when the result does not fit in 64 bits.
func RoundUpPow2(v uint64) (uint64, error) {
	if v <= 1 {
		return 1, nil
	}
	n := bits.Len64(v - 1)
	if n >= 64 {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, v)
	}
	return 1 << n, nil
}

// request is a normalized allocation request: size is a power of two and
// both fields are at least HeaderSize.
type request struct {
	size  uint64
	align uint64
}

func normalize(size, align uint64) (request, error) {
	if align != 0 && !format.IsPow2(align) {
		return request{}, fmt.Errorf("%w: %d", ErrBadAlign, align)
	}
	sz, err := RoundUpPow2(size)
	if err != nil {
		return request{}, err
	}
	return request{
		size:  max(sz, HeaderSize),
		align: max(align, HeaderSize),
	}, nil
}
