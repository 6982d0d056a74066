//go:build !unix

// Package physmem provides backing bytes for physical memory ranges that the
// allocator manages.
package physmem

import "fmt"

// Map allocates n zeroed bytes from the Go heap when anonymous mappings are
// not available.
func Map(n int) ([]byte, func() error, error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("physmem: negative length %d", n)
	}
	return make([]byte, n), func() error { return nil }, nil
}
