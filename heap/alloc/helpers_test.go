package alloc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestArena creates an arena over one region of n bytes at base.
func newTestArena(t testing.TB, base Addr, n int) *Arena {
	t.Helper()
	a := New(nil, nil)
	require.NoError(t, a.AddRegion(Region{Base: base, Mem: make([]byte, n)}))
	assertInvariants(t, a)
	return a
}

// assertInvariants fails the test if the chain is inconsistent.
func assertInvariants(t testing.TB, a *Arena) {
	t.Helper()
	require.NoError(t, a.Check())
}

// requirePanicIs runs fn and requires it to panic with an error matching target.
func requirePanicIs(t testing.TB, target error, fn func()) {
	t.Helper()
	var recovered any
	func() {
		defer func() { recovered = recover() }()
		fn()
	}()
	require.NotNil(t, recovered, "expected panic with %v", target)
	err, ok := recovered.(error)
	require.True(t, ok, "panic value %v is not an error", recovered)
	require.True(t, errors.Is(err, target), "panic %v is not %v", err, target)
}

func chunk(addr Addr, size uint64, allocated bool) ChunkInfo {
	return ChunkInfo{Addr: addr, Size: size, Allocated: allocated}
}
