package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeallocate_RestoresSingleChunk(t *testing.T) {
	a := newTestArena(t, 0, 256)

	p, err := a.Allocate(32, 32)
	require.NoError(t, err)
	require.Equal(t, Addr(224), p)

	a.Deallocate(224, 32, 32)
	assert.Equal(t, []ChunkInfo{chunk(0, 256, false)}, a.Chunks())
	assertInvariants(t, a)

	s := a.Stats()
	assert.Equal(t, 1, s.FreeCalls)
	assert.Equal(t, 1, s.CoalesceBackward)
	assert.Equal(t, uint64(0), s.BytesInUse)
}

func TestDeallocate_CoalesceBidirectional(t *testing.T) {
	a := newTestArena(t, 0, 1024)

	p, err := a.Allocate(32, 256)
	require.NoError(t, err)
	require.Equal(t, Addr(768), p)

	a.Deallocate(p, 32, 256)
	assert.Equal(t, []ChunkInfo{chunk(0, 1024, false)}, a.Chunks())

	s := a.Stats()
	assert.Equal(t, 1, s.CoalesceForward, "padding chunk absorbed")
	assert.Equal(t, 1, s.CoalesceBackward, "merged into the low remainder")
}

func TestDeallocate_BetweenAllocations(t *testing.T) {
	a := newTestArena(t, 0, 1024)

	p1, err := a.Allocate(64, 32) // top of the region
	require.NoError(t, err)
	p2, err := a.Allocate(64, 32) // directly below p1's header
	require.NoError(t, err)
	p3, err := a.Allocate(64, 32)
	require.NoError(t, err)

	// Freeing the middle one has allocated neighbours on both sides.
	a.Deallocate(p2, 64, 32)
	assertInvariants(t, a)
	chunks := a.Chunks()
	require.Len(t, chunks, 4)
	assert.False(t, chunks[2].Allocated)

	// Freeing p1 merges backward into p2's free chunk.
	a.Deallocate(p1, 64, 32)
	assertInvariants(t, a)

	// Freeing p3 merges both ways and restores the region.
	a.Deallocate(p3, 64, 32)
	assert.Equal(t, []ChunkInfo{chunk(0, 1024, false)}, a.Chunks())
	assertInvariants(t, a)
}

func TestDeallocate_NoMergeAcrossRegions(t *testing.T) {
	a := New(nil, nil)
	// Two regions that touch in address space but have separate backing.
	require.NoError(t, a.AddRegion(Region{Base: 0x1000, Mem: make([]byte, 256)}))
	require.NoError(t, a.AddRegion(Region{Base: 0x1100, Mem: make([]byte, 256)}))

	p, err := a.Allocate(32, 32)
	require.NoError(t, err)
	require.Equal(t, Addr(0x10E0), p)

	a.Deallocate(p, 32, 32)
	assert.Equal(t, []ChunkInfo{
		chunk(0x1000, 256, false),
		chunk(0x1100, 256, false),
	}, a.Chunks())
	assertInvariants(t, a)
}

func TestDeallocate_DoubleFree(t *testing.T) {
	a := newTestArena(t, 0x2000, 1024)

	p1, err := a.Allocate(32, 32)
	require.NoError(t, err)
	p2, err := a.Allocate(32, 32)
	require.NoError(t, err)

	a.Deallocate(p2, 32, 32)
	// p2's header was folded into the low free chunk.
	requirePanicIs(t, ErrDoubleFree, func() { a.Deallocate(p2, 32, 32) })

	// The guard was released by the panic; the arena keeps working.
	a.Deallocate(p1, 32, 32)
	assert.Equal(t, []ChunkInfo{chunk(0x2000, 1024, false)}, a.Chunks())
}

func TestDeallocate_DoubleFreeUnmerged(t *testing.T) {
	a := newTestArena(t, 0x2000, 1024)

	p1, err := a.Allocate(64, 32)
	require.NoError(t, err)
	p2, err := a.Allocate(64, 32)
	require.NoError(t, err)
	p3, err := a.Allocate(64, 32)
	require.NoError(t, err)

	// p2 sits between two allocations, so its header stays in the chain.
	a.Deallocate(p2, 64, 32)
	requirePanicIs(t, ErrDoubleFree, func() { a.Deallocate(p2, 64, 32) })

	a.Deallocate(p1, 64, 32)
	a.Deallocate(p3, 64, 32)
	assertInvariants(t, a)
}

func TestDeallocate_InvalidFree(t *testing.T) {
	a := newTestArena(t, 0x2000, 1024)

	p, err := a.Allocate(64, 32)
	require.NoError(t, err)

	tests := []struct {
		name  string
		addr  Addr
		size  uint64
		align uint64
	}{
		{"below header size", 8, 64, 32},
		{"outside every region", 0x9000, 64, 32},
		{"inside payload", p + 32, 64, 32},
		{"size mismatch", p, 128, 32},
		{"bad align", p, 64, 3},
		{"align stricter than allocation", p, 64, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requirePanicIs(t, ErrInvalidFree, func() { a.Deallocate(tt.addr, tt.size, tt.align) })
			assertInvariants(t, a)
		})
	}

	a.Deallocate(p, 64, 32)
	assert.Equal(t, []ChunkInfo{chunk(0x2000, 1024, false)}, a.Chunks())
}

func TestDeallocate_FreeAddressIsDoubleFree(t *testing.T) {
	a := newTestArena(t, 0x2000, 1024)
	// Any address inside the single free chunk reads as already freed.
	requirePanicIs(t, ErrDoubleFree, func() { a.Deallocate(0x2100, 32, 32) })
}

func TestAllocateDeallocate_RoundTripRestoresChain(t *testing.T) {
	a := newTestArena(t, 0x100000, 16384)

	sizes := []uint64{100, 32, 700, 8, 2000}
	live := make([]Addr, 0, len(sizes))
	for _, size := range sizes {
		p, err := a.Allocate(size, 64)
		require.NoError(t, err)
		live = append(live, p)
	}

	before := a.Chunks()
	freeBefore := a.FreeBytes()

	p, err := a.Allocate(300, 128)
	require.NoError(t, err)
	a.Deallocate(p, 300, 128)

	assert.Equal(t, before, a.Chunks())
	assert.Equal(t, freeBefore, a.FreeBytes())
	assertInvariants(t, a)

	for i, p := range live {
		a.Deallocate(p, sizes[i], 64)
		assertInvariants(t, a)
	}
	assert.Equal(t, []ChunkInfo{chunk(0x100000, 16384, false)}, a.Chunks())
}
