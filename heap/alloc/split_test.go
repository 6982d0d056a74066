package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanProvide(t *testing.T) {
	h := header{addr: 0, b: make([]byte, HeaderSize)}
	for _, s := range []uint64{0, 32, 96, 128, 256, 4096, 8192} {
		h.setSize(s)
		for _, size := range []uint64{32, 64, 128, 512, 4096} {
			for _, align := range []uint64{32, 64, 256, 4096} {
				want := s >= size+2*HeaderSize+align
				assert.Equal(t, want, h.canProvide(size, align),
					"S=%d size=%d align=%d", s, size, align)
			}
		}
	}
}

func TestCanProvide_NoOverflow(t *testing.T) {
	h := header{addr: 0, b: make([]byte, HeaderSize)}
	h.setSize(1 << 20)
	assert.False(t, h.canProvide(1<<63, 1<<63))
}

func TestEndAddr(t *testing.T) {
	h := header{addr: 0x1000, b: make([]byte, HeaderSize)}
	h.setSize(256)
	assert.Equal(t, Addr(0x1100), h.endAddr())
}

func TestAllocate_TopDownPlacement(t *testing.T) {
	a := newTestArena(t, 0, 256)

	p, err := a.Allocate(32, 32)
	require.NoError(t, err)
	assert.Equal(t, Addr(224), p)
	assert.Equal(t, []ChunkInfo{
		chunk(0, 192, false),
		chunk(192, 64, true),
	}, a.Chunks())
	assertInvariants(t, a)
}

func TestAllocate_SizeAndAlignFloorToHeader(t *testing.T) {
	a := newTestArena(t, 0, 256)

	p, err := a.Allocate(1, 1)
	require.NoError(t, err)
	assert.Equal(t, Addr(224), p)
	assert.Equal(t, []ChunkInfo{
		chunk(0, 192, false),
		chunk(192, 64, true),
	}, a.Chunks())
}

func TestAllocate_ZeroSize(t *testing.T) {
	a := newTestArena(t, 0, 256)

	p, err := a.Allocate(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Addr(224), p)
	a.Deallocate(p, 0, 0)
	assert.Equal(t, []ChunkInfo{chunk(0, 256, false)}, a.Chunks())
}

func TestAllocate_TooLargeForChunk(t *testing.T) {
	a := New(Regions(Region{Base: 0, Mem: make([]byte, 256)}), nil)

	_, err := a.Allocate(512, 32)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, []ChunkInfo{chunk(0, 256, false)}, a.Chunks(), "failed allocation leaves the chain alone")
	assertInvariants(t, a)
}

func TestAllocate_AlignmentPadding(t *testing.T) {
	a := newTestArena(t, 0, 1024)

	p, err := a.Allocate(32, 256)
	require.NoError(t, err)
	assert.Equal(t, Addr(768), p)
	assert.Equal(t, []ChunkInfo{
		chunk(0, 736, false),
		chunk(736, 64, true),
		chunk(800, 224, false),
	}, a.Chunks())
	assertInvariants(t, a)
}

func TestAllocate_Pages(t *testing.T) {
	a := newTestArena(t, 0x10000, 0x4000)

	p1, err := a.AllocateLayout(LayoutPage4K)
	require.NoError(t, err)
	assert.Equal(t, Addr(0x13000), p1)

	p2, err := a.AllocateLayout(LayoutPage4K)
	require.NoError(t, err)
	assert.Equal(t, Addr(0x11000), p2)

	assert.Equal(t, []ChunkInfo{
		chunk(0x10000, 0xFE0, false),
		chunk(0x10FE0, 0x1020, true),
		chunk(0x12000, 0xFE0, false),
		chunk(0x12FE0, 0x1020, true),
	}, a.Chunks())
	assertInvariants(t, a)

	_, err = a.AllocateLayout(LayoutPage4K)
	require.ErrorIs(t, err, ErrOutOfMemory)
}

func TestAllocate_FirstFit(t *testing.T) {
	a := New(nil, nil)
	require.NoError(t, a.AddRegion(Region{Base: 0x1000, Mem: make([]byte, 512)}))
	require.NoError(t, a.AddRegion(Region{Base: 0x8000, Mem: make([]byte, 4096)}))

	// Both regions can host it; the lower one wins.
	p, err := a.Allocate(64, 32)
	require.NoError(t, err)
	assert.Equal(t, Addr(0x1000+512-64), p)

	// Only the second region can host this one.
	p, err = a.Allocate(1024, 32)
	require.NoError(t, err)
	assert.Equal(t, Addr(0x8000+4096-1024), p)
	assertInvariants(t, a)
}

func TestAllocate_ReturnsAlignedAddressInsideChunk(t *testing.T) {
	for _, align := range []uint64{1, 8, 32, 64, 128, 512, 1024} {
		for _, size := range []uint64{1, 24, 33, 100, 256} {
			a := newTestArena(t, 0x40000, 8192)
			p, err := a.Allocate(size, align)
			require.NoError(t, err, "size=%d align=%d", size, align)
			assert.Zero(t, p%align, "size=%d align=%d p=%#x", size, align, p)
			assert.GreaterOrEqual(t, p, Addr(0x40000+HeaderSize))
			assert.LessOrEqual(t, p+size, Addr(0x40000+8192))
			assertInvariants(t, a)
		}
	}
}

func TestAllocate_BadAlign(t *testing.T) {
	a := newTestArena(t, 0, 256)
	_, err := a.Allocate(32, 24)
	require.ErrorIs(t, err, ErrBadAlign)
}

func TestAllocate_OutOfRange(t *testing.T) {
	a := newTestArena(t, 0, 256)
	_, err := a.Allocate(1<<63+1, 32)
	require.ErrorIs(t, err, ErrOutOfRange)
}
