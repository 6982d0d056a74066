package physmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapWritable(t *testing.T) {
	data, cleanup, err := Map(2 * 4096)
	require.NoError(t, err)
	require.Len(t, data, 2*4096)

	for i := range data {
		if data[i] != 0 {
			t.Fatalf("byte %d not zeroed: 0x%x", i, data[i])
		}
	}
	data[0] = 0xAA
	data[len(data)-1] = 0x55
	assert.Equal(t, byte(0xAA), data[0])
	assert.Equal(t, byte(0x55), data[len(data)-1])

	require.NoError(t, cleanup())
	require.NoError(t, cleanup(), "second cleanup is a no-op")
}

func TestMapZeroLength(t *testing.T) {
	data, cleanup, err := Map(0)
	require.NoError(t, err)
	assert.Empty(t, data)
	require.NotNil(t, cleanup)
	require.NoError(t, cleanup())
}

func TestMapNegative(t *testing.T) {
	_, _, err := Map(-1)
	require.Error(t, err)
}
