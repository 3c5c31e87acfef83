package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWAVHeaderProducesValidRIFF(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "test-*.wav")
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, writeWAVHeader(f, 1000))

	buf := make([]byte, wavHeaderSize)
	_, err = f.ReadAt(buf, 0)
	require.NoError(t, err)

	assert.Equal(t, "RIFF", string(buf[0:4]))
	assert.Equal(t, "WAVE", string(buf[8:12]))
	assert.Equal(t, "fmt ", string(buf[12:16]))
	assert.Equal(t, "data", string(buf[36:40]))
}

func TestWritePlaceholderWAVHeaderIsZeroSized(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "test-*.wav")
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, writePlaceholderWAVHeader(f))

	buf := make([]byte, wavHeaderSize)
	_, err = f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), leUint32(buf[40:44]))
}

func TestInterleaveI16ToBytesRoundTrips(t *testing.T) {
	samples := []int16{1, -1, 32767, -32768, 0}
	b := interleaveI16ToBytes(samples)
	assert.Len(t, b, len(samples)*2)
	for i, s := range samples {
		got := int16(leUint16(b[i*2 : i*2+2]))
		assert.Equal(t, s, got)
	}
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
