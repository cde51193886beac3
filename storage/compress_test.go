package storage

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueFrame_RoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("creedmoor "), 512)
	random := make([]byte, 4096)
	_, err := rand.Read(random)
	require.NoError(t, err)

	tests := []struct {
		name  string
		codec Compression
		value []byte
	}{
		{"none", CompressionNone, compressible},
		{"none empty", CompressionNone, []byte{}},
		{"lz4", CompressionLZ4, compressible},
		{"lz4 incompressible", CompressionLZ4, random},
		{"lz4 tiny", CompressionLZ4, []byte("x")},
		{"zstd", CompressionZSTD, compressible},
		{"zstd incompressible", CompressionZSTD, random},
		{"zstd tiny", CompressionZSTD, []byte("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := encodeValue(tt.codec, tt.value)
			require.NoError(t, err)

			out, err := decodeValue(frame)
			require.NoError(t, err)
			assert.Equal(t, tt.value, out)
		})
	}
}

func TestValueFrame_CompressionShrinks(t *testing.T) {
	value := bytes.Repeat([]byte("creedmoor "), 512)

	for _, codec := range []Compression{CompressionLZ4, CompressionZSTD} {
		frame, err := encodeValue(codec, value)
		require.NoError(t, err)
		assert.Less(t, len(frame), len(value), codec.String())
	}
}

func TestValueFrame_IncompressibleFallsBackToRaw(t *testing.T) {
	random := make([]byte, 1024)
	_, err := rand.Read(random)
	require.NoError(t, err)

	for _, codec := range []Compression{CompressionLZ4, CompressionZSTD} {
		frame, err := encodeValue(codec, random)
		require.NoError(t, err)
		// Stored with the None tag so decode never needs to know the
		// engine's configured codec.
		assert.Equal(t, byte(CompressionNone), frame[0], codec.String())
	}
}

func TestValueFrame_DecodeErrors(t *testing.T) {
	_, err := decodeValue(nil)
	assert.Error(t, err)

	_, err = decodeValue([]byte{0xff, 1, 2, 3})
	assert.Error(t, err)

	// LZ4 tag with truncated header.
	_, err = decodeValue([]byte{byte(CompressionLZ4), 0, 0})
	assert.Error(t, err)

	// ZSTD tag with garbage payload.
	_, err = decodeValue([]byte{byte(CompressionZSTD), 0, 0, 0, 8, 1, 2, 3})
	assert.Error(t, err)
}

func TestCompression_String(t *testing.T) {
	assert.Equal(t, "none", CompressionNone.String())
	assert.Equal(t, "lz4", CompressionLZ4.String())
	assert.Equal(t, "zstd", CompressionZSTD.String())
}
