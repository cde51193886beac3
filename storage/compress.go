package storage

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the codec applied to values before they are handed
// to the engine. Entry size accounting always uses the uncompressed
// length, so the codec only changes on-disk footprint, never accounting.
type Compression uint8

const (
	// CompressionNone stores values as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 applies LZ4 block compression (fast, modest ratio).
	CompressionLZ4 Compression = 1
	// CompressionZSTD applies ZSTD compression (better ratio, slower).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ZSTD encoder/decoder pools, shared across engines.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Value frame format:
//
//	[0]    codec tag (Compression)
//	[1:5]  uncompressed length, uint32 big-endian (absent for None)
//	[...]  payload
//
// A value that does not shrink under its codec is stored with the None
// tag, so decoding never depends on the engine's configured codec.
const valueFrameHeaderLen = 5

func encodeValue(codec Compression, value []byte) ([]byte, error) {
	switch codec {
	case CompressionNone:
		return rawFrame(value), nil

	case CompressionLZ4:
		buf := make([]byte, valueFrameHeaderLen+lz4.CompressBlockBound(len(value)))
		n, err := lz4.CompressBlock(value, buf[valueFrameHeaderLen:], nil)
		if err != nil || n == 0 || n >= len(value) {
			// Incompressible input is not an error.
			return rawFrame(value), nil
		}
		buf[0] = byte(CompressionLZ4)
		binary.BigEndian.PutUint32(buf[1:valueFrameHeaderLen], uint32(len(value)))
		return buf[:valueFrameHeaderLen+n], nil

	case CompressionZSTD:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)

		header := make([]byte, valueFrameHeaderLen)
		header[0] = byte(CompressionZSTD)
		binary.BigEndian.PutUint32(header[1:], uint32(len(value)))
		frame := enc.EncodeAll(value, header)
		if len(frame) >= len(value)+1 {
			return rawFrame(value), nil
		}
		return frame, nil

	default:
		return nil, fmt.Errorf("unknown compression codec %d", codec)
	}
}

func rawFrame(value []byte) []byte {
	buf := make([]byte, 1+len(value))
	buf[0] = byte(CompressionNone)
	copy(buf[1:], value)
	return buf
}

func decodeValue(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("empty value frame")
	}

	switch Compression(frame[0]) {
	case CompressionNone:
		out := make([]byte, len(frame)-1)
		copy(out, frame[1:])
		return out, nil

	case CompressionLZ4:
		if len(frame) < valueFrameHeaderLen {
			return nil, fmt.Errorf("short lz4 value frame (%d bytes)", len(frame))
		}
		uLen := binary.BigEndian.Uint32(frame[1:valueFrameHeaderLen])
		out := make([]byte, uLen)
		n, err := lz4.UncompressBlock(frame[valueFrameHeaderLen:], out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if uint32(n) != uLen {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, want %d", n, uLen)
		}
		return out, nil

	case CompressionZSTD:
		if len(frame) < valueFrameHeaderLen {
			return nil, fmt.Errorf("short zstd value frame (%d bytes)", len(frame))
		}
		uLen := binary.BigEndian.Uint32(frame[1:valueFrameHeaderLen])
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		out, err := dec.DecodeAll(frame[valueFrameHeaderLen:], make([]byte, 0, uLen))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if uint32(len(out)) != uLen {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, want %d", len(out), uLen)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown value frame codec %d", frame[0])
	}
}
