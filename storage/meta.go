package storage

import (
	"encoding/binary"
	"fmt"
)

// Metadata wire format, version 1:
//
//	[0]     version (currently 1)
//	[1]     flags (reserved, must decode even when non-zero)
//	[2:10]  SizeBytes, uint64 big-endian
//	[10:18] Token, uint64 big-endian
//
// Decoders must tolerate trailing bytes so fields can be appended within
// a version. An unknown version byte fails with ErrMetadataCorrupt
// rather than guessing at the layout.
const (
	metaVersion1 = 1
	metaV1Len    = 18
)

// EncodeMetadata serializes meta into its versioned wire format.
func EncodeMetadata(meta Metadata) []byte {
	b := make([]byte, metaV1Len)
	b[0] = metaVersion1
	b[1] = 0
	binary.BigEndian.PutUint64(b[2:10], uint64(meta.SizeBytes))
	binary.BigEndian.PutUint64(b[10:18], meta.Token)
	return b
}

// DecodeMetadata parses a persisted metadata record.
func DecodeMetadata(b []byte) (Metadata, error) {
	if len(b) == 0 {
		return Metadata{}, fmt.Errorf("%w: empty record", ErrMetadataCorrupt)
	}
	if b[0] != metaVersion1 {
		return Metadata{}, fmt.Errorf("%w: unknown version %d", ErrMetadataCorrupt, b[0])
	}
	if len(b) < metaV1Len {
		return Metadata{}, fmt.Errorf("%w: short record (%d bytes)", ErrMetadataCorrupt, len(b))
	}
	return Metadata{
		SizeBytes: int64(binary.BigEndian.Uint64(b[2:10])),
		Token:     binary.BigEndian.Uint64(b[10:18]),
	}, nil
}
