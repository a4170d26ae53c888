package artifact

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/cascade/internal/conv"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the block compression algorithm.
type Compression uint8

const (
	// CompressionNone stores the block as is.
	CompressionNone Compression = 0
	// CompressionLZ4 indicates LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd indicates Zstandard compression (better ratio).
	CompressionZstd Compression = 2
)

// ErrUnknownCompression is returned for an unrecognized compression name or id.
var ErrUnknownCompression = errors.New("artifact: unknown compression")

// String returns the flag name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// Valid reports whether c is a known compression.
func (c Compression) Valid() bool {
	return c <= CompressionZstd
}

// ParseCompression parses a flag value such as "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

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

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Block format: [uncompressed u32][compressed u32][data...].
// A compressed size of 0 means the data is stored raw.
const blockHeaderSize = 8

// maxBlockExpansion bounds the uncompressed/compressed size ratio of a
// stored block.
const maxBlockExpansion = 1024

// unknownSize is passed to readBlock when the payload size is not implied
// by the blob header.
const unknownSize = -1

// appendBlock appends data to dst as a single block.
// Data is stored raw when compression saves less than 10%.
func appendBlock(dst, data []byte, c Compression) ([]byte, error) {
	var compressed []byte

	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n]
	case CompressionZstd:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, c)
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 ||
		len(data) > len(compressed)*maxBlockExpansion {
		compressed = nil
	}

	rawSize, err := conv.IntToUint32(len(data))
	if err != nil {
		return nil, err
	}

	var hdr [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], rawSize)
	binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
	dst = append(dst, hdr[:]...)

	if compressed == nil {
		return append(dst, data...), nil
	}
	return append(dst, compressed...), nil
}

// readBlock decodes the block at the start of src and returns its payload
// and the number of bytes consumed. When expected is not unknownSize, a
// header claiming any other payload size is rejected before decoding.
func readBlock(src []byte, c Compression, expected int) ([]byte, int, error) {
	if len(src) < blockHeaderSize {
		return nil, 0, fmt.Errorf("%w: block too small for header", ErrCorrupt)
	}

	uncompressedSize := int(binary.LittleEndian.Uint32(src[0:]))
	compressedSize := int(binary.LittleEndian.Uint32(src[4:]))
	body := src[blockHeaderSize:]

	if expected != unknownSize && uncompressedSize != expected {
		return nil, 0, fmt.Errorf("%w: block holds %d bytes, want %d", ErrCorrupt, uncompressedSize, expected)
	}

	if compressedSize == 0 {
		if len(body) < uncompressedSize {
			return nil, 0, fmt.Errorf("%w: block extends beyond data", ErrCorrupt)
		}
		return body[:uncompressedSize], blockHeaderSize + uncompressedSize, nil
	}

	if len(body) < compressedSize {
		return nil, 0, fmt.Errorf("%w: compressed block extends beyond data", ErrCorrupt)
	}
	if uncompressedSize > compressedSize*maxBlockExpansion {
		return nil, 0, fmt.Errorf("%w: block claims %d bytes from %d compressed", ErrCorrupt, uncompressedSize, compressedSize)
	}
	body = body[:compressedSize]
	result := make([]byte, uncompressedSize)

	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(body, result)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if n != uncompressedSize {
			return nil, 0, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
	case CompressionZstd:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(body, result[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if len(decoded) != uncompressedSize {
			return nil, 0, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
		}
		result = decoded
	default:
		return nil, 0, fmt.Errorf("%w: compressed block with compression %s", ErrCorrupt, c)
	}

	return result, blockHeaderSize + compressedSize, nil
}
