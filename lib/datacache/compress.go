// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package datacache

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/gfxcache/lib/assetkey"
)

// CompressionTag is the first byte of every payload file and names
// the algorithm applied to the bytes after the length header. The
// values are persisted: do not renumber.
type CompressionTag uint8

const (
	// CompressionNone stores bytes as given. Also the fallback when a
	// payload does not shrink.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 is LZ4 block compression.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd is zstd at the default level.
	CompressionZstd CompressionTag = 2

	// CompressionBG4LZ4 transposes 4-byte groups by byte position
	// before LZ4. Float32 vertex streams compress noticeably better
	// this way.
	CompressionBG4LZ4 CompressionTag = 3

	// CompressionAuto is a configuration value, never written to
	// disk: the algorithm is chosen per payload by
	// SelectCompression.
	CompressionAuto CompressionTag = 0xff
)

func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionBG4LZ4:
		return "bg4_lz4"
	case CompressionAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(tag))
	}
}

// ParseCompressionTag parses the String form of a tag.
func ParseCompressionTag(name string) (CompressionTag, error) {
	switch name {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	case "bg4_lz4":
		return CompressionBG4LZ4, nil
	case "auto":
		return CompressionAuto, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// SelectCompression picks the algorithm for one payload of the given
// category. Meshes are vertex and index arrays, so they get the
// byte-grouped LZ4. Everything else is probed with zstd: a ratio of
// 1.5 or better keeps zstd, 1.1 or better uses the faster LZ4, and
// anything worse is stored uncompressed (PNG images land here).
func SelectCompression(category assetkey.Category, data []byte) CompressionTag {
	if len(data) == 0 {
		return CompressionNone
	}
	if category == assetkey.Mesh {
		return CompressionBG4LZ4
	}

	probe := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(probe))
	switch {
	case ratio >= 1.5:
		return CompressionZstd
	case ratio >= 1.1:
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// maxFrameHeader is the tag byte plus the longest uvarint.
const maxFrameHeader = 1 + binary.MaxVarintLen64

// MaxPayloadSize bounds the uncompressed size of one stored payload.
// Larger payloads are refused on write, and a frame declaring more is
// corrupt.
const MaxPayloadSize = 1 << 30

// maxLZ4Ratio is the best expansion an LZ4 block can encode: one
// token byte plus 255-byte length extensions.
const maxLZ4Ratio = 255

// errIncompressible: the compressed form is not smaller than the
// input. encodeFrame falls back to CompressionNone.
var errIncompressible = errors.New("payload is incompressible")

// errCorruptFrame marks payload files whose header or body do not
// decode. Callers wrap it with assetkey.ErrDecode.
var errCorruptFrame = errors.New("corrupt payload frame")

// encodeFrame compresses data with tag and prepends the frame header:
// one tag byte followed by the uncompressed length as a uvarint.
// Returns the framed bytes and the tag actually used.
func encodeFrame(data []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	if len(data) > MaxPayloadSize {
		return nil, 0, fmt.Errorf("payload is %d bytes, limit %d", len(data), MaxPayloadSize)
	}
	if len(data) == 0 {
		tag = CompressionNone
	}
	body, err := compressBody(data, tag)
	if errors.Is(err, errIncompressible) {
		body, tag = data, CompressionNone
	} else if err != nil {
		return nil, 0, err
	}

	frame := make([]byte, 0, maxFrameHeader+len(body))
	frame = append(frame, byte(tag))
	frame = binary.AppendUvarint(frame, uint64(len(data)))
	frame = append(frame, body...)
	return frame, tag, nil
}

// decodeFrame reverses encodeFrame.
func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("%w: empty file", errCorruptFrame)
	}
	tag := CompressionTag(frame[0])
	length, read := binary.Uvarint(frame[1:])
	if read <= 0 {
		return nil, fmt.Errorf("%w: bad length header", errCorruptFrame)
	}
	body := frame[1+read:]
	if length > MaxPayloadSize {
		return nil, fmt.Errorf("%w: declared length %d exceeds %d", errCorruptFrame, length, MaxPayloadSize)
	}
	// LZ4 output is allocated up front; a body too short to expand to
	// the declared length is refused before allocating. zstd has no
	// such ratio bound and grows its output as it decodes.
	if (tag == CompressionLZ4 || tag == CompressionBG4LZ4) && length > uint64(len(body))*maxLZ4Ratio+16 {
		return nil, fmt.Errorf("%w: declared length %d for %d byte lz4 body", errCorruptFrame, length, len(body))
	}

	data, err := decompressBody(body, tag, int(length))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errCorruptFrame, err)
	}
	return data, nil
}

func compressBody(data []byte, tag CompressionTag) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return data, nil
	case CompressionLZ4:
		return compressLZ4(data)
	case CompressionZstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		if len(compressed) >= len(data) {
			return nil, errIncompressible
		}
		return compressed, nil
	case CompressionBG4LZ4:
		return compressLZ4(byteGroup4(data))
	default:
		return nil, fmt.Errorf("unsupported compression %s", tag)
	}
}

func decompressBody(body []byte, tag CompressionTag, length int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(body) != length {
			return nil, fmt.Errorf("stored %d bytes, header says %d", len(body), length)
		}
		return body, nil
	case CompressionLZ4:
		return decompressLZ4(body, length)
	case CompressionZstd:
		data, err := zstdDecoder.DecodeAll(body, make([]byte, 0, min(length, len(body)*maxLZ4Ratio)))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		if len(data) != length {
			return nil, fmt.Errorf("zstd: got %d bytes, header says %d", len(data), length)
		}
		return data, nil
	case CompressionBG4LZ4:
		grouped, err := decompressLZ4(body, length)
		if err != nil {
			return nil, err
		}
		return byteUngroup4(grouped), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	// Zero means lz4 gave up on the input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(body []byte, length int) ([]byte, error) {
	destination := make([]byte, length)
	read, err := lz4.UncompressBlock(body, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if read != length {
		return nil, fmt.Errorf("lz4: got %d bytes, header says %d", read, length)
	}
	return destination, nil
}

// Shared across goroutines; both types are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("datacache: zstd encoder: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxPayloadSize))
	if err != nil {
		panic("datacache: zstd decoder: " + err.Error())
	}
}

// byteGroup4 writes every byte at position 0 of a 4-byte group first,
// then every byte at position 1, and so on. A tail shorter than four
// bytes is copied unchanged.
func byteGroup4(data []byte) []byte {
	groups := len(data) / 4
	output := make([]byte, len(data))
	for i := 0; i < groups; i++ {
		output[i] = data[i*4]
		output[groups+i] = data[i*4+1]
		output[groups*2+i] = data[i*4+2]
		output[groups*3+i] = data[i*4+3]
	}
	copy(output[groups*4:], data[groups*4:])
	return output
}

func byteUngroup4(data []byte) []byte {
	groups := len(data) / 4
	output := make([]byte, len(data))
	for i := 0; i < groups; i++ {
		output[i*4] = data[i]
		output[i*4+1] = data[groups+i]
		output[i*4+2] = data[groups*2+i]
		output[i*4+3] = data[groups*3+i]
	}
	copy(output[groups*4:], data[groups*4:])
	return output
}
