package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrCorrupt is returned when a blob is not a snapshot frame
	ErrCorrupt = errors.New("snapshot: corrupt frame")

	// ErrChecksumMismatch is returned when the payload checksum does not match
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
)

var magic = []byte("TRS1")

const headerSize = 4 + 8

// maxDecodedSize bounds the decompressed payload
const maxDecodedSize = 1 << 30

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	// zstd encoders and decoders are safe for concurrent use
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("snapshot: cbor encoder: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 1 << 27,
	}.DecMode()
	if err != nil {
		panic("snapshot: cbor decoder: " + err.Error())
	}

	compressor, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic("snapshot: zstd encoder: " + err.Error())
	}
	decompressor, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		panic("snapshot: zstd decoder: " + err.Error())
	}
}

// Encode frames st for storage: magic, xxhash64 of the payload, then the
// zstd-compressed CBOR payload
func Encode(st State) ([]byte, error) {
	raw, err := encMode.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	payload := compressor.EncodeAll(raw, nil)

	buf := make([]byte, headerSize, headerSize+len(payload))
	copy(buf, magic)
	binary.BigEndian.PutUint64(buf[4:headerSize], xxhash.Sum64(payload))
	return append(buf, payload...), nil
}

// Decode verifies and decodes a frame produced by Encode
func Decode(data []byte) (State, error) {
	var st State
	if len(data) < headerSize || !bytes.Equal(data[:4], magic) {
		return st, ErrCorrupt
	}

	payload := data[headerSize:]
	want := binary.BigEndian.Uint64(data[4:headerSize])
	if got := xxhash.Sum64(payload); got != want {
		return st, fmt.Errorf("%w: got %016x, want %016x", ErrChecksumMismatch, got, want)
	}

	raw, err := decompressor.DecodeAll(payload, nil)
	if err != nil {
		return st, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := decMode.Unmarshal(raw, &st); err != nil {
		return st, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return st, nil
}
