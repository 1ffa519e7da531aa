package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash/crc32"
)

// Stored values carry a CRC32 checksum ahead of the gob body so that a
// torn write or bit rot is detected on read instead of decoding into
// garbage.
const checksumSize = 4

// EncodeValue serializes v with gob and prefixes the body's checksum.
func EncodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(make([]byte, checksumSize))
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	data := buf.Bytes()
	binary.BigEndian.PutUint32(data[:checksumSize], crc32.ChecksumIEEE(data[checksumSize:]))
	return data, nil
}

// DecodeValue verifies the checksum and decodes the gob body into v.
// Any mismatch or decode failure reports ErrCorruptValue.
func DecodeValue(data []byte, v any) error {
	if len(data) < checksumSize {
		return fmt.Errorf("%w: truncated (%d bytes)", ErrCorruptValue, len(data))
	}
	want := binary.BigEndian.Uint32(data[:checksumSize])
	body := data[checksumSize:]
	if got := crc32.ChecksumIEEE(body); got != want {
		return fmt.Errorf("%w: checksum mismatch", ErrCorruptValue)
	}
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	return nil
}
