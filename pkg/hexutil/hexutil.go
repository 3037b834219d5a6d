// Package hexutil provides the hex-string conventions used by the SDK's
// string-level API variants.
//
// All hex strings produced by the SDK carry a 0x prefix; parsing accepts
// input with or without the prefix. Fixed-length parsers return a
// *validation.Error naming the offending field so the byte-level and hex
// variants share identical validation semantics.
package hexutil

import (
	"encoding/hex"

	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// Encode converts bytes to a hex string with 0x prefix.
func Encode(data []byte) string {
	return "0x" + hex.EncodeToString(data)
}

// Decode converts a hex string to bytes. The 0x prefix is optional.
func Decode(field, s string) ([]byte, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, validation.Errorf(field, "malformed hex: %v", err)
	}
	return b, nil
}

// DecodeFixed converts a hex string to bytes and requires an exact decoded
// length.
func DecodeFixed(field, s string, want int) ([]byte, error) {
	b, err := Decode(field, s)
	if err != nil {
		return nil, err
	}
	if len(b) != want {
		return nil, validation.Errorf(field, "must be %d bytes, got %d", want, len(b))
	}
	return b, nil
}

// Decode32 converts a hex string to a 32-byte array.
func Decode32(field, s string) ([32]byte, error) {
	var out [32]byte
	b, err := DecodeFixed(field, s, 32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

// Decode33 converts a hex string to a 33-byte array.
func Decode33(field, s string) ([33]byte, error) {
	var out [33]byte
	b, err := DecodeFixed(field, s, 33)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}
