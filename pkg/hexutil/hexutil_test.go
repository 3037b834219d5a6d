package hexutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

func TestEncodeDecode(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}

	encoded := Encode(data)
	assert.Equal(t, "0xdeadbeef", encoded)

	decoded, err := Decode("data", encoded)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	// The prefix is optional and case-insensitive on input.
	decoded, err = Decode("data", "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, data, decoded)

	decoded, err = Decode("data", "0XDEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode("payload", "0xzz")
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))
	assert.Contains(t, err.Error(), "payload")

	_, err = Decode("payload", "abc")
	require.Error(t, err, "odd length")
}

func TestDecodeFixed(t *testing.T) {
	b, err := DecodeFixed("key", "0x0102", 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	_, err = DecodeFixed("key", "0x0102", 3)
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))
}

func TestDecode32And33(t *testing.T) {
	hex32 := Encode(make([]byte, 32))
	out32, err := Decode32("key", hex32)
	require.NoError(t, err)
	assert.Equal(t, [32]byte{}, out32)

	_, err = Decode32("key", "0x00")
	require.Error(t, err)

	hex33 := Encode(make([]byte, 33))
	out33, err := Decode33("key", hex33)
	require.NoError(t, err)
	assert.Equal(t, [33]byte{}, out33)

	_, err = Decode33("key", hex32)
	require.Error(t, err)
}
