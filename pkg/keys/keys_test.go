package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

func TestGeneratePrivateKey(t *testing.T) {
	a, err := GeneratePrivateKey()
	require.NoError(t, err)
	require.Len(t, a, PrivateKeySize)
	require.NoError(t, CheckPrivateKey("privateKey", a))

	b, err := GeneratePrivateKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPublicKey(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)

	pub, err := PublicKey(priv)
	require.NoError(t, err)
	require.Len(t, pub, CompressedPubKeySize)
	assert.Contains(t, []byte{0x02, 0x03}, pub[0])

	parsed, err := ParsePublicKey("pubKey", pub)
	require.NoError(t, err)
	assert.Equal(t, pub, parsed.SerializeCompressed())

	// Derivation is deterministic.
	again, err := PublicKey(priv)
	require.NoError(t, err)
	assert.Equal(t, pub, again)
}

func TestCheckPrivateKey(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
	}{
		{"short", make([]byte, 31)},
		{"zero", make([]byte, 32)},
		{"order overflow", func() []byte {
			k := make([]byte, 32)
			for i := range k {
				k[i] = 0xff
			}
			return k
		}()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPrivateKey("privateKey", tc.key)
			require.Error(t, err)
			assert.True(t, validation.IsValidationError(err))
		})
	}
}

func TestParsePublicKeyRejectsInvalid(t *testing.T) {
	_, err := ParsePublicKey("pubKey", make([]byte, 32))
	assert.Error(t, err, "wrong length")

	notOnCurve := make([]byte, CompressedPubKeySize)
	notOnCurve[0] = 0x02
	for i := 1; i < len(notOnCurve); i++ {
		notOnCurve[i] = 0xff
	}
	_, err = ParsePublicKey("pubKey", notOnCurve)
	assert.Error(t, err, "x not on curve")
}

func TestWIFRoundTrip(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)

	for _, tc := range []struct {
		name       string
		compressed bool
		testnet    bool
	}{
		{"mainnet compressed", true, false},
		{"mainnet uncompressed", false, false},
		{"testnet compressed", true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			wif, err := EncodeWIF(priv, tc.compressed, tc.testnet)
			require.NoError(t, err)

			decoded, compressed, err := DecodeWIF(wif)
			require.NoError(t, err)
			assert.Equal(t, priv, decoded)
			assert.Equal(t, tc.compressed, compressed)
		})
	}
}

func TestDecodeWIFVector(t *testing.T) {
	// Uncompressed mainnet WIF for the private key
	// 0c28fca386c7a227600b2fe50b7cae11ec86d3bf1fbe471be89827e19d72aa1d.
	priv, compressed, err := DecodeWIF("5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ")
	require.NoError(t, err)
	defer Zero(priv)

	assert.False(t, compressed)
	pub, err := PublicKey(priv)
	require.NoError(t, err)
	assert.Len(t, pub, CompressedPubKeySize)
	assert.Equal(t, byte(0x0c), priv[0])
	assert.Equal(t, byte(0x1d), priv[31])
}

func TestDecodeWIFRejectsMalformed(t *testing.T) {
	priv, err := GeneratePrivateKey()
	require.NoError(t, err)
	wif, err := EncodeWIF(priv, true, false)
	require.NoError(t, err)

	t.Run("corrupted checksum", func(t *testing.T) {
		mutated := []byte(wif)
		if mutated[4] == '2' {
			mutated[4] = '3'
		} else {
			mutated[4] = '2'
		}
		_, _, err := DecodeWIF(string(mutated))
		require.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, _, err := DecodeWIF(wif[:20])
		require.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, _, err := DecodeWIF("")
		require.Error(t, err)
	})
}

func TestEncodeWIFRejectsBadKey(t *testing.T) {
	_, err := EncodeWIF(make([]byte, 32), true, false)
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))
}

func TestWithSecret(t *testing.T) {
	secret := []byte{1, 2, 3, 4}
	var seen []byte
	err := WithSecret(secret, func(buf []byte) error {
		seen = buf
		return nil
	})
	require.NoError(t, err)

	// The callback gets a copy and the copy is wiped afterwards; the
	// original is untouched.
	assert.Equal(t, []byte{0, 0, 0, 0}, seen)
	assert.Equal(t, []byte{1, 2, 3, 4}, secret)
}

func TestZero(t *testing.T) {
	buf := []byte{0xde, 0xad, 0xbe, 0xef}
	Zero(buf)
	assert.Equal(t, make([]byte, 4), buf)
}
