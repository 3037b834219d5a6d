package taproot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sip-protocol/sip-bitcoin/pkg/bech32m"
	"github.com/sip-protocol/sip-bitcoin/pkg/bip340"
	"github.com/sip-protocol/sip-bitcoin/pkg/chain"
	"github.com/sip-protocol/sip-bitcoin/pkg/hexutil"
	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// newInternalKey derives a fresh x-only internal key for tests.
func newInternalKey(t *testing.T) []byte {
	t.Helper()
	priv, err := keys.GeneratePrivateKey()
	require.NoError(t, err)
	pub, err := bip340.XOnlyPublicKey(priv)
	require.NoError(t, err)
	return pub
}

func TestComputeTweakedKey(t *testing.T) {
	internalKey := newInternalKey(t)

	tweaked, parity, err := ComputeTweakedKey(internalKey, nil)
	require.NoError(t, err)
	assert.Len(t, tweaked, 32)
	assert.Contains(t, []byte{0, 1}, parity)
	assert.NotEqual(t, internalKey, tweaked, "tweaking must move the key")

	// Determinism.
	again, parity2, err := ComputeTweakedKey(internalKey, nil)
	require.NoError(t, err)
	assert.Equal(t, tweaked, again)
	assert.Equal(t, parity, parity2)

	// A merkle root changes the commitment.
	root := bip340.TaggedHash(bip340.TagTapLeaf, []byte{0x51})
	withRoot, _, err := ComputeTweakedKey(internalKey, root[:])
	require.NoError(t, err)
	assert.NotEqual(t, tweaked, withRoot)

	// Different roots commit to different keys.
	otherRoot := bip340.TaggedHash(bip340.TagTapLeaf, []byte{0x52})
	withOther, _, err := ComputeTweakedKey(internalKey, otherRoot[:])
	require.NoError(t, err)
	assert.NotEqual(t, withRoot, withOther)
}

func TestComputeTweakedKeyValidation(t *testing.T) {
	internalKey := newInternalKey(t)

	_, _, err := ComputeTweakedKey(internalKey[:31], nil)
	assert.True(t, validation.IsValidationError(err), "short internal key")

	_, _, err = ComputeTweakedKey(internalKey, make([]byte, 31))
	assert.True(t, validation.IsValidationError(err), "short merkle root")

	// An x-coordinate with no curve point must be rejected by lift_x.
	notOnCurve := make([]byte, 32)
	for i := range notOnCurve {
		notOnCurve[i] = 0xff
	}
	_, _, err = ComputeTweakedKey(notOnCurve, nil)
	assert.True(t, validation.IsValidationError(err))
}

func TestLeafHash(t *testing.T) {
	script := []byte{0x51}
	leaf := TapScript{Script: script, LeafVersion: BaseLeafVersion}

	h := LeafHash(leaf)

	// The hash commits to the leaf version, the compact-size length prefix
	// and the script body itself.
	want := bip340.TaggedHash(bip340.TagTapLeaf, []byte{BaseLeafVersion, 0x01, 0x51})
	assert.Equal(t, want, h)

	other := LeafHash(TapScript{Script: []byte{0x52}, LeafVersion: BaseLeafVersion})
	assert.NotEqual(t, h, other)
}

func TestCreateOutput(t *testing.T) {
	internalKey := newInternalKey(t)

	t.Run("key path only", func(t *testing.T) {
		output, err := CreateOutput(internalKey)
		require.NoError(t, err)
		assert.Equal(t, internalKey, output.InternalKey)
		assert.Nil(t, output.MerkleRoot)
		assert.Len(t, output.TweakedKey, 32)
	})

	t.Run("single script leaf", func(t *testing.T) {
		script := TapScript{Script: []byte{0x51}, LeafVersion: BaseLeafVersion}
		output, err := CreateOutput(internalKey, script)
		require.NoError(t, err)

		root := LeafHash(script)
		assert.Equal(t, root[:], output.MerkleRoot)

		keyPathOnly, err := CreateOutput(internalKey)
		require.NoError(t, err)
		assert.NotEqual(t, keyPathOnly.TweakedKey, output.TweakedKey)
	})

	t.Run("multiple scripts rejected", func(t *testing.T) {
		s1 := TapScript{Script: []byte{0x51}, LeafVersion: BaseLeafVersion}
		s2 := TapScript{Script: []byte{0x52}, LeafVersion: BaseLeafVersion}
		_, err := CreateOutput(internalKey, s1, s2)
		require.Error(t, err)
		assert.True(t, validation.IsValidationError(err))
	})
}

func TestBranchRootHashUnsupported(t *testing.T) {
	left := Leaf{TapScript{Script: []byte{0x51}, LeafVersion: BaseLeafVersion}}
	right := Leaf{TapScript{Script: []byte{0x52}, LeafVersion: BaseLeafVersion}}
	_, err := Branch{Left: left, Right: right}.RootHash()
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))
}

func TestAddressRoundTrip(t *testing.T) {
	networks := []struct {
		network chain.Network
		prefix  string
	}{
		{chain.Mainnet, "bc1p"},
		{chain.Testnet, "tb1p"},
		{chain.Regtest, "bcrt1p"},
	}

	for i := 0; i < 100; i++ {
		internalKey := newInternalKey(t)
		tweaked, _, err := ComputeTweakedKey(internalKey, nil)
		require.NoError(t, err)

		for _, nc := range networks {
			address, err := Address(tweaked, nc.network)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(address, nc.prefix), "address %s", address)
			assert.LessOrEqual(t, len(address), 90)

			program, network, err := DecodeAddress(address)
			require.NoError(t, err)
			assert.Equal(t, tweaked, program)
			assert.Equal(t, nc.network, network)
			assert.True(t, IsValidAddress(address))
		}
	}
}

func TestDecodeAddressRejectsMalformed(t *testing.T) {
	internalKey := newInternalKey(t)
	tweaked, _, err := ComputeTweakedKey(internalKey, nil)
	require.NoError(t, err)
	address, err := Address(tweaked, chain.Mainnet)
	require.NoError(t, err)

	t.Run("checksum mutation", func(t *testing.T) {
		// Flip a data character near the middle of the address.
		i := len(address) / 2
		replacement := byte('q')
		if address[i] == replacement {
			replacement = 'p'
		}
		mutated := address[:i] + string(replacement) + address[i+1:]
		_, _, err := DecodeAddress(mutated)
		assert.Error(t, err)
		assert.False(t, IsValidAddress(mutated))
	})

	t.Run("unknown prefix", func(t *testing.T) {
		program, err := bech32mEncodeForTest("xx", tweaked)
		require.NoError(t, err)
		_, _, err = DecodeAddress(program)
		assert.Error(t, err)
	})

	t.Run("wrong witness version", func(t *testing.T) {
		// A valid v0 segwit-style encoding must not pass as taproot.
		_, _, err := DecodeAddress("bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4")
		assert.Error(t, err)
	})

	t.Run("wrong program length", func(t *testing.T) {
		short, err := bech32mEncodeForTest("bc", tweaked[:20])
		require.NoError(t, err)
		_, _, err = DecodeAddress(short)
		assert.Error(t, err)
	})
}

// bech32mEncodeForTest encodes raw program bytes under an arbitrary prefix
// with witness version 1, bypassing the network checks in Address.
func bech32mEncodeForTest(hrp string, program []byte) (string, error) {
	groups, err := bech32m.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32m.Encode(hrp, append([]byte{1}, groups...))
}

func TestCreateKeySpendOnlyOutput(t *testing.T) {
	priv, err := keys.GeneratePrivateKey()
	require.NoError(t, err)

	output, address, err := CreateKeySpendOnlyOutput(priv, chain.Mainnet)
	require.NoError(t, err)
	assert.Nil(t, output.MerkleRoot)
	assert.True(t, strings.HasPrefix(address, "bc1p"))

	program, network, err := DecodeAddress(address)
	require.NoError(t, err)
	assert.Equal(t, output.TweakedKey, program)
	assert.Equal(t, chain.Mainnet, network)
}

func TestPayToTaprootScript(t *testing.T) {
	internalKey := newInternalKey(t)
	tweaked, _, err := ComputeTweakedKey(internalKey, nil)
	require.NoError(t, err)

	script, err := PayToTaprootScript(tweaked)
	require.NoError(t, err)
	require.Len(t, script, 34)
	assert.Equal(t, byte(0x51), script[0])
	assert.Equal(t, byte(0x20), script[1])
	assert.Equal(t, tweaked, script[2:])

	_, err = PayToTaprootScript(tweaked[:31])
	assert.True(t, validation.IsValidationError(err))
}

func TestHexHelpers(t *testing.T) {
	internalKey := newInternalKey(t)
	tweaked, parity, err := ComputeTweakedKey(internalKey, nil)
	require.NoError(t, err)

	tweakedHex, hexParity, err := ComputeTweakedKeyHex(hexutil.Encode(internalKey), "")
	require.NoError(t, err)
	assert.Equal(t, hexutil.Encode(tweaked), tweakedHex)
	assert.Equal(t, parity, hexParity)

	address, err := AddressFromHexKey(tweakedHex, chain.Testnet)
	require.NoError(t, err)
	program, network, err := DecodeAddress(address)
	require.NoError(t, err)
	assert.Equal(t, tweaked, program)
	assert.Equal(t, chain.Testnet, network)
}
