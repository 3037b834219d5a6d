package taproot

import (
	"github.com/sip-protocol/sip-bitcoin/pkg/bech32m"
	"github.com/sip-protocol/sip-bitcoin/pkg/bip340"
	"github.com/sip-protocol/sip-bitcoin/pkg/chain"
	"github.com/sip-protocol/sip-bitcoin/pkg/hexutil"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// Human-readable prefixes for taproot addresses per network.
const (
	hrpMainnet = "bc"
	hrpTestnet = "tb"
	hrpRegtest = "bcrt"
)

// addressHRP maps a network to its bech32 prefix.
func addressHRP(network chain.Network) (string, error) {
	switch network {
	case chain.Mainnet:
		return hrpMainnet, nil
	case chain.Testnet:
		return hrpTestnet, nil
	case chain.Regtest:
		return hrpRegtest, nil
	}
	return "", validation.Errorf("network", "unknown network %q", network)
}

// Address encodes a 32-byte x-only tweaked key as a witness version 1
// Bech32m address for the given network.
func Address(tweakedKey []byte, network chain.Network) (string, error) {
	if len(tweakedKey) != 32 {
		return "", validation.Errorf("tweakedKey", "must be 32 bytes, got %d", len(tweakedKey))
	}
	hrp, err := addressHRP(network)
	if err != nil {
		return "", err
	}

	program, err := bech32m.ConvertBits(tweakedKey, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32m.Encode(hrp, append([]byte{witnessVersion}, program...))
}

// DecodeAddress decodes a taproot address and returns the 32-byte x-only
// output key and the network inferred from the prefix. Every deviation from
// a well-formed witness v1 program (bad checksum, wrong version, wrong
// program length, unknown prefix) is a validation error.
func DecodeAddress(address string) ([]byte, chain.Network, error) {
	hrp, data, err := bech32m.Decode(address)
	if err != nil {
		return nil, "", err
	}

	var network chain.Network
	switch hrp {
	case hrpMainnet:
		network = chain.Mainnet
	case hrpTestnet:
		network = chain.Testnet
	case hrpRegtest:
		network = chain.Regtest
	default:
		return nil, "", validation.Errorf("address", "unknown prefix %q", hrp)
	}

	if len(data) == 0 {
		return nil, "", validation.Errorf("address", "empty data part")
	}
	if data[0] != witnessVersion {
		return nil, "", validation.Errorf("address", "witness version %d, want %d", data[0], witnessVersion)
	}

	program, err := bech32m.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, "", err
	}
	if len(program) != 32 {
		return nil, "", validation.Errorf("address", "witness program must be 32 bytes, got %d", len(program))
	}
	return program, network, nil
}

// IsValidAddress reports whether address decodes as a taproot address on any
// known network.
func IsValidAddress(address string) bool {
	_, _, err := DecodeAddress(address)
	return err == nil
}

// CreateKeySpendOnlyOutput derives the x-only public key for privateKey,
// commits it with no script tree, and encodes the address. This is the
// common single-key wallet case.
func CreateKeySpendOnlyOutput(privateKey []byte, network chain.Network) (*Output, string, error) {
	internalKey, err := bip340.XOnlyPublicKey(privateKey)
	if err != nil {
		return nil, "", err
	}

	output, err := CreateOutput(internalKey)
	if err != nil {
		return nil, "", err
	}

	address, err := Address(output.TweakedKey, network)
	if err != nil {
		return nil, "", err
	}
	return output, address, nil
}

// ComputeTweakedKeyHex is the hex variant of ComputeTweakedKey. merkleRootHex
// may be empty for a key-path-only commitment.
func ComputeTweakedKeyHex(internalKeyHex, merkleRootHex string) (string, byte, error) {
	internalKey, err := hexutil.DecodeFixed("internalKey", internalKeyHex, 32)
	if err != nil {
		return "", 0, err
	}
	var merkleRoot []byte
	if merkleRootHex != "" {
		merkleRoot, err = hexutil.DecodeFixed("merkleRoot", merkleRootHex, 32)
		if err != nil {
			return "", 0, err
		}
	}

	tweaked, parity, err := ComputeTweakedKey(internalKey, merkleRoot)
	if err != nil {
		return "", 0, err
	}
	return hexutil.Encode(tweaked), parity, nil
}

// AddressFromHexKey is the hex variant of Address.
func AddressFromHexKey(tweakedKeyHex string, network chain.Network) (string, error) {
	tweakedKey, err := hexutil.DecodeFixed("tweakedKey", tweakedKeyHex, 32)
	if err != nil {
		return "", err
	}
	return Address(tweakedKey, network)
}
