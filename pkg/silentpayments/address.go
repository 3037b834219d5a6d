// Package silentpayments implements BIP 352 silent payments: reusable
// stealth addresses for Bitcoin.
//
// A silent-payment address packs a scan public key and a spend public key
// into one Bech32m string. For every payment the sender derives a fresh
// taproot output key from an ECDH secret between the sender's aggregated
// input keys and the recipient's scan key, so on-chain outputs are
// unlinkable to the address and to each other. The recipient detects
// payments with the scan private key alone and needs the spend private key
// only to spend.
//
// All operations are pure functions over supplied byte buffers; the package
// holds no state and no caches. Buffers holding private scalars or ECDH
// intermediates are wiped before release.
//
// References:
//   - BIP 352: https://github.com/bitcoin/bips/blob/master/bip-0352.mediawiki
package silentpayments

import (
	"encoding/binary"

	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/sip-protocol/sip-bitcoin/pkg/bech32m"
	"github.com/sip-protocol/sip-bitcoin/pkg/bip340"
	"github.com/sip-protocol/sip-bitcoin/pkg/chain"
	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// Human-readable prefixes for silent-payment addresses.
const (
	hrpMainnet = "sp"
	hrpTestnet = "tsp"
)

// addressWitnessVersion is the version prepended to the data part. Unlike
// taproot addresses, silent-payment addresses use version 0 under their own
// prefix.
const addressWitnessVersion byte = 0

// addressProgramSize is the decoded payload length: 33-byte scan key
// followed by the 33-byte spend key.
const addressProgramSize = 66

// MaxLabel is the largest allowed address label.
const MaxLabel = 1<<31 - 1

// Address is a decoded (or freshly constructed) silent-payment address.
type Address struct {
	// Address is the Bech32m string form.
	Address string
	// ScanPubKey is the 33-byte compressed scan public key.
	ScanPubKey []byte
	// SpendPubKey is the 33-byte compressed spend public key. When the
	// address carries a label the tweak is already folded in.
	SpendPubKey []byte
	// Network the address encodes for.
	Network chain.Network
	// Label is set only on addresses constructed with NewLabeledAddress;
	// labels are not recoverable from the encoded string.
	Label *uint32
}

// addressHRP maps a network to the silent-payment prefix. Regtest shares the
// testnet prefix; BIP 352 assigns distinct prefixes only to mainnet and
// testnet.
func addressHRP(network chain.Network) (string, error) {
	switch network {
	case chain.Mainnet:
		return hrpMainnet, nil
	case chain.Testnet, chain.Regtest:
		return hrpTestnet, nil
	}
	return "", validation.Errorf("network", "unknown network %q", network)
}

// NewAddress builds an unlabeled silent-payment address from a scan and a
// spend public key.
func NewAddress(scanPubKey, spendPubKey []byte, network chain.Network) (*Address, error) {
	if _, err := keys.ParsePublicKey("scanPubKey", scanPubKey); err != nil {
		return nil, err
	}
	if _, err := keys.ParsePublicKey("spendPubKey", spendPubKey); err != nil {
		return nil, err
	}

	encoded, err := encodeAddress(scanPubKey, spendPubKey, network)
	if err != nil {
		return nil, err
	}
	return &Address{
		Address:     encoded,
		ScanPubKey:  append([]byte(nil), scanPubKey...),
		SpendPubKey: append([]byte(nil), spendPubKey...),
		Network:     network,
	}, nil
}

// NewLabeledAddress builds a silent-payment address whose spend key is
// tweaked with the given label before encoding:
//
//	labelTweak      = TaggedHash("BIP0352/Label", scanPrivKey || ser32(label))
//	labeledSpendKey = spendPubKey + labelTweak*G
//
// The label tweak is derived from the scan private key so only the wallet
// that owns the address can enumerate its own labels. Labels are applied
// once at generation time; scanning a labeled address requires the caller to
// supply the labeled spend key.
func NewLabeledAddress(scanPrivateKey, spendPubKey []byte, network chain.Network, label uint32) (*Address, error) {
	if label > MaxLabel {
		return nil, validation.Errorf("label", "must be below 2^31, got %d", label)
	}
	if err := keys.CheckPrivateKey("scanPrivateKey", scanPrivateKey); err != nil {
		return nil, err
	}
	spendPub, err := keys.ParsePublicKey("spendPubKey", spendPubKey)
	if err != nil {
		return nil, err
	}

	tweak, err := LabelTweak(scanPrivateKey, label)
	if err != nil {
		return nil, err
	}

	var tweakScalar secp.ModNScalar
	tweakScalar.SetBytes(&tweak)
	defer tweakScalar.Zero()

	labeledSpend, err := addTweakPoint(spendPub, &tweakScalar)
	if err != nil {
		return nil, validation.Errorf("label", "%v", err)
	}

	scanPubKey, err := keys.PublicKey(scanPrivateKey)
	if err != nil {
		return nil, err
	}

	encoded, err := encodeAddress(scanPubKey, labeledSpend, network)
	if err != nil {
		return nil, err
	}
	labelCopy := label
	return &Address{
		Address:     encoded,
		ScanPubKey:  scanPubKey,
		SpendPubKey: labeledSpend,
		Network:     network,
		Label:       &labelCopy,
	}, nil
}

// DecodeAddress decodes a silent-payment address string. It validates the
// prefix, the version byte (exactly 0), the 66-byte program length, and that
// both embedded keys are points on the curve.
func DecodeAddress(address string) (*Address, error) {
	hrp, data, err := bech32m.DecodeWithLimit(address, bech32m.MaxLengthSilentPayment)
	if err != nil {
		return nil, err
	}

	var network chain.Network
	switch hrp {
	case hrpMainnet:
		network = chain.Mainnet
	case hrpTestnet:
		network = chain.Testnet
	default:
		return nil, validation.Errorf("address", "unknown prefix %q", hrp)
	}

	if len(data) == 0 {
		return nil, validation.Errorf("address", "empty data part")
	}
	if data[0] != addressWitnessVersion {
		return nil, validation.Errorf("address", "version %d, want %d", data[0], addressWitnessVersion)
	}

	program, err := bech32m.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, err
	}
	if len(program) != addressProgramSize {
		return nil, validation.Errorf("address", "payload must be %d bytes, got %d", addressProgramSize, len(program))
	}

	scanPubKey := program[:33]
	spendPubKey := program[33:]
	if _, err := keys.ParsePublicKey("address", scanPubKey); err != nil {
		return nil, err
	}
	if _, err := keys.ParsePublicKey("address", spendPubKey); err != nil {
		return nil, err
	}

	return &Address{
		Address:     address,
		ScanPubKey:  append([]byte(nil), scanPubKey...),
		SpendPubKey: append([]byte(nil), spendPubKey...),
		Network:     network,
	}, nil
}

// LabelTweak computes the scalar tweak for an address label:
// TaggedHash("BIP0352/Label", scanPrivKey || ser32(label)).
func LabelTweak(scanPrivateKey []byte, label uint32) ([32]byte, error) {
	if label > MaxLabel {
		return [32]byte{}, validation.Errorf("label", "must be below 2^31, got %d", label)
	}
	if err := keys.CheckPrivateKey("scanPrivateKey", scanPrivateKey); err != nil {
		return [32]byte{}, err
	}
	idx := ser32(label)
	return bip340.TaggedHash(bip340.TagLabel, scanPrivateKey, idx[:]), nil
}

// TweakPrivateKeyWithLabel folds a label tweak into the spend private key.
// A recipient spending from a labeled address derives spending keys from
// this tweaked key instead of the bare spend key.
func TweakPrivateKeyWithLabel(spendPrivateKey, scanPrivateKey []byte, label uint32) ([]byte, error) {
	if err := keys.CheckPrivateKey("spendPrivateKey", spendPrivateKey); err != nil {
		return nil, err
	}
	tweak, err := LabelTweak(scanPrivateKey, label)
	if err != nil {
		return nil, err
	}

	var sum, t secp.ModNScalar
	sum.SetByteSlice(spendPrivateKey)
	t.SetBytes(&tweak)
	sum.Add(&t)
	defer sum.Zero()
	defer t.Zero()

	if sum.IsZero() {
		return nil, validation.Errorf("label", "tweaked key is zero")
	}
	out := sum.Bytes()
	return append([]byte(nil), out[:]...), nil
}

// encodeAddress packs version || scan || spend into Bech32m.
func encodeAddress(scanPubKey, spendPubKey []byte, network chain.Network) (string, error) {
	hrp, err := addressHRP(network)
	if err != nil {
		return "", err
	}

	payload := make([]byte, 0, addressProgramSize)
	payload = append(payload, scanPubKey...)
	payload = append(payload, spendPubKey...)

	program, err := bech32m.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32m.Encode(hrp, append([]byte{addressWitnessVersion}, program...))
}

// ser32 serializes a 32-bit integer in big-endian order.
func ser32(n uint32) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], n)
	return b
}

// addTweakPoint computes point + tweak*G and returns the compressed result.
func addTweakPoint(point *secp.PublicKey, tweak *secp.ModNScalar) ([]byte, error) {
	var pointJac, tweakJac, sum secp.JacobianPoint
	point.AsJacobian(&pointJac)
	secp.ScalarBaseMultNonConst(tweak, &tweakJac)
	secp.AddNonConst(&pointJac, &tweakJac, &sum)
	if sum.Z.IsZero() {
		return nil, validation.Errorf("tweak", "result is the point at infinity")
	}
	sum.ToAffine()
	return secp.NewPublicKey(&sum.X, &sum.Y).SerializeCompressed(), nil
}
