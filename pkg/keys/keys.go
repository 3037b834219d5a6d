// Package keys implements key generation and import/export for the SDK.
//
// Key formats:
//   - Private keys: WIF (Wallet Import Format) or raw 32 bytes
//   - Public keys: compressed 33-byte format (0x02/0x03 prefix + x-coordinate)
//
// Private scalars are sensitive. Every buffer this package allocates for one
// is overwritten before release; callers holding raw key material should
// scope it through WithSecret so the wipe happens even on error paths.
package keys

import (
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// PrivateKeySize is the byte length of a raw private key.
const PrivateKeySize = 32

// CompressedPubKeySize is the byte length of a compressed public key.
const CompressedPubKeySize = 33

// GeneratePrivateKey draws a fresh uniformly random private key in
// [1, curve order).
func GeneratePrivateKey() ([]byte, error) {
	priv, err := secp.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	defer priv.Zero()
	return priv.Serialize(), nil
}

// PublicKey derives the 33-byte compressed public key for a raw private key.
func PublicKey(privateKey []byte) ([]byte, error) {
	if err := CheckPrivateKey("privateKey", privateKey); err != nil {
		return nil, err
	}
	priv := secp.PrivKeyFromBytes(privateKey)
	defer priv.Zero()
	return priv.PubKey().SerializeCompressed(), nil
}

// CheckPrivateKey enforces the private-key invariant 0 < k < curve order.
// field names the parameter in the resulting validation error.
func CheckPrivateKey(field string, privateKey []byte) error {
	if len(privateKey) != PrivateKeySize {
		return validation.Errorf(field, "must be %d bytes, got %d", PrivateKeySize, len(privateKey))
	}
	var k secp.ModNScalar
	overflow := k.SetByteSlice(privateKey)
	defer k.Zero()
	if overflow {
		return validation.Errorf(field, "scalar exceeds the curve order")
	}
	if k.IsZero() {
		return validation.Errorf(field, "scalar is zero")
	}
	return nil
}

// ParsePublicKey parses and validates a 33-byte compressed public key,
// confirming the encoded point is actually on the curve.
func ParsePublicKey(field string, pubKeyBytes []byte) (*secp.PublicKey, error) {
	if len(pubKeyBytes) != CompressedPubKeySize {
		return nil, validation.Errorf(field, "must be %d bytes, got %d", CompressedPubKeySize, len(pubKeyBytes))
	}
	pub, err := secp.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, validation.Errorf(field, "not a valid curve point: %v", err)
	}
	return pub, nil
}

// Zero overwrites a secret buffer. The write is unconditional so the wipe
// cannot be elided when the buffer is dead afterwards.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// WithSecret passes a private copy of secret material to fn and wipes the
// copy when fn returns, whether or not it failed.
func WithSecret(secret []byte, fn func([]byte) error) error {
	buf := append([]byte(nil), secret...)
	defer Zero(buf)
	return fn(buf)
}
