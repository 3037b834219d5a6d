// Package stealth implements the protocol's chain-agnostic stealth
// meta-addresses.
//
// Unlike BIP 352 silent payments (package silentpayments), which bind the
// derivation to Bitcoin transaction inputs, this scheme uses a per-payment
// ephemeral key published alongside the payment:
//
//	sender:    S = r * P_spend          (r ephemeral, R = r*G published)
//	           A = P_view + h(S)*G     one-time address
//	recipient: S = p_spend * R         same point by DH identity
//
// A one-byte view tag (the first byte of h(S)) lets a recipient discard
// non-matching announcements with a single ECDH instead of a full key
// derivation.
package stealth

import (
	"crypto/sha256"
	"strings"

	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/sip-protocol/sip-bitcoin/pkg/hexutil"
	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// metaAddressScheme prefixes encoded meta-addresses.
const metaAddressScheme = "sip"

// MetaAddress is the reusable public half of a stealth keypair.
type MetaAddress struct {
	// SpendPubKey is the 33-byte compressed spending public key.
	SpendPubKey []byte
	// ViewPubKey is the 33-byte compressed viewing public key.
	ViewPubKey []byte
	// Chain names the target chain (e.g., "bitcoin").
	Chain string
}

// OneTimeAddress is a single-use stealth address derived from a
// meta-address.
type OneTimeAddress struct {
	// PubKey is the 33-byte compressed one-time public key.
	PubKey []byte
	// EphemeralPubKey is the sender's published 33-byte ephemeral key.
	EphemeralPubKey []byte
	// ViewTag is the first byte of the hashed shared secret.
	ViewTag byte
}

// GenerateMetaAddress draws a fresh stealth keypair and returns the
// meta-address together with the raw spending and viewing private keys.
func GenerateMetaAddress(chainName string) (*MetaAddress, []byte, []byte, error) {
	if chainName == "" {
		return nil, nil, nil, validation.Errorf("chain", "must not be empty")
	}

	spendPriv, err := keys.GeneratePrivateKey()
	if err != nil {
		return nil, nil, nil, err
	}
	viewPriv, err := keys.GeneratePrivateKey()
	if err != nil {
		keys.Zero(spendPriv)
		return nil, nil, nil, err
	}

	spendPub, err := keys.PublicKey(spendPriv)
	if err != nil {
		return nil, nil, nil, err
	}
	viewPub, err := keys.PublicKey(viewPriv)
	if err != nil {
		return nil, nil, nil, err
	}

	meta := &MetaAddress{SpendPubKey: spendPub, ViewPubKey: viewPub, Chain: chainName}
	return meta, spendPriv, viewPriv, nil
}

// Encode renders the meta-address as sip:<chain>:<spendKey>:<viewKey>.
func (m *MetaAddress) Encode() string {
	return strings.Join([]string{
		metaAddressScheme,
		m.Chain,
		hexutil.Encode(m.SpendPubKey),
		hexutil.Encode(m.ViewPubKey),
	}, ":")
}

// DecodeMetaAddress parses the sip:<chain>:<spendKey>:<viewKey> form.
func DecodeMetaAddress(encoded string) (*MetaAddress, error) {
	parts := strings.Split(encoded, ":")
	if len(parts) != 4 || parts[0] != metaAddressScheme {
		return nil, validation.Errorf("metaAddress", "not a %s: address", metaAddressScheme)
	}
	if parts[1] == "" {
		return nil, validation.Errorf("metaAddress", "empty chain")
	}

	spendPub, err := hexutil.Decode33("metaAddress", parts[2])
	if err != nil {
		return nil, err
	}
	viewPub, err := hexutil.Decode33("metaAddress", parts[3])
	if err != nil {
		return nil, err
	}
	if _, err := keys.ParsePublicKey("metaAddress", spendPub[:]); err != nil {
		return nil, err
	}
	if _, err := keys.ParsePublicKey("metaAddress", viewPub[:]); err != nil {
		return nil, err
	}

	return &MetaAddress{
		SpendPubKey: spendPub[:],
		ViewPubKey:  viewPub[:],
		Chain:       parts[1],
	}, nil
}

// GenerateOneTimeAddress derives a fresh one-time address for the recipient
// behind meta. Each call draws a new ephemeral key, so repeated payments to
// the same meta-address are unlinkable.
func GenerateOneTimeAddress(meta *MetaAddress) (*OneTimeAddress, error) {
	spendPub, err := keys.ParsePublicKey("metaAddress", meta.SpendPubKey)
	if err != nil {
		return nil, err
	}
	viewPub, err := keys.ParsePublicKey("metaAddress", meta.ViewPubKey)
	if err != nil {
		return nil, err
	}

	ephemeral, err := secp.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	defer ephemeral.Zero()

	secretHash, err := sharedSecretHash(&ephemeral.Key, spendPub)
	if err != nil {
		return nil, err
	}
	defer keys.Zero(secretHash[:])

	oneTime, err := deriveOneTimeKey(viewPub, secretHash)
	if err != nil {
		return nil, err
	}

	return &OneTimeAddress{
		PubKey:          oneTime,
		EphemeralPubKey: ephemeral.PubKey().SerializeCompressed(),
		ViewTag:         secretHash[0],
	}, nil
}

// CheckOneTimeAddress reports whether addr belongs to the holder of the
// given private keys. The view tag rejects most foreign announcements with
// one ECDH; a full derivation confirms the remainder.
func CheckOneTimeAddress(addr *OneTimeAddress, spendPrivateKey, viewPrivateKey []byte) (bool, error) {
	secretHash, err := recipientSecretHash(addr, spendPrivateKey)
	if err != nil {
		return false, err
	}
	defer keys.Zero(secretHash[:])

	if secretHash[0] != addr.ViewTag {
		return false, nil
	}

	oneTimePriv, err := oneTimePrivateKey(viewPrivateKey, secretHash)
	if err != nil {
		return false, err
	}
	defer keys.Zero(oneTimePriv)

	derivedPub, err := keys.PublicKey(oneTimePriv)
	if err != nil {
		return false, err
	}

	provided, err := keys.ParsePublicKey("address", addr.PubKey)
	if err != nil {
		// A malformed announcement point is a non-match, not a caller
		// error.
		return false, nil
	}
	derived, err := secp.ParsePubKey(derivedPub)
	if err != nil {
		return false, err
	}
	return derived.IsEqual(provided), nil
}

// RecoverPrivateKey derives the private key that controls a one-time
// address: p_view + h(S) mod n.
func RecoverPrivateKey(addr *OneTimeAddress, spendPrivateKey, viewPrivateKey []byte) ([]byte, error) {
	secretHash, err := recipientSecretHash(addr, spendPrivateKey)
	if err != nil {
		return nil, err
	}
	defer keys.Zero(secretHash[:])
	return oneTimePrivateKey(viewPrivateKey, secretHash)
}

// sharedSecretHash computes SHA256(compressed(scalar * point)).
func sharedSecretHash(scalar *secp.ModNScalar, point *secp.PublicKey) ([32]byte, error) {
	var pointJac, shared secp.JacobianPoint
	point.AsJacobian(&pointJac)
	secp.ScalarMultNonConst(scalar, &pointJac, &shared)
	if shared.Z.IsZero() {
		return [32]byte{}, validation.Errorf("metaAddress", "ECDH produced the point at infinity")
	}
	shared.ToAffine()

	compressed := secp.NewPublicKey(&shared.X, &shared.Y).SerializeCompressed()
	defer keys.Zero(compressed)
	return sha256.Sum256(compressed), nil
}

// recipientSecretHash recomputes the shared-secret hash from the recipient
// side: SHA256(compressed(p_spend * R)).
func recipientSecretHash(addr *OneTimeAddress, spendPrivateKey []byte) ([32]byte, error) {
	if err := keys.CheckPrivateKey("spendPrivateKey", spendPrivateKey); err != nil {
		return [32]byte{}, err
	}
	ephemeralPub, err := keys.ParsePublicKey("ephemeralPubKey", addr.EphemeralPubKey)
	if err != nil {
		return [32]byte{}, err
	}

	var spendScalar secp.ModNScalar
	spendScalar.SetByteSlice(spendPrivateKey)
	defer spendScalar.Zero()

	return sharedSecretHash(&spendScalar, ephemeralPub)
}

// deriveOneTimeKey computes viewPub + h(S)*G in compressed form.
func deriveOneTimeKey(viewPub *secp.PublicKey, secretHash [32]byte) ([]byte, error) {
	var h secp.ModNScalar
	h.SetBytes(&secretHash)
	defer h.Zero()

	var viewJac, hG, oneTime secp.JacobianPoint
	viewPub.AsJacobian(&viewJac)
	secp.ScalarBaseMultNonConst(&h, &hG)
	secp.AddNonConst(&viewJac, &hG, &oneTime)
	if oneTime.Z.IsZero() {
		return nil, validation.Errorf("metaAddress", "one-time key is the point at infinity")
	}
	oneTime.ToAffine()
	return secp.NewPublicKey(&oneTime.X, &oneTime.Y).SerializeCompressed(), nil
}

// oneTimePrivateKey computes p_view + h(S) mod n.
func oneTimePrivateKey(viewPrivateKey []byte, secretHash [32]byte) ([]byte, error) {
	if err := keys.CheckPrivateKey("viewPrivateKey", viewPrivateKey); err != nil {
		return nil, err
	}

	var sum, h secp.ModNScalar
	sum.SetByteSlice(viewPrivateKey)
	h.SetBytes(&secretHash)
	sum.Add(&h)
	defer sum.Zero()
	defer h.Zero()

	if sum.IsZero() {
		return nil, validation.Errorf("viewPrivateKey", "derived key is zero")
	}
	out := sum.Bytes()
	return append([]byte(nil), out[:]...), nil
}
