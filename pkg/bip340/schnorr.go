package bip340

import (
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

const (
	// MessageSize is the byte length of a signable message digest.
	MessageSize = 32
	// PrivateKeySize is the byte length of a raw private key.
	PrivateKeySize = 32
	// PublicKeySize is the byte length of an x-only public key.
	PublicKeySize = 32
	// AuxRandSize is the byte length of the auxiliary randomness.
	AuxRandSize = 32
	// SignatureSize is the byte length of a BIP 340 signature.
	SignatureSize = 64
)

// Sign produces a 64-byte BIP 340 signature over a 32-byte message.
//
// auxRand is the 32-byte auxiliary randomness fed into nonce derivation.
// When supplied, signing is fully deterministic and reproduces the published
// BIP 340 test vectors bit for bit. A nil auxRand lets the underlying
// implementation draw fresh randomness.
func Sign(message, privateKey, auxRand []byte) ([]byte, error) {
	if len(message) != MessageSize {
		return nil, validation.Errorf("message", "must be %d bytes, got %d", MessageSize, len(message))
	}
	if err := checkPrivateKey(privateKey); err != nil {
		return nil, err
	}

	opts := []schnorr.SignOption{}
	if auxRand != nil {
		if len(auxRand) != AuxRandSize {
			return nil, validation.Errorf("auxRand", "must be %d bytes, got %d", AuxRandSize, len(auxRand))
		}
		var aux [AuxRandSize]byte
		copy(aux[:], auxRand)
		opts = append(opts, schnorr.CustomNonce(aux))
	}

	priv, _ := btcec.PrivKeyFromBytes(privateKey)
	defer priv.Zero()

	sig, err := schnorr.Sign(priv, message, opts...)
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// Verify checks a 64-byte BIP 340 signature against a 32-byte message and a
// 32-byte x-only public key.
//
// A signature that fails cryptographically (bad signature, key not on the
// curve) yields (false, nil); an error is returned only for inputs of the
// wrong length.
func Verify(signature, message, publicKey []byte) (bool, error) {
	if len(signature) != SignatureSize {
		return false, validation.Errorf("signature", "must be %d bytes, got %d", SignatureSize, len(signature))
	}
	if len(message) != MessageSize {
		return false, validation.Errorf("message", "must be %d bytes, got %d", MessageSize, len(message))
	}
	if len(publicKey) != PublicKeySize {
		return false, validation.Errorf("publicKey", "must be %d bytes, got %d", PublicKeySize, len(publicKey))
	}

	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false, nil
	}
	pub, err := schnorr.ParsePubKey(publicKey)
	if err != nil {
		return false, nil
	}
	return sig.Verify(message, pub), nil
}

// XOnlyPublicKey derives the 32-byte x-only public key for a private key,
// following the even-y convention.
func XOnlyPublicKey(privateKey []byte) ([]byte, error) {
	if err := checkPrivateKey(privateKey); err != nil {
		return nil, err
	}

	priv, _ := btcec.PrivKeyFromBytes(privateKey)
	defer priv.Zero()

	return schnorr.SerializePubKey(priv.PubKey()), nil
}

// checkPrivateKey enforces the private-key invariant 0 < k < curve order on
// a raw 32-byte scalar.
func checkPrivateKey(privateKey []byte) error {
	if len(privateKey) != PrivateKeySize {
		return validation.Errorf("privateKey", "must be %d bytes, got %d", PrivateKeySize, len(privateKey))
	}

	var k secp.ModNScalar
	overflow := k.SetByteSlice(privateKey)
	defer k.Zero()
	if overflow {
		return validation.Errorf("privateKey", "scalar exceeds the curve order")
	}
	if k.IsZero() {
		return validation.Errorf("privateKey", "scalar is zero")
	}
	return nil
}
