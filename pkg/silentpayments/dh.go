package silentpayments

import (
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/sip-protocol/sip-bitcoin/pkg/bip340"
	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// Shared ECDH machinery used by both the sender and the scanner. The two
// sides compute the same point by the Diffie-Hellman identity a*B = b*A:
// the sender multiplies its aggregate input scalar by the scan public key,
// the recipient multiplies its scan private key by the aggregate input
// point.

// ecdhSharedSecret computes scalar*point and returns the 33-byte compressed
// serialization of the result. The caller owns wiping the returned buffer.
func ecdhSharedSecret(scalar *secp.ModNScalar, point *secp.PublicKey) ([]byte, error) {
	var pointJac, shared secp.JacobianPoint
	point.AsJacobian(&pointJac)
	secp.ScalarMultNonConst(scalar, &pointJac, &shared)
	if shared.Z.IsZero() {
		return nil, validation.Errorf("inputs", "ECDH produced the point at infinity")
	}
	shared.ToAffine()
	return secp.NewPublicKey(&shared.X, &shared.Y).SerializeCompressed(), nil
}

// outputTweak derives the per-output tweak for attempt k:
// TaggedHash("BIP0352/SharedSecret", ser(S) || ser32(k)), reduced mod the
// curve order. The returned 32-byte digest is exactly what a matched payment
// reports as its tweak data.
func outputTweak(sharedSecret []byte, k uint32) ([32]byte, *secp.ModNScalar) {
	idx := ser32(k)
	digest := bip340.TaggedHash(bip340.TagSharedSecret, sharedSecret, idx[:])

	scalar := new(secp.ModNScalar)
	scalar.SetBytes(&digest)
	return digest, scalar
}

// tweakedOutputKey computes the x-only key of spendPub + tweak*G.
func tweakedOutputKey(spendPub *secp.PublicKey, tweak *secp.ModNScalar) ([]byte, error) {
	compressed, err := addTweakPoint(spendPub, tweak)
	if err != nil {
		return nil, err
	}
	return compressed[1:], nil
}

// sumInputPubKeys aggregates the transaction's input public keys into the
// point the sender's aggregate scalar corresponds to.
func sumInputPubKeys(inputPubKeys [][]byte) (*secp.PublicKey, error) {
	if len(inputPubKeys) == 0 {
		return nil, validation.Errorf("inputPubKeys", "must not be empty")
	}

	var sum secp.JacobianPoint
	for i, pubKeyBytes := range inputPubKeys {
		pub, err := keys.ParsePublicKey("inputPubKeys", pubKeyBytes)
		if err != nil {
			return nil, validation.Errorf("inputPubKeys", "key %d: %v", i, err)
		}
		var pubJac, next secp.JacobianPoint
		pub.AsJacobian(&pubJac)
		secp.AddNonConst(&sum, &pubJac, &next)
		sum = next
	}
	if sum.Z.IsZero() {
		return nil, validation.Errorf("inputPubKeys", "keys sum to the point at infinity")
	}
	sum.ToAffine()
	return secp.NewPublicKey(&sum.X, &sum.Y), nil
}
