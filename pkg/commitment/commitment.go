// Package commitment implements Pedersen commitments over secp256k1.
//
// A commitment hides a value v under a random blinding factor r:
//
//	C = v*G + r*H
//
// where G is the curve's base generator and H is an independent generator
// derived with a nothing-up-my-sleeve construction, so nobody knows the
// discrete log of H with respect to G. Commitments are additively
// homomorphic: C1 + C2 commits to (v1+v2) under blinding (r1+r2), which is
// what lets value-balance proofs work without revealing amounts.
//
// This package provides only the commitment primitive; proof composition on
// top of it lives outside this SDK.
package commitment

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// hDomain seeds the NUMS derivation of generator H.
const hDomain = "SIP-PEDERSEN-GENERATOR-H-v1"

// BlindingSize is the byte length of a blinding factor.
const BlindingSize = 32

// generatorH is the independent generator, derived once at init.
var generatorH secp.JacobianPoint

func init() {
	// Hash the domain tag with an increasing counter until the digest is a
	// valid x-coordinate, then take the even-y point. The first valid
	// candidate is fixed forever by the domain string.
	for counter := 0; counter < 256; counter++ {
		digest := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", hDomain, counter)))

		candidate := make([]byte, 33)
		candidate[0] = secp.PubKeyFormatCompressedEven
		copy(candidate[1:], digest[:])

		pub, err := secp.ParsePubKey(candidate)
		if err == nil {
			pub.AsJacobian(&generatorH)
			return
		}
	}
	panic("commitment: no valid H candidate in 256 attempts")
}

// Commitment is a Pedersen commitment together with its opening.
type Commitment struct {
	// Commitment is the 33-byte compressed commitment point.
	Commitment []byte
	// Blinding is the 32-byte blinding factor. Secret; required to open.
	Blinding []byte
}

// Commit commits to value under a fresh random blinding factor.
func Commit(value uint64) (*Commitment, error) {
	blinding := make([]byte, BlindingSize)
	if _, err := rand.Read(blinding); err != nil {
		return nil, fmt.Errorf("failed to generate blinding: %w", err)
	}
	return CommitWithBlinding(value, blinding)
}

// CommitWithBlinding commits to value under a caller-supplied blinding
// factor.
func CommitWithBlinding(value uint64, blinding []byte) (*Commitment, error) {
	rScalar, err := blindingScalar(blinding)
	if err != nil {
		return nil, err
	}
	defer rScalar.Zero()

	point, err := commitPoint(value, rScalar)
	if err != nil {
		return nil, err
	}
	return &Commitment{
		Commitment: point,
		Blinding:   append([]byte(nil), blinding...),
	}, nil
}

// VerifyOpening checks that commitment opens to (value, blinding). A
// mismatch is an ordinary false, not an error.
func VerifyOpening(commitment []byte, value uint64, blinding []byte) (bool, error) {
	parsed, err := keys.ParsePublicKey("commitment", commitment)
	if err != nil {
		return false, err
	}
	rScalar, err := blindingScalar(blinding)
	if err != nil {
		return false, err
	}
	defer rScalar.Zero()

	expected, err := commitPoint(value, rScalar)
	if err != nil {
		return false, err
	}
	expectedPub, err := secp.ParsePubKey(expected)
	if err != nil {
		return false, err
	}
	return parsed.IsEqual(expectedPub), nil
}

// Add combines two commitments homomorphically: the result commits to the
// sum of the values under the sum of the blindings.
func Add(c1, c2 []byte) ([]byte, error) {
	p1, err := keys.ParsePublicKey("c1", c1)
	if err != nil {
		return nil, err
	}
	p2, err := keys.ParsePublicKey("c2", c2)
	if err != nil {
		return nil, err
	}

	var j1, j2, sum secp.JacobianPoint
	p1.AsJacobian(&j1)
	p2.AsJacobian(&j2)
	secp.AddNonConst(&j1, &j2, &sum)
	if sum.Z.IsZero() {
		return nil, validation.Errorf("c2", "commitments cancel to the point at infinity")
	}
	sum.ToAffine()
	return secp.NewPublicKey(&sum.X, &sum.Y).SerializeCompressed(), nil
}

// Subtract computes c1 - c2, committing to the value difference under the
// blinding difference.
func Subtract(c1, c2 []byte) ([]byte, error) {
	p2, err := keys.ParsePublicKey("c2", c2)
	if err != nil {
		return nil, err
	}

	var j2 secp.JacobianPoint
	p2.AsJacobian(&j2)
	j2.Y.Negate(1)
	j2.Y.Normalize()
	j2.ToAffine()

	return Add(c1, secp.NewPublicKey(&j2.X, &j2.Y).SerializeCompressed())
}

// AddBlindings adds two blinding factors mod the curve order, for use with
// Add.
func AddBlindings(b1, b2 []byte) ([]byte, error) {
	return combineBlindings(b1, b2, false)
}

// SubtractBlindings subtracts b2 from b1 mod the curve order, for use with
// Subtract.
func SubtractBlindings(b1, b2 []byte) ([]byte, error) {
	return combineBlindings(b1, b2, true)
}

func combineBlindings(b1, b2 []byte, negate bool) ([]byte, error) {
	s1, err := blindingScalar(b1)
	if err != nil {
		return nil, err
	}
	defer s1.Zero()
	s2, err := blindingScalar(b2)
	if err != nil {
		return nil, err
	}
	defer s2.Zero()

	if negate {
		s2.Negate()
	}
	s1.Add(s2)
	out := s1.Bytes()
	return append([]byte(nil), out[:]...), nil
}

// blindingScalar parses and validates a 32-byte blinding factor.
func blindingScalar(blinding []byte) (*secp.ModNScalar, error) {
	if len(blinding) != BlindingSize {
		return nil, validation.Errorf("blinding", "must be %d bytes, got %d", BlindingSize, len(blinding))
	}
	s := new(secp.ModNScalar)
	s.SetByteSlice(blinding)
	if s.IsZero() {
		return nil, validation.Errorf("blinding", "must not be zero")
	}
	return s, nil
}

// commitPoint computes v*G + r*H in compressed form.
func commitPoint(value uint64, r *secp.ModNScalar) ([]byte, error) {
	var rH secp.JacobianPoint
	secp.ScalarMultNonConst(r, &generatorH, &rH)

	var result secp.JacobianPoint
	if value == 0 {
		// Only the blinding contributes: C = r*H.
		result = rH
	} else {
		var vScalar secp.ModNScalar
		vScalar.SetByteSlice(valueBytes(value))

		var vG secp.JacobianPoint
		secp.ScalarBaseMultNonConst(&vScalar, &vG)
		secp.AddNonConst(&vG, &rH, &result)
	}

	if result.Z.IsZero() {
		return nil, validation.Errorf("value", "commitment is the point at infinity")
	}
	result.ToAffine()
	return secp.NewPublicKey(&result.X, &result.Y).SerializeCompressed(), nil
}

// valueBytes encodes a uint64 value as a 32-byte big-endian scalar.
func valueBytes(value uint64) []byte {
	b := make([]byte, 32)
	for i := 0; i < 8; i++ {
		b[31-i] = byte(value >> (8 * i))
	}
	return b
}
