// Package taproot implements BIP 341 taproot output construction and BIP 350
// taproot address encoding.
//
// A taproot output key commits an internal key to an optional script tree:
//
//	tweak  = TaggedHash("TapTweak", internalKey || merkleRoot?)
//	output = lift_x(internalKey) + tweak*G
//
// where lift_x interprets the 32-byte x-only internal key as the curve point
// with even y. The resulting output key is again x-only; the parity of the
// unreduced sum is retained because script-path spends need it.
//
// Only single-leaf script trees are supported. A tree with two or more
// leaves requires BIP 341's sorted-pair merkle construction, which this
// package deliberately rejects rather than approximates; the ScriptTree
// variant type keeps that extension additive.
//
// References:
//   - BIP 341: https://github.com/bitcoin/bips/blob/master/bip-0341.mediawiki
package taproot

import (
	"encoding/binary"

	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/sip-protocol/sip-bitcoin/pkg/bip340"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// BaseLeafVersion is the tapscript leaf version defined by BIP 342.
const BaseLeafVersion byte = 0xc0

// witnessVersion is the segwit version for taproot outputs.
const witnessVersion byte = 1

// TapScript is a single tapscript leaf.
type TapScript struct {
	Script      []byte
	LeafVersion byte
}

// ScriptTree is the tagged representation of a taproot script tree. The two
// variants are Leaf and Branch; only Leaf trees can currently be committed
// to an output key.
type ScriptTree interface {
	// RootHash computes the merkle root committed by this (sub)tree.
	RootHash() ([32]byte, error)
}

// Leaf is a script tree consisting of a single tapscript.
type Leaf struct {
	TapScript
}

// RootHash of a leaf is its BIP 341 TapLeaf hash.
func (l Leaf) RootHash() ([32]byte, error) {
	return LeafHash(l.TapScript), nil
}

// Branch is an interior script-tree node. Committing a branch requires the
// sorted-pair TapBranch construction, which is not implemented; RootHash
// always fails. The variant exists so a future multi-leaf implementation is
// an additive change.
type Branch struct {
	Left, Right ScriptTree
}

// RootHash on a branch is a hard error: multi-leaf trees are unsupported.
func (b Branch) RootHash() ([32]byte, error) {
	return [32]byte{}, validation.Errorf("scripts", "multi-leaf script trees are not supported")
}

// LeafHash computes the BIP 341 TapLeaf hash:
//
//	TaggedHash("TapLeaf", leafVersion || compactSize(len(script)) || script)
func LeafHash(s TapScript) [32]byte {
	encoded := make([]byte, 0, 1+9+len(s.Script))
	encoded = append(encoded, s.LeafVersion)
	encoded = appendCompactSize(encoded, uint64(len(s.Script)))
	encoded = append(encoded, s.Script...)
	return bip340.TaggedHash(bip340.TagTapLeaf, encoded)
}

// appendCompactSize appends the Bitcoin variable-length integer encoding of n.
func appendCompactSize(b []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(b, byte(n))
	case n <= 0xffff:
		b = append(b, 0xfd)
		return binary.LittleEndian.AppendUint16(b, uint16(n))
	case n <= 0xffffffff:
		b = append(b, 0xfe)
		return binary.LittleEndian.AppendUint32(b, uint32(n))
	default:
		b = append(b, 0xff)
		return binary.LittleEndian.AppendUint64(b, n)
	}
}

// Output is a constructed taproot output.
type Output struct {
	// TweakedKey is the 32-byte x-only output key placed on chain.
	TweakedKey []byte
	// InternalKey is the 32-byte x-only key the output commits to.
	InternalKey []byte
	// MerkleRoot is the committed script root, nil for key-path-only
	// outputs.
	MerkleRoot []byte
	// Parity is the y-parity (0 or 1) of the unreduced tweaked point.
	Parity byte
}

// ComputeTweakedKey applies the TapTweak to an x-only internal key and
// returns the resulting x-only output key along with the true y-parity of
// the sum. merkleRoot may be nil for a key-path-only commitment. The same
// inputs always produce the same output.
func ComputeTweakedKey(internalKey, merkleRoot []byte) ([]byte, byte, error) {
	if len(internalKey) != 32 {
		return nil, 0, validation.Errorf("internalKey", "must be 32 bytes, got %d", len(internalKey))
	}
	if merkleRoot != nil && len(merkleRoot) != 32 {
		return nil, 0, validation.Errorf("merkleRoot", "must be 32 bytes, got %d", len(merkleRoot))
	}

	internal, err := liftX(internalKey)
	if err != nil {
		return nil, 0, err
	}

	var tweakHash [32]byte
	if merkleRoot == nil {
		tweakHash = bip340.TaggedHash(bip340.TagTapTweak, internalKey)
	} else {
		tweakHash = bip340.TaggedHash(bip340.TagTapTweak, internalKey, merkleRoot)
	}

	var tweak secp.ModNScalar
	if overflow := tweak.SetBytes(&tweakHash); overflow != 0 {
		return nil, 0, validation.Errorf("internalKey", "tweak exceeds the curve order")
	}

	var internalJac, tweakPoint, sum secp.JacobianPoint
	internal.AsJacobian(&internalJac)
	secp.ScalarBaseMultNonConst(&tweak, &tweakPoint)
	secp.AddNonConst(&internalJac, &tweakPoint, &sum)
	if sum.Z.IsZero() {
		return nil, 0, validation.Errorf("internalKey", "tweaked key is the point at infinity")
	}
	sum.ToAffine()

	parity := byte(0)
	if sum.Y.IsOdd() {
		parity = 1
	}
	x := sum.X.Bytes()
	return append([]byte(nil), x[:]...), parity, nil
}

// CreateOutput builds a taproot output for an internal key with zero scripts
// (key-path-only) or exactly one tapscript leaf. Two or more scripts are a
// hard error; see the package documentation.
func CreateOutput(internalKey []byte, scripts ...TapScript) (*Output, error) {
	if len(scripts) > 1 {
		return nil, validation.Errorf("scripts", "multi-leaf script trees are not supported, got %d scripts", len(scripts))
	}

	var merkleRoot []byte
	if len(scripts) == 1 {
		root, err := Leaf{scripts[0]}.RootHash()
		if err != nil {
			return nil, err
		}
		merkleRoot = root[:]
	}

	tweaked, parity, err := ComputeTweakedKey(internalKey, merkleRoot)
	if err != nil {
		return nil, err
	}
	return &Output{
		TweakedKey:  tweaked,
		InternalKey: append([]byte(nil), internalKey...),
		MerkleRoot:  merkleRoot,
		Parity:      parity,
	}, nil
}

// liftX interprets a 32-byte x coordinate as the curve point with even y.
func liftX(xOnly []byte) (*secp.PublicKey, error) {
	compressed := make([]byte, 33)
	compressed[0] = secp.PubKeyFormatCompressedEven
	copy(compressed[1:], xOnly)

	pub, err := secp.ParsePubKey(compressed)
	if err != nil {
		return nil, validation.Errorf("internalKey", "not a valid curve point x-coordinate")
	}
	return pub, nil
}

// PayToTaprootScript builds the 34-byte P2TR scriptPubKey for a 32-byte
// x-only output key: OP_1 OP_PUSHBYTES_32 <key>.
func PayToTaprootScript(tweakedKey []byte) ([]byte, error) {
	if len(tweakedKey) != 32 {
		return nil, validation.Errorf("tweakedKey", "must be 32 bytes, got %d", len(tweakedKey))
	}
	script := make([]byte, 0, 34)
	script = append(script, 0x51, 0x20)
	return append(script, tweakedKey...), nil
}
