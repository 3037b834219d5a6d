// Package bip340 implements BIP 340 Schnorr signatures and the tagged-hash
// construction shared by the taproot and silent-payment packages.
//
// Key formats:
//   - Private keys: raw 32 bytes, 0 < k < curve order
//   - Public keys: 32-byte x-only form (even-y convention)
//   - Signatures: 64 bytes (R.x || s)
//
// Curve arithmetic is delegated to btcec/v2's schnorr package, which
// implements the BIP 340 signing and verification algorithms and is
// cross-tested against the reference vectors upstream. Signing is
// deterministic when the caller supplies the 32-byte auxiliary randomness.
//
// References:
//   - BIP 340: https://github.com/bitcoin/bips/blob/master/bip-0340.mediawiki
package bip340

import "crypto/sha256"

// Tags used across the SDK. Each tag domain-separates one hash usage as
// SHA256(SHA256(tag) || SHA256(tag) || data).
const (
	// TagTapTweak commits an internal taproot key to its script root (BIP 341).
	TagTapTweak = "TapTweak"
	// TagTapLeaf hashes a single tapscript leaf (BIP 341).
	TagTapLeaf = "TapLeaf"
	// TagTapBranch hashes a sorted pair of tapscript nodes (BIP 341).
	TagTapBranch = "TapBranch"
	// TagSharedSecret derives per-output tweaks from the ECDH point (BIP 352).
	TagSharedSecret = "BIP0352/SharedSecret"
	// TagLabel derives label tweaks for silent-payment addresses (BIP 352).
	TagLabel = "BIP0352/Label"
)

// TaggedHash computes the BIP 340 tagged hash of the concatenated data:
//
//	SHA256(SHA256(tag) || SHA256(tag) || data[0] || data[1] || ...)
//
// The doubled tag digest keeps the prefix a 64-byte block so implementations
// can cache the SHA-256 midstate, and guarantees digests from different tags
// never collide with each other or with plain SHA-256.
func TaggedHash(tag string, data ...[]byte) [32]byte {
	tagHash := sha256.Sum256([]byte(tag))

	h := sha256.New()
	h.Write(tagHash[:])
	h.Write(tagHash[:])
	for _, d := range data {
		h.Write(d)
	}

	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}
