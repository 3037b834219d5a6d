package keys

import (
	"crypto/sha256"

	"github.com/btcsuite/btcutil/base58"

	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// WIF version bytes.
const (
	wifVersionMainnet = 0x80
	wifVersionTestnet = 0xef
)

// DecodeWIF decodes a WIF-encoded private key and reports whether it carries
// the compressed-public-key flag.
//
// WIF format: version || private key (32 bytes) || [0x01 compression flag] ||
// checksum (first 4 bytes of double SHA-256).
func DecodeWIF(wif string) (privateKey []byte, compressed bool, err error) {
	decoded := base58.Decode(wif)
	defer Zero(decoded)

	if len(decoded) != 37 && len(decoded) != 38 {
		return nil, false, validation.Errorf("wif", "invalid length")
	}

	version := decoded[0]
	if version != wifVersionMainnet && version != wifVersionTestnet {
		return nil, false, validation.Errorf("wif", "invalid version byte 0x%02x", version)
	}

	checksumOffset := len(decoded) - 4
	payload := decoded[:checksumOffset]
	providedChecksum := decoded[checksumOffset:]

	hash1 := sha256.Sum256(payload)
	hash2 := sha256.Sum256(hash1[:])
	for i := 0; i < 4; i++ {
		if providedChecksum[i] != hash2[i] {
			return nil, false, validation.Errorf("wif", "checksum mismatch")
		}
	}

	compressed = len(decoded) == 38
	if compressed && decoded[33] != 0x01 {
		return nil, false, validation.Errorf("wif", "invalid compression flag 0x%02x", decoded[33])
	}

	privateKey = append([]byte(nil), payload[1:33]...)
	if err := CheckPrivateKey("privateKey", privateKey); err != nil {
		Zero(privateKey)
		return nil, false, err
	}
	return privateKey, compressed, nil
}

// EncodeWIF encodes a raw private key to WIF.
func EncodeWIF(privateKey []byte, compressed, testnet bool) (string, error) {
	if err := CheckPrivateKey("privateKey", privateKey); err != nil {
		return "", err
	}

	version := byte(wifVersionMainnet)
	if testnet {
		version = wifVersionTestnet
	}

	payload := make([]byte, 0, 38)
	payload = append(payload, version)
	payload = append(payload, privateKey...)
	if compressed {
		payload = append(payload, 0x01)
	}

	hash1 := sha256.Sum256(payload)
	hash2 := sha256.Sum256(hash1[:])
	payload = append(payload, hash2[:4]...)

	encoded := base58.Encode(payload)
	Zero(payload)
	return encoded, nil
}
