// Package bech32m implements the BIP 350 Bech32m checksummed base-32 codec.
//
// Bech32m is the successor to Bech32 (BIP 173) used for witness version 1+
// Bitcoin addresses. The two encodings share their character set and polymod
// but differ in the final checksum constant: Bech32 uses 1, Bech32m uses
// 0x2bc830a3. Decoding here verifies the Bech32m checksum and never accepts a
// legacy Bech32 checksum.
//
// Data is exchanged as 5-bit groups; ConvertBits regroups between 8-bit bytes
// and 5-bit groups with the explicit padding rules of BIP 173.
//
// References:
//   - BIP 350: https://github.com/bitcoin/bips/blob/master/bip-0350.mediawiki
package bech32m

import (
	"strings"

	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// Charset is the Bech32 character set; the index of a character is its
// 5-bit value.
const Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// checksumConst distinguishes Bech32m from legacy Bech32 (which uses 1).
const checksumConst = 0x2bc830a3

const (
	// MaxLengthBIP350 is the overall string limit for segwit addresses.
	MaxLengthBIP350 = 90

	// MaxLengthSilentPayment is the relaxed limit used for BIP 352
	// silent-payment addresses, whose 66-byte payload exceeds 90
	// characters.
	MaxLengthSilentPayment = 1023
)

// generator holds the five BIP 350 generator constants for the polymod.
var generator = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

// polymod computes the Bech32 checksum over the given 5-bit values.
func polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		b := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (b>>uint(i))&1 == 1 {
				chk ^= generator[i]
			}
		}
	}
	return chk
}

// hrpExpand splits each HRP character into its high bits and low bits with a
// zero separator, as mandated by BIP 173.
func hrpExpand(hrp string) []byte {
	expanded := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		expanded = append(expanded, hrp[i]>>5)
	}
	expanded = append(expanded, 0)
	for i := 0; i < len(hrp); i++ {
		expanded = append(expanded, hrp[i]&31)
	}
	return expanded
}

// Encode encodes 5-bit data groups under the given human-readable prefix and
// appends the six-character Bech32m checksum. The HRP must already be lower
// case; data values must all be below 32.
func Encode(hrp string, data []byte) (string, error) {
	if len(hrp) == 0 {
		return "", validation.Errorf("hrp", "must not be empty")
	}
	for i := 0; i < len(hrp); i++ {
		c := hrp[i]
		if c < 33 || c > 126 {
			return "", validation.Errorf("hrp", "character %d outside US-ASCII 33-126 range", c)
		}
		if c >= 'A' && c <= 'Z' {
			return "", validation.Errorf("hrp", "must be lower case")
		}
	}
	for _, v := range data {
		if v >= 32 {
			return "", validation.Errorf("data", "value %d does not fit in 5 bits", v)
		}
	}

	values := append(hrpExpand(hrp), data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	mod := polymod(values) ^ checksumConst

	var sb strings.Builder
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, v := range data {
		sb.WriteByte(Charset[v])
	}
	for i := 0; i < 6; i++ {
		sb.WriteByte(Charset[(mod>>uint(5*(5-i)))&31])
	}
	return sb.String(), nil
}

// Decode decodes a Bech32m string subject to the standard 90-character limit
// and returns the HRP and the 5-bit data groups with the checksum stripped.
// The checksum is always verified; any malformation is a validation error.
func Decode(encoded string) (string, []byte, error) {
	return DecodeWithLimit(encoded, MaxLengthBIP350)
}

// DecodeWithLimit decodes a Bech32m string with a caller-chosen overall
// length limit (silent-payment addresses exceed the BIP 350 limit).
func DecodeWithLimit(encoded string, maxLength int) (string, []byte, error) {
	if len(encoded) > maxLength {
		return "", nil, validation.Errorf("address", "length %d exceeds limit %d", len(encoded), maxLength)
	}

	hasLower, hasUpper := false, false
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c < 33 || c > 126 {
			return "", nil, validation.Errorf("address", "character %d outside US-ASCII 33-126 range", c)
		}
		hasLower = hasLower || (c >= 'a' && c <= 'z')
		hasUpper = hasUpper || (c >= 'A' && c <= 'Z')
	}
	if hasLower && hasUpper {
		return "", nil, validation.Errorf("address", "mixed case")
	}
	encoded = strings.ToLower(encoded)

	sep := strings.LastIndexByte(encoded, '1')
	if sep == -1 {
		return "", nil, validation.Errorf("address", "missing separator")
	}
	if sep == 0 {
		return "", nil, validation.Errorf("address", "empty human-readable part")
	}
	if len(encoded)-sep-1 < 6 {
		return "", nil, validation.Errorf("address", "data part too short for checksum")
	}

	hrp := encoded[:sep]
	data := make([]byte, 0, len(encoded)-sep-1)
	for i := sep + 1; i < len(encoded); i++ {
		v := strings.IndexByte(Charset, encoded[i])
		if v == -1 {
			return "", nil, validation.Errorf("address", "character %q not in charset", encoded[i])
		}
		data = append(data, byte(v))
	}

	if polymod(append(hrpExpand(hrp), data...)) != checksumConst {
		return "", nil, validation.Errorf("address", "checksum mismatch")
	}
	return hrp, data[:len(data)-6], nil
}

// ConvertBits regroups data between bit widths. Encoding bytes for an address
// uses (8, 5, pad=true); decoding back uses (5, 8, pad=false), which rejects
// both non-zero padding bits and an incomplete trailing group.
func ConvertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	if fromBits < 1 || fromBits > 8 || toBits < 1 || toBits > 8 {
		return nil, validation.Errorf("bits", "groups must be 1-8 bits")
	}

	acc := uint32(0)
	bits := uint(0)
	maxv := uint32(1<<toBits) - 1
	out := make([]byte, 0, len(data)*int(fromBits)/int(toBits)+1)

	for _, b := range data {
		if uint32(b)>>fromBits != 0 {
			return nil, validation.Errorf("data", "value %d does not fit in %d bits", b, fromBits)
		}
		acc = acc<<fromBits | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			out = append(out, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits {
		return nil, validation.Errorf("data", "incomplete group")
	} else if (acc<<(toBits-bits))&maxv != 0 {
		return nil, validation.Errorf("data", "non-zero padding bits")
	}
	return out, nil
}
