package silentpayments

import (
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/sip-protocol/sip-bitcoin/pkg/hexutil"
	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// DeriveSpendingKey combines a detected payment's tweak with the spend
// private key to produce the one-time key that spends the output:
//
//	spendingKey = (spendPrivateKey + tweakData) mod n
//
// The public key of the result equals the payment's tweaked output key; that
// is the fund-recoverability invariant of the whole scheme. For payments to
// a labeled address, spendPrivateKey must already include the label tweak
// (see TweakPrivateKeyWithLabel).
func DeriveSpendingKey(payment *ReceivedPayment, spendPrivateKey []byte) ([]byte, error) {
	if payment == nil {
		return nil, validation.Errorf("payment", "must not be nil")
	}
	if len(payment.TweakData) != 32 {
		return nil, validation.Errorf("payment", "tweak data must be 32 bytes, got %d", len(payment.TweakData))
	}
	if err := keys.CheckPrivateKey("spendPrivateKey", spendPrivateKey); err != nil {
		return nil, err
	}

	var sum, tweak secp.ModNScalar
	sum.SetByteSlice(spendPrivateKey)
	tweak.SetByteSlice(payment.TweakData)
	sum.Add(&tweak)
	defer sum.Zero()
	defer tweak.Zero()

	if sum.IsZero() {
		return nil, validation.Errorf("payment", "derived spending key is zero")
	}
	out := sum.Bytes()
	return append([]byte(nil), out[:]...), nil
}

// DeriveSpendingKeyHex is the hex variant of DeriveSpendingKey.
func DeriveSpendingKeyHex(tweakDataHex, spendPrivateKeyHex string) (string, error) {
	tweakData, err := hexutil.DecodeFixed("tweakData", tweakDataHex, 32)
	if err != nil {
		return "", err
	}
	spendPrivateKey, err := hexutil.DecodeFixed("spendPrivateKey", spendPrivateKeyHex, 32)
	if err != nil {
		return "", err
	}
	defer keys.Zero(spendPrivateKey)

	spendingKey, err := DeriveSpendingKey(&ReceivedPayment{TweakData: tweakData}, spendPrivateKey)
	if err != nil {
		return "", err
	}
	defer keys.Zero(spendingKey)
	return hexutil.Encode(spendingKey), nil
}
