package silentpayments

import (
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/taproot"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// Input is one UTXO the sender spends from. The private key must be the key
// that controls the input; all input keys are aggregated into the ECDH
// scalar, so a wrong key silently produces an output the recipient will
// never find.
type Input struct {
	TxID         [32]byte
	Vout         uint32
	ScriptPubKey []byte
	PrivateKey   []byte
}

// Output is a derived silent-payment output ready to embed in a
// transaction.
type Output struct {
	// ScriptPubKey is the 34-byte P2TR script: OP_1 0x20 <x-only key>.
	ScriptPubKey []byte
	// TweakedPubKey is the 32-byte x-only one-time output key.
	TweakedPubKey []byte
	// Amount in satoshis.
	Amount uint64
}

// CreateOutput derives the one-time taproot output for a payment to
// recipientAddress.
//
// The derivation is deterministic in (recipient address, input private keys,
// outputIndex): distinct output indices or distinct input sets produce
// distinct, unlinkable output keys. A transaction paying the same recipient
// more than once must use increasing output indices starting at 0, matching
// the scanner's attempt order.
func CreateOutput(recipientAddress string, inputs []Input, amount uint64, outputIndex uint32) (*Output, error) {
	recipient, err := DecodeAddress(recipientAddress)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, validation.Errorf("inputs", "must not be empty")
	}
	if amount == 0 {
		return nil, validation.Errorf("amount", "must be positive")
	}

	// Aggregate the input private keys mod the curve order.
	var aggregate secp.ModNScalar
	defer aggregate.Zero()
	for i, input := range inputs {
		if err := keys.CheckPrivateKey("inputs", input.PrivateKey); err != nil {
			return nil, validation.Errorf("inputs", "input %d: %v", i, err)
		}
		var k secp.ModNScalar
		k.SetByteSlice(input.PrivateKey)
		aggregate.Add(&k)
		k.Zero()
	}
	if aggregate.IsZero() {
		return nil, validation.Errorf("inputs", "private keys sum to zero")
	}

	scanPub, err := keys.ParsePublicKey("recipientAddress", recipient.ScanPubKey)
	if err != nil {
		return nil, err
	}
	spendPub, err := keys.ParsePublicKey("recipientAddress", recipient.SpendPubKey)
	if err != nil {
		return nil, err
	}

	// S = a * scanPubKey.
	sharedSecret, err := ecdhSharedSecret(&aggregate, scanPub)
	if err != nil {
		return nil, err
	}
	defer keys.Zero(sharedSecret)

	tweakData, tweak := outputTweak(sharedSecret, outputIndex)
	defer tweak.Zero()
	keys.Zero(tweakData[:])

	outputKey, err := tweakedOutputKey(spendPub, tweak)
	if err != nil {
		return nil, err
	}

	script, err := taproot.PayToTaprootScript(outputKey)
	if err != nil {
		return nil, err
	}
	return &Output{
		ScriptPubKey:  script,
		TweakedPubKey: outputKey,
		Amount:        amount,
	}, nil
}
