package silentpayments

import (
	"bytes"

	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// OutpointSize is the serialized size of a transaction outpoint
// (32-byte txid || 4-byte output index).
const OutpointSize = 36

// CandidateOutput is one taproot output of a transaction under scan.
type CandidateOutput struct {
	// PubKey is the 32-byte x-only output key from the scriptPubKey.
	PubKey []byte
	// Amount in satoshis.
	Amount uint64
}

// ReceivedPayment is a detected incoming payment.
type ReceivedPayment struct {
	// OutputIndex is the position of the matched output in the candidate
	// set (the transaction's vout).
	OutputIndex int
	// Amount in satoshis.
	Amount uint64
	// TweakData is the 32-byte tagged-hash digest of the attempt that
	// matched. It must reach DeriveSpendingKey unmodified; altering it
	// loses the funds.
	TweakData []byte
	// TweakedPubKey is the matched 32-byte x-only output key.
	TweakedPubKey []byte
}

// ScanForPayments detects which candidate outputs pay the recipient.
//
// inputPubKeys are the public keys of all the transaction's inputs; the
// scanner reconstructs the sender's aggregate point from them and computes
// the sender's ECDH point as scanPrivateKey * sum(inputPubKeys). For
// attempts k = 0, 1, ... (one per candidate output, since a transaction may
// carry several payments to the same recipient) it derives the candidate
// key spendPubKey + tweak_k*G and compares it against every still-unmatched
// output. Matched outputs are consumed so no output can match twice.
//
// A transaction that was not addressed to this recipient yields an empty
// result, not an error.
func ScanForPayments(scanPrivateKey, spendPubKey []byte, inputPubKeys, outpoints [][]byte,
	candidates []CandidateOutput) ([]ReceivedPayment, error) {

	if err := keys.CheckPrivateKey("scanPrivateKey", scanPrivateKey); err != nil {
		return nil, err
	}
	spendPub, err := keys.ParsePublicKey("spendPubKey", spendPubKey)
	if err != nil {
		return nil, err
	}
	if len(outpoints) == 0 {
		return nil, validation.Errorf("outpoints", "must not be empty")
	}
	for i, op := range outpoints {
		if len(op) != OutpointSize {
			return nil, validation.Errorf("outpoints", "outpoint %d must be %d bytes, got %d", i, OutpointSize, len(op))
		}
	}
	for i, c := range candidates {
		if len(c.PubKey) != 32 {
			return nil, validation.Errorf("candidateOutputs", "output %d key must be 32 bytes, got %d", i, len(c.PubKey))
		}
	}

	inputSum, err := sumInputPubKeys(inputPubKeys)
	if err != nil {
		return nil, err
	}

	var scanScalar secp.ModNScalar
	scanScalar.SetByteSlice(scanPrivateKey)
	defer scanScalar.Zero()

	// Mirror of the sender's ECDH point: b_scan * sum(A) == a_sum * B_scan.
	sharedSecret, err := ecdhSharedSecret(&scanScalar, inputSum)
	if err != nil {
		return nil, err
	}
	defer keys.Zero(sharedSecret)

	matched := make([]bool, len(candidates))
	payments := []ReceivedPayment{}

	for k := 0; k < len(candidates); k++ {
		tweakData, tweak := outputTweak(sharedSecret, uint32(k))
		candidateKey, err := tweakedOutputKey(spendPub, tweak)
		tweak.Zero()
		if err != nil {
			return nil, err
		}

		for i := range candidates {
			if matched[i] || !bytes.Equal(candidateKey, candidates[i].PubKey) {
				continue
			}
			matched[i] = true
			payments = append(payments, ReceivedPayment{
				OutputIndex:   i,
				Amount:        candidates[i].Amount,
				TweakData:     append([]byte(nil), tweakData[:]...),
				TweakedPubKey: append([]byte(nil), candidates[i].PubKey...),
			})
			break
		}
	}
	return payments, nil
}
