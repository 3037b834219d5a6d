package silentpayments

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sip-protocol/sip-bitcoin/pkg/bip340"
	"github.com/sip-protocol/sip-bitcoin/pkg/chain"
	"github.com/sip-protocol/sip-bitcoin/pkg/hexutil"
	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// wallet bundles a recipient's key material for tests.
type wallet struct {
	scanPriv  []byte
	spendPriv []byte
	scanPub   []byte
	spendPub  []byte
	address   string
}

func newWallet(t *testing.T, network chain.Network) *wallet {
	t.Helper()

	scanPriv, err := keys.GeneratePrivateKey()
	require.NoError(t, err)
	spendPriv, err := keys.GeneratePrivateKey()
	require.NoError(t, err)
	scanPub, err := keys.PublicKey(scanPriv)
	require.NoError(t, err)
	spendPub, err := keys.PublicKey(spendPriv)
	require.NoError(t, err)

	addr, err := NewAddress(scanPub, spendPub, network)
	require.NoError(t, err)

	return &wallet{
		scanPriv:  scanPriv,
		spendPriv: spendPriv,
		scanPub:   scanPub,
		spendPub:  spendPub,
		address:   addr.Address,
	}
}

// newInputs builds n funded inputs with fresh keys and random outpoints, and
// returns the inputs together with the public keys and serialized outpoints
// the scanner sees on chain.
func newInputs(t *testing.T, n int) ([]Input, [][]byte, [][]byte) {
	t.Helper()

	inputs := make([]Input, n)
	pubKeys := make([][]byte, n)
	outpoints := make([][]byte, n)
	for i := 0; i < n; i++ {
		priv, err := keys.GeneratePrivateKey()
		require.NoError(t, err)
		pub, err := keys.PublicKey(priv)
		require.NoError(t, err)

		var txid [32]byte
		_, err = rand.Read(txid[:])
		require.NoError(t, err)

		inputs[i] = Input{TxID: txid, Vout: uint32(i), PrivateKey: priv}
		pubKeys[i] = pub

		op := make([]byte, OutpointSize)
		copy(op, txid[:])
		binary.LittleEndian.PutUint32(op[32:], uint32(i))
		outpoints[i] = op
	}
	return inputs, pubKeys, outpoints
}

func TestAddressRoundTrip(t *testing.T) {
	tests := []struct {
		network chain.Network
		prefix  string
	}{
		{chain.Mainnet, "sp1"},
		{chain.Testnet, "tsp1"},
		{chain.Regtest, "tsp1"},
	}

	for _, tc := range tests {
		t.Run(string(tc.network), func(t *testing.T) {
			w := newWallet(t, tc.network)
			assert.True(t, strings.HasPrefix(w.address, tc.prefix), "address %s", w.address)

			decoded, err := DecodeAddress(w.address)
			require.NoError(t, err)
			assert.Equal(t, w.scanPub, decoded.ScanPubKey)
			assert.Equal(t, w.spendPub, decoded.SpendPubKey)
			assert.Nil(t, decoded.Label)

			// Regtest shares the testnet prefix, so it decodes as testnet.
			want := tc.network
			if want == chain.Regtest {
				want = chain.Testnet
			}
			assert.Equal(t, want, decoded.Network)
		})
	}
}

func TestDecodeAddressRejectsMalformed(t *testing.T) {
	w := newWallet(t, chain.Mainnet)

	t.Run("checksum mutation", func(t *testing.T) {
		i := len(w.address) / 2
		replacement := byte('q')
		if w.address[i] == replacement {
			replacement = 'p'
		}
		mutated := w.address[:i] + string(replacement) + w.address[i+1:]
		_, err := DecodeAddress(mutated)
		require.Error(t, err)
		assert.True(t, validation.IsValidationError(err))
	})

	t.Run("taproot address is not a silent-payment address", func(t *testing.T) {
		_, err := DecodeAddress("bc1p5d7rjq7g6rdk2yhzks9smlaqtedr4dekq08ge8ztwac72sfr9rusxg3297")
		require.Error(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeAddress(w.address[:40])
		require.Error(t, err)
	})
}

func TestLabeledAddress(t *testing.T) {
	w := newWallet(t, chain.Mainnet)

	labeled, err := NewLabeledAddress(w.scanPriv, w.spendPub, chain.Mainnet, 7)
	require.NoError(t, err)
	require.NotNil(t, labeled.Label)
	assert.Equal(t, uint32(7), *labeled.Label)

	// The label moves the spend key but leaves the scan key alone.
	assert.Equal(t, w.scanPub, labeled.ScanPubKey)
	assert.NotEqual(t, w.spendPub, labeled.SpendPubKey)
	assert.NotEqual(t, w.address, labeled.Address)

	// Distinct labels give distinct addresses.
	other, err := NewLabeledAddress(w.scanPriv, w.spendPub, chain.Mainnet, 8)
	require.NoError(t, err)
	assert.NotEqual(t, labeled.Address, other.Address)

	// The labeled spend public key corresponds to the label-tweak-adjusted
	// spend private key.
	tweakedPriv, err := TweakPrivateKeyWithLabel(w.spendPriv, w.scanPriv, 7)
	require.NoError(t, err)
	tweakedPub, err := keys.PublicKey(tweakedPriv)
	require.NoError(t, err)
	assert.Equal(t, labeled.SpendPubKey, tweakedPub)

	// Labels at or above 2^31 are invalid.
	_, err = NewLabeledAddress(w.scanPriv, w.spendPub, chain.Mainnet, MaxLabel+1)
	require.Error(t, err)
	_, err = LabelTweak(w.scanPriv, MaxLabel+1)
	require.Error(t, err)
}

func TestCreateOutputValidation(t *testing.T) {
	w := newWallet(t, chain.Mainnet)
	inputs, _, _ := newInputs(t, 1)

	_, err := CreateOutput(w.address, nil, 1000, 0)
	assert.True(t, validation.IsValidationError(err), "no inputs")

	_, err = CreateOutput(w.address, inputs, 0, 0)
	assert.True(t, validation.IsValidationError(err), "zero amount")

	_, err = CreateOutput("sp1notanaddress", inputs, 1000, 0)
	assert.Error(t, err, "bad address")

	bad := inputs
	bad[0].PrivateKey = make([]byte, 32)
	_, err = CreateOutput(w.address, bad, 1000, 0)
	assert.Error(t, err, "zero input key")
}

func TestEndToEndPaymentRecovery(t *testing.T) {
	w := newWallet(t, chain.Mainnet)
	inputs, inputPubKeys, outpoints := newInputs(t, 3)

	sent, err := CreateOutput(w.address, inputs, 50_000, 0)
	require.NoError(t, err)
	require.Len(t, sent.TweakedPubKey, 32)
	require.Len(t, sent.ScriptPubKey, 34)
	assert.Equal(t, sent.TweakedPubKey, sent.ScriptPubKey[2:])

	candidates := []CandidateOutput{{PubKey: sent.TweakedPubKey, Amount: sent.Amount}}
	payments, err := ScanForPayments(w.scanPriv, w.spendPub, inputPubKeys, outpoints, candidates)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 0, payments[0].OutputIndex)
	assert.Equal(t, uint64(50_000), payments[0].Amount)
	assert.Equal(t, sent.TweakedPubKey, payments[0].TweakedPubKey)

	// The derived spending key must control exactly the on-chain output key.
	spendingKey, err := DeriveSpendingKey(&payments[0], w.spendPriv)
	require.NoError(t, err)
	spendingPub, err := bip340.XOnlyPublicKey(spendingKey)
	require.NoError(t, err)
	assert.Equal(t, payments[0].TweakedPubKey, spendingPub)
}

func TestScanIgnoresForeignOutputs(t *testing.T) {
	recipient := newWallet(t, chain.Mainnet)
	bystander := newWallet(t, chain.Mainnet)
	inputs, inputPubKeys, outpoints := newInputs(t, 2)

	sent, err := CreateOutput(recipient.address, inputs, 10_000, 0)
	require.NoError(t, err)

	candidates := []CandidateOutput{{PubKey: sent.TweakedPubKey, Amount: sent.Amount}}
	payments, err := ScanForPayments(bystander.scanPriv, bystander.spendPub, inputPubKeys, outpoints, candidates)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestMultipleOutputsToSameRecipient(t *testing.T) {
	w := newWallet(t, chain.Mainnet)
	inputs, inputPubKeys, outpoints := newInputs(t, 1)

	amounts := []uint64{1_000, 2_000, 3_000}
	candidates := make([]CandidateOutput, len(amounts))
	for i, amount := range amounts {
		out, err := CreateOutput(w.address, inputs, amount, uint32(i))
		require.NoError(t, err)
		candidates[i] = CandidateOutput{PubKey: out.TweakedPubKey, Amount: amount}
	}

	// All three output keys are distinct even though address and inputs are
	// identical.
	assert.NotEqual(t, candidates[0].PubKey, candidates[1].PubKey)
	assert.NotEqual(t, candidates[1].PubKey, candidates[2].PubKey)

	payments, err := ScanForPayments(w.scanPriv, w.spendPub, inputPubKeys, outpoints, candidates)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	for _, p := range payments {
		assert.Equal(t, amounts[p.OutputIndex], p.Amount)

		spendingKey, err := DeriveSpendingKey(&p, w.spendPriv)
		require.NoError(t, err)
		spendingPub, err := bip340.XOnlyPublicKey(spendingKey)
		require.NoError(t, err)
		assert.Equal(t, p.TweakedPubKey, spendingPub)
	}
}

func TestOutputsAreUnlinkable(t *testing.T) {
	w := newWallet(t, chain.Mainnet)

	// Different input sets produce different output keys for the same
	// address and index.
	inputsA, _, _ := newInputs(t, 1)
	inputsB, _, _ := newInputs(t, 1)

	outA, err := CreateOutput(w.address, inputsA, 1_000, 0)
	require.NoError(t, err)
	outB, err := CreateOutput(w.address, inputsB, 1_000, 0)
	require.NoError(t, err)
	assert.NotEqual(t, outA.TweakedPubKey, outB.TweakedPubKey)

	// The same inputs paying a different recipient nowhere collide.
	other := newWallet(t, chain.Mainnet)
	outC, err := CreateOutput(other.address, inputsA, 1_000, 0)
	require.NoError(t, err)
	assert.NotEqual(t, outA.TweakedPubKey, outC.TweakedPubKey)

	// Determinism: same address, inputs and index reproduce the same key.
	outA2, err := CreateOutput(w.address, inputsA, 1_000, 0)
	require.NoError(t, err)
	assert.Equal(t, outA.TweakedPubKey, outA2.TweakedPubKey)
}

func TestLabeledPaymentEndToEnd(t *testing.T) {
	w := newWallet(t, chain.Mainnet)
	const label = 42

	labeled, err := NewLabeledAddress(w.scanPriv, w.spendPub, chain.Mainnet, label)
	require.NoError(t, err)

	inputs, inputPubKeys, outpoints := newInputs(t, 2)
	sent, err := CreateOutput(labeled.Address, inputs, 25_000, 0)
	require.NoError(t, err)

	// Scanning with the labeled spend key finds the payment.
	candidates := []CandidateOutput{{PubKey: sent.TweakedPubKey, Amount: sent.Amount}}
	payments, err := ScanForPayments(w.scanPriv, labeled.SpendPubKey, inputPubKeys, outpoints, candidates)
	require.NoError(t, err)
	require.Len(t, payments, 1)

	// Scanning with the bare spend key does not.
	miss, err := ScanForPayments(w.scanPriv, w.spendPub, inputPubKeys, outpoints, candidates)
	require.NoError(t, err)
	assert.Empty(t, miss)

	// Spending uses the label-adjusted private key.
	labeledPriv, err := TweakPrivateKeyWithLabel(w.spendPriv, w.scanPriv, label)
	require.NoError(t, err)
	spendingKey, err := DeriveSpendingKey(&payments[0], labeledPriv)
	require.NoError(t, err)
	spendingPub, err := bip340.XOnlyPublicKey(spendingKey)
	require.NoError(t, err)
	assert.Equal(t, payments[0].TweakedPubKey, spendingPub)
}

func TestScanValidation(t *testing.T) {
	w := newWallet(t, chain.Mainnet)
	_, inputPubKeys, outpoints := newInputs(t, 1)
	candidates := []CandidateOutput{{PubKey: make([]byte, 32), Amount: 1}}

	_, err := ScanForPayments(make([]byte, 32), w.spendPub, inputPubKeys, outpoints, candidates)
	assert.Error(t, err, "zero scan key")

	_, err = ScanForPayments(w.scanPriv, w.spendPub[:32], inputPubKeys, outpoints, candidates)
	assert.Error(t, err, "short spend key")

	_, err = ScanForPayments(w.scanPriv, w.spendPub, inputPubKeys, nil, candidates)
	assert.Error(t, err, "no outpoints")

	_, err = ScanForPayments(w.scanPriv, w.spendPub, inputPubKeys, [][]byte{make([]byte, 35)}, candidates)
	assert.Error(t, err, "short outpoint")

	_, err = ScanForPayments(w.scanPriv, w.spendPub, inputPubKeys, outpoints,
		[]CandidateOutput{{PubKey: make([]byte, 31)}})
	assert.Error(t, err, "short candidate key")

	_, err = ScanForPayments(w.scanPriv, w.spendPub, nil, outpoints, candidates)
	assert.Error(t, err, "no input keys")
}

func TestScanTransactionsMatchesSequential(t *testing.T) {
	w := newWallet(t, chain.Mainnet)

	const txCount = 8
	txs := make([]Transaction, txCount)
	for i := range txs {
		inputs, inputPubKeys, outpoints := newInputs(t, 2)

		// Every other transaction pays the recipient.
		var outputs []CandidateOutput
		if i%2 == 0 {
			sent, err := CreateOutput(w.address, inputs, uint64(1000+i), 0)
			require.NoError(t, err)
			outputs = append(outputs, CandidateOutput{PubKey: sent.TweakedPubKey, Amount: sent.Amount})
		}
		decoy, err := keys.GeneratePrivateKey()
		require.NoError(t, err)
		decoyPub, err := bip340.XOnlyPublicKey(decoy)
		require.NoError(t, err)
		outputs = append(outputs, CandidateOutput{PubKey: decoyPub, Amount: 500})

		txs[i] = Transaction{InputPubKeys: inputPubKeys, Outpoints: outpoints, Outputs: outputs}
	}

	batched, err := ScanTransactions(context.Background(), w.scanPriv, w.spendPub, txs, 4)
	require.NoError(t, err)
	require.Len(t, batched, txCount)

	for i, tx := range txs {
		sequential, err := ScanForPayments(w.scanPriv, w.spendPub, tx.InputPubKeys, tx.Outpoints, tx.Outputs)
		require.NoError(t, err)
		assert.Equal(t, sequential, batched[i], "transaction %d", i)

		if i%2 == 0 {
			assert.Len(t, batched[i], 1)
		} else {
			assert.Empty(t, batched[i])
		}
	}
}

func TestScanTransactionsCancellation(t *testing.T) {
	w := newWallet(t, chain.Mainnet)
	_, inputPubKeys, outpoints := newInputs(t, 1)
	txs := []Transaction{{InputPubKeys: inputPubKeys, Outpoints: outpoints}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ScanTransactions(ctx, w.scanPriv, w.spendPub, txs, 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDeriveSpendingKeyValidation(t *testing.T) {
	w := newWallet(t, chain.Mainnet)

	_, err := DeriveSpendingKey(nil, w.spendPriv)
	assert.Error(t, err, "nil payment")

	_, err = DeriveSpendingKey(&ReceivedPayment{TweakData: make([]byte, 31)}, w.spendPriv)
	assert.Error(t, err, "short tweak")

	_, err = DeriveSpendingKey(&ReceivedPayment{TweakData: make([]byte, 32)}, make([]byte, 32))
	assert.Error(t, err, "zero spend key")
}

func TestDeriveSpendingKeyHex(t *testing.T) {
	w := newWallet(t, chain.Mainnet)
	tweak := make([]byte, 32)
	tweak[31] = 1

	payment := &ReceivedPayment{TweakData: tweak}
	want, err := DeriveSpendingKey(payment, w.spendPriv)
	require.NoError(t, err)

	got, err := DeriveSpendingKeyHex(hexutil.Encode(tweak), hexutil.Encode(w.spendPriv))
	require.NoError(t, err)
	assert.Equal(t, hexutil.Encode(want), got)
}
