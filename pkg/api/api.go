// Package api provides the high-level public API for the Bitcoin privacy
// SDK.
//
// This is the main entry point for applications. It composes the lower
// packages into the wallet lifecycle:
//
//  1. NewWallet / NewLabeledWallet - generate a scan/spend keypair and its
//     silent-payment address
//  2. CreatePayment - derive the one-time taproot output for a payment
//  3. DetectPayments - scan a transaction's outputs for incoming payments
//  4. DeriveSpendingKey - turn a detected payment into its spending key
//
// The underlying packages (silentpayments, taproot, bip340, bech32m) remain
// public for callers that need byte-level control.
package api

import (
	"github.com/sip-protocol/sip-bitcoin/pkg/chain"
	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/silentpayments"
	"github.com/sip-protocol/sip-bitcoin/pkg/taproot"
)

// Wallet bundles a silent-payment keypair with its address.
//
// The private keys are raw 32-byte scalars owned by the caller; wipe them
// with keys.Zero when the wallet is no longer needed.
type Wallet struct {
	// ScanPrivateKey detects incoming payments. Secret.
	ScanPrivateKey []byte
	// SpendPrivateKey spends detected payments. Secret. For labeled
	// wallets the label tweak is already folded in.
	SpendPrivateKey []byte
	// Address is the shareable silent-payment address.
	Address *silentpayments.Address
}

// NewWallet generates a fresh silent-payment wallet for the given network.
func NewWallet(network chain.Network) (*Wallet, error) {
	scanPriv, err := keys.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	spendPriv, err := keys.GeneratePrivateKey()
	if err != nil {
		keys.Zero(scanPriv)
		return nil, err
	}

	scanPub, err := keys.PublicKey(scanPriv)
	if err != nil {
		return nil, err
	}
	spendPub, err := keys.PublicKey(spendPriv)
	if err != nil {
		return nil, err
	}

	addr, err := silentpayments.NewAddress(scanPub, spendPub, network)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		ScanPrivateKey:  scanPriv,
		SpendPrivateKey: spendPriv,
		Address:         addr,
	}, nil
}

// NewLabeledWallet generates a wallet whose address carries a label. The
// returned spend private key already includes the label tweak, so detection
// and spending work unchanged.
func NewLabeledWallet(network chain.Network, label uint32) (*Wallet, error) {
	scanPriv, err := keys.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	spendPriv, err := keys.GeneratePrivateKey()
	if err != nil {
		keys.Zero(scanPriv)
		return nil, err
	}

	spendPub, err := keys.PublicKey(spendPriv)
	if err != nil {
		return nil, err
	}

	addr, err := silentpayments.NewLabeledAddress(scanPriv, spendPub, network, label)
	if err != nil {
		keys.Zero(scanPriv)
		keys.Zero(spendPriv)
		return nil, err
	}

	labeledSpendPriv, err := silentpayments.TweakPrivateKeyWithLabel(spendPriv, scanPriv, label)
	keys.Zero(spendPriv)
	if err != nil {
		keys.Zero(scanPriv)
		return nil, err
	}

	return &Wallet{
		ScanPrivateKey:  scanPriv,
		SpendPrivateKey: labeledSpendPriv,
		Address:         addr,
	}, nil
}

// CreatePayment derives the one-time taproot output paying amount satoshis
// to recipientAddress. outputIndex distinguishes multiple payments to the
// same recipient within one transaction.
func CreatePayment(recipientAddress string, inputs []silentpayments.Input,
	amount uint64, outputIndex uint32) (*silentpayments.Output, error) {
	return silentpayments.CreateOutput(recipientAddress, inputs, amount, outputIndex)
}

// DetectPayments scans one transaction's candidate outputs against the
// wallet's keys. An empty result means the transaction does not pay this
// wallet.
func (w *Wallet) DetectPayments(tx silentpayments.Transaction) ([]silentpayments.ReceivedPayment, error) {
	spendPub, err := keys.PublicKey(w.SpendPrivateKey)
	if err != nil {
		return nil, err
	}
	return silentpayments.ScanForPayments(
		w.ScanPrivateKey, spendPub, tx.InputPubKeys, tx.Outpoints, tx.Outputs,
	)
}

// DeriveSpendingKey produces the one-time private key that spends a
// detected payment.
func (w *Wallet) DeriveSpendingKey(payment *silentpayments.ReceivedPayment) ([]byte, error) {
	return silentpayments.DeriveSpendingKey(payment, w.SpendPrivateKey)
}

// TaprootAddress derives a plain key-spend-only taproot address for a raw
// private key, for wallets that also hold non-silent funds.
func TaprootAddress(privateKey []byte, network chain.Network) (string, error) {
	_, address, err := taproot.CreateKeySpendOnlyOutput(privateKey, network)
	return address, err
}
