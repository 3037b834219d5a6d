// sip-bitcoin CLI - Bitcoin privacy primitives for the SIP protocol
//
// This CLI demonstrates the SDK's silent-payment and taproot capabilities.
//
// Example usage:
//
//	# Generate a silent-payment wallet
//	sip-bitcoin keygen --network testnet
//
//	# Derive a key-spend-only taproot address
//	sip-bitcoin taproot --key <priv-hex> --network mainnet
//
//	# Create a payment output for a recipient address
//	sip-bitcoin send --to sp1q... --amount 100000 --index 0 --input <priv-hex>
//
//	# Scan a transaction for incoming payments
//	sip-bitcoin scan --scan-key <priv-hex> --spend-pub <pub-hex> \
//	    --input-pub <pub-hex> --outpoint <hex> --output <xonly-hex>:<sats>
//
//	# Derive the spending key for a detected payment
//	sip-bitcoin spend-key --tweak <hex> --spend-key <priv-hex>
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/sip-protocol/sip-bitcoin/pkg/api"
	"github.com/sip-protocol/sip-bitcoin/pkg/chain"
	"github.com/sip-protocol/sip-bitcoin/pkg/commitment"
	"github.com/sip-protocol/sip-bitcoin/pkg/hexutil"
	"github.com/sip-protocol/sip-bitcoin/pkg/keys"
	"github.com/sip-protocol/sip-bitcoin/pkg/paymenturi"
	"github.com/sip-protocol/sip-bitcoin/pkg/silentpayments"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

const version = "0.3.0"

func main() {
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch command := os.Args[1]; command {
	case "keygen":
		err = cmdKeygen(os.Args[2:])
	case "taproot":
		err = cmdTaproot(os.Args[2:])
	case "send":
		err = cmdSend(os.Args[2:])
	case "scan":
		err = cmdScan(os.Args[2:])
	case "spend-key":
		err = cmdSpendKey(os.Args[2:])
	case "commit":
		err = cmdCommit(os.Args[2:])
	case "parse-uri":
		err = cmdParseURI(os.Args[2:])
	case "version":
		fmt.Println("sip-bitcoin", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		log.Errorf("unknown command %q", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if validation.IsValidationError(err) {
			log.Error(err)
		} else {
			log.WithError(err).Error("command failed")
		}
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sip-bitcoin - Bitcoin privacy primitives (silent payments, taproot)

Commands:
  keygen     --network <net> [--label <n>]      generate a silent-payment wallet
  taproot    --key <priv-hex> --network <net>   derive a key-spend-only taproot address
  send       --to <addr> --amount <sats> --index <n> --input <priv-hex>...
  scan       --scan-key <priv-hex> --spend-pub <pub-hex>
             --input-pub <pub-hex>... --outpoint <hex>... --output <xonly>:<sats>...
  spend-key  --tweak <hex> --spend-key <priv-hex>
  commit     --value <sats>                     create a Pedersen commitment
  parse-uri  <uri>                              parse a bitcoin: payment URI
  version`)
}

// parseFlags splits "--name value" pairs; repeatable flags accumulate.
func parseFlags(args []string) (map[string][]string, error) {
	flags := map[string][]string{}
	for i := 0; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "--") {
			return nil, fmt.Errorf("unexpected argument %q", args[i])
		}
		name := strings.TrimPrefix(args[i], "--")
		if i+1 >= len(args) {
			return nil, fmt.Errorf("flag --%s needs a value", name)
		}
		i++
		flags[name] = append(flags[name], args[i])
	}
	return flags, nil
}

func single(flags map[string][]string, name string) (string, error) {
	vs := flags[name]
	if len(vs) != 1 {
		return "", fmt.Errorf("flag --%s must be given exactly once", name)
	}
	return vs[0], nil
}

func network(flags map[string][]string) (chain.Network, error) {
	vs := flags["network"]
	if len(vs) == 0 {
		return chain.Mainnet, nil
	}
	net := chain.Network(vs[0])
	if !net.Valid() {
		return "", fmt.Errorf("unknown network %q", vs[0])
	}
	return net, nil
}

func cmdKeygen(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	net, err := network(flags)
	if err != nil {
		return err
	}

	var wallet *api.Wallet
	if vs := flags["label"]; len(vs) > 0 {
		label, err := strconv.ParseUint(vs[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid label: %w", err)
		}
		wallet, err = api.NewLabeledWallet(net, uint32(label))
		if err != nil {
			return err
		}
	} else {
		wallet, err = api.NewWallet(net)
		if err != nil {
			return err
		}
	}
	defer keys.Zero(wallet.ScanPrivateKey)
	defer keys.Zero(wallet.SpendPrivateKey)

	scanWIF, err := keys.EncodeWIF(wallet.ScanPrivateKey, true, net != chain.Mainnet)
	if err != nil {
		return err
	}
	spendWIF, err := keys.EncodeWIF(wallet.SpendPrivateKey, true, net != chain.Mainnet)
	if err != nil {
		return err
	}

	fmt.Println("address:        ", wallet.Address.Address)
	fmt.Println("scan key (hex): ", hexutil.Encode(wallet.ScanPrivateKey))
	fmt.Println("scan key (wif): ", scanWIF)
	fmt.Println("spend key (hex):", hexutil.Encode(wallet.SpendPrivateKey))
	fmt.Println("spend key (wif):", spendWIF)
	return nil
}

func cmdTaproot(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	net, err := network(flags)
	if err != nil {
		return err
	}
	keyHex, err := single(flags, "key")
	if err != nil {
		return err
	}

	priv, err := hexutil.DecodeFixed("key", keyHex, keys.PrivateKeySize)
	if err != nil {
		return err
	}
	defer keys.Zero(priv)

	address, err := api.TaprootAddress(priv, net)
	if err != nil {
		return err
	}
	fmt.Println("address:", address)
	return nil
}

func cmdSend(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	to, err := single(flags, "to")
	if err != nil {
		return err
	}
	amountStr, err := single(flags, "amount")
	if err != nil {
		return err
	}
	amount, err := strconv.ParseUint(amountStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	index := uint64(0)
	if vs := flags["index"]; len(vs) > 0 {
		if index, err = strconv.ParseUint(vs[0], 10, 32); err != nil {
			return fmt.Errorf("invalid index: %w", err)
		}
	}

	var inputs []silentpayments.Input
	for _, keyHex := range flags["input"] {
		priv, err := hexutil.DecodeFixed("input", keyHex, keys.PrivateKeySize)
		if err != nil {
			return err
		}
		inputs = append(inputs, silentpayments.Input{PrivateKey: priv})
	}
	defer func() {
		for _, in := range inputs {
			keys.Zero(in.PrivateKey)
		}
	}()

	output, err := api.CreatePayment(to, inputs, amount, uint32(index))
	if err != nil {
		return err
	}

	log.WithField("index", index).Info("derived silent-payment output")
	fmt.Println("scriptPubKey:  ", hexutil.Encode(output.ScriptPubKey))
	fmt.Println("tweaked pubkey:", hexutil.Encode(output.TweakedPubKey))
	fmt.Println("amount:        ", output.Amount)
	return nil
}

func cmdScan(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	scanKeyHex, err := single(flags, "scan-key")
	if err != nil {
		return err
	}
	spendPubHex, err := single(flags, "spend-pub")
	if err != nil {
		return err
	}

	scanKey, err := hexutil.DecodeFixed("scan-key", scanKeyHex, keys.PrivateKeySize)
	if err != nil {
		return err
	}
	defer keys.Zero(scanKey)
	spendPub, err := hexutil.DecodeFixed("spend-pub", spendPubHex, keys.CompressedPubKeySize)
	if err != nil {
		return err
	}

	var inputPubs, outpoints [][]byte
	for _, h := range flags["input-pub"] {
		pub, err := hexutil.DecodeFixed("input-pub", h, keys.CompressedPubKeySize)
		if err != nil {
			return err
		}
		inputPubs = append(inputPubs, pub)
	}
	for _, h := range flags["outpoint"] {
		op, err := hexutil.DecodeFixed("outpoint", h, silentpayments.OutpointSize)
		if err != nil {
			return err
		}
		outpoints = append(outpoints, op)
	}

	var candidates []silentpayments.CandidateOutput
	for _, spec := range flags["output"] {
		parts := strings.SplitN(spec, ":", 2)
		pub, err := hexutil.DecodeFixed("output", parts[0], 32)
		if err != nil {
			return err
		}
		var sats uint64
		if len(parts) == 2 {
			if sats, err = strconv.ParseUint(parts[1], 10, 64); err != nil {
				return fmt.Errorf("invalid output amount: %w", err)
			}
		}
		candidates = append(candidates, silentpayments.CandidateOutput{PubKey: pub, Amount: sats})
	}

	payments, err := silentpayments.ScanForPayments(scanKey, spendPub, inputPubs, outpoints, candidates)
	if err != nil {
		return err
	}

	if len(payments) == 0 {
		log.Info("no payments found")
		return nil
	}
	for _, p := range payments {
		fmt.Printf("output %d: amount=%d tweak=%s key=%s\n",
			p.OutputIndex, p.Amount, hexutil.Encode(p.TweakData), hexutil.Encode(p.TweakedPubKey))
	}
	return nil
}

func cmdSpendKey(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	tweakHex, err := single(flags, "tweak")
	if err != nil {
		return err
	}
	spendKeyHex, err := single(flags, "spend-key")
	if err != nil {
		return err
	}

	spendingKey, err := silentpayments.DeriveSpendingKeyHex(tweakHex, spendKeyHex)
	if err != nil {
		return err
	}
	fmt.Println("spending key:", spendingKey)
	return nil
}

func cmdCommit(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	valueStr, err := single(flags, "value")
	if err != nil {
		return err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}

	c, err := commitment.Commit(value)
	if err != nil {
		return err
	}
	defer keys.Zero(c.Blinding)

	fmt.Println("commitment:", hexutil.Encode(c.Commitment))
	fmt.Println("blinding:  ", hexutil.Encode(c.Blinding))
	return nil
}

func cmdParseURI(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: sip-bitcoin parse-uri <uri>")
	}

	req, err := paymenturi.Parse(args[0])
	if err != nil {
		return err
	}

	fmt.Println("address:       ", req.Address)
	fmt.Println("silent payment:", req.SilentPayment)
	if req.Amount != nil {
		fmt.Println("amount (sats): ", *req.Amount)
	}
	if req.Label != nil {
		fmt.Println("label:         ", *req.Label)
	}
	if req.Message != nil {
		fmt.Println("message:       ", *req.Message)
	}
	return nil
}
