// Package paymenturi implements BIP 21-style payment request URIs carrying
// silent-payment or taproot addresses.
//
// URI format:
//
//	bitcoin:<address>?amount=<btc>&label=<label>&message=<message>
//
// The address may be a taproot address (bc1p...) or a silent-payment address
// (sp1q...); both are validated on parse. Amounts are decimal BTC.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0021.mediawiki
package paymenturi

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/sip-protocol/sip-bitcoin/pkg/silentpayments"
	"github.com/sip-protocol/sip-bitcoin/pkg/taproot"
	"github.com/sip-protocol/sip-bitcoin/pkg/validation"
)

// uriScheme prefixes every payment URI.
const uriScheme = "bitcoin"

// satoshisPerBTC converts between the URI's decimal BTC and satoshis.
const satoshisPerBTC = 1e8

// PaymentRequest is a parsed payment request.
type PaymentRequest struct {
	// Address is the recipient address string.
	Address string
	// SilentPayment is set when Address is a silent-payment address.
	SilentPayment bool
	// Amount in satoshis; nil when the payer chooses the amount.
	Amount *uint64
	// Label is an optional recipient label.
	Label *string
	// Message is an optional message to display to the payer.
	Message *string
}

// Parse parses a payment URI. The bitcoin: prefix is optional.
func Parse(uri string) (*PaymentRequest, error) {
	uri = strings.TrimPrefix(uri, uriScheme+":")

	address := uri
	var query string
	if i := strings.IndexByte(uri, '?'); i != -1 {
		address = uri[:i]
		query = uri[i+1:]
	}
	if address == "" {
		return nil, validation.Errorf("uri", "missing address")
	}

	req := &PaymentRequest{Address: address}
	switch {
	case taproot.IsValidAddress(address):
	default:
		if _, err := silentpayments.DecodeAddress(address); err != nil {
			return nil, validation.Errorf("uri", "address is neither taproot nor silent-payment")
		}
		req.SilentPayment = true
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, validation.Errorf("uri", "malformed query: %v", err)
	}

	if v := params.Get("amount"); v != "" {
		amount, err := parseAmount(v)
		if err != nil {
			return nil, err
		}
		req.Amount = &amount
	}
	if v := params.Get("label"); v != "" {
		req.Label = &v
	}
	if v := params.Get("message"); v != "" {
		req.Message = &v
	}
	return req, nil
}

// Encode renders a payment request back into URI form.
func (r *PaymentRequest) Encode() string {
	var sb strings.Builder
	sb.WriteString(uriScheme)
	sb.WriteByte(':')
	sb.WriteString(r.Address)

	params := url.Values{}
	if r.Amount != nil {
		params.Set("amount", formatAmount(*r.Amount))
	}
	if r.Label != nil {
		params.Set("label", *r.Label)
	}
	if r.Message != nil {
		params.Set("message", *r.Message)
	}
	if encoded := params.Encode(); encoded != "" {
		sb.WriteByte('?')
		sb.WriteString(encoded)
	}
	return sb.String()
}

// parseAmount converts a decimal BTC string into satoshis.
func parseAmount(s string) (uint64, error) {
	btc, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, validation.Errorf("amount", "not a decimal number: %v", err)
	}
	if btc <= 0 || math.IsInf(btc, 0) || math.IsNaN(btc) {
		return 0, validation.Errorf("amount", "must be positive")
	}
	sats := math.Round(btc * satoshisPerBTC)
	if sats > math.MaxInt64 {
		return 0, validation.Errorf("amount", "exceeds the maximum amount")
	}
	return uint64(sats), nil
}

// formatAmount renders satoshis as decimal BTC without trailing zeros.
func formatAmount(sats uint64) string {
	s := fmt.Sprintf("%.8f", float64(sats)/satoshisPerBTC)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
