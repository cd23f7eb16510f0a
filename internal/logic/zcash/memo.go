package zcash

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wzec-network/wzec-bridge/pkg/solana"
)

// Pure memo / validation helpers. No side effects; the listener decides
// what to do with rejected transfers.

const hexMemoPrefix = "0x"

// base58 runs of plausible Solana address length
var solanaAddressPattern = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)

// DecodeMemo turns a raw memo into text. Memos carrying the hex marker are
// decoded first; anything else passes through unchanged.
func DecodeMemo(memo string) string {
	memo = strings.TrimSpace(memo)
	if strings.HasPrefix(memo, hexMemoPrefix) {
		decoded, err := hex.DecodeString(strings.TrimPrefix(memo, hexMemoPrefix))
		if err == nil {
			return string(decoded)
		}
	}
	return memo
}

// ExtractSolanaAddress scans a decoded memo for an embedded Solana address
// and returns the first candidate that survives full validation.
func ExtractSolanaAddress(memo string) (string, bool) {
	for _, candidate := range solanaAddressPattern.FindAllString(memo, -1) {
		if solana.IsValidPubkey(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// AmountWithinBounds checks the configured deposit limits, inclusive.
func AmountWithinBounds(amount, min, max decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(min) && amount.LessThanOrEqual(max)
}

// EncodeMemoHex renders a text memo in the hex form zcashd expects on
// z_sendmany outputs.
func EncodeMemoHex(memo string) string {
	return hex.EncodeToString([]byte(memo))
}
