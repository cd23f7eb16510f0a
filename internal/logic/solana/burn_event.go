package solana

import (
	"regexp"
	"strconv"
	"strings"
)

// The bridge program announces burns through two program log lines:
//
//	Program log: Burned <units> wZEC from <sender>
//	Program log: ZEC destination: <address>
//
// Both must be present for a signature to count as a burn.
var (
	burnLinePattern = regexp.MustCompile(`Burned (\d+) wZEC from ([1-9A-HJ-NP-Za-km-z]{32,44})`)
	destLinePattern = regexp.MustCompile(`ZEC destination: ([a-z0-9]+)`)
)

// BurnEvent is a parsed burn announcement.
type BurnEvent struct {
	AmountUnits  uint64
	Sender       string
	ZecRecipient string
}

// ParseBurnLogs scans transaction log messages for the burn markers.
func ParseBurnLogs(logs []string) (*BurnEvent, bool) {
	var ev BurnEvent
	var haveBurn, haveDest bool
	for _, line := range logs {
		if !haveBurn {
			if m := burnLinePattern.FindStringSubmatch(line); m != nil {
				units, err := strconv.ParseUint(m[1], 10, 64)
				if err != nil {
					return nil, false
				}
				ev.AmountUnits = units
				ev.Sender = m[2]
				haveBurn = true
				continue
			}
		}
		if !haveDest {
			if m := destLinePattern.FindStringSubmatch(line); m != nil {
				ev.ZecRecipient = m[1]
				haveDest = true
			}
		}
	}
	if !haveBurn || !haveDest {
		return nil, false
	}
	return &ev, true
}

// shielded sapling address prefixes the bridge redeems to
const (
	saplingMainnetPrefix = "zs1"
	saplingTestnetPrefix = "ztestsapling1"

	minShieldedAddressLen = 78
)

// bech32 data charset, the alphabet of everything after the prefix
const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// IsValidShieldedAddress checks the syntax of a sapling redemption
// address: known prefix, minimum length, bech32 alphabet.
func IsValidShieldedAddress(addr string) bool {
	var rest string
	switch {
	case strings.HasPrefix(addr, saplingTestnetPrefix):
		rest = addr[len(saplingTestnetPrefix):]
	case strings.HasPrefix(addr, saplingMainnetPrefix):
		rest = addr[len(saplingMainnetPrefix):]
	default:
		return false
	}
	if len(addr) < minShieldedAddressLen {
		return false
	}
	for _, c := range rest {
		if !strings.ContainsRune(bech32Charset, c) {
			return false
		}
	}
	return true
}
