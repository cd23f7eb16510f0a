package solana

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testSender        = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	testShieldedAddr  = "ztestsapling1" + "qpzry9x8gf2tvdw0s3jn54khce6mua7lqpzry9x8gf2tvdw0s3jn54khce6mua7lq"
	testMainnetShield = "zs1" + "qpzry9x8gf2tvdw0s3jn54khce6mua7lqpzry9x8gf2tvdw0s3jn54khce6mua7lqpzry9x8gf2"
)

func burnLogs(units, sender, dest string) []string {
	return []string{
		"Program 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin invoke [1]",
		"Program log: Instruction: BurnWzec",
		"Program log: Burned " + units + " wZEC from " + sender,
		"Program log: ZEC destination: " + dest,
		"Program 9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin success",
	}
}

func TestParseBurnLogs(t *testing.T) {
	ev, ok := ParseBurnLogs(burnLogs("150000000", testSender, testShieldedAddr))
	require.True(t, ok)
	require.Equal(t, uint64(150000000), ev.AmountUnits)
	require.Equal(t, testSender, ev.Sender)
	require.Equal(t, testShieldedAddr, ev.ZecRecipient)
}

func TestParseBurnLogsMissingMarkers(t *testing.T) {
	_, ok := ParseBurnLogs([]string{
		"Program log: Instruction: MintWzec",
		"Program log: Minted 100 wZEC",
	})
	require.False(t, ok)

	// burn line without the destination line is not a redeemable burn
	_, ok = ParseBurnLogs([]string{
		"Program log: Burned 100 wZEC from " + testSender,
	})
	require.False(t, ok)

	// destination without a burn line
	_, ok = ParseBurnLogs([]string{
		"Program log: ZEC destination: " + testShieldedAddr,
	})
	require.False(t, ok)

	_, ok = ParseBurnLogs(nil)
	require.False(t, ok)
}

func TestIsValidShieldedAddress(t *testing.T) {
	require.True(t, IsValidShieldedAddress(testShieldedAddr))
	require.True(t, IsValidShieldedAddress(testMainnetShield))

	require.False(t, IsValidShieldedAddress(""))
	require.False(t, IsValidShieldedAddress("ztestsapling1short"))
	require.False(t, IsValidShieldedAddress("t1KVQahDP1TCZgLXrEPnSubdR9eLKzBXjLt")) // transparent
	require.False(t, IsValidShieldedAddress(testSender))
	// right prefix and length, wrong alphabet
	require.False(t, IsValidShieldedAddress("ztestsapling1"+strings.Repeat("b", 65)))
}
