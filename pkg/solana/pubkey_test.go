package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePubkeyRoundTrip(t *testing.T) {
	pk, err := ParsePubkey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	require.NoError(t, err)
	require.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", pk.String())
	require.Equal(t, TokenProgramID, pk)
}

func TestIsValidPubkey(t *testing.T) {
	require.True(t, IsValidPubkey("11111111111111111111111111111111"))
	require.True(t, IsValidPubkey("So11111111111111111111111111111111111111112"))

	require.False(t, IsValidPubkey(""))
	require.False(t, IsValidPubkey("abc"))
	require.False(t, IsValidPubkey("0OIl")) // outside the base58 alphabet
	require.False(t, IsValidPubkey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA1111"))
}

func TestFindProgramAddress(t *testing.T) {
	seeds := [][]byte{[]byte("bridge_state")}

	pda1, bump1, err := FindProgramAddress(seeds, TokenProgramID)
	require.NoError(t, err)
	pda2, bump2, err := FindProgramAddress(seeds, TokenProgramID)
	require.NoError(t, err)
	require.Equal(t, pda1, pda2)
	require.Equal(t, bump1, bump2)

	// the derived address must never map back onto the curve
	require.False(t, isOnCurve(pda1[:]))

	// distinct programs get distinct addresses
	pda3, _, err := FindProgramAddress(seeds, AssociatedTokenProgramID)
	require.NoError(t, err)
	require.NotEqual(t, pda1, pda3)
}

func TestFindAssociatedTokenAddress(t *testing.T) {
	owner := MustParsePubkey("So11111111111111111111111111111111111111112")
	mint := TokenProgramID

	ata1, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	ata2, err := FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	require.Equal(t, ata1, ata2)

	other, err := FindAssociatedTokenAddress(SystemProgramID, mint)
	require.NoError(t, err)
	require.NotEqual(t, ata1, other)
}

func TestLoadKeypair(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	key := ed25519.NewKeyFromSeed(seed)

	nums := make([]int, len(key))
	for i, b := range key {
		nums[i] = int(b)
	}
	raw, err := json.Marshal(nums)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "authority.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	loaded, err := LoadKeypair(path)
	require.NoError(t, err)
	require.Equal(t, key, loaded)

	_, err = LoadKeypair(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	short := filepath.Join(t.TempDir(), "short.json")
	require.NoError(t, os.WriteFile(short, []byte("[1,2,3]"), 0o600))
	_, err = LoadKeypair(short)
	require.Error(t, err)
}
