package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	return ed25519.NewKeyFromSeed(seed)
}

func TestWriteCompactU16(t *testing.T) {
	cases := []struct {
		n    int
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{255, []byte{0xff, 0x01}},
		{16383, []byte{0xff, 0x7f}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		writeCompactU16(&buf, c.n)
		require.Equal(t, c.want, buf.Bytes(), "n=%d", c.n)
	}
}

func TestNewTransactionSignsMessage(t *testing.T) {
	signer := testSigner(t)
	blockhash := TokenProgramID.String() // any 32-byte base58 string works

	ix := NewMintToInstruction(
		MustParsePubkey("So11111111111111111111111111111111111111112"),
		AssociatedTokenProgramID,
		PublicKeyOf(signer),
		1_000_000,
	)
	encoded, err := NewTransaction([]Instruction{ix}, blockhash, signer)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	// one signature, then the message
	require.Equal(t, byte(1), raw[0])
	signature := raw[1 : 1+ed25519.SignatureSize]
	message := raw[1+ed25519.SignatureSize:]
	require.True(t, ed25519.Verify(signer.Public().(ed25519.PublicKey), message, signature))

	// header: 1 signer, 0 readonly signed
	require.Equal(t, byte(1), message[0])
	require.Equal(t, byte(0), message[1])
}

func TestCompileMessagePayerFirst(t *testing.T) {
	signer := testSigner(t)
	payer := PublicKeyOf(signer)
	mint := MustParsePubkey("So11111111111111111111111111111111111111112")

	ix := NewMintToInstruction(mint, AssociatedTokenProgramID, payer, 42)
	message, err := compileMessage([]Instruction{ix}, TokenProgramID.String(), payer)
	require.NoError(t, err)

	// first account key after the 3-byte header and the key-count byte
	var first PublicKey
	copy(first[:], message[4:36])
	require.Equal(t, payer, first)
}

func TestNewTransactionRejectsBadBlockhash(t *testing.T) {
	signer := testSigner(t)
	ix := NewMintToInstruction(TokenProgramID, AssociatedTokenProgramID, PublicKeyOf(signer), 1)

	_, err := NewTransaction([]Instruction{ix}, "not-a-blockhash", signer)
	require.Error(t, err)

	_, err = NewTransaction(nil, TokenProgramID.String(), signer)
	require.Error(t, err)
}

func TestNewTransactionRejectsForeignSigner(t *testing.T) {
	signer := testSigner(t)
	other := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{9}, ed25519.SeedSize))

	// instruction demands a signature the fee payer cannot provide
	ix := NewMintToInstruction(TokenProgramID, AssociatedTokenProgramID, PublicKeyOf(other), 1)
	_, err := NewTransaction([]Instruction{ix}, TokenProgramID.String(), signer)
	require.Error(t, err)
}

func TestAnchorDiscriminator(t *testing.T) {
	disc := AnchorDiscriminator("mint_wzec")
	require.Len(t, disc, 8)
	require.Equal(t, disc, AnchorDiscriminator("mint_wzec"))
	require.NotEqual(t, disc, AnchorDiscriminator("burn_wzec"))
}

func TestAppendBorshString(t *testing.T) {
	data := AppendBorshString([]byte{0xaa}, "txid")
	require.Equal(t, byte(0xaa), data[0])
	require.Equal(t, uint32(4), binary.LittleEndian.Uint32(data[1:5]))
	require.Equal(t, "txid", string(data[5:]))
}
