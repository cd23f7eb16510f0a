package solana

import (
	"crypto/sha256"
	"encoding/binary"
)

// spl-token instruction tags (only what the bridge uses).
const tokenInstructionMintTo = 7

// associated-token-program instruction tags.
const ataInstructionCreateIdempotent = 1

// NewMintToInstruction builds a direct spl-token MintTo.
func NewMintToInstruction(mint, dest, authority PublicKey, amount uint64) Instruction {
	data := make([]byte, 9)
	data[0] = tokenInstructionMintTo
	binary.LittleEndian.PutUint64(data[1:], amount)
	return Instruction{
		ProgramID: TokenProgramID,
		Accounts: []AccountMeta{
			{PubKey: mint, IsWritable: true},
			{PubKey: dest, IsWritable: true},
			{PubKey: authority, IsSigner: true},
		},
		Data: data,
	}
}

// NewCreateATAIdempotentInstruction builds an idempotent associated token
// account create: a no-op when the account already exists.
func NewCreateATAIdempotentInstruction(payer, ata, owner, mint PublicKey) Instruction {
	return Instruction{
		ProgramID: AssociatedTokenProgramID,
		Accounts: []AccountMeta{
			{PubKey: payer, IsSigner: true, IsWritable: true},
			{PubKey: ata, IsWritable: true},
			{PubKey: owner},
			{PubKey: mint},
			{PubKey: SystemProgramID},
			{PubKey: TokenProgramID},
		},
		Data: []byte{ataInstructionCreateIdempotent},
	}
}

// AnchorDiscriminator returns the 8-byte instruction discriminator of an
// anchor program method: sha256("global:<name>")[:8].
func AnchorDiscriminator(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

// AppendBorshString appends a borsh-encoded string: u32 LE length + bytes.
func AppendBorshString(data []byte, s string) []byte {
	var l [4]byte
	binary.LittleEndian.PutUint32(l[:], uint32(len(s)))
	data = append(data, l[:]...)
	return append(data, s...)
}
