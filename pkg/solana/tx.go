package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// AccountMeta describes how an instruction touches one account.
type AccountMeta struct {
	PubKey     PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is one program invocation inside a transaction.
type Instruction struct {
	ProgramID PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// NewTransaction compiles instructions into a signed legacy transaction
// and returns it base64-encoded, ready for sendTransaction. The fee payer
// is the signer's public key.
func NewTransaction(instructions []Instruction, recentBlockhash string, signer ed25519.PrivateKey) (string, error) {
	if len(instructions) == 0 {
		return "", errors.New("no instructions")
	}
	var payer PublicKey
	copy(payer[:], signer.Public().(ed25519.PublicKey))

	message, err := compileMessage(instructions, recentBlockhash, payer)
	if err != nil {
		return "", err
	}

	signature := ed25519.Sign(signer, message)

	// transaction = compact array of signatures + message
	var buf bytes.Buffer
	writeCompactU16(&buf, 1)
	buf.Write(signature)
	buf.Write(message)
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// compileMessage serializes a legacy message: header, account keys in
// signer/writability order, blockhash, compiled instructions.
func compileMessage(instructions []Instruction, recentBlockhash string, payer PublicKey) ([]byte, error) {
	blockhash := base58.Decode(recentBlockhash)
	if len(blockhash) != 32 {
		return nil, fmt.Errorf("invalid blockhash %q", recentBlockhash)
	}

	type accountFlags struct {
		signer   bool
		writable bool
	}
	flags := map[PublicKey]*accountFlags{
		payer: {signer: true, writable: true},
	}
	order := []PublicKey{payer}

	note := func(pk PublicKey, signer, writable bool) {
		f, ok := flags[pk]
		if !ok {
			f = &accountFlags{}
			flags[pk] = f
			order = append(order, pk)
		}
		f.signer = f.signer || signer
		f.writable = f.writable || writable
	}
	for _, ix := range instructions {
		for _, m := range ix.Accounts {
			note(m.PubKey, m.IsSigner, m.IsWritable)
		}
		note(ix.ProgramID, false, false)
	}

	// signer-writable, signer-readonly, writable, readonly; payer stays
	// first within the first group
	var keys []PublicKey
	for _, group := range []func(accountFlags) bool{
		func(f accountFlags) bool { return f.signer && f.writable },
		func(f accountFlags) bool { return f.signer && !f.writable },
		func(f accountFlags) bool { return !f.signer && f.writable },
		func(f accountFlags) bool { return !f.signer && !f.writable },
	} {
		for _, pk := range order {
			if group(*flags[pk]) {
				keys = append(keys, pk)
			}
		}
	}

	index := make(map[PublicKey]int, len(keys))
	var numSigners, numReadonlySigned, numReadonlyUnsigned int
	for i, pk := range keys {
		index[pk] = i
		f := flags[pk]
		if f.signer {
			numSigners++
			if !f.writable {
				numReadonlySigned++
			}
		} else if !f.writable {
			numReadonlyUnsigned++
		}
	}
	if numSigners != 1 {
		return nil, fmt.Errorf("expected exactly one signer, got %d", numSigners)
	}

	var buf bytes.Buffer
	buf.WriteByte(byte(numSigners))
	buf.WriteByte(byte(numReadonlySigned))
	buf.WriteByte(byte(numReadonlyUnsigned))

	writeCompactU16(&buf, len(keys))
	for _, pk := range keys {
		buf.Write(pk[:])
	}
	buf.Write(blockhash)

	writeCompactU16(&buf, len(instructions))
	for _, ix := range instructions {
		buf.WriteByte(byte(index[ix.ProgramID]))
		writeCompactU16(&buf, len(ix.Accounts))
		for _, m := range ix.Accounts {
			buf.WriteByte(byte(index[m.PubKey]))
		}
		writeCompactU16(&buf, len(ix.Data))
		buf.Write(ix.Data)
	}
	return buf.Bytes(), nil
}

// writeCompactU16 encodes n in the shortvec format used by Solana
// messages: 7 bits per byte, high bit marks continuation.
func writeCompactU16(buf *bytes.Buffer, n int) {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}
