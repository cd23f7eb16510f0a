package solana

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/btcsuite/btcd/btcutil/base58"
)

// PublicKey is a 32-byte ed25519 public key or program-derived address.
type PublicKey [32]byte

// Well-known program ids.
var (
	SystemProgramID          = MustParsePubkey("11111111111111111111111111111111")
	TokenProgramID           = MustParsePubkey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = MustParsePubkey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

var ErrInvalidPubkey = errors.New("invalid public key")

// ParsePubkey decodes a base58 public key string.
func ParsePubkey(s string) (PublicKey, error) {
	var pk PublicKey
	decoded := base58.Decode(s)
	if len(decoded) != len(pk) {
		return pk, fmt.Errorf("%w: %q", ErrInvalidPubkey, s)
	}
	copy(pk[:], decoded)
	return pk, nil
}

// MustParsePubkey is ParsePubkey for known-good constants.
func MustParsePubkey(s string) PublicKey {
	pk, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

func (pk PublicKey) Bytes() []byte {
	return pk[:]
}

// IsValidPubkey reports whether s decodes to exactly 32 bytes of base58.
func IsValidPubkey(s string) bool {
	_, err := ParsePubkey(s)
	return err == nil
}

// isOnCurve reports whether b decompresses to a valid ed25519 point.
// Program-derived addresses must not be on the curve, so no private key
// can ever exist for them.
func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

const pdaMarker = "ProgramDerivedAddress"

var ErrNoBumpFound = errors.New("unable to find a viable program address bump")

// CreateProgramAddress derives an address from seeds and a program id.
// Fails if the result lands on the ed25519 curve.
func CreateProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, error) {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))
	digest := h.Sum(nil)

	var pk PublicKey
	copy(pk[:], digest)
	if isOnCurve(digest) {
		return pk, errors.New("derived address is on curve")
	}
	return pk, nil
}

// FindProgramAddress searches bump seeds 255..0 for a valid PDA.
func FindProgramAddress(seeds [][]byte, programID PublicKey) (PublicKey, uint8, error) {
	for bump := uint8(255); ; bump-- {
		pk, err := CreateProgramAddress(append(seeds, []byte{bump}), programID)
		if err == nil {
			return pk, bump, nil
		}
		if bump == 0 {
			return PublicKey{}, 0, ErrNoBumpFound
		}
	}
}

// FindAssociatedTokenAddress derives the canonical associated token
// account of owner for mint.
func FindAssociatedTokenAddress(owner, mint PublicKey) (PublicKey, error) {
	pk, _, err := FindProgramAddress(
		[][]byte{owner[:], TokenProgramID[:], mint[:]},
		AssociatedTokenProgramID,
	)
	return pk, err
}
