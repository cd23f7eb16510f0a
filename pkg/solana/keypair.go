package solana

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
)

// LoadKeypair reads a solana-keygen style keypair file: a JSON array of
// 64 bytes, secret seed followed by public key.
func LoadKeypair(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair file: %w", err)
	}
	var nums []int
	if err := json.Unmarshal(raw, &nums); err != nil {
		return nil, fmt.Errorf("parse keypair file: %w", err)
	}
	if len(nums) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair file holds %d bytes, want %d", len(nums), ed25519.PrivateKeySize)
	}
	key := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	for i, n := range nums {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("keypair file byte %d out of range", i)
		}
		key[i] = byte(n)
	}
	return key, nil
}

// PublicKeyOf returns the PublicKey half of a keypair.
func PublicKeyOf(key ed25519.PrivateKey) PublicKey {
	var pk PublicKey
	copy(pk[:], key.Public().(ed25519.PublicKey))
	return pk
}
