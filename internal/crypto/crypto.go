// Package crypto provides authenticated symmetric encryption for cached
// bearer tokens using nacl/secretbox. The nonce is prepended to the
// ciphertext so decryption needs only the ciphertext and the static key.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	KeySize   = 32
	NonceSize = 24
)

// Key is the server-held master key for token encryption.
type Key [KeySize]byte

// NewKey builds a Key from raw bytes, validating the length.
func NewKey(keyBytes []byte) (*Key, error) {
	if len(keyBytes) != KeySize {
		return nil, fmt.Errorf("key must be exactly %d bytes, got %d", KeySize, len(keyBytes))
	}

	var key Key
	copy(key[:], keyBytes)
	return &key, nil
}

// ParseKey decodes a hex-encoded key. An invalid length or encoding is a
// configuration error, caught at process setup, never per request.
func ParseKey(hexKey string) (*Key, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("key is not valid hex: %w", err)
	}
	return NewKey(raw)
}

// Encrypt seals data with a fresh random nonce, returning nonce||ciphertext.
func Encrypt(data []byte, key *Key) ([]byte, error) {
	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return secretbox.Seal(nonce[:], data, &nonce, (*[KeySize]byte)(key)), nil
}

// Decrypt opens nonce||ciphertext. Tampered or truncated input fails closed.
func Decrypt(ciphertext []byte, key *Key) ([]byte, error) {
	if len(ciphertext) < NonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	var nonce [NonceSize]byte
	copy(nonce[:], ciphertext[:NonceSize])

	decrypted, ok := secretbox.Open(nil, ciphertext[NonceSize:], &nonce, (*[KeySize]byte)(key))
	if !ok {
		return nil, fmt.Errorf("decryption failed")
	}

	return decrypted, nil
}

// GenerateRandomKey creates a new random master key.
func GenerateRandomKey() (*Key, error) {
	var key Key
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	return &key, nil
}
