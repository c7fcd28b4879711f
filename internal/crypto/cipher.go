// Package crypto encrypts and decrypts the delivery URL stored against every channel. Delivery
// URLs carry credentials (SMTP passwords, webhook tokens, gotify/ntfy application tokens embedded
// per shoutrrr's URL scheme) and must never reach a log line or leave the storage gateway in the
// clear.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidKey is returned when a configured key is not exactly chacha20poly1305.KeySize bytes.
var ErrInvalidKey = errors.New("channel cipher key must be 32 bytes")

// Cipher seals and opens channel delivery URLs with ChaCha20-Poly1305 AEAD. The zero value is
// not usable; build one with NewCipher.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a 32-byte key, typically loaded from the environment at startup.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, ErrInvalidKey
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to construct aead: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext (a delivery URL) into a self-contained ciphertext: a random nonce
// followed by the sealed bytes. The returned slice is what gets stored in channel.delivery_url.
func (c *Cipher) Seal(plaintext string) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// Open recovers the delivery URL from ciphertext previously produced by Seal.
func (c *Cipher) Open(ciphertext []byte) (string, error) {
	nonceSize := c.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, sealed := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open ciphertext: %w", err)
	}
	return string(plaintext), nil
}
