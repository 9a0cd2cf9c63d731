// Package secret encrypts configuration values at rest.
package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const prefix = "v1:"

var (
	// ErrNoKey is returned when the box was created without a key.
	ErrNoKey = errors.New("secret: no key configured")
	// ErrMalformed is returned for values that are not v1 ciphertexts.
	ErrMalformed = errors.New("secret: malformed ciphertext")
)

// Decrypter turns a stored value back into plaintext.
type Decrypter interface {
	Decrypt(value string) (string, error)
}

// Box is an AES-256-GCM box keyed by the SHA-256 of a passphrase.
type Box struct {
	aead cipher.AEAD
}

var _ Decrypter = (*Box)(nil)

// NewBox derives the key from passphrase. An empty passphrase yields a box
// whose operations fail with ErrNoKey.
func NewBox(passphrase string) (*Box, error) {
	if passphrase == "" {
		return &Box{}, nil
	}
	key := sha256.Sum256([]byte(passphrase))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("secret: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secret: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Encrypt returns "v1:" followed by base64(nonce|ciphertext).
func (b *Box) Encrypt(plaintext string) (string, error) {
	if b.aead == nil {
		return "", ErrNoKey
	}
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secret: nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (b *Box) Decrypt(value string) (string, error) {
	if b.aead == nil {
		return "", ErrNoKey
	}
	if !strings.HasPrefix(value, prefix) {
		return "", ErrMalformed
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", ErrMalformed
	}
	ns := b.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrMalformed
	}
	plain, err := b.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("secret: open: %w", err)
	}
	return string(plain), nil
}
