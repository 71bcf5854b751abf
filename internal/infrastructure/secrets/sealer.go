// Package secrets seals third-party credentials before they are persisted.
package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// ErrUnseal is returned when a sealed value is malformed or was sealed with another key
var ErrUnseal = errors.New("secrets: unable to unseal value")

// Sealer encrypts short secrets with NaCl secretbox.
// Sealed values are base64(nonce || box).
type Sealer struct {
	key [32]byte
}

// NewSealer creates a Sealer for the given 32-byte key
func NewSealer(key [32]byte) *Sealer {
	return &Sealer{key: key}
}

// Seal encrypts plaintext. The empty string seals to the empty string.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("secrets: failed to generate nonce: %w", err)
	}
	out := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnseal, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrUnseal
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrUnseal
	}
	return string(plain), nil
}

// Mask hides all but the last four characters of a secret for display
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	const visible = 4
	if len(secret) <= visible {
		return "****"
	}
	return "****" + secret[len(secret)-visible:]
}
