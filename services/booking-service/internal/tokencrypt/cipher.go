// Package tokencrypt seals OAuth tokens before they are written to the database.
package tokencrypt

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed values carry this prefix so plaintext rows written before a key was configured still
// read back.
const prefix = "v1:"

var ErrMalformed = errors.New("tokencrypt: malformed ciphertext")

// Cipher is XChaCha20-Poly1305 with a random 24-byte nonce per value. A nil *Cipher passes values
// through unchanged.
type Cipher struct {
	aead cipher.AEAD
}

func New(key []byte) (*Cipher, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("tokencrypt: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// FromBase64Key decodes a standard base64 key of chacha20poly1305.KeySize bytes. An empty string
// yields a nil (passthrough) cipher.
func FromBase64Key(encoded string) (*Cipher, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("tokencrypt: decode key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("tokencrypt: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return New(key)
}

// Seal encrypts plaintext; empty input stays empty.
func (c *Cipher) Seal(plaintext string) (string, error) {
	if c == nil || plaintext == "" {
		return plaintext, nil
	}
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return prefix + base64.RawStdEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Values without the prefix are returned as is.
func (c *Cipher) Open(value string) (string, error) {
	if !strings.HasPrefix(value, prefix) {
		return value, nil
	}
	if c == nil {
		return "", errors.New("tokencrypt: sealed value but no key configured")
	}
	buf, err := base64.RawStdEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", ErrMalformed
	}
	ns := c.aead.NonceSize()
	if len(buf) < ns+c.aead.Overhead() {
		return "", ErrMalformed
	}
	pt, err := c.aead.Open(nil, buf[:ns], buf[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("tokencrypt: open: %w", err)
	}
	return string(pt), nil
}

// GenerateKey returns a random key in the format FromBase64Key accepts.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
