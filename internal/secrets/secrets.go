// Package secrets decrypts provider credentials stored encrypted in configuration.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrUndecryptable is returned when a configured value cannot be decrypted.
	ErrUndecryptable = errors.New("credential cannot be decrypted")
	// ErrEmptyKey indicates the passphrase is empty
	ErrEmptyKey = errors.New("secret key cannot be empty")
)

const hkdfInfo = "waphone provider credentials v1"

// Decrypter turns a stored credential value into plaintext.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// Plain is used when no secret key is configured: values are stored in clear text.
type Plain struct{}

func (Plain) Decrypt(value string) (string, error) { return value, nil }

// Box encrypts with AES-256-GCM. Ciphertext is base64(nonce || sealed).
type Box struct {
	aead cipher.AEAD
}

// NewBox derives a 256-bit key from passphrase using HKDF-SHA256.
func NewBox(passphrase string) (*Box, error) {
	if passphrase == "" {
		return nil, ErrEmptyKey
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Box{aead: gcm}, nil
}

// New returns a Box for a non-empty passphrase and Plain otherwise.
func New(passphrase string) (Decrypter, error) {
	if passphrase == "" {
		return Plain{}, nil
	}
	return NewBox(passphrase)
}

func (b *Box) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (b *Box) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecryptable, err)
	}
	nonceSize := b.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrUndecryptable)
	}
	plaintext, err := b.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUndecryptable, err)
	}
	return string(plaintext), nil
}
