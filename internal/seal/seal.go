// Package seal encrypts principal snapshots at rest. Keys are derived
// per namespace from caller-supplied secret material via HKDF-SHA256 and
// payloads are sealed with ChaCha20-Poly1305, so a dumped Redis keyspace
// yields no plaintext contact, banking, or national-ID data.
package seal

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	// ErrKeyMaterial is returned when the sealing secret is empty.
	ErrKeyMaterial = errors.New("seal key material required")
	// ErrCiphertext is returned when a sealed blob is truncated or tampered.
	ErrCiphertext = errors.New("invalid sealed payload")
)

// Sealer seals and opens byte payloads with a namespace-scoped key.
type Sealer struct {
	key []byte
}

// New derives the sealing key for the given namespace from secret.
func New(secret []byte, namespace string) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, ErrKeyMaterial
	}

	h := hkdf.New(sha256.New, secret, nil, []byte("snapshot-seal:"+namespace))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, err
	}

	return &Sealer{key: key}, nil
}

// Seal encrypts plaintext with a fresh random nonce. The nonce is
// prepended to the returned blob.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by [Sealer.Seal].
func (s *Sealer) Open(blob []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s.key)
	if err != nil {
		return nil, err
	}
	if len(blob) < aead.NonceSize() {
		return nil, ErrCiphertext
	}

	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrCiphertext
	}
	return plaintext, nil
}
