// Package secrets encrypts vector database connection configs at the
// storage boundary. Plaintext credentials never reach a table; the
// stored form is base64(nonce ∥ tag ∥ ciphertext) under AES-256-GCM
// with a key derived from the operator secret.
package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"

	"github.com/promptforge/promptforge/internal/apperr"
	"github.com/promptforge/promptforge/internal/canonicaljson"
)

const (
	nonceSize = 12
	tagSize   = 16
	keySize   = 32
)

// kdfSalt is fixed on purpose: the at-rest format must stay stable
// across restarts and replicas, and the operator secret is assumed
// high-entropy. Changing it re-keys every stored config.
var kdfSalt = []byte("promptforge.connection-config.v1")

// Codec performs authenticated encryption of JSON-serializable config
// objects. The key is derived once at construction.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives a 256-bit key from the operator secret via scrypt.
// An empty secret is a configuration error, not a silent fallback.
func NewCodec(operatorSecret string) (*Codec, error) {
	if operatorSecret == "" {
		return nil, errors.New("encryption secret is not configured")
	}

	key, err := scrypt.Key([]byte(operatorSecret), kdfSalt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encode serializes v to canonical JSON and encrypts it. Every call
// draws a fresh nonce; nonces must never repeat under one key.
func (c *Codec) Encode(v interface{}) (string, error) {
	plain, err := canonicaljson.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serialize config: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// Seal returns ciphertext ∥ tag; the stored layout wants the tag
	// between nonce and ciphertext.
	sealed := c.aead.Seal(nil, nonce, plain, nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, nonceSize+tagSize+len(ct))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decode reverses Encode into dest. Any tamper, truncation or secret
// mismatch fails closed with a DecryptionError; callers must surface
// it, never substitute an empty config.
func (c *Codec) Decode(opaque string, dest interface{}) error {
	data, err := base64.StdEncoding.DecodeString(opaque)
	if err != nil {
		return apperr.Decryption("malformed ciphertext encoding", err)
	}
	if len(data) < nonceSize+tagSize {
		return apperr.Decryption("ciphertext too short", nil)
	}

	nonce := data[:nonceSize]
	tag := data[nonceSize : nonceSize+tagSize]
	ct := data[nonceSize+tagSize:]

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return apperr.Decryption("authentication failed", err)
	}

	// Decode numbers as json.Number so numeric credential fields come
	// back with the exact digits that were encrypted.
	jd := json.NewDecoder(bytes.NewReader(plain))
	jd.UseNumber()
	if err := jd.Decode(dest); err != nil {
		return apperr.Decryption("decrypted payload is not valid JSON", err)
	}
	return nil
}
