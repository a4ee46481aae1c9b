// Package crypto provides the credential vault used to keep equipment and
// service passwords encrypted at rest. Values are sealed with AES-256-GCM
// under a single process-wide key and carried as base64 text.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// KeySize is the length in bytes of a vault key
const KeySize = 32

// DecryptionFailed is shown in place of a value that could not be decrypted
const DecryptionFailed = "Error al descifrar"

// ErrDecryption is returned for malformed, truncated or tampered ciphertext
var ErrDecryption = errors.New("decryption failed")

// Vault encrypts and decrypts credential strings. It is immutable once built
// and safe for concurrent use.
type Vault struct {
	gcm cipher.AEAD
}

// NewVault creates a vault for a 32-byte key
func NewVault(key []byte) (*Vault, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d, expected %d", len(key), KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Vault{gcm: gcm}, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext)
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Prepend nonce to ciphertext
	sealed := v.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt. Any failure wraps ErrDecryption.
func (v *Vault) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding", ErrDecryption)
	}

	nonceSize := v.gcm.NonceSize()
	if len(data) < nonceSize+v.gcm.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := v.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}

	return string(plaintext), nil
}

// Reveal decrypts encoded, degrading to DecryptionFailed instead of failing
func (v *Vault) Reveal(encoded string) string {
	plaintext, err := v.Decrypt(encoded)
	if err != nil {
		return DecryptionFailed
	}
	return plaintext
}

// GenerateMasterKey generates a new 32-byte (256-bit) master key
func GenerateMasterKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate master key: %w", err)
	}
	return key, nil
}
