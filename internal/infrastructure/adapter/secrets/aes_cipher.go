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
)

// AESCipher encrypts merchant secrets with AES-256-GCM. Ciphertexts are
// base64(nonce || sealed) so a single column stores everything needed to
// decrypt. The key is derived from the configured passphrase with SHA-256.
type AESCipher struct {
	key [32]byte
}

// NewAESCipher creates a cipher from the configured passphrase
func NewAESCipher(passphrase string) (*AESCipher, error) {
	if passphrase == "" {
		return nil, errors.New("secrets: encryption passphrase is required")
	}
	return &AESCipher{key: sha256.Sum256([]byte(passphrase))}, nil
}

// Encrypt returns the ciphertext for a plaintext secret
func (c *AESCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets: generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt returns the plaintext for a stored ciphertext
func (c *AESCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("secrets: decoding ciphertext: %w", err)
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	if len(raw) < gcm.NonceSize() {
		return "", errors.New("secrets: ciphertext shorter than nonce")
	}

	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", errors.New("secrets: decryption failed")
	}
	return string(plaintext), nil
}

func (c *AESCipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, fmt.Errorf("secrets: %w", err)
	}
	return cipher.NewGCM(block)
}
