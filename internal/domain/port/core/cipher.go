package core

// SecretCipher encrypts and decrypts merchant-held secrets (webhook signing
// secrets, exchange API keys) for storage at rest. Ciphertexts are opaque
// strings; an empty ciphertext decrypts to an empty plaintext.
type SecretCipher interface {
	// Encrypt returns the ciphertext for a plaintext secret
	Encrypt(plaintext string) (string, error)
	// Decrypt returns the plaintext for a stored ciphertext
	Decrypt(ciphertext string) (string, error)
}
