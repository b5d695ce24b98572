package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAESCipherRequiresPassphrase(t *testing.T) {
	_, err := NewAESCipher("")
	assert.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewAESCipher("unit-test-passphrase")
	require.NoError(t, err)

	secrets := []string{
		"whsec_4f9d8a7b",
		"binance-api-key-AKIA",
		"a",
		"secret with spaces and ünïcode ✓",
	}

	for _, plaintext := range secrets {
		enc, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, enc)

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, plaintext, dec)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	c, err := NewAESCipher("unit-test-passphrase")
	require.NoError(t, err)

	first, err := c.Encrypt("same secret")
	require.NoError(t, err)
	second, err := c.Encrypt("same secret")
	require.NoError(t, err)

	// Fresh nonce per encryption
	assert.NotEqual(t, first, second)
}

func TestEmptyStringPassesThrough(t *testing.T) {
	c, err := NewAESCipher("unit-test-passphrase")
	require.NoError(t, err)

	enc, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", enc)

	dec, err := c.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", dec)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	c, err := NewAESCipher("unit-test-passphrase")
	require.NoError(t, err)

	_, err = c.Decrypt("not-base64!!!")
	assert.Error(t, err)

	_, err = c.Decrypt("YWJj") // valid base64, too short for a nonce
	assert.Error(t, err)
}

func TestDecryptWithWrongPassphraseFails(t *testing.T) {
	c1, err := NewAESCipher("passphrase-one")
	require.NoError(t, err)
	c2, err := NewAESCipher("passphrase-two")
	require.NoError(t, err)

	enc, err := c1.Encrypt("secret")
	require.NoError(t, err)

	_, err = c2.Decrypt(enc)
	assert.Error(t, err)
}
