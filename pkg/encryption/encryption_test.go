package encryption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	e := NewEncryptorWithPassword("correct horse battery staple")
	require.True(t, e.IsEnabled())

	ciphertext, err := e.EncryptString("hello world")
	require.NoError(t, err)
	assert.NotEqual(t, "hello world", ciphertext)

	plaintext, err := e.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "hello world", plaintext)
}

func TestDisabledEncryptorPassesThrough(t *testing.T) {
	e := NewEncryptorWithPassword("")
	assert.False(t, e.IsEnabled())

	ciphertext, err := e.EncryptString("plain")
	require.NoError(t, err)

	plaintext, err := e.DecryptString(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "plain", plaintext)
}

func TestDecryptInvalidCiphertext(t *testing.T) {
	e := NewEncryptorWithPassword("pw")
	_, err := e.Decrypt("not-valid-base64!!")
	assert.ErrorIs(t, err, ErrInvalidData)
}
