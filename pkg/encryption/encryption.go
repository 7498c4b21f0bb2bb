// Package encryption provides AES-256-GCM at-rest encryption for entry
// content, keyed by a password that NewEncryptorWithPassword derives into a
// key with PBKDF2.
// This is a deliberately small surface: one active key, no rotation, no
// field-classification config — VectorLiteDB only ever encrypts one thing,
// KnowledgeEntry.Content, and only when a password is configured.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Errors returned by Encryptor operations.
var (
	ErrInvalidData      = errors.New("encryption: invalid ciphertext")
	ErrDecryptionFailed = errors.New("encryption: decryption failed")
)

const (
	keyVersion        = uint32(1)
	versionHeaderSize = 4
	defaultIterations = 600000
	keyLen            = 32 // AES-256
)

var defaultSalt = []byte("vectorlitedb-default-salt-change-me")

// Encryptor performs AES-256-GCM encryption and decryption with a single
// PBKDF2-derived key. A nil or disabled Encryptor passes data through
// unchanged (base64-encoded, to keep the on-disk representation uniform
// whether or not encryption is configured).
type Encryptor struct {
	key     []byte
	enabled bool
}

// NewEncryptorWithPassword derives a 256-bit key from password via
// PBKDF2-HMAC-SHA256 and returns an Encryptor ready to use. An empty
// password returns a disabled Encryptor (content passes through as
// base64, unencrypted).
func NewEncryptorWithPassword(password string) *Encryptor {
	if password == "" {
		return &Encryptor{enabled: false}
	}
	key := pbkdf2.Key([]byte(password), defaultSalt, defaultIterations, keyLen, sha256.New)
	return &Encryptor{key: key, enabled: true}
}

// IsEnabled reports whether the encryptor will actually encrypt data.
func (e *Encryptor) IsEnabled() bool {
	return e != nil && e.enabled
}

// Encrypt returns base64-encoded ciphertext with a key-version header. When
// disabled, it returns plaintext base64-encoded.
func (e *Encryptor) Encrypt(plaintext []byte) (string, error) {
	if !e.IsEnabled() {
		return base64.StdEncoding.EncodeToString(plaintext), nil
	}
	ciphertext, err := encrypt(plaintext, e.key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(ciphertext string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, ErrInvalidData
	}
	if !e.IsEnabled() {
		return data, nil
	}
	if len(data) < versionHeaderSize {
		return nil, ErrInvalidData
	}
	// The version header is reserved for future key rotation; its value is
	// read but not checked. GCM authentication in decrypt rejects data
	// sealed under a different key.
	_ = binary.BigEndian.Uint32(data[:versionHeaderSize])
	return decrypt(data[versionHeaderSize:], e.key)
}

// EncryptString is Encrypt for a string plaintext.
func (e *Encryptor) EncryptString(plaintext string) (string, error) {
	return e.Encrypt([]byte(plaintext))
}

// DecryptString is Decrypt returning a string.
func (e *Encryptor) DecryptString(ciphertext string) (string, error) {
	data, err := e.Decrypt(ciphertext)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	result := make([]byte, versionHeaderSize+len(nonce)+len(ciphertext))
	binary.BigEndian.PutUint32(result[:versionHeaderSize], keyVersion)
	copy(result[versionHeaderSize:], nonce)
	copy(result[versionHeaderSize+len(nonce):], ciphertext)
	return result, nil
}

func decrypt(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, ErrInvalidData
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
