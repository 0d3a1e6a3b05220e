package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

var (
	// ErrInvalidKey is returned when the encryption key is not 32 bytes (AES-256).
	ErrInvalidKey = errors.New("encryption key must be exactly 32 bytes")

	// ErrDecryptionFailed is returned when a ciphertext cannot be decrypted,
	// typically because it was produced under a different key or was tampered with.
	// Callers should treat this as "reconnect required", not as a transient failure.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// Encryptor encrypts and decrypts credentials at rest using AES-256-GCM.
// Ciphertexts are base64-encoded with the nonce prepended.
type Encryptor struct {
	gcm cipher.AEAD
}

// NewEncryptor creates an Encryptor from a 32-byte key string.
func NewEncryptor(key string) (*Encryptor, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Encryptor{gcm: gcm}, nil
}

// Encrypt encrypts a plaintext string. Empty input passes through unchanged.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := e.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Empty input passes through unchanged.
// Returns ErrDecryptionFailed if the ciphertext was produced under a different
// key, was tampered with, or is not a valid ciphertext at all.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", ErrDecryptionFailed, err)
	}

	nonceSize := e.gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext shorter than nonce", ErrDecryptionFailed)
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	return string(plaintext), nil
}

// LoadOrCreateKey returns the configured key, or, when it is empty, loads the
// key from keyPath, generating and persisting a fresh one on first use.
//
// Generating the key on the fly is a development shortcut carried over from the
// original deployment model: if the key file is lost, every stored credential
// becomes undecryptable and users must reconnect their banks. Production
// deployments must provision ENCRYPTION_KEY explicitly.
func LoadOrCreateKey(configured, keyPath string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	if data, err := os.ReadFile(keyPath); err == nil {
		key := strings.TrimSpace(string(data))
		if len(key) != 32 {
			return "", fmt.Errorf("key file %s: %w", keyPath, ErrInvalidKey)
		}
		return key, nil
	}

	buf := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	key := hex.EncodeToString(buf) // 32 ASCII chars

	if err := os.WriteFile(keyPath, []byte(key), 0o600); err != nil {
		return "", fmt.Errorf("failed to persist generated key: %w", err)
	}
	log.Printf("WARNING: generated new encryption key at %s; set ENCRYPTION_KEY for production use", keyPath)

	return key, nil
}
