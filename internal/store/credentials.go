// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/fanout-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// EncryptedPrefix marks a value as encrypted (format: ENC:base64(nonce|ciphertext|tag))
const EncryptedPrefix = "ENC:"

// NonceSize is the size of the nonce/IV for AES-GCM (12 bytes / 96 bits)
const NonceSize = 12

// KeySize is the size of the AES-256 key (32 bytes / 256 bits)
const KeySize = 32

// SaltSize is the size of the salt for key derivation (32 bytes)
const SaltSize = 32

// PBKDF2Iterations is the number of iterations for PBKDF2 key derivation.
// OWASP 2023 recommends 600,000+ for PBKDF2-SHA-256.
const PBKDF2Iterations = 600000

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoCredential indicates no API key has been stored yet
	ErrNoCredential = errors.New("no API key stored: run 'fanout setup' first")
	// ErrInvalidCiphertext indicates the credential file format is invalid
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	// ErrDecryptionFailed indicates decryption failed (wrong key or tampered data)
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
)

// =============================================================================
// HELPERS
// =============================================================================

// ZeroBytes securely zeros sensitive byte slices to prevent memory disclosure.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// KEYRING
// =============================================================================

// Keyring stores the Gemini API key encrypted at rest.
//
// A random machine secret and salt are generated on first save; the
// AES-256 key is derived from them with PBKDF2-SHA-256. All files are
// owner read/write only.
type Keyring struct {
	dir string
}

// NewKeyring creates a keyring rooted at dir. Pass the application
// config directory (~/.fanout).
func NewKeyring(dir string) *Keyring {
	return &Keyring{dir: dir}
}

// DefaultKeyring returns a keyring in the user's config directory.
func DefaultKeyring() (*Keyring, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	return NewKeyring(filepath.Join(home, ".fanout")), nil
}

func (k *Keyring) secretPath() string     { return filepath.Join(k.dir, "master.key") }
func (k *Keyring) saltPath() string       { return filepath.Join(k.dir, "master.key.salt") }
func (k *Keyring) credentialPath() string { return filepath.Join(k.dir, "credentials.enc") }

// HasAPIKey reports whether a stored credential exists.
func (k *Keyring) HasAPIKey() bool {
	_, err := os.Stat(k.credentialPath())
	return err == nil
}

// SaveAPIKey encrypts and stores the API key, generating key material on
// first use.
func (k *Keyring) SaveAPIKey(apiKey string) error {
	gcm, err := k.loadCipher(true)
	if err != nil {
		return err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(apiKey), nil)
	output := EncryptedPrefix + base64.StdEncoding.EncodeToString(ciphertext)

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(k.credentialPath(), []byte(output), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return nil
}

// LoadAPIKey decrypts and returns the stored API key. The GEMINI_API_KEY
// environment variable, when set, takes precedence over the stored value.
func (k *Keyring) LoadAPIKey() (string, error) {
	if env := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); env != "" {
		return env, nil
	}

	data, err := os.ReadFile(k.credentialPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoCredential
		}
		return "", fmt.Errorf("failed to read credential: %w", err)
	}

	content := string(data)
	if !strings.HasPrefix(content, EncryptedPrefix) {
		return "", ErrInvalidCiphertext
	}

	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(content, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(ciphertext) < NonceSize {
		return "", ErrInvalidCiphertext
	}

	gcm, err := k.loadCipher(false)
	if err != nil {
		return "", err
	}

	nonce := ciphertext[:NonceSize]
	plaintext, err := gcm.Open(nil, nonce, ciphertext[NonceSize:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// DeleteAPIKey removes the stored credential. Key material is kept so a
// later SaveAPIKey reuses it.
func (k *Keyring) DeleteAPIKey() error {
	if err := os.Remove(k.credentialPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	return nil
}

// loadCipher derives the AES-GCM cipher from the machine secret and salt,
// generating both when create is set and they do not exist yet.
func (k *Keyring) loadCipher(create bool) (cipher.AEAD, error) {
	secret, err := k.loadOrCreateMaterial(k.secretPath(), create)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(secret)

	salt, err := k.loadOrCreateMaterial(k.saltPath(), create)
	if err != nil {
		return nil, err
	}

	// SECURITY: PBKDF2-SHA-256 key stretching per NIST SP 800-132
	key := pbkdf2.Key(secret, salt, PBKDF2Iterations, KeySize, sha256.New)
	defer ZeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return gcm, nil
}

// loadOrCreateMaterial reads 32 bytes of key material from path, creating
// it with secure random data when absent and create is set.
func (k *Keyring) loadOrCreateMaterial(path string, create bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if len(data) != SaltSize {
			return nil, fmt.Errorf("corrupt key material at %s", path)
		}
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read key material: %w", err)
	}
	if !create {
		return nil, ErrNoCredential
	}

	data = make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, data); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}
	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(path, data, 0600, 0700); err != nil {
		return nil, fmt.Errorf("failed to store key material: %w", err)
	}
	return data, nil
}
