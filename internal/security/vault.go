// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package security protects the access token at rest.
//
// The token is encrypted with AES-256-GCM under a key derived via
// PBKDF2-SHA-256, either from a user passphrase or from a random secret
// kept in a 0600 key file next to the token.
package security

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
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/kimi-tui/internal/util"
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

// Vault file names under the vault directory.
const (
	tokenFile = "token.enc"
	saltFile  = "vault.salt"
	keyFile   = "vault.key"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoToken indicates no token has been stored.
	ErrNoToken = errors.New("no access token stored: run 'kimi-tui auth'")
	// ErrInvalidCiphertext indicates the stored token format is invalid.
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")
	// ErrDecryptionFailed indicates decryption failed (wrong passphrase or
	// tampered data).
	ErrDecryptionFailed = errors.New("decryption failed: authentication tag mismatch")
)

// =============================================================================
// HELPERS
// =============================================================================

// ZeroBytes zeros sensitive byte slices to limit memory disclosure.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateSalt generates a cryptographically secure random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives an encryption key from a secret and salt using
// PBKDF2-SHA-256.
func DeriveKey(secret string, salt []byte) []byte {
	return pbkdf2.Key([]byte(secret), salt, PBKDF2Iterations, KeySize, sha256.New)
}

// IsEncrypted checks if a string value is encrypted (has ENC: prefix).
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptedPrefix)
}

// =============================================================================
// VAULT
// =============================================================================

// Vault stores the access token encrypted on disk.
type Vault struct {
	mu  sync.Mutex
	dir string
}

// NewVault creates a vault rooted at dir.
func NewVault(dir string) *Vault {
	return &Vault{dir: dir}
}

// DefaultVaultDir returns the default vault location.
func DefaultVaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".kimi-tui"), nil
}

// HasToken reports whether a token is stored.
func (v *Vault) HasToken() bool {
	_, err := os.Stat(filepath.Join(v.dir, tokenFile))
	return err == nil
}

// RequiresPassphrase reports whether the stored token was sealed with a
// user passphrase rather than the key file.
func (v *Vault) RequiresPassphrase() bool {
	if !v.HasToken() {
		return false
	}
	_, err := os.Stat(filepath.Join(v.dir, keyFile))
	return os.IsNotExist(err)
}

// SaveToken encrypts and stores the token. With an empty passphrase a
// random secret is generated and kept in a 0600 key file; a non-empty
// passphrase is required again on load and nothing usable stays on disk.
func (v *Vault) SaveToken(token, passphrase string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	salt, err := GenerateSalt()
	if err != nil {
		return err
	}
	// The vault directory is created on first save, readable by the
	// owner only.
	if err := util.AtomicWriteFileWithDir(filepath.Join(v.dir, saltFile), salt, 0600, 0700); err != nil {
		return fmt.Errorf("failed to save salt: %w", err)
	}

	secret, err := v.ensureSecret(passphrase)
	if err != nil {
		return err
	}

	key := DeriveKey(secret, salt)
	defer ZeroBytes(key)

	sealed, err := seal(key, []byte(token))
	if err != nil {
		return err
	}

	encoded := EncryptedPrefix + base64.StdEncoding.EncodeToString(sealed)
	if err := util.AtomicWriteFileWithDir(filepath.Join(v.dir, tokenFile), []byte(encoded), 0600, 0700); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken decrypts and returns the stored token.
func (v *Vault) LoadToken(passphrase string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(v.dir, tokenFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	encoded := strings.TrimSpace(string(raw))
	if !IsEncrypted(encoded) {
		return "", ErrInvalidCiphertext
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}

	salt, err := os.ReadFile(filepath.Join(v.dir, saltFile))
	if err != nil {
		return "", fmt.Errorf("failed to read salt: %w", err)
	}

	secret, err := v.loadSecret(passphrase)
	if err != nil {
		return "", err
	}

	key := DeriveKey(secret, salt)
	defer ZeroBytes(key)

	plaintext, err := open(key, sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// DeleteToken removes the stored token and key material.
func (v *Vault) DeleteToken() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, name := range []string{tokenFile, saltFile, keyFile} {
		if err := os.Remove(filepath.Join(v.dir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// ensureSecret returns the passphrase, or creates/loads the key-file
// secret when no passphrase is used.
func (v *Vault) ensureSecret(passphrase string) (string, error) {
	if passphrase != "" {
		// Passphrase mode leaves no key file behind.
		_ = os.Remove(filepath.Join(v.dir, keyFile))
		return passphrase, nil
	}

	path := filepath.Join(v.dir, keyFile)
	if raw, err := os.ReadFile(path); err == nil {
		return string(raw), nil
	}

	secret := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return "", fmt.Errorf("failed to generate vault secret: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(secret)
	ZeroBytes(secret)

	if err := util.AtomicWriteFileWithDir(path, []byte(encoded), 0600, 0700); err != nil {
		return "", fmt.Errorf("failed to save vault secret: %w", err)
	}
	return encoded, nil
}

// loadSecret returns the passphrase or the stored key-file secret.
func (v *Vault) loadSecret(passphrase string) (string, error) {
	if passphrase != "" {
		return passphrase, nil
	}
	raw, err := os.ReadFile(filepath.Join(v.dir, keyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: vault requires a passphrase", ErrDecryptionFailed)
		}
		return "", fmt.Errorf("failed to read vault secret: %w", err)
	}
	return string(raw), nil
}

// =============================================================================
// AES-GCM
// =============================================================================

// seal encrypts plaintext, returning nonce || ciphertext || tag.
func seal(key, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// open decrypts nonce || ciphertext || tag.
func open(key, sealed []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < NonceSize {
		return nil, ErrInvalidCiphertext
	}
	plaintext, err := aead.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
