// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"github.com/MKhiriev/go-key-gossip/models"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
)

const (
	backupKeySize = curve25519.ScalarSize
	backupMACSize = 8

	// aes key (32) + mac key (32) + iv (16)
	backupDerivedSize = 32 + 32 + aes.BlockSize
)

// BackupKey is the curve25519 private key of a
// m.megolm_backup.v1.curve25519-aes-sha2 key backup.
type BackupKey struct {
	private []byte
	public  []byte
}

// NewBackupKey wraps a raw 32 byte private key.
func NewBackupKey(private []byte) (*BackupKey, error) {
	if len(private) != backupKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes", ErrInvalidBackupKey, backupKeySize)
	}

	public, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackupKey, err)
	}

	return &BackupKey{private: bytes.Clone(private), public: public}, nil
}

// GenerateBackupKey creates a fresh random backup key.
func GenerateBackupKey() (*BackupKey, error) {
	private := make([]byte, backupKeySize)
	if _, err := io.ReadFull(rand.Reader, private); err != nil {
		return nil, err
	}
	return NewBackupKey(private)
}

// BackupKeyFromPassphrase derives the backup key from a passphrase with
// PBKDF2-SHA512, using the salt and iteration count advertised in the
// backup's auth_data.
func BackupKeyFromPassphrase(passphrase, salt string, iterations int) (*BackupKey, error) {
	if salt == "" || iterations <= 0 {
		return nil, ErrInvalidPassphraseParam
	}

	private := pbkdf2.Key([]byte(passphrase), []byte(salt), iterations, backupKeySize, sha512.New)
	return NewBackupKey(private)
}

// PublicKey returns the unpadded base64 public key as published in
// auth_data.public_key.
func (k *BackupKey) PublicKey() string {
	return encodeUnpaddedBase64(k.public)
}

// Matches reports whether the key belongs to a backup with the given
// auth_data.public_key.
func (k *BackupKey) Matches(publicKey string) bool {
	pub, err := decodeUnpaddedBase64(publicKey)
	if err != nil {
		return false
	}
	return hmac.Equal(pub, k.public)
}

// Decrypt opens the session_data of a backed up room key.
func (k *BackupKey) Decrypt(data models.EncryptedSessionData) ([]byte, error) {
	ephemeral, err := decodeUnpaddedBase64(data.Ephemeral)
	if err != nil {
		return nil, fmt.Errorf("%w: ephemeral: %w", ErrInvalidBackupEncoding, err)
	}
	ciphertext, err := decodeUnpaddedBase64(data.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext: %w", ErrInvalidBackupEncoding, err)
	}
	mac, err := decodeUnpaddedBase64(data.MAC)
	if err != nil {
		return nil, fmt.Errorf("%w: mac: %w", ErrInvalidBackupEncoding, err)
	}

	shared, err := curve25519.X25519(k.private, ephemeral)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackupKey, err)
	}

	aesKey, macKey, iv, err := deriveBackupKeys(shared)
	if err != nil {
		return nil, err
	}

	if !hmac.Equal(backupMAC(macKey), mac) {
		return nil, ErrBackupMACMismatch
	}

	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrInvalidBackupPadding
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return unpad(plaintext)
}

// EncryptSessionData seals plaintext for the backup whose public key is
// given, as a client uploading keys would.
func EncryptSessionData(publicKey string, plaintext []byte) (models.EncryptedSessionData, error) {
	pub, err := decodeUnpaddedBase64(publicKey)
	if err != nil {
		return models.EncryptedSessionData{}, fmt.Errorf("%w: %w", ErrInvalidBackupEncoding, err)
	}

	ephemeral, err := GenerateBackupKey()
	if err != nil {
		return models.EncryptedSessionData{}, err
	}

	shared, err := curve25519.X25519(ephemeral.private, pub)
	if err != nil {
		return models.EncryptedSessionData{}, fmt.Errorf("%w: %w", ErrInvalidBackupKey, err)
	}

	aesKey, macKey, iv, err := deriveBackupKeys(shared)
	if err != nil {
		return models.EncryptedSessionData{}, err
	}

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return models.EncryptedSessionData{}, err
	}
	padded := pad(plaintext)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return models.EncryptedSessionData{
		Ephemeral:  ephemeral.PublicKey(),
		Ciphertext: encodeUnpaddedBase64(ciphertext),
		MAC:        encodeUnpaddedBase64(backupMAC(macKey)),
	}, nil
}

func deriveBackupKeys(shared []byte) (aesKey, macKey, iv []byte, err error) {
	derived := make([]byte, backupDerivedSize)
	r := hkdf.New(sha256.New, shared, make([]byte, sha256.Size), nil)
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, nil, nil, fmt.Errorf("error deriving backup keys: %w", err)
	}
	return derived[:32], derived[32:64], derived[64:], nil
}

// backupMAC is computed over an empty message, as every deployed client
// does for this algorithm.
func backupMAC(macKey []byte) []byte {
	h := hmac.New(sha256.New, macKey)
	return h.Sum(nil)[:backupMACSize]
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(bytes.Clone(b), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, ErrInvalidBackupPadding
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrInvalidBackupPadding
		}
	}
	return b[:len(b)-n], nil
}
