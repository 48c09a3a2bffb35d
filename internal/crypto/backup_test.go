// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"bytes"
	"testing"

	"github.com/MKhiriev/go-key-gossip/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── BackupKey ────────────────────────────────────────────────────────────────

func TestNewBackupKey_RejectsWrongLength(t *testing.T) {
	_, err := NewBackupKey(make([]byte, 16))
	assert.ErrorIs(t, err, ErrInvalidBackupKey)
}

func TestBackupKey_MatchesOwnPublicKey(t *testing.T) {
	key, err := GenerateBackupKey()
	require.NoError(t, err)
	other, err := GenerateBackupKey()
	require.NoError(t, err)

	assert.True(t, key.Matches(key.PublicKey()))
	assert.False(t, key.Matches(other.PublicKey()))
	assert.False(t, key.Matches("%%%"))
}

func TestBackupKeyFromPassphrase_Deterministic(t *testing.T) {
	k1, err := BackupKeyFromPassphrase("correct horse", "saltsaltsalt", 1000)
	require.NoError(t, err)
	k2, err := BackupKeyFromPassphrase("correct horse", "saltsaltsalt", 1000)
	require.NoError(t, err)
	k3, err := BackupKeyFromPassphrase("battery staple", "saltsaltsalt", 1000)
	require.NoError(t, err)

	assert.Equal(t, k1.PublicKey(), k2.PublicKey())
	assert.NotEqual(t, k1.PublicKey(), k3.PublicKey())
}

func TestBackupKeyFromPassphrase_InvalidParams(t *testing.T) {
	_, err := BackupKeyFromPassphrase("pw", "", 1000)
	assert.ErrorIs(t, err, ErrInvalidPassphraseParam)

	_, err = BackupKeyFromPassphrase("pw", "salt", 0)
	assert.ErrorIs(t, err, ErrInvalidPassphraseParam)
}

// ── Encrypt / Decrypt ────────────────────────────────────────────────────────

func TestBackupKey_DecryptsWhatWasEncrypted(t *testing.T) {
	key, err := GenerateBackupKey()
	require.NoError(t, err)

	for _, size := range []int{0, 1, 15, 16, 17, 200} {
		plaintext := bytes.Repeat([]byte{'k'}, size)

		data, err := EncryptSessionData(key.PublicKey(), plaintext)
		require.NoError(t, err)

		got, err := key.Decrypt(data)
		require.NoError(t, err, "size %d", size)
		assert.Equal(t, plaintext, got)
	}
}

func TestBackupKey_Decrypt_WrongKeyFailsMAC(t *testing.T) {
	key, err := GenerateBackupKey()
	require.NoError(t, err)
	wrong, err := GenerateBackupKey()
	require.NoError(t, err)

	data, err := EncryptSessionData(key.PublicKey(), []byte(`{"session_key":"abc"}`))
	require.NoError(t, err)

	_, err = wrong.Decrypt(data)
	assert.ErrorIs(t, err, ErrBackupMACMismatch)
}

func TestBackupKey_Decrypt_Malformed(t *testing.T) {
	key, err := GenerateBackupKey()
	require.NoError(t, err)
	good, err := EncryptSessionData(key.PublicKey(), []byte("payload"))
	require.NoError(t, err)

	truncated := good
	truncated.Ciphertext = good.Ciphertext[:10]

	tests := []struct {
		name    string
		data    models.EncryptedSessionData
		wantErr error
	}{
		{name: "bad ephemeral", data: models.EncryptedSessionData{Ephemeral: "***", Ciphertext: good.Ciphertext, MAC: good.MAC}, wantErr: ErrInvalidBackupEncoding},
		{name: "bad ciphertext", data: models.EncryptedSessionData{Ephemeral: good.Ephemeral, Ciphertext: "***", MAC: good.MAC}, wantErr: ErrInvalidBackupEncoding},
		{name: "bad mac", data: models.EncryptedSessionData{Ephemeral: good.Ephemeral, Ciphertext: good.Ciphertext, MAC: "***"}, wantErr: ErrInvalidBackupEncoding},
		{name: "truncated ciphertext", data: truncated, wantErr: ErrInvalidBackupPadding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := key.Decrypt(tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUnpad_RejectsBadPadding(t *testing.T) {
	block := bytes.Repeat([]byte{1}, 16)
	block[15] = 0
	_, err := unpad(block)
	assert.ErrorIs(t, err, ErrInvalidBackupPadding)

	block[15] = 3
	_, err = unpad(block)
	assert.ErrorIs(t, err, ErrInvalidBackupPadding)
}
