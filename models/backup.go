// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// AlgorithmMegolmBackup is the only supported key backup algorithm.
const AlgorithmMegolmBackup = "m.megolm_backup.v1.curve25519-aes-sha2"

// KeyBackupAuthData is the auth_data of a curve25519 key backup.
type KeyBackupAuthData struct {
	PublicKey            string                       `json:"public_key"`
	PrivateKeySalt       string                       `json:"private_key_salt,omitempty"`
	PrivateKeyIterations int                          `json:"private_key_iterations,omitempty"`
	Signatures           map[string]map[string]string `json:"signatures,omitempty"`
}

// KeyBackupVersion describes the current server-side key backup.
type KeyBackupVersion struct {
	Algorithm string          `json:"algorithm"`
	AuthData  json.RawMessage `json:"auth_data"`
	Count     int             `json:"count"`
	ETag      string          `json:"etag"`
	Version   string          `json:"version"`
}

// EncryptedSessionData is the session_data of a backed up key.
type EncryptedSessionData struct {
	Ephemeral  string `json:"ephemeral"`
	Ciphertext string `json:"ciphertext"`
	MAC        string `json:"mac"`
}

// KeyBackupData is one backed up session as returned by the homeserver.
type KeyBackupData struct {
	FirstMessageIndex int                  `json:"first_message_index"`
	ForwardedCount    int                  `json:"forwarded_count"`
	IsVerified        bool                 `json:"is_verified"`
	SessionData       EncryptedSessionData `json:"session_data"`
}

// BackedUpRoomKey is the decrypted session_data of a backed up key.
type BackedUpRoomKey struct {
	Algorithm                    string            `json:"algorithm"`
	SenderKey                    string            `json:"sender_key"`
	SessionKey                   string            `json:"session_key"`
	SenderClaimedKeys            map[string]string `json:"sender_claimed_keys"`
	ForwardingCurve25519KeyChain []string          `json:"forwarding_curve25519_key_chain"`
}

// BackupLastTry records the last backup lookup attempt for one session.
type BackupLastTry struct {
	BackupVersion string
	At            time.Time
}
