// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-key-gossip/internal/adapter"
	"github.com/MKhiriev/go-key-gossip/internal/crypto"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/models"
)

type keyBackupService struct {
	adapter adapter.HomeserverAdapter
	engine  crypto.Engine
	cache   InboundSessionCache
	logger  *logger.Logger

	mu          sync.RWMutex
	recoveryKey *crypto.BackupKey
}

// NewKeyBackupService returns a [KeyBackupService] restoring sessions into
// cache. It has no recovery key until SetRecoveryKey or
// SetRecoveryPassphrase is called.
func NewKeyBackupService(homeserver adapter.HomeserverAdapter, engine crypto.Engine, cache InboundSessionCache, log *logger.Logger) KeyBackupService {
	return &keyBackupService{
		adapter: homeserver,
		engine:  engine,
		cache:   cache,
		logger:  log.Component("key_backup"),
	}
}

func (k *keyBackupService) GetCurrentVersion(ctx context.Context) (*models.KeyBackupVersion, error) {
	version, err := k.adapter.GetKeyBackupVersion(ctx)
	if errors.Is(err, adapter.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return version, nil
}

func (k *keyBackupService) IsTrusted(version *models.KeyBackupVersion) bool {
	key := k.key()
	if version == nil || key == nil {
		return false
	}
	if version.Algorithm != models.AlgorithmMegolmBackup {
		return false
	}

	authData, err := parseAuthData(version)
	if err != nil {
		k.logger.Warn().Err(err).Str("version", version.Version).Msg("unparsable backup auth_data")
		return false
	}
	return key.Matches(authData.PublicKey)
}

func (k *keyBackupService) RestoreSession(ctx context.Context, version *models.KeyBackupVersion, roomID, sessionID string) (int, error) {
	key := k.key()
	if key == nil {
		return 0, ErrNoBackupKey
	}
	if version == nil {
		return 0, ErrNoBackup
	}

	log := k.logger.With().
		Str("func", "keyBackupService.RestoreSession").
		Str("room_id", roomID).
		Str("session_id", sessionID).
		Logger()

	data, err := k.adapter.GetRoomKeyBackup(ctx, roomID, sessionID, version.Version)
	if errors.Is(err, adapter.ErrNotFound) {
		log.Debug().Msg("session is not in the backup")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	plaintext, err := key.Decrypt(data.SessionData)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidBackupData, err)
	}

	var backedUp models.BackedUpRoomKey
	if err := json.Unmarshal(plaintext, &backedUp); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidBackupData, err)
	}
	if backedUp.Algorithm != models.AlgorithmMegolm || backedUp.SessionKey == "" {
		return 0, fmt.Errorf("%w: algorithm %q", ErrInvalidBackupData, backedUp.Algorithm)
	}

	session, err := k.engine.ImportRoomKey(ctx, &models.ForwardedRoomKeyContent{
		Algorithm:                    backedUp.Algorithm,
		RoomID:                       roomID,
		SenderKey:                    backedUp.SenderKey,
		SessionID:                    sessionID,
		SessionKey:                   backedUp.SessionKey,
		SenderClaimedEd25519Key:      backedUp.SenderClaimedKeys["ed25519"],
		ForwardingCurve25519KeyChain: backedUp.ForwardingCurve25519KeyChain,
		ChainIndex:                   data.FirstMessageIndex,
	})
	if err != nil {
		return 0, err
	}

	if err := k.cache.Put(ctx, session); err != nil {
		return 0, err
	}

	log.Info().Int("first_known_index", session.FirstKnownIndex).Msg("session restored from backup")
	return 1, nil
}

func (k *keyBackupService) SetRecoveryKey(key *crypto.BackupKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.recoveryKey = key
}

// SetRecoveryPassphrase derives the recovery key from passphrase with the
// parameters published by the current backup.
func (k *keyBackupService) SetRecoveryPassphrase(ctx context.Context, passphrase string) error {
	version, err := k.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}
	if version == nil {
		return ErrNoBackup
	}
	if version.Algorithm != models.AlgorithmMegolmBackup {
		return fmt.Errorf("%w: %s", ErrUnsupportedBackup, version.Algorithm)
	}

	authData, err := parseAuthData(version)
	if err != nil {
		return err
	}

	key, err := crypto.BackupKeyFromPassphrase(passphrase, authData.PrivateKeySalt, authData.PrivateKeyIterations)
	if err != nil {
		return err
	}
	if !key.Matches(authData.PublicKey) {
		return ErrUntrustedBackup
	}

	k.SetRecoveryKey(key)
	return nil
}

func (k *keyBackupService) key() *crypto.BackupKey {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.recoveryKey
}

func parseAuthData(version *models.KeyBackupVersion) (models.KeyBackupAuthData, error) {
	var authData models.KeyBackupAuthData
	if err := json.Unmarshal(version.AuthData, &authData); err != nil {
		return authData, fmt.Errorf("%w: auth_data: %w", ErrUnsupportedBackup, err)
	}
	return authData, nil
}
