// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-key-gossip/internal/clock"
	"github.com/MKhiriev/go-key-gossip/internal/config"
	"github.com/MKhiriev/go-key-gossip/internal/logger"
	"github.com/MKhiriev/go-key-gossip/internal/metrics"
	"github.com/MKhiriev/go-key-gossip/models"
)

type backupTryKey struct {
	sessionID string
	roomID    string
}

type backupFallbackLimiter struct {
	backup  KeyBackupService
	clock   clock.Clock
	window  time.Duration
	metrics *metrics.Metrics
	logger  *logger.Logger

	mu      sync.Mutex
	checked bool
	// version is nil when there is no backup or we cannot open it.
	version *models.KeyBackupVersion
	lastTry map[backupTryKey]models.BackupLastTry
}

// NewBackupFallbackLimiter returns a [BackupFallbackLimiter] that retries a
// session missing from the backup at most once per cfg.BackupRetryWindow,
// unless the backup version changes.
func NewBackupFallbackLimiter(backup KeyBackupService, cfg config.ClientCrypto, clk clock.Clock, m *metrics.Metrics, log *logger.Logger) BackupFallbackLimiter {
	window := cfg.BackupRetryWindow
	if window <= 0 {
		window = config.DefaultBackupRetryWindow
	}

	return &backupFallbackLimiter{
		backup:  backup,
		clock:   clk,
		window:  window,
		metrics: m,
		logger:  log.Component("backup_fallback_limiter"),
		lastTry: make(map[backupTryKey]models.BackupLastTry),
	}
}

func (b *backupFallbackLimiter) RefreshBackupInfoIfNeeded(ctx context.Context, force bool) {
	b.mu.Lock()
	if b.checked && !force {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	version, err := b.backup.GetCurrentVersion(ctx)
	if err != nil {
		b.logger.Err(err).Str("func", "backupFallbackLimiter.RefreshBackupInfoIfNeeded").Msg("failed to get key backup version")
		return
	}
	if version != nil && !b.backup.IsTrusted(version) {
		b.logger.Info().Str("version", version.Version).Msg("key backup is not trusted, it will not be used")
		version = nil
	}

	b.mu.Lock()
	b.checked = true
	b.version = version
	b.mu.Unlock()
}

func (b *backupFallbackLimiter) TryFromBackupIfPossible(ctx context.Context, sessionID, roomID string) bool {
	b.RefreshBackupInfoIfNeeded(ctx, false)

	key := backupTryKey{sessionID: sessionID, roomID: roomID}
	log := b.logger.With().
		Str("func", "backupFallbackLimiter.TryFromBackupIfPossible").
		Str("session_id", sessionID).
		Str("room_id", roomID).
		Logger()

	b.mu.Lock()
	version := b.version
	if version == nil {
		b.mu.Unlock()
		b.metrics.BackupAttempt(metrics.BackupSkipped)
		return false
	}
	if last, ok := b.lastTry[key]; ok && last.BackupVersion == version.Version && b.clock.Now().Sub(last.At) < b.window {
		b.mu.Unlock()
		log.Debug().Time("last_try", last.At).Msg("session missing from backup recently, skipping")
		b.metrics.BackupAttempt(metrics.BackupSkipped)
		return false
	}
	b.mu.Unlock()

	imported, err := b.backup.RestoreSession(ctx, version, roomID, sessionID)
	if err != nil {
		log.Err(err).Msg("failed to restore session from backup")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil && imported == 1 {
		delete(b.lastTry, key)
		b.metrics.BackupAttempt(metrics.BackupRestored)
		return true
	}
	b.lastTry[key] = models.BackupLastTry{BackupVersion: version.Version, At: b.clock.Now()}
	b.metrics.BackupAttempt(metrics.BackupMissing)
	return false
}
