// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service implements room-key gossiping and device tracking on top
// of the crypto store, the homeserver adapter and an external Olm/Megolm
// engine.
//
// The components are wired by [NewServices]:
//
//   - [DeviceListTracker] keeps the per-user device tracking state machine
//     and downloads device keys.
//   - [OutgoingKeyRequestManager] owns the requests we send for keys we are
//     missing. All its work runs on a sequencer.
//   - [IncomingKeyRequestManager] buffers requests from other devices and
//     answers them once per sync.
//   - [BackupFallbackLimiter] consults the server-side key backup before
//     peers are asked, and rate limits those lookups.
//   - [InboundSessionCache] is a write-back cache over stored sessions.
//   - [CryptoService] routes sync responses to the components above and
//     runs their sync-boundary checkpoints in order.
package service

import (
	"context"

	"github.com/MKhiriev/go-key-gossip/internal/crypto"
	"github.com/MKhiriev/go-key-gossip/models"
)

// DeviceListTracker maintains which users' device lists are tracked and
// fresh.
type DeviceListTracker interface {
	// Init resets downloads interrupted by a previous shutdown.
	Init(ctx context.Context) error
	// StartTracking flags users for device tracking. Already tracked users
	// are left untouched.
	StartTracking(ctx context.Context, userIDs []string) error
	// HandleDeviceListChanges applies the device_lists section of a sync.
	HandleDeviceListChanges(ctx context.Context, changed, left []string) error
	// InvalidateAllDeviceLists marks every tracked user as outdated.
	InvalidateAllDeviceLists(ctx context.Context) error
	// DownloadKeys returns the devices of userIDs, downloading the lists
	// that are not known to be up to date (or all of them when force is set).
	DownloadKeys(ctx context.Context, userIDs []string, force bool) (models.UsersDevicesMap[*models.DeviceRecord], error)
	// RefreshOutdatedDeviceLists downloads every list pending download.
	RefreshOutdatedDeviceLists(ctx context.Context) error
	// OnRoomMembersLoaded starts tracking the members of an encrypted room.
	OnRoomMembersLoaded(ctx context.Context, roomID string, memberIDs []string) error

	AddListener(l DeviceListListener)
	RemoveListener(l DeviceListListener)
}

// DeviceListListener is notified after device lists were downloaded.
type DeviceListListener interface {
	OnUsersDeviceUpdate(userIDs []string)
}

// OutgoingKeyRequestManager queues, sends, cancels and resends our own room
// key requests. Every method only posts work and returns immediately.
type OutgoingKeyRequestManager interface {
	RequestKeyForEvent(event models.EncryptedEvent, force bool)
	PostRoomKeyRequest(body models.RoomKeyRequestBody, recipients map[string][]string, fromIndex int, force bool)
	PostCancelRequestForSessionIfNeeded(sessionID, roomID, senderKey string, fromIndex int)
	RequireProcessAllPendingKeyRequests()
	OnRoomKeyForwarded(reply RoomKeyReply)
	OnRoomKeyWithHeld(reply RoomKeyReply)
	OnSelfCrossSigningTrustChanged(trusted bool)
	// Flush waits until every operation posted so far has run.
	Flush(ctx context.Context) error
	Close()
}

// RoomKeyReply is a forwarded key or withheld notice received for a
// session we may have requested.
type RoomKeyReply struct {
	Body       models.RoomKeyRequestBody
	Sender     string
	FromDevice string
	EventType  string
	ChainIndex *int
	Code       models.WithHeldCode
}

// IncomingKeyRequestManager answers room key requests from other devices.
type IncomingKeyRequestManager interface {
	AddNewIncomingRequest(senderID string, request models.RoomKeyShareRequest)
	ProcessIncomingRequests()
	AddRoomKeysRequestListener(l RoomKeysRequestListener)
	RemoveRoomKeysRequestListener(l RoomKeysRequestListener)
	// Flush waits until every operation posted so far has run.
	Flush(ctx context.Context) error
	Close()
}

// RoomKeysRequestListener observes valid incoming requests as they are
// buffered.
type RoomKeysRequestListener interface {
	OnRoomKeyRequest(request models.IncomingKeyRequest)
	OnRoomKeyRequestCancellation(request models.IncomingKeyRequest)
}

// BackupFallbackLimiter restores single sessions from the key backup,
// remembering misses per backup version.
type BackupFallbackLimiter interface {
	RefreshBackupInfoIfNeeded(ctx context.Context, force bool)
	TryFromBackupIfPossible(ctx context.Context, sessionID, roomID string) bool
}

// KeyBackupService is the server-side key backup as seen by the limiter.
type KeyBackupService interface {
	// GetCurrentVersion returns the current backup, or nil if there is none.
	GetCurrentVersion(ctx context.Context) (*models.KeyBackupVersion, error)
	// IsTrusted reports whether our recovery key opens version.
	IsTrusted(version *models.KeyBackupVersion) bool
	// RestoreSession imports one session from the backup and returns the
	// number of imported keys.
	RestoreSession(ctx context.Context, version *models.KeyBackupVersion, roomID, sessionID string) (int, error)
	SetRecoveryKey(key *crypto.BackupKey)
	SetRecoveryPassphrase(ctx context.Context, passphrase string) error
}

// InboundSessionCache is a bounded write-back cache of inbound group
// sessions.
type InboundSessionCache interface {
	Get(ctx context.Context, sessionID, senderKey string) (*models.InboundGroupSession, error)
	Put(ctx context.Context, session *models.InboundGroupSession) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

// CryptoService is the entry point used by the sync loop and the client.
type CryptoService interface {
	Start(ctx context.Context) error
	OnSyncResponse(ctx context.Context, resp *models.SyncResponse) error
	OnSyncCompleted(ctx context.Context) error
	OnDecryptionFailed(event models.EncryptedEvent, force bool)
	OnRoomEncryptionEnabled(ctx context.Context, roomID, algorithm string, memberIDs []string) error
	OnSessionSharedWithDevice(ctx context.Context, roomID, sessionID, userID, deviceID string, chainIndex int) error
	OnSelfCrossSigningTrustChanged(trusted bool)
	SetGossipingEnabled(ctx context.Context, enabled bool) error
	IsGossipingEnabled(ctx context.Context) bool
	SetDeviceVerified(ctx context.Context, userID, deviceID string, verified bool) error
	SetDeviceBlocked(ctx context.Context, userID, deviceID string, blocked bool) error
	Close(ctx context.Context) error
}

// SyncJob long-polls the homeserver and feeds the crypto service.
type SyncJob interface {
	Start(ctx context.Context)
	Stop()
}

// IDGenerator generates request and transaction ids.
type IDGenerator interface {
	Generate() string
}
