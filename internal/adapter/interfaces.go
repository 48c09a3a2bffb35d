// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter is the client side of the homeserver client-server API
// used by the gossiping core.
//
// [HomeserverAdapter] decouples the services from HTTP. The only
// implementation ([NewHTTPHomeserverAdapter]) is built on go-resty and talks
// to the /_matrix/client/v3 endpoints.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] (e.g. [ErrNotFound] when
// no key backup exists, [ErrServerUnavailable] for 502/503/504).
package adapter

import (
	"context"
	"time"

	"github.com/MKhiriev/go-key-gossip/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/homeserver_adapter_mock.go -package=mock

// HomeserverAdapter is the subset of the client-server API the gossiping
// core needs.
type HomeserverAdapter interface {
	// SendToDevice sends one to-device event type to every (user, device)
	// pair in messages. txnID makes the call idempotent on the server: a
	// retried send with the same txnID is delivered once.
	SendToDevice(ctx context.Context, eventType, txnID string, messages models.UsersDevicesMap[any]) error

	// QueryKeys downloads the device keys of the requested users. Per-server
	// failures are reported in the response, not as an error.
	QueryKeys(ctx context.Context, req models.KeysQueryRequest) (*models.KeysQueryResponse, error)

	// GetKeyBackupVersion returns the current key backup. Returns
	// [ErrNotFound] (wrapped) when the account has no backup.
	GetKeyBackupVersion(ctx context.Context) (*models.KeyBackupVersion, error)

	// GetRoomKeyBackup fetches one backed up session of the given backup
	// version. Returns [ErrNotFound] (wrapped) if it is not in the backup.
	GetRoomKeyBackup(ctx context.Context, roomID, sessionID, version string) (*models.KeyBackupData, error)

	// Sync long-polls /sync from the since token.
	Sync(ctx context.Context, since string, timeout time.Duration) (*models.SyncResponse, error)
}
