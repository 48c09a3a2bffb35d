// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"strings"
	"time"
)

// DeviceTrackingStatus is the per-user state of the device-list tracking
// state machine. The numeric values are persisted and must not change.
//
//	                             |
//	  stop tracking              V
//	+---------------------> NotTracked
//	|                            |
//	+<--------------------+      | start tracking
//	|                     |      V
//	|   +-------------> PendingDownload <-------------------+-+
//	|   |                      ^ |                          | |
//	|   | restart     download | | start download           | | invalidate
//	|   | client        failed | |                          | |
//	|   |                      | V                          | |
//	|   +------------ DownloadInProgress -------------------+ |
//	|                    |       |                            |
//	+<-------------------+       | download successful        |
//	^                            V                            |
//	+----------------------- UpToDate ------------------------+
type DeviceTrackingStatus int

const (
	TrackingStatusNotTracked         DeviceTrackingStatus = -1
	TrackingStatusPendingDownload    DeviceTrackingStatus = 1
	TrackingStatusDownloadInProgress DeviceTrackingStatus = 2
	TrackingStatusUpToDate           DeviceTrackingStatus = 3
	TrackingStatusUnreachableServer  DeviceTrackingStatus = 4
)

// String returns a human readable status name.
func (s DeviceTrackingStatus) String() string {
	switch s {
	case TrackingStatusNotTracked:
		return "not_tracked"
	case TrackingStatusPendingDownload:
		return "pending_download"
	case TrackingStatusDownloadInProgress:
		return "download_in_progress"
	case TrackingStatusUpToDate:
		return "up_to_date"
	case TrackingStatusUnreachableServer:
		return "unreachable_server"
	default:
		return "unknown"
	}
}

// DeviceTrustLevel is the client-side trust information of a device. It is
// never synchronised with the homeserver.
type DeviceTrustLevel struct {
	CrossSigningVerified bool `json:"cross_signing_verified"`
	LocallyVerified      bool `json:"locally_verified"`
}

// IsVerified reports whether the device is trusted by either mechanism.
func (t DeviceTrustLevel) IsVerified() bool {
	return t.CrossSigningVerified || t.LocallyVerified
}

// DeviceRecord is a device of a user as known by the local store.
type DeviceRecord struct {
	UserID     string                       `json:"user_id"`
	DeviceID   string                       `json:"device_id"`
	Algorithms []string                     `json:"algorithms"`
	Keys       map[string]string            `json:"keys"`
	Signatures map[string]map[string]string `json:"signatures"`
	Unsigned   json.RawMessage              `json:"unsigned,omitempty"`

	Trust         DeviceTrustLevel `json:"-"`
	Blocked       bool             `json:"-"`
	FirstTimeSeen time.Time        `json:"-"`
}

// Fingerprint returns the Ed25519 signing key of the device, or an empty
// string if the device has none.
func (d DeviceRecord) Fingerprint() string {
	return d.Keys["ed25519:"+d.DeviceID]
}

// IdentityKey returns the Curve25519 identity key of the device.
func (d DeviceRecord) IdentityKey() string {
	return d.Keys["curve25519:"+d.DeviceID]
}

// IsVerified reports whether the device is trusted locally or by cross-signing.
func (d DeviceRecord) IsVerified() bool {
	return d.Trust.IsVerified()
}

// ShortString is used in logs.
func (d DeviceRecord) ShortString() string {
	return d.UserID + "|" + d.DeviceID
}

// ServerName returns the homeserver part of a Matrix user id
// ("@alice:example.org" -> "example.org"), or an empty string.
func ServerName(userID string) string {
	_, server, found := strings.Cut(userID, ":")
	if !found {
		return ""
	}
	return server
}

// IsValidUserID reports whether userID looks like "@localpart:server".
func IsValidUserID(userID string) bool {
	if !strings.HasPrefix(userID, "@") {
		return false
	}
	local, server, found := strings.Cut(userID[1:], ":")
	return found && local != "" && server != ""
}

// UsersDevicesMap maps user id -> device id -> value.
type UsersDevicesMap[T any] map[string]map[string]T

// Set stores value for (userID, deviceID).
func (m UsersDevicesMap[T]) Set(userID, deviceID string, value T) {
	devices, ok := m[userID]
	if !ok {
		devices = make(map[string]T)
		m[userID] = devices
	}
	devices[deviceID] = value
}

// Get returns the value stored for (userID, deviceID).
func (m UsersDevicesMap[T]) Get(userID, deviceID string) (T, bool) {
	v, ok := m[userID][deviceID]
	return v, ok
}

// SetAll replaces every device of userID.
func (m UsersDevicesMap[T]) SetAll(userID string, devices map[string]T) {
	cp := make(map[string]T, len(devices))
	for k, v := range devices {
		cp[k] = v
	}
	m[userID] = cp
}

// Merge copies every entry of other that is not already present in m.
func (m UsersDevicesMap[T]) Merge(other UsersDevicesMap[T]) {
	for userID, devices := range other {
		for deviceID, v := range devices {
			if _, ok := m.Get(userID, deviceID); !ok {
				m.Set(userID, deviceID, v)
			}
		}
	}
}
