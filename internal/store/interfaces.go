package store

import (
	"context"

	"github.com/MKhiriev/go-key-gossip/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// DeviceStore persists device records and the per-user tracking status.
type DeviceStore interface {
	GetDeviceTrackingStatuses(ctx context.Context) (map[string]models.DeviceTrackingStatus, error)
	SaveDeviceTrackingStatuses(ctx context.Context, statuses map[string]models.DeviceTrackingStatus) error

	// GetUserDevice returns ErrDeviceNotFound when the device is unknown.
	GetUserDevice(ctx context.Context, userID, deviceID string) (*models.DeviceRecord, error)
	GetUserDevices(ctx context.Context, userID string) (map[string]*models.DeviceRecord, error)
	// StoreUserDevices replaces the whole device list of userID.
	StoreUserDevices(ctx context.Context, userID string, devices map[string]*models.DeviceRecord) error

	SetDeviceTrust(ctx context.Context, userID, deviceID string, trust models.DeviceTrustLevel) error
	SetDeviceBlocked(ctx context.Context, userID, deviceID string, blocked bool) error
}

// OutgoingKeyRequestStore persists the key requests we send.
type OutgoingKeyRequestStore interface {
	// GetOutgoingKeyRequests returns the requests matching body exactly.
	// More than one result means the table is inconsistent.
	GetOutgoingKeyRequests(ctx context.Context, body models.RoomKeyRequestBody) ([]*models.OutgoingKeyRequest, error)
	// GetOutgoingKeyRequestsForSession returns the requests for a session,
	// whatever their algorithm.
	GetOutgoingKeyRequestsForSession(ctx context.Context, roomID, sessionID, senderKey string) ([]*models.OutgoingKeyRequest, error)
	// GetOutgoingKeyRequestsByState returns every request in one of states,
	// or every request when states is empty, oldest first.
	GetOutgoingKeyRequestsByState(ctx context.Context, states ...models.OutgoingKeyRequestState) ([]*models.OutgoingKeyRequest, error)
	// SaveOutgoingKeyRequest inserts or replaces req.
	SaveOutgoingKeyRequest(ctx context.Context, req *models.OutgoingKeyRequest) error
	DeleteOutgoingKeyRequest(ctx context.Context, requestID string) error
	DeleteOutgoingKeyRequestsByState(ctx context.Context, state models.OutgoingKeyRequestState) (int64, error)
}

// AuditStore persists the gossiping audit trail.
type AuditStore interface {
	SaveGossipAudit(ctx context.Context, entry models.GossipAuditEntry) error
	// ListGossipAudit returns the newest entries first. limit <= 0 means all.
	ListGossipAudit(ctx context.Context, limit int) ([]models.GossipAuditEntry, error)
}

// InboundSessionStore persists Megolm inbound group sessions.
type InboundSessionStore interface {
	// GetInboundGroupSession returns ErrSessionNotFound when unknown.
	GetInboundGroupSession(ctx context.Context, sessionID, senderKey string) (*models.InboundGroupSession, error)
	// StoreInboundGroupSessions upserts sessions in a single transaction.
	StoreInboundGroupSessions(ctx context.Context, sessions ...*models.InboundGroupSession) error
}

// SharedSessionStore records which devices an outbound session was shared
// with, and from which chain index.
type SharedSessionStore interface {
	GetSharedSessionInfo(ctx context.Context, roomID, sessionID, userID, deviceID string) (models.SharedSessionInfo, error)
	MarkSharedWithDevice(ctx context.Context, roomID, sessionID, userID, deviceID string, chainIndex int) error
}

// RoomStore persists the encryption algorithm of rooms.
type RoomStore interface {
	// GetRoomAlgorithm returns an empty string for unencrypted rooms.
	GetRoomAlgorithm(ctx context.Context, roomID string) (string, error)
	SetRoomAlgorithm(ctx context.Context, roomID, algorithm string) error
}

// AccountStore is a small key/value table for account level settings.
type AccountStore interface {
	GetAccountValue(ctx context.Context, key string) (string, bool, error)
	SetAccountValue(ctx context.Context, key, value string) error
}
