// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"context"
	"encoding/json"

	"github.com/MKhiriev/go-key-gossip/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/crypto_engine_mock.go -package=mock

// Engine is the Olm/Megolm implementation the gossiping core runs on top
// of. It owns every secret and is opaque to this module: sessions only
// cross this boundary as pickles or exported key material.
type Engine interface {
	// HasSession reports whether an inbound group session is known locally.
	HasSession(ctx context.Context, roomID, sessionID, senderKey string) (bool, error)

	// ExportSession exports session so that it can be forwarded. A nil
	// fromIndex exports from the first known index.
	ExportSession(ctx context.Context, session *models.InboundGroupSession, fromIndex *int) (*models.ExportedSession, error)

	// EstablishChannel returns an Olm channel to device, claiming a one-time
	// key when no session exists yet. It fails with ErrNoOneTimeKey when the
	// device has no key left to claim.
	EstablishChannel(ctx context.Context, device *models.DeviceRecord) (Channel, error)

	// Encrypt encrypts an event payload for the channel's device and returns
	// the m.room.encrypted content to send.
	Encrypt(ctx context.Context, channel Channel, payload []byte) (json.RawMessage, error)

	// VerifySignature checks an ed25519 signature of payload made with key.
	VerifySignature(key string, payload []byte, signature string) error

	// DecryptToDevice decrypts an m.room.encrypted to-device event.
	DecryptToDevice(ctx context.Context, event models.ToDeviceEvent) (*DecryptedEvent, error)

	// ImportRoomKey turns forwarded or backed up key material into an
	// inbound group session.
	ImportRoomKey(ctx context.Context, content *models.ForwardedRoomKeyContent) (*models.InboundGroupSession, error)
}

// Channel identifies an established Olm session with one device.
type Channel struct {
	UserID    string
	DeviceID  string
	SessionID string
}

// DecryptedEvent is the clear payload of an Olm encrypted to-device event.
type DecryptedEvent struct {
	Type      string          `json:"type"`
	Content   json.RawMessage `json:"content"`
	Sender    string          `json:"sender"`
	SenderKey string          `json:"-"`
}
