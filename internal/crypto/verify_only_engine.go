// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-key-gossip/models"
)

// VerifyOnlyEngine is an [Engine] without Olm/Megolm state. It checks device
// signatures, so device lists can be downloaded and validated, and fails
// every operation that needs session secrets with ErrEngineUnavailable.
//
// It backs the command line tools and the watch-only daemon mode.
type VerifyOnlyEngine struct{}

// NewVerifyOnlyEngine returns a [VerifyOnlyEngine].
func NewVerifyOnlyEngine() *VerifyOnlyEngine {
	return &VerifyOnlyEngine{}
}

func (VerifyOnlyEngine) HasSession(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func (VerifyOnlyEngine) ExportSession(context.Context, *models.InboundGroupSession, *int) (*models.ExportedSession, error) {
	return nil, ErrEngineUnavailable
}

func (VerifyOnlyEngine) EstablishChannel(context.Context, *models.DeviceRecord) (Channel, error) {
	return Channel{}, ErrEngineUnavailable
}

func (VerifyOnlyEngine) Encrypt(context.Context, Channel, []byte) (json.RawMessage, error) {
	return nil, ErrEngineUnavailable
}

// VerifySignature checks an unpadded base64 ed25519 signature.
func (VerifyOnlyEngine) VerifySignature(key string, payload []byte, signature string) error {
	pub, err := decodeUnpadded(key)
	if err != nil {
		return fmt.Errorf("%w: bad key: %w", ErrInvalidSignature, err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: key is %d bytes", ErrInvalidSignature, len(pub))
	}
	sig, err := decodeUnpadded(signature)
	if err != nil {
		return fmt.Errorf("%w: bad signature: %w", ErrInvalidSignature, err)
	}
	if !ed25519.Verify(pub, payload, sig) {
		return ErrInvalidSignature
	}
	return nil
}

func (VerifyOnlyEngine) DecryptToDevice(context.Context, models.ToDeviceEvent) (*DecryptedEvent, error) {
	return nil, ErrEngineUnavailable
}

func (VerifyOnlyEngine) ImportRoomKey(context.Context, *models.ForwardedRoomKeyContent) (*models.InboundGroupSession, error) {
	return nil, ErrEngineUnavailable
}

// decodeUnpadded accepts both unpadded (Matrix) and padded base64.
func decodeUnpadded(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
