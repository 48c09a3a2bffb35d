// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MKhiriev/go-key-gossip/models"
)

type versionResponse struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

type gossipState struct {
	Enabled bool `json:"enabled"`
}

type flagRequest struct {
	Value *bool `json:"value"`
}

type deviceResponse struct {
	DeviceID             string `json:"device_id"`
	Ed25519              string `json:"ed25519"`
	Curve25519           string `json:"curve25519"`
	LocallyVerified      bool   `json:"locally_verified"`
	CrossSigningVerified bool   `json:"cross_signing_verified"`
	Blocked              bool   `json:"blocked"`
}

func newDeviceResponse(d *models.DeviceRecord) deviceResponse {
	return deviceResponse{
		DeviceID:             d.DeviceID,
		Ed25519:              d.Fingerprint(),
		Curve25519:           d.IdentityKey(),
		LocallyVerified:      d.Trust.LocallyVerified,
		CrossSigningVerified: d.Trust.CrossSigningVerified,
		Blocked:              d.Blocked,
	}
}

type keyRequestResponse struct {
	RequestID  string                    `json:"request_id"`
	State      string                    `json:"state"`
	Body       models.RoomKeyRequestBody `json:"body"`
	Recipients map[string][]string       `json:"recipients"`
	FromIndex  int                       `json:"from_index"`
	Replies    []models.OutgoingKeyReply `json:"replies,omitempty"`
	CreatedAt  time.Time                 `json:"created_at"`
}

func newKeyRequestResponse(r *models.OutgoingKeyRequest) keyRequestResponse {
	return keyRequestResponse{
		RequestID:  r.RequestID,
		State:      r.State.String(),
		Body:       r.Body,
		Recipients: r.Recipients,
		FromIndex:  r.FromIndex,
		Replies:    r.Replies,
		CreatedAt:  r.CreatedAt,
	}
}

type auditResponse struct {
	Kind       models.GossipAuditKind `json:"kind"`
	RoomID     string                 `json:"room_id"`
	SessionID  string                 `json:"session_id"`
	SenderKey  string                 `json:"sender_key,omitempty"`
	UserID     string                 `json:"user_id"`
	DeviceID   string                 `json:"device_id"`
	Code       models.WithHeldCode    `json:"code,omitempty"`
	ChainIndex *int                   `json:"chain_index,omitempty"`
	At         time.Time              `json:"at"`
}

func newAuditResponse(e models.GossipAuditEntry) auditResponse {
	return auditResponse{
		Kind:       e.Kind,
		RoomID:     e.RoomID,
		SessionID:  e.SessionID,
		SenderKey:  e.SenderKey,
		UserID:     e.UserID,
		DeviceID:   e.DeviceID,
		Code:       e.Code,
		ChainIndex: e.ChainIndex,
		At:         e.At,
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		loggerFromRequest(r).Err(err).Msg("failed to encode response")
	}
}
