// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// GossipAuditKind is the kind of a gossiping audit trail entry.
type GossipAuditKind string

const (
	AuditIncomingRequest GossipAuditKind = "incoming_request"
	AuditForwarded       GossipAuditKind = "forwarded"
	AuditWithheld        GossipAuditKind = "withheld"
)

// GossipAuditEntry is one line of the gossiping audit trail. It records what
// was asked and answered, never key material.
type GossipAuditEntry struct {
	ID         int64
	Kind       GossipAuditKind
	RoomID     string
	SessionID  string
	SenderKey  string
	Algorithm  string
	UserID     string
	DeviceID   string
	Code       WithHeldCode
	ChainIndex *int
	At         time.Time
}
