// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// InboundGroupSession is a persisted Megolm decryption session. Pickle is the
// engine-serialised session and is opaque to this module.
type InboundGroupSession struct {
	SessionID       string
	SenderKey       string
	RoomID          string
	FirstKnownIndex int
	Pickle          []byte
	ForwardingChain []string
	// Trusted is false for sessions obtained through forwarding or backup.
	Trusted   bool
	UpdatedAt time.Time
}

// InboundSessionKey is the cache/store key of an inbound group session.
type InboundSessionKey struct {
	SessionID string
	SenderKey string
}

// Key returns the cache key of the session.
func (s InboundGroupSession) Key() InboundSessionKey {
	return InboundSessionKey{SessionID: s.SessionID, SenderKey: s.SenderKey}
}

// SharedSessionInfo tells whether an outbound session was shared with a
// device, and from which chain index.
type SharedSessionInfo struct {
	Found      bool
	ChainIndex *int
}
