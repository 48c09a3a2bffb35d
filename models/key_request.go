// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// AlgorithmMegolm is the only room-key algorithm handled by gossiping.
const AlgorithmMegolm = "m.megolm.v1.aes-sha2"

// AlgorithmOlm is the algorithm of to-device encrypted payloads.
const AlgorithmOlm = "m.olm.v1.curve25519-aes-sha2"

// AllDevices is the device wildcard used in request recipients.
const AllDevices = "*"

// RoomKeyRequestBody identifies the session a key request is about.
type RoomKeyRequestBody struct {
	Algorithm string `json:"algorithm" cbor:"1,keyasint"`
	RoomID    string `json:"room_id" cbor:"2,keyasint"`
	SenderKey string `json:"sender_key" cbor:"3,keyasint"`
	SessionID string `json:"session_id" cbor:"4,keyasint"`
}

// OutgoingKeyRequestState is the state of a request we sent (or will send)
// for a session key we are missing.
type OutgoingKeyRequestState int

const (
	// OutgoingStateUnsent: created, not yet sent to any device.
	OutgoingStateUnsent OutgoingKeyRequestState = iota
	// OutgoingStateSent: the request was sent, we are waiting for a reply.
	OutgoingStateSent
	// OutgoingStateCancellationPending: the key was obtained, a cancellation
	// has to be sent.
	OutgoingStateCancellationPending
	// OutgoingStateCancellationPendingAndWillResend: a cancellation has to be
	// sent and, once it is, the request is recreated from scratch.
	OutgoingStateCancellationPendingAndWillResend
	// OutgoingStateSentThenCanceled: the request was sent then canceled. Kept
	// so late replies can still be recorded.
	OutgoingStateSentThenCanceled
)

// String returns the persisted name of the state.
func (s OutgoingKeyRequestState) String() string {
	switch s {
	case OutgoingStateUnsent:
		return "unsent"
	case OutgoingStateSent:
		return "sent"
	case OutgoingStateCancellationPending:
		return "cancellation_pending"
	case OutgoingStateCancellationPendingAndWillResend:
		return "cancellation_pending_and_will_resend"
	case OutgoingStateSentThenCanceled:
		return "sent_then_canceled"
	default:
		return "unknown"
	}
}

// ParseOutgoingKeyRequestState is the inverse of
// [OutgoingKeyRequestState.String].
func ParseOutgoingKeyRequestState(name string) (OutgoingKeyRequestState, bool) {
	for s := OutgoingStateUnsent; s <= OutgoingStateSentThenCanceled; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// PendingOutgoingStates are the states that need an action at the end of a
// sync.
func PendingOutgoingStates() []OutgoingKeyRequestState {
	return []OutgoingKeyRequestState{
		OutgoingStateUnsent,
		OutgoingStateCancellationPending,
		OutgoingStateCancellationPendingAndWillResend,
	}
}

// OutgoingKeyReply is the audit trail of a reply received for an outgoing
// request. Key material is stripped, only the chain index is kept.
type OutgoingKeyReply struct {
	UserID     string    `json:"user_id" cbor:"1,keyasint"`
	FromDevice string    `json:"from_device,omitempty" cbor:"2,keyasint,omitempty"`
	EventType  string    `json:"type" cbor:"3,keyasint"`
	ChainIndex *int      `json:"chain_index,omitempty" cbor:"4,keyasint,omitempty"`
	Code       string    `json:"code,omitempty" cbor:"5,keyasint,omitempty"`
	ReceivedAt time.Time `json:"received_at" cbor:"6,keyasint"`
}

// OutgoingKeyRequest is a key request for one (room, session, sender key,
// algorithm) tuple.
type OutgoingKeyRequest struct {
	RequestID  string
	Body       RoomKeyRequestBody
	Recipients map[string][]string
	FromIndex  int
	State      OutgoingKeyRequestState
	Replies    []OutgoingKeyReply
	CreatedAt  time.Time
}

// RequestAction is the action of a key request to-device message.
type RequestAction int

const (
	RequestActionRequest RequestAction = iota
	RequestActionCancel
)

// Wire values of the "action" field.
const (
	ActionShareRequest      = "request"
	ActionShareCancellation = "request_cancellation"
)

// ParseRequestAction maps the wire action to a [RequestAction].
func ParseRequestAction(action string) (RequestAction, bool) {
	switch action {
	case ActionShareRequest:
		return RequestActionRequest, true
	case ActionShareCancellation:
		return RequestActionCancel, true
	default:
		return 0, false
	}
}

// IncomingKeyRequest is a validated key request (or cancellation) received
// from another device. It is comparable; the incoming buffer keeps one entry
// per requester and session, whatever the action.
type IncomingKeyRequest struct {
	RequestingUserID   string
	RequestingDeviceID string
	RoomID             string
	SenderKey          string
	SessionID          string
	Action             RequestAction
}

// ShortString is used in logs.
func (r IncomingKeyRequest) ShortString() string {
	return "request from " + r.RequestingUserID + "|" + r.RequestingDeviceID +
		" for session " + r.SessionID + " in room " + r.RoomID
}

// RoomKeyShareRequest is the content of an m.room_key_request to-device event.
type RoomKeyShareRequest struct {
	RequestingDeviceID string              `json:"requesting_device_id"`
	RequestID          string              `json:"request_id"`
	Action             string              `json:"action"`
	Body               *RoomKeyRequestBody `json:"body,omitempty"`
}

// WithHeldCode is the machine readable reason sent instead of a key.
type WithHeldCode string

const (
	WithHeldBlacklisted  WithHeldCode = "m.blacklisted"
	WithHeldUnverified   WithHeldCode = "m.unverified"
	WithHeldUnauthorised WithHeldCode = "m.unauthorised"
	WithHeldUnavailable  WithHeldCode = "m.unavailable"
	WithHeldNoOlm        WithHeldCode = "m.no_olm"
)

// RoomKeyWithHeldContent is the content of an m.room_key.withheld event.
type RoomKeyWithHeldContent struct {
	RoomID     string       `json:"room_id,omitempty"`
	Algorithm  string       `json:"algorithm"`
	SessionID  string       `json:"session_id,omitempty"`
	SenderKey  string       `json:"sender_key"`
	Code       WithHeldCode `json:"code"`
	Reason     string       `json:"reason,omitempty"`
	FromDevice string       `json:"from_device,omitempty"`
}

// ForwardedRoomKeyContent is the content of an m.forwarded_room_key event.
type ForwardedRoomKeyContent struct {
	Algorithm                    string   `json:"algorithm"`
	RoomID                       string   `json:"room_id"`
	SenderKey                    string   `json:"sender_key"`
	SessionID                    string   `json:"session_id"`
	SessionKey                   string   `json:"session_key"`
	SenderClaimedEd25519Key      string   `json:"sender_claimed_ed25519_key"`
	ForwardingCurve25519KeyChain []string `json:"forwarding_curve25519_key_chain"`
	ChainIndex                   int      `json:"chain_index"`
}

// ExportedSession is the exported material of an inbound group session at a
// given chain index, as produced by the crypto engine.
type ExportedSession struct {
	SessionKey                   string   `json:"session_key"`
	SenderClaimedEd25519Key      string   `json:"sender_claimed_ed25519_key"`
	ForwardingCurve25519KeyChain []string `json:"forwarding_curve25519_key_chain"`
	ChainIndex                   int      `json:"chain_index"`
}

// EncryptedEventContent is the content of an m.room.encrypted room event.
type EncryptedEventContent struct {
	Algorithm  string `json:"algorithm"`
	Ciphertext string `json:"ciphertext"`
	SenderKey  string `json:"sender_key"`
	DeviceID   string `json:"device_id,omitempty"`
	SessionID  string `json:"session_id"`
}

// EncryptedEvent is a room event that could not be decrypted.
type EncryptedEvent struct {
	EventID string                `json:"event_id"`
	RoomID  string                `json:"room_id"`
	Sender  string                `json:"sender"`
	Content EncryptedEventContent `json:"content"`
}

// ToDeviceEvent is an event received in the to_device section of a sync.
type ToDeviceEvent struct {
	Type    string          `json:"type"`
	Sender  string          `json:"sender"`
	Content json.RawMessage `json:"content"`
}
