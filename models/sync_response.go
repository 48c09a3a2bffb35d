// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "encoding/json"

// DeviceLists is the device_lists section of a sync response.
type DeviceLists struct {
	Changed []string `json:"changed,omitempty"`
	Left    []string `json:"left,omitempty"`
}

// ToDeviceEvents is the to_device section of a sync response.
type ToDeviceEvents struct {
	Events []ToDeviceEvent `json:"events,omitempty"`
}

// SyncResponse is the part of a /sync response consumed by the gossiping core.
type SyncResponse struct {
	NextBatch   string         `json:"next_batch"`
	ToDevice    ToDeviceEvents `json:"to_device"`
	DeviceLists DeviceLists    `json:"device_lists"`
	Rooms       Rooms          `json:"rooms"`
}

// SendToDeviceRequest is the body of PUT /sendToDevice/{type}/{txnId}.
type SendToDeviceRequest struct {
	Messages UsersDevicesMap[any] `json:"messages"`
}

// RoomEvent is a state or timeline event of a joined room.
type RoomEvent struct {
	Type     string          `json:"type"`
	EventID  string          `json:"event_id,omitempty"`
	Sender   string          `json:"sender"`
	StateKey *string         `json:"state_key,omitempty"`
	Content  json.RawMessage `json:"content"`
}

// RoomEvents is a list of events of one section of a joined room.
type RoomEvents struct {
	Events []RoomEvent `json:"events,omitempty"`
}

// JoinedRoom is one entry of rooms.join in a sync response.
type JoinedRoom struct {
	State    RoomEvents `json:"state"`
	Timeline RoomEvents `json:"timeline"`
}

// Rooms is the rooms section of a sync response.
type Rooms struct {
	Join map[string]JoinedRoom `json:"join,omitempty"`
}

// RoomEncryptionContent is the content of an m.room.encryption state event.
type RoomEncryptionContent struct {
	Algorithm string `json:"algorithm"`
}

// RoomMemberContent is the content of an m.room.member state event.
type RoomMemberContent struct {
	Membership string `json:"membership"`
}
