package models

// Event types used by the gossiping protocol.
const (
	EventTypeRoomKeyRequest   = "m.room_key_request"
	EventTypeForwardedRoomKey = "m.forwarded_room_key"
	EventTypeRoomKey          = "m.room_key"
	EventTypeRoomKeyWithHeld  = "m.room_key.withheld"
	EventTypeEncrypted        = "m.room.encrypted"
	EventTypeDummy            = "m.dummy"
)

// Room state event types read from sync.
const (
	EventTypeRoomEncryption = "m.room.encryption"
	EventTypeRoomMember     = "m.room.member"
)

// MembershipJoin and MembershipInvite are the memberships whose devices are
// tracked in encrypted rooms.
const (
	MembershipJoin   = "join"
	MembershipInvite = "invite"
)
