package core

import "strings"

// roomKind tags a RoomKey as either the global room or a direct room.
type roomKind int

const (
	roomKindGlobal roomKind = iota
	roomKindDirect
)

const (
	globalRoomName  = "global"
	directKeyPrefix = "dm"
	directKeySep    = ":"
)

// RoomKey identifies a fan-out group. It is comparable and safe to use as
// a map key. Direct keys always store the participant pair in sorted
// order, so DirectRoom(a, b) == DirectRoom(b, a) by construction.
type RoomKey struct {
	kind roomKind
	a, b string
}

// GlobalRoom returns the key of the single shared room.
func GlobalRoom() RoomKey {
	return RoomKey{kind: roomKindGlobal}
}

// DirectRoom returns the key of the direct room between two users.
// The result does not depend on argument order.
func DirectRoom(userA, userB string) RoomKey {
	if userA > userB {
		userA, userB = userB, userA
	}
	return RoomKey{kind: roomKindDirect, a: userA, b: userB}
}

// IsDirect reports whether the key names a two-participant room.
func (k RoomKey) IsDirect() bool {
	return k.kind == roomKindDirect
}

// Participants returns the sorted user pair of a direct key.
// Both strings are empty for the global room.
func (k RoomKey) Participants() (string, string) {
	return k.a, k.b
}

// String renders the key in its wire form: "global" or "dm:<a>:<b>".
// Usernames are validated at registration to exclude the separator, so a
// direct key can never collide with the global name.
func (k RoomKey) String() string {
	if k.kind == roomKindGlobal {
		return globalRoomName
	}
	return strings.Join([]string{directKeyPrefix, k.a, k.b}, directKeySep)
}
