package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage notifies room members about a new global message.
	EventRoomMessage EventKind = iota
	// EventDirectMessage notifies both participants about a new direct message.
	EventDirectMessage
	// EventMessageUpdated notifies a room that a message's text changed.
	EventMessageUpdated
	// EventMessageDeleted notifies a room that a message was removed.
	EventMessageDeleted
	// EventReactionsUpdated carries the full recomputed reaction breakdown
	// of a message after a toggle.
	EventReactionsUpdated
	// EventRateLimited tells the sender its global post was rejected and
	// how long until the next one is accepted.
	EventRateLimited
	// EventCooldownStarted tells the sender its post was accepted and a
	// new cooldown window has begun.
	EventCooldownStarted
	// EventUserJoined notifies a room about a user joining.
	EventUserJoined
	// EventUserLeft notifies a room about a user leaving.
	EventUserLeft
	// EventHistory delivers recent messages to a client upon joining a room.
	EventHistory
	// EventError notifies the acting client about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind      EventKind
	Room      RoomKey
	User      string
	Message   Message
	Messages  []Message // EventHistory
	MessageID int64     // EventMessageUpdated, EventMessageDeleted, EventReactionsUpdated
	Text      string    // EventMessageUpdated
	Reactions []ReactionSummary
	Seconds   int64 // EventRateLimited (remaining), EventCooldownStarted (window)
	Error     *CoreError
}
