package core

import "time"

// Message is the domain model for a chat message. To is empty for
// global-room messages. Image holds the opaque handle of an attached
// upload, empty when the message is text-only. A message always carries
// text, an image, or both.
type Message struct {
	ID        int64
	From      string
	To        string
	Text      string
	Image     string
	CreatedAt time.Time
}

// RoomKey resolves the room a message belongs to from its stored
// sender/recipient pair. Reactions, edits and deletes are always routed
// with this, never with the acting user's identity, so actions on a
// direct message reach both original participants.
func (m Message) RoomKey() RoomKey {
	if m.To == "" {
		return GlobalRoom()
	}
	return DirectRoom(m.From, m.To)
}

// ReactionSummary is the aggregated view of one emoji on a message:
// total reactor count plus the reactor usernames, so clients can both
// show the count and highlight their own reactions.
type ReactionSummary struct {
	Emoji string
	Count int
	Users []string
}
