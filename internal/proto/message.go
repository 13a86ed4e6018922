package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello       = "hello"
	InboundTypeJoin        = "join"
	InboundTypeLeave       = "leave"
	InboundTypeJoinDirect  = "join_direct"
	InboundTypeMsg         = "msg"
	InboundTypeImage       = "image"
	InboundTypeDirect      = "dm"
	InboundTypeDirectImage = "dm_image"
	InboundTypeReact       = "react"
	InboundTypeEdit        = "edit"
	InboundTypeDelete      = "delete"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// HelloData authenticates the connection. It must be the first frame.
type HelloData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinDirectData requests to join the direct room with another user.
type JoinDirectData struct {
	User string `json:"user"`
}

// MsgData is a global-room post. Image carries the handle returned by the
// upload endpoint; at least one of Text and Image must be set.
type MsgData struct {
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// DirectData is a direct-message post.
type DirectData struct {
	To    string `json:"to"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

// ReactData toggles an emoji reaction on a message.
type ReactData struct {
	MessageID int64  `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// EditData replaces the text of a message.
type EditData struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
}

// DeleteData removes a message.
type DeleteData struct {
	MessageID int64 `json:"message_id"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventWelcome acknowledges a successful hello.
type EventWelcome struct {
	User     string `json:"user"`
	Protocol int    `json:"protocol"`
}

// EventMessage is a chat message delivered to a room.
type EventMessage struct {
	ID    int64  `json:"id"`
	Room  string `json:"room"`
	From  string `json:"from"`
	To    string `json:"to,omitempty"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
	TS    int64  `json:"ts"`
}

// EventMessageUpdated notifies a room that a message's text changed.
type EventMessageUpdated struct {
	Room      string `json:"room"`
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
}

// EventMessageDeleted notifies a room that a message was removed.
type EventMessageDeleted struct {
	Room      string `json:"room"`
	MessageID int64  `json:"message_id"`
}

// ReactionGroup is the aggregated view of one emoji on a message.
type ReactionGroup struct {
	Emoji string   `json:"emoji"`
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// EventReactionsUpdated carries the full reaction breakdown of a message.
type EventReactionsUpdated struct {
	Room      string          `json:"room"`
	MessageID int64           `json:"message_id"`
	Reactions []ReactionGroup `json:"reactions"`
}

// EventRateLimited tells the sender to wait before posting again.
type EventRateLimited struct {
	RemainingSeconds int64 `json:"remaining_seconds"`
}

// EventCooldownStarted tells the sender a new cooldown window has begun.
type EventCooldownStarted struct {
	WindowSeconds int64 `json:"window_seconds"`
}

// EventUserJoined notifies that a user joined a room.
type EventUserJoined struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventUserLeft notifies that a user left a room.
type EventUserLeft struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// EventHistory delivers recent messages of a room.
type EventHistory struct {
	Room     string         `json:"room"`
	Messages []EventMessage `json:"messages"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
