package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinGlobal subscribes the client to the global room.
	CommandJoinGlobal CommandKind = iota
	// CommandLeaveGlobal unsubscribes the client from the global room.
	CommandLeaveGlobal
	// CommandJoinDirect subscribes the client to its direct room with Peer.
	CommandJoinDirect
	// CommandSendGlobal posts a message (text and/or image) to the global room.
	CommandSendGlobal
	// CommandSendDirect posts a message to the direct room with the recipient.
	CommandSendDirect
	// CommandReact toggles the client's emoji reaction on a message.
	CommandReact
	// CommandEdit replaces the text of a message the client sent.
	CommandEdit
	// CommandDelete removes a message the client sent.
	CommandDelete
)

// Command represents an action requested by a client.
type Command struct {
	Kind      CommandKind
	Peer      string // CommandJoinDirect
	Message   Message
	MessageID int64  // CommandReact, CommandEdit, CommandDelete
	Emoji     string // CommandReact
	Text      string // CommandEdit
}
