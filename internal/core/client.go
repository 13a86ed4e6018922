package core

// Client is a chat participant as seen by the core layer. One Client is
// bound to one live transport connection and one authenticated username
// for the lifetime of the connection.
type Client struct {
	ID       string
	Name     string
	Commands chan *Command
	Events   chan *Event

	// rooms and done are owned by the hub goroutine.
	rooms map[RoomKey]struct{}
	done  chan struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id, name string) *Client {
	if name == "" {
		name = id
	}
	return &Client{
		ID:       id,
		Name:     name,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, 16),
		rooms:    make(map[RoomKey]struct{}),
		done:     make(chan struct{}),
	}
}

func (c *Client) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
	}
}
