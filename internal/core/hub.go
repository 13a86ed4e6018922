package core

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberchat/ember-server/internal/store"
)

const defaultHistoryLimit = 50

// Store is the persistence surface the hub needs: message rows and
// reaction rows. The full store.Store satisfies it.
type Store interface {
	store.MessageStore
	store.ReactionStore
}

// ImageSink releases stored image resources when their message is deleted.
type ImageSink interface {
	Delete(handle string) error
}

// Hub owns room membership, the post cooldown and all message
// mutations. It runs as a single goroutine: every command from every
// client funnels through one loop, so registry, cooldown and per-message
// state never see concurrent writers. Fan-out happens via buffered client
// channels and never blocks the loop.
type Hub struct {
	store    Store
	images   ImageSink
	cooldown *Cooldown
	log      zerolog.Logger
	now      func() time.Time

	register     chan *Client
	unregister   chan *Client
	commands     chan clientCommand
	stopped      chan struct{}
	rooms        map[RoomKey]*Room
	historyLimit int
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// NewHub constructs a hub. st and images may be nil for membership-only
// use (tests); commands that need them then report a store failure.
func NewHub(st Store, images ImageSink, cooldown *Cooldown, logger *zerolog.Logger) *Hub {
	if cooldown == nil {
		cooldown = NewCooldown(DefaultCooldownWindow)
	}
	lg := zerolog.Nop()
	if logger != nil {
		lg = *logger
	}
	return &Hub{
		store:        st,
		images:       images,
		cooldown:     cooldown,
		log:          lg,
		now:          time.Now,
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		commands:     make(chan clientCommand, 64),
		stopped:      make(chan struct{}),
		rooms:        make(map[RoomKey]*Room),
		historyLimit: defaultHistoryLimit,
	}
}

// SetHistoryLimit overrides how many messages a join snapshot carries.
// Must be called before Run.
func (h *Hub) SetHistoryLimit(n int) {
	if n > 0 {
		h.historyLimit = n
	}
}

// RegisterClient hands a connected client to the hub.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.stopped:
	}
}

// UnregisterClient removes a disconnected client. All of its room
// memberships are dropped; nothing else is rolled back. Safe to call
// during shutdown: once the hub stops, it becomes a no-op.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// Run processes commands until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case c := <-h.register:
			go h.pump(ctx, c)
		case c := <-h.unregister:
			h.dropClient(c)
		case cc := <-h.commands:
			h.handleCommand(ctx, cc.client, cc.cmd)
		case <-ctx.Done():
			return
		}
	}
}

// pump forwards one client's commands into the hub loop.
func (h *Hub) pump(ctx context.Context, c *Client) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-c.done:
				return
			case <-ctx.Done():
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) dropClient(c *Client) {
	for key := range c.rooms {
		if room, ok := h.rooms[key]; ok {
			room.RemoveClient(c)
			room.Broadcast(&Event{Kind: EventUserLeft, Room: key, User: c.Name})
			if room.Empty() {
				delete(h.rooms, key)
			}
		}
	}
	c.rooms = make(map[RoomKey]struct{})
	close(c.done)
}

func (h *Hub) handleCommand(ctx context.Context, c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandJoinGlobal:
		h.handleJoin(ctx, c, GlobalRoom())
	case CommandLeaveGlobal:
		h.handleLeave(c, GlobalRoom())
	case CommandJoinDirect:
		if cmd.Peer == "" {
			c.send(errorEvent(coreError(ErrCodeBadRequest, "peer is required")))
			return
		}
		h.handleJoin(ctx, c, DirectRoom(c.Name, cmd.Peer))
	case CommandSendGlobal:
		h.handleSendGlobal(ctx, c, cmd.Message)
	case CommandSendDirect:
		h.handleSendDirect(ctx, c, cmd.Message)
	case CommandReact:
		h.handleReact(ctx, c, cmd.MessageID, cmd.Emoji)
	case CommandEdit:
		h.handleEdit(ctx, c, cmd.MessageID, cmd.Text)
	case CommandDelete:
		h.handleDelete(ctx, c, cmd.MessageID)
	default:
		c.send(errorEvent(coreError(ErrCodeBadRequest, "unknown command")))
	}
}

func (h *Hub) handleJoin(ctx context.Context, c *Client, key RoomKey) {
	room, ok := h.rooms[key]
	if !ok {
		room = NewRoom(key)
		h.rooms[key] = room
	}
	if !room.AddClient(c) {
		c.send(errorEvent(coreError(ErrCodeAlreadyJoined, "already joined")))
		return
	}
	c.rooms[key] = struct{}{}

	if h.store != nil {
		rows, err := h.store.ListRecentMessages(ctx, key.String(), h.historyLimit)
		if err != nil {
			h.log.Warn().Err(err).Stringer("room", key).Msg("load history")
		} else {
			c.send(&Event{Kind: EventHistory, Room: key, Messages: messagesFromRows(rows)})
		}
	}

	room.Broadcast(&Event{Kind: EventUserJoined, Room: key, User: c.Name})
}

func (h *Hub) handleLeave(c *Client, key RoomKey) {
	room, ok := h.rooms[key]
	if !ok {
		c.send(errorEvent(coreError(ErrCodeRoomNotFound, "room not found")))
		return
	}
	if !room.RemoveClient(c) {
		c.send(errorEvent(coreError(ErrCodeNotInRoom, "not in room")))
		return
	}
	delete(c.rooms, key)
	room.Broadcast(&Event{Kind: EventUserLeft, Room: key, User: c.Name})
	if room.Empty() {
		delete(h.rooms, key)
	}
}

// handleSendGlobal posts to the global room: validate, consult the
// cooldown, persist, then fan out. A throttled post only produces a
// private rate_limited event.
func (h *Hub) handleSendGlobal(ctx context.Context, c *Client, msg Message) {
	if strings.TrimSpace(msg.Text) == "" && msg.Image == "" {
		c.send(errorEvent(coreError(ErrCodeBadRequest, "empty message")))
		return
	}

	if remaining := h.cooldown.CheckAndRecord(c.Name, h.now()); remaining > 0 {
		c.send(&Event{Kind: EventRateLimited, Seconds: remaining})
		return
	}

	row := &store.Message{
		Sender:  c.Name,
		RoomKey: GlobalRoom().String(),
		Body:    msg.Text,
		Image:   msg.Image,
	}
	if !h.insertMessage(ctx, c, row) {
		return
	}

	c.send(&Event{Kind: EventCooldownStarted, Seconds: int64(h.cooldown.Window() / time.Second)})
	h.broadcast(GlobalRoom(), &Event{Kind: EventRoomMessage, Room: GlobalRoom(), Message: messageFromRow(row)})
}

// handleSendDirect posts to the sender's direct room with the recipient.
// Direct posts are exempt from the cooldown. The message is persisted
// even if neither participant currently has the room open: history is
// authoritative, live delivery is best-effort.
func (h *Hub) handleSendDirect(ctx context.Context, c *Client, msg Message) {
	if msg.To == "" {
		c.send(errorEvent(coreError(ErrCodeBadRequest, "recipient is required")))
		return
	}
	if strings.TrimSpace(msg.Text) == "" && msg.Image == "" {
		c.send(errorEvent(coreError(ErrCodeBadRequest, "empty message")))
		return
	}

	key := DirectRoom(c.Name, msg.To)
	row := &store.Message{
		Sender:    c.Name,
		Recipient: msg.To,
		RoomKey:   key.String(),
		Body:      msg.Text,
		Image:     msg.Image,
	}
	if !h.insertMessage(ctx, c, row) {
		return
	}

	h.broadcast(key, &Event{Kind: EventDirectMessage, Room: key, Message: messageFromRow(row)})
}

// handleReact toggles the acting user's emoji on a message and fans out
// the recomputed breakdown to the message's own room. A vanished message
// is a silent no-op.
func (h *Hub) handleReact(ctx context.Context, c *Client, messageID int64, emoji string) {
	if emoji == "" {
		c.send(errorEvent(coreError(ErrCodeBadRequest, "emoji is required")))
		return
	}

	row, ok := h.getMessage(ctx, c, messageID)
	if !ok {
		return
	}

	if _, err := h.store.ToggleReaction(ctx, row.ID, c.Name, emoji); err != nil {
		h.reportStoreFailure(c, err, "toggle reaction")
		return
	}

	summary, err := h.summarizeReactions(ctx, row.ID)
	if err != nil {
		h.reportStoreFailure(c, err, "summarize reactions")
		return
	}

	msg := messageFromRow(row)
	h.broadcast(msg.RoomKey(), &Event{
		Kind:      EventReactionsUpdated,
		Room:      msg.RoomKey(),
		MessageID: row.ID,
		Reactions: summary,
	})
}

// handleEdit replaces a message's text. Only the original sender may
// edit; anyone else, a missing message or empty text is a silent no-op.
func (h *Hub) handleEdit(ctx context.Context, c *Client, messageID int64, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	row, ok := h.getMessage(ctx, c, messageID)
	if !ok {
		return
	}
	if row.Sender != c.Name {
		h.log.Debug().Str("user", c.Name).Int64("message_id", messageID).Msg("edit denied")
		return
	}

	if err := h.store.UpdateMessageBody(ctx, row.ID, text); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		h.reportStoreFailure(c, err, "update message")
		return
	}

	msg := messageFromRow(row)
	h.broadcast(msg.RoomKey(), &Event{
		Kind:      EventMessageUpdated,
		Room:      msg.RoomKey(),
		MessageID: row.ID,
		Text:      text,
	})
}

// handleDelete removes a message, its reactions and its image. Only the
// original sender may delete. Image release failures are swallowed;
// the row is gone either way.
func (h *Hub) handleDelete(ctx context.Context, c *Client, messageID int64) {
	row, ok := h.getMessage(ctx, c, messageID)
	if !ok {
		return
	}
	if row.Sender != c.Name {
		h.log.Debug().Str("user", c.Name).Int64("message_id", messageID).Msg("delete denied")
		return
	}

	if err := h.store.DeleteReactions(ctx, row.ID); err != nil {
		h.reportStoreFailure(c, err, "delete reactions")
		return
	}

	if row.Image != "" && h.images != nil {
		if err := h.images.Delete(row.Image); err != nil {
			h.log.Warn().Err(err).Str("handle", row.Image).Msg("release image")
		}
	}

	if err := h.store.DeleteMessage(ctx, row.ID); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.reportStoreFailure(c, err, "delete message")
			return
		}
	}

	msg := messageFromRow(row)
	h.broadcast(msg.RoomKey(), &Event{
		Kind:      EventMessageDeleted,
		Room:      msg.RoomKey(),
		MessageID: row.ID,
	})
}

// getMessage loads a message row, treating ErrNotFound as a silent no-op
// and anything else as a store failure reported to the acting client.
func (h *Hub) getMessage(ctx context.Context, c *Client, id int64) (*store.Message, bool) {
	if h.store == nil {
		c.send(errorEvent(coreError(ErrCodeStoreFailure, "no store configured")))
		return nil, false
	}
	row, err := h.store.GetMessage(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.log.Debug().Int64("message_id", id).Msg("message gone")
		} else {
			h.reportStoreFailure(c, err, "load message")
		}
		return nil, false
	}
	return row, true
}

func (h *Hub) insertMessage(ctx context.Context, c *Client, row *store.Message) bool {
	if h.store == nil {
		c.send(errorEvent(coreError(ErrCodeStoreFailure, "no store configured")))
		return false
	}
	if err := h.store.InsertMessage(ctx, row); err != nil {
		h.reportStoreFailure(c, err, "insert message")
		return false
	}
	return true
}

// summarizeReactions recomputes the full per-emoji breakdown from the
// current reaction rows. Recounting from scratch on every toggle keeps
// the numbers drift-free.
func (h *Hub) summarizeReactions(ctx context.Context, messageID int64) ([]ReactionSummary, error) {
	rows, err := h.store.ListReactions(ctx, messageID)
	if err != nil {
		return nil, err
	}

	byEmoji := make(map[string][]string)
	for _, r := range rows {
		byEmoji[r.Emoji] = append(byEmoji[r.Emoji], r.Username)
	}

	summary := make([]ReactionSummary, 0, len(byEmoji))
	for emoji, users := range byEmoji {
		sort.Strings(users)
		summary = append(summary, ReactionSummary{Emoji: emoji, Count: len(users), Users: users})
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].Emoji < summary[j].Emoji })
	return summary, nil
}

// broadcast fans an event out to the room's current members, if any.
func (h *Hub) broadcast(key RoomKey, ev *Event) {
	if room, ok := h.rooms[key]; ok {
		room.Broadcast(ev)
	}
}

func (h *Hub) reportStoreFailure(c *Client, err error, op string) {
	h.log.Error().Err(err).Str("op", op).Msg("store failure")
	c.send(errorEvent(coreError(ErrCodeStoreFailure, op+" failed")))
}

func errorEvent(ce *CoreError) *Event {
	return &Event{Kind: EventError, Error: ce}
}

func messageFromRow(row *store.Message) Message {
	return Message{
		ID:        row.ID,
		From:      row.Sender,
		To:        row.Recipient,
		Text:      row.Body,
		Image:     row.Image,
		CreatedAt: row.CreatedAt,
	}
}

func messagesFromRows(rows []*store.Message) []Message {
	msgs := make([]Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, messageFromRow(row))
	}
	return msgs
}
