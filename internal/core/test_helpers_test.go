package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/emberchat/ember-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func noEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// fakeStore is an in-memory Store for hub tests.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	messages  map[int64]*store.Message
	reactions []*store.Reaction

	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{messages: make(map[int64]*store.Message)}
}

func (f *fakeStore) InsertMessage(_ context.Context, msg *store.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = time.Now()
	saved := *msg
	f.messages[msg.ID] = &saved
	return nil
}

func (f *fakeStore) GetMessage(_ context.Context, id int64) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *msg
	return &copied, nil
}

func (f *fakeStore) UpdateMessageBody(_ context.Context, id int64, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return store.ErrNotFound
	}
	msg.Body = body
	return nil
}

func (f *fakeStore) DeleteMessage(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.messages, id)
	return nil
}

func (f *fakeStore) ListRecentMessages(_ context.Context, roomKey string, limit int) ([]*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Newest limit rows, returned in ascending id order.
	var msgs []*store.Message
	for id := f.nextID; id >= 1 && len(msgs) < limit; id-- {
		if msg, ok := f.messages[id]; ok && msg.RoomKey == roomKey {
			copied := *msg
			msgs = append(msgs, &copied)
		}
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (f *fakeStore) ToggleReaction(_ context.Context, messageID int64, username, emoji string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.reactions {
		if r.MessageID == messageID && r.Username == username && r.Emoji == emoji {
			f.reactions = append(f.reactions[:i], f.reactions[i+1:]...)
			return false, nil
		}
	}
	f.reactions = append(f.reactions, &store.Reaction{
		MessageID: messageID,
		Username:  username,
		Emoji:     emoji,
		CreatedAt: time.Now(),
	})
	return true, nil
}

func (f *fakeStore) ListReactions(_ context.Context, messageID int64) ([]*store.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Reaction
	for _, r := range f.reactions {
		if r.MessageID == messageID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteReactions(_ context.Context, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.reactions[:0]
	for _, r := range f.reactions {
		if r.MessageID != messageID {
			kept = append(kept, r)
		}
	}
	f.reactions = kept
	return nil
}

func (f *fakeStore) count() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nextID
}

func (f *fakeStore) messageBody(id int64) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return "", false
	}
	return msg.Body, true
}

// fakeSink records deleted image handles.
type fakeSink struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeSink) Delete(handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, handle)
	return nil
}
