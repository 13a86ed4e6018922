package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/emberchat/ember-server/internal/auth"
	"github.com/emberchat/ember-server/internal/core"
	"github.com/emberchat/ember-server/internal/proto"
	"github.com/emberchat/ember-server/internal/store"
)

type memUsers struct {
	users map[string]*store.User
}

func (m *memUsers) CreateUser(_ context.Context, username, passwordHash string) (*store.User, error) {
	u := &store.User{
		ID:           int64(len(m.users) + 1),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	m.users[username] = u
	return u, nil
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (*store.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// newTestAuth returns an auth service with one registered user and a
// valid session token for them.
func newTestAuth(t *testing.T) (*auth.Service, string) {
	t.Helper()

	svc := auth.NewService(&memUsers{users: make(map[string]*store.User)}, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test-clients",
		TTL:      time.Hour,
	})
	token, err := svc.Register(context.Background(), "alice", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return svc, token
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func helloFrame(t *testing.T, token string) proto.Inbound {
	t.Helper()
	raw, err := json.Marshal(proto.HelloData{Token: token})
	if err != nil {
		t.Fatalf("marshal hello: %v", err)
	}
	return proto.Inbound{Type: proto.InboundTypeHello, Data: raw}
}

func TestWSRejectsNonHelloFirstFrame(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hub := core.NewHub(nil, nil, core.NewCooldown(time.Second), nil)
	go hub.Run(ctx)
	svc, _ := newTestAuth(t)

	srv := httptest.NewServer(NewWSHandler(hub, svc, nopLogger()))
	defer srv.Close()

	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out map[string]any
	if err := wsjson.Read(ctx, conn, &out); err == nil {
		t.Fatalf("expected connection close after non-hello first frame, got %v", out)
	}
}

// A connection that keeps sending after the hub has stopped must still
// tear down when its request context is cancelled, even with the command
// buffer full and nothing draining it.
func TestWSTeardownWithStoppedHub(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	hub := core.NewHub(nil, nil, core.NewCooldown(time.Second), nil)
	go hub.Run(hubCtx)

	svc, token := newTestAuth(t)
	handler := NewWSHandler(hub, svc, nopLogger())

	reqCtx, reqCancel := context.WithCancel(context.Background())
	defer reqCancel()
	served := make(chan struct{})
	srv := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		handler.ServeHTTP(w, r.WithContext(reqCtx))
		close(served)
	}))
	defer srv.Close()

	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	if err := wsjson.Write(ctx, conn, helloFrame(t, token)); err != nil {
		t.Fatalf("write hello: %v", err)
	}
	var welcome struct {
		Type  string `json:"type"`
		Event string `json:"event"`
	}
	if err := wsjson.Read(ctx, conn, &welcome); err != nil || welcome.Event != "welcome" {
		t.Fatalf("expected welcome, got %+v (%v)", welcome, err)
	}

	// Stop the hub; its pump goroutine exits and Commands stops draining.
	hubCancel()
	time.Sleep(50 * time.Millisecond)

	// More frames than the command buffer holds.
	for i := 0; i < 12; i++ {
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeJoin}); err != nil {
			t.Fatalf("write frame %d: %v", i, err)
		}
	}
	time.Sleep(100 * time.Millisecond)

	reqCancel()

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not tear down after context cancellation")
	}
}
