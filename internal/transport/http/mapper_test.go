package http

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/emberchat/ember-server/internal/core"
	"github.com/emberchat/ember-server/internal/proto"
)

func inbound(t *testing.T, typ string, data any) proto.Inbound {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return proto.Inbound{Type: typ, Data: raw}
}

func TestInboundToCommand(t *testing.T) {
	tests := []struct {
		name     string
		inbound  proto.Inbound
		wantKind core.CommandKind
	}{
		{"join", inbound(t, proto.InboundTypeJoin, struct{}{}), core.CommandJoinGlobal},
		{"leave", inbound(t, proto.InboundTypeLeave, struct{}{}), core.CommandLeaveGlobal},
		{"join_direct", inbound(t, proto.InboundTypeJoinDirect, proto.JoinDirectData{User: "bob"}), core.CommandJoinDirect},
		{"msg", inbound(t, proto.InboundTypeMsg, proto.MsgData{Text: "hi"}), core.CommandSendGlobal},
		{"image", inbound(t, proto.InboundTypeImage, proto.MsgData{Image: "h.png"}), core.CommandSendGlobal},
		{"dm", inbound(t, proto.InboundTypeDirect, proto.DirectData{To: "bob", Text: "hi"}), core.CommandSendDirect},
		{"dm_image", inbound(t, proto.InboundTypeDirectImage, proto.DirectData{To: "bob", Image: "h.png"}), core.CommandSendDirect},
		{"react", inbound(t, proto.InboundTypeReact, proto.ReactData{MessageID: 1, Emoji: "👍"}), core.CommandReact},
		{"edit", inbound(t, proto.InboundTypeEdit, proto.EditData{MessageID: 1, Text: "x"}), core.CommandEdit},
		{"delete", inbound(t, proto.InboundTypeDelete, proto.DeleteData{MessageID: 1}), core.CommandDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, protoErr, err := inboundToCommand(tt.inbound)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if protoErr != nil {
				t.Fatalf("unexpected protocol error: %+v", protoErr)
			}
			if cmd == nil || cmd.Kind != tt.wantKind {
				t.Fatalf("expected kind %v, got %+v", tt.wantKind, cmd)
			}
		})
	}
}

func TestInboundValidation(t *testing.T) {
	tests := []struct {
		name    string
		inbound proto.Inbound
	}{
		{"empty msg", inbound(t, proto.InboundTypeMsg, proto.MsgData{})},
		{"dm without recipient", inbound(t, proto.InboundTypeDirect, proto.DirectData{Text: "hi"})},
		{"dm without content", inbound(t, proto.InboundTypeDirect, proto.DirectData{To: "bob"})},
		{"join_direct without user", inbound(t, proto.InboundTypeJoinDirect, proto.JoinDirectData{})},
		{"react without emoji", inbound(t, proto.InboundTypeReact, proto.ReactData{MessageID: 1})},
		{"react without id", inbound(t, proto.InboundTypeReact, proto.ReactData{Emoji: "👍"})},
		{"edit without id", inbound(t, proto.InboundTypeEdit, proto.EditData{Text: "x"})},
		{"delete without id", inbound(t, proto.InboundTypeDelete, proto.DeleteData{})},
		{"unknown type", proto.Inbound{Type: "bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, protoErr, err := inboundToCommand(tt.inbound)
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if protoErr == nil {
				t.Fatalf("expected protocol error, got command %+v", cmd)
			}
		})
	}
}

func TestOutboundFromEvent(t *testing.T) {
	msg := core.Message{ID: 7, From: "alice", To: "bob", Text: "psst", CreatedAt: time.Unix(100, 0)}

	out := outboundFromEvent(&core.Event{Kind: core.EventDirectMessage, Room: msg.RoomKey(), Message: msg})
	if out.Type != proto.OutboundTypeEvent || out.Event != "dm" {
		t.Fatalf("unexpected envelope: %+v", out)
	}
	data, ok := out.Data.(proto.EventMessage)
	if !ok {
		t.Fatalf("unexpected data type: %T", out.Data)
	}
	if data.Room != "dm:alice:bob" || data.ID != 7 || data.TS != 100 {
		t.Fatalf("unexpected payload: %+v", data)
	}

	out = outboundFromEvent(&core.Event{Kind: core.EventRateLimited, Seconds: 7})
	if out.Event != "rate_limited" {
		t.Fatalf("unexpected event name: %q", out.Event)
	}
	if rl := out.Data.(proto.EventRateLimited); rl.RemainingSeconds != 7 {
		t.Fatalf("unexpected remaining: %+v", rl)
	}

	out = outboundFromEvent(&core.Event{
		Kind:      core.EventReactionsUpdated,
		Room:      core.GlobalRoom(),
		MessageID: 7,
		Reactions: []core.ReactionSummary{{Emoji: "👍", Count: 2, Users: []string{"alice", "bob"}}},
	})
	ru := out.Data.(proto.EventReactionsUpdated)
	if ru.Room != "global" || len(ru.Reactions) != 1 || ru.Reactions[0].Count != 2 {
		t.Fatalf("unexpected reactions payload: %+v", ru)
	}

	out = outboundFromEvent(&core.Event{Kind: core.EventError, Error: &core.CoreError{Code: core.ErrCodeThrottled, Message: "slow down"}})
	if out.Type != proto.OutboundTypeError || out.Error == nil || out.Error.Code != core.ErrCodeThrottled {
		t.Fatalf("unexpected error envelope: %+v", out)
	}
}
