package http

import (
	"encoding/json"

	"github.com/emberchat/ember-server/internal/core"
	"github.com/emberchat/ember-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		return &core.Command{Kind: core.CommandJoinGlobal}, nil, nil
	case proto.InboundTypeLeave:
		return &core.Command{Kind: core.CommandLeaveGlobal}, nil, nil
	case proto.InboundTypeJoinDirect:
		var join proto.JoinDirectData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.User == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "user is required"}, nil
		}
		return &core.Command{Kind: core.CommandJoinDirect, Peer: join.User}, nil, nil
	case proto.InboundTypeMsg, proto.InboundTypeImage:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.Text == "" && msg.Image == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text or image is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandSendGlobal,
			Message: core.Message{Text: msg.Text, Image: msg.Image},
		}, nil, nil
	case proto.InboundTypeDirect, proto.InboundTypeDirectImage:
		var dm proto.DirectData
		if err := json.Unmarshal(inbound.Data, &dm); err != nil {
			return nil, nil, err
		}
		if dm.To == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "recipient is required"}, nil
		}
		if dm.Text == "" && dm.Image == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text or image is required"}, nil
		}
		return &core.Command{
			Kind:    core.CommandSendDirect,
			Message: core.Message{To: dm.To, Text: dm.Text, Image: dm.Image},
		}, nil, nil
	case proto.InboundTypeReact:
		var react proto.ReactData
		if err := json.Unmarshal(inbound.Data, &react); err != nil {
			return nil, nil, err
		}
		if react.MessageID <= 0 || react.Emoji == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "message_id and emoji are required"}, nil
		}
		return &core.Command{Kind: core.CommandReact, MessageID: react.MessageID, Emoji: react.Emoji}, nil, nil
	case proto.InboundTypeEdit:
		var edit proto.EditData
		if err := json.Unmarshal(inbound.Data, &edit); err != nil {
			return nil, nil, err
		}
		if edit.MessageID <= 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "message_id is required"}, nil
		}
		return &core.Command{Kind: core.CommandEdit, MessageID: edit.MessageID, Text: edit.Text}, nil, nil
	case proto.InboundTypeDelete:
		var del proto.DeleteData
		if err := json.Unmarshal(inbound.Data, &del); err != nil {
			return nil, nil, err
		}
		if del.MessageID <= 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "message_id is required"}, nil
		}
		return &core.Command{Kind: core.CommandDelete, MessageID: del.MessageID}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomMessage, core.EventDirectMessage:
		name := "message"
		if event.Kind == core.EventDirectMessage {
			name = "dm"
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: name,
			Data:  eventMessage(event.Message),
		}
	case core.EventMessageUpdated:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "message_updated",
			Data: proto.EventMessageUpdated{
				Room:      event.Room.String(),
				MessageID: event.MessageID,
				Text:      event.Text,
			},
		}
	case core.EventMessageDeleted:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "message_deleted",
			Data: proto.EventMessageDeleted{
				Room:      event.Room.String(),
				MessageID: event.MessageID,
			},
		}
	case core.EventReactionsUpdated:
		groups := make([]proto.ReactionGroup, 0, len(event.Reactions))
		for _, r := range event.Reactions {
			groups = append(groups, proto.ReactionGroup{Emoji: r.Emoji, Count: r.Count, Users: r.Users})
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "reactions_updated",
			Data: proto.EventReactionsUpdated{
				Room:      event.Room.String(),
				MessageID: event.MessageID,
				Reactions: groups,
			},
		}
	case core.EventRateLimited:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "rate_limited",
			Data:  proto.EventRateLimited{RemainingSeconds: event.Seconds},
		}
	case core.EventCooldownStarted:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "cooldown_started",
			Data:  proto.EventCooldownStarted{WindowSeconds: event.Seconds},
		}
	case core.EventUserJoined:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "user_joined",
			Data:  proto.EventUserJoined{Room: event.Room.String(), User: event.User},
		}
	case core.EventUserLeft:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "user_left",
			Data:  proto.EventUserLeft{Room: event.Room.String(), User: event.User},
		}
	case core.EventHistory:
		messages := make([]proto.EventMessage, 0, len(event.Messages))
		for _, msg := range event.Messages {
			messages = append(messages, eventMessage(msg))
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "history",
			Data: proto.EventHistory{
				Room:     event.Room.String(),
				Messages: messages,
			},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventMessage(msg core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:    msg.ID,
		Room:  msg.RoomKey().String(),
		From:  msg.From,
		To:    msg.To,
		Text:  msg.Text,
		Image: msg.Image,
		TS:    msg.CreatedAt.Unix(),
	}
}
