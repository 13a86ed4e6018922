package core

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func benchmarkRoomBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A nanosecond window means the cooldown never rejects.
	hub := NewHub(newFakeStore(), nil, NewCooldown(time.Nanosecond), nil)
	go hub.Run(ctx)

	sender := NewClient("sender", "sender")
	hub.RegisterClient(sender)
	sender.Commands <- &Command{Kind: CommandJoinGlobal}

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient("c"+strconv.Itoa(i), "client")
		hub.RegisterClient(c)
		c.Commands <- &Command{Kind: CommandJoinGlobal}
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{Kind: CommandSendGlobal, Message: Message{Text: "payload"}}
		for {
			if ev := <-target.Events; ev.Kind == EventRoomMessage {
				break
			}
		}
	}
}

func BenchmarkRoomBroadcast1(b *testing.B)  { benchmarkRoomBroadcast(b, 1) }
func BenchmarkRoomBroadcast8(b *testing.B)  { benchmarkRoomBroadcast(b, 8) }
func BenchmarkRoomBroadcast64(b *testing.B) { benchmarkRoomBroadcast(b, 64) }
