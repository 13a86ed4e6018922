package core

import "testing"

func TestDirectRoomCommutative(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"bob", "alice"},
		{"zoe", "adam"},
		{"a", "b"},
	}
	for _, p := range pairs {
		k1 := DirectRoom(p[0], p[1])
		k2 := DirectRoom(p[1], p[0])
		if k1 != k2 {
			t.Errorf("DirectRoom(%q,%q) != DirectRoom(%q,%q): %v vs %v", p[0], p[1], p[1], p[0], k1, k2)
		}
		if k1.String() != k2.String() {
			t.Errorf("key strings differ: %q vs %q", k1.String(), k2.String())
		}
	}
}

func TestDirectRoomStringForm(t *testing.T) {
	key := DirectRoom("bob", "alice")
	if got := key.String(); got != "dm:alice:bob" {
		t.Fatalf("expected dm:alice:bob, got %q", got)
	}
	if !key.IsDirect() {
		t.Fatal("direct key reported as not direct")
	}
	a, b := key.Participants()
	if a != "alice" || b != "bob" {
		t.Fatalf("unexpected participants: %q, %q", a, b)
	}
}

func TestGlobalRoomDistinctFromDirect(t *testing.T) {
	global := GlobalRoom()
	if global.IsDirect() {
		t.Fatal("global key reported as direct")
	}
	if global.String() != "global" {
		t.Fatalf("unexpected global key string %q", global.String())
	}
	if global == DirectRoom("global", "global") {
		t.Fatal("direct key collided with global key")
	}
}

func TestMessageRoomKeyResolution(t *testing.T) {
	global := Message{From: "alice"}
	if global.RoomKey() != GlobalRoom() {
		t.Fatal("message without recipient must resolve to the global room")
	}

	dm := Message{From: "bob", To: "alice"}
	if dm.RoomKey() != DirectRoom("alice", "bob") {
		t.Fatal("direct message must resolve to the sorted-pair room")
	}
}
