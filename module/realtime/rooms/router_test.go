package rooms

import (
	"encoding/json"
	"testing"
	"time"

	"Linkup/module/realtime/presence"
)

func newRouterHarness(t *testing.T) (*Router, *presence.Registry) {
	t.Helper()
	reg := presence.NewRegistry(0)
	fan := NewFanout(2, 16)
	t.Cleanup(fan.Close)
	return NewRouter(reg, fan), reg
}

func recvFrame(t *testing.T, s *presence.Session) Frame {
	t.Helper()
	select {
	case payload := <-s.Send:
		var f Frame
		if err := json.Unmarshal(payload, &f); err != nil {
			t.Fatalf("bad frame: %v", err)
		}
		return f
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return Frame{}
	}
}

func expectSilence(t *testing.T, s *presence.Session) {
	t.Helper()
	select {
	case payload := <-s.Send:
		t.Fatalf("unexpected frame: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEmitToUser(t *testing.T) {
	router, reg := newRouterHarness(t)

	a1 := presence.NewSession("a1", "alice", 4)
	a2 := presence.NewSession("a2", "alice", 4)
	b1 := presence.NewSession("b1", "bob", 4)
	reg.Register(a1)
	reg.Register(a2)
	reg.Register(b1)

	router.EmitToUser("alice", EventMessage, map[string]any{"body": "hi"})

	for _, s := range []*presence.Session{a1, a2} {
		f := recvFrame(t, s)
		if f.Event != EventMessage {
			t.Fatalf("event = %q, want %q", f.Event, EventMessage)
		}
	}
	expectSilence(t, b1)

	// No sessions for the user: silent no-op.
	router.EmitToUser("nobody", EventMessage, "x")
	expectSilence(t, b1)
}

func TestGroupRooms(t *testing.T) {
	router, reg := newRouterHarness(t)

	a := presence.NewSession("a", "alice", 4)
	b := presence.NewSession("b", "bob", 4)
	reg.Register(a)
	reg.Register(b)

	// Only joined sessions receive group emits.
	router.EmitToGroup("g1", EventGroupTyping, nil)
	expectSilence(t, a)

	router.JoinGroup("g1", a)
	router.JoinGroup("g1", b)
	router.EmitToGroup("g1", EventGroupTyping, map[string]any{"from": "carol"})
	if f := recvFrame(t, a); f.Event != EventGroupTyping {
		t.Fatalf("event = %q", f.Event)
	}
	if f := recvFrame(t, b); f.Event != EventGroupTyping {
		t.Fatalf("event = %q", f.Event)
	}

	router.LeaveGroup("g1", b)
	router.EmitToGroup("g1", EventGroupTyping, nil)
	recvFrame(t, a)
	expectSilence(t, b)

	// Disconnect cleanup.
	router.LeaveAll(a)
	router.EmitToGroup("g1", EventGroupTyping, nil)
	expectSilence(t, a)
}

func TestBroadcast(t *testing.T) {
	router, reg := newRouterHarness(t)

	a := presence.NewSession("a", "alice", 4)
	b := presence.NewSession("b", "bob", 4)
	reg.Register(a)
	reg.Register(b)

	router.Broadcast(EventOnlineUsers, []string{"alice", "bob"})
	for _, s := range []*presence.Session{a, b} {
		f := recvFrame(t, s)
		if f.Event != EventOnlineUsers {
			t.Fatalf("event = %q, want %q", f.Event, EventOnlineUsers)
		}
	}
}

func TestSlowClientDoesNotBlock(t *testing.T) {
	router, reg := newRouterHarness(t)

	slow := presence.NewSession("slow", "alice", 1)
	reg.Register(slow)

	// Fill the buffer, then keep emitting; dispatch must stay non-blocking
	// and later frames are simply dropped for this session.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			router.EmitToUser("alice", EventMessage, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a slow client")
	}
}

func TestNilRoomsAreNoOps(t *testing.T) {
	var router *Router
	router.EmitToUser("alice", EventMessage, nil)
	router.EmitToGroup("g", EventMessage, nil)
	router.Broadcast(EventMessage, nil)

	full := NewRouter(nil, nil)
	full.EmitToUser("alice", EventMessage, nil)
	full.Broadcast(EventMessage, nil)
}
