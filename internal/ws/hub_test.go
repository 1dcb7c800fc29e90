package ws

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(id string, userID int64, buffer int) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		send:   make(chan []byte, buffer),
		joined: make(map[int64]struct{}),
	}
}

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

func TestRegisterUnregister(t *testing.T) {
	h := newTestHub()
	c := newTestClient("c1", 1, 1)

	h.Register(c)
	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", h.ClientCount())
	}

	h.Join(c.ID, 10)
	if !h.InRoom(c.ID, 10) {
		t.Fatal("client not in room after Join")
	}

	h.Unregister(c)
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", h.ClientCount())
	}
	if h.InRoom(c.ID, 10) {
		t.Error("client still in room after Unregister")
	}

	// The send channel must be closed so the write pump terminates.
	if _, ok := <-c.send; ok {
		t.Error("send channel not closed after Unregister")
	}

	// A second Unregister must be a no-op, not a double close.
	h.Unregister(c)
}

func TestJoinUnknownClientIgnored(t *testing.T) {
	h := newTestHub()
	h.Join("ghost", 5)
	if h.RoomSize(5) != 0 {
		t.Errorf("RoomSize = %d, want 0", h.RoomSize(5))
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	h := newTestHub()
	c := newTestClient("c1", 1, 1)
	h.Register(c)

	h.Join(c.ID, 5)
	h.Join(c.ID, 5)
	if h.RoomSize(5) != 1 {
		t.Errorf("RoomSize = %d, want 1", h.RoomSize(5))
	}
}

func TestLeaveRemovesEmptyRoom(t *testing.T) {
	h := newTestHub()
	c := newTestClient("c1", 1, 1)
	h.Register(c)
	h.Join(c.ID, 5)

	h.Leave(c.ID, 5)
	if h.InRoom(c.ID, 5) {
		t.Error("client still in room after Leave")
	}
	if len(h.rooms) != 0 {
		t.Errorf("rooms map holds %d entries, want 0", len(h.rooms))
	}

	// Leaving a room never joined is a no-op.
	h.Leave(c.ID, 99)
}

func TestLeaveAll(t *testing.T) {
	h := newTestHub()
	c := newTestClient("c1", 1, 1)
	other := newTestClient("c2", 2, 1)
	h.Register(c)
	h.Register(other)
	h.Join(c.ID, 1)
	h.Join(c.ID, 2)
	h.Join(other.ID, 2)

	h.LeaveAll(c.ID)
	if h.InRoom(c.ID, 1) || h.InRoom(c.ID, 2) {
		t.Error("client still in a room after LeaveAll")
	}
	if !h.InRoom(other.ID, 2) {
		t.Error("LeaveAll removed an unrelated client")
	}
}

func TestBroadcastReachesRoomOnly(t *testing.T) {
	h := newTestHub()
	inRoom := newTestClient("c1", 1, 4)
	alsoIn := newTestClient("c2", 2, 4)
	outside := newTestClient("c3", 3, 4)
	for _, c := range []*Client{inRoom, alsoIn, outside} {
		h.Register(c)
	}
	h.Join(inRoom.ID, 7)
	h.Join(alsoIn.ID, 7)
	h.Join(outside.ID, 8)

	h.Broadcast(7, []byte("hello"), "")

	for _, c := range []*Client{inRoom, alsoIn} {
		select {
		case got := <-c.send:
			if string(got) != "hello" {
				t.Errorf("client %s got %q, want hello", c.ID, got)
			}
		default:
			t.Errorf("client %s received nothing", c.ID)
		}
	}
	select {
	case <-outside.send:
		t.Error("client outside the room received the broadcast")
	default:
	}
}

func TestBroadcastExcludesConnection(t *testing.T) {
	h := newTestHub()
	sender := newTestClient("c1", 1, 4)
	peer := newTestClient("c2", 2, 4)
	h.Register(sender)
	h.Register(peer)
	h.Join(sender.ID, 3)
	h.Join(peer.ID, 3)

	h.Broadcast(3, []byte("typing"), sender.ID)

	select {
	case <-sender.send:
		t.Error("excluded connection received the broadcast")
	default:
	}
	select {
	case <-peer.send:
	default:
		t.Error("peer received nothing")
	}
}

func TestBroadcastDropsFullClient(t *testing.T) {
	h := newTestHub()
	healthy := newTestClient("c1", 1, 4)
	stuck := newTestClient("c2", 2, 1)
	h.Register(healthy)
	h.Register(stuck)
	h.Join(healthy.ID, 9)
	h.Join(stuck.ID, 9)

	// Fill the stuck client's buffer so the next broadcast cannot enqueue.
	stuck.send <- []byte("backlog")

	h.Broadcast(9, []byte("payload"), "")

	if h.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, want 1 after dropping stuck client", h.ClientCount())
	}
	if h.InRoom(stuck.ID, 9) {
		t.Error("dropped client still in room")
	}
	select {
	case <-healthy.send:
	default:
		t.Error("healthy client received nothing")
	}
}

func TestSendSkipsUnregisteredClient(t *testing.T) {
	h := newTestHub()
	c := newTestClient("c1", 1, 4)

	if h.send(c, []byte("x")) {
		t.Error("send succeeded for a client never registered")
	}

	h.Register(c)
	if !h.send(c, []byte("x")) {
		t.Error("send failed for a registered client")
	}
}
