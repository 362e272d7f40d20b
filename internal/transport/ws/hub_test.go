package ws

import (
	"sync"
	"testing"
)

type stubConn struct {
	id     string
	userID int64

	mu   sync.Mutex
	msgs []Message

	closed bool
}

func (c *stubConn) ID() string    { return c.id }
func (c *stubConn) UserID() int64 { return c.userID }

func (c *stubConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubConn) received() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	a := &stubConn{id: "a", userID: 1}
	hub.Add(a)

	hub.Join("a", 5)
	hub.Join("a", 5)

	hub.BroadcastRoom(5, Message{Type: TypeMessageReceived})
	if got := len(a.received()); got != 1 {
		t.Fatalf("double join must deliver once, got %d", got)
	}
	if !hub.Subscribed("a", 5) {
		t.Fatal("expected subscription")
	}
}

func TestHubJoinUnknownConnIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Join("ghost", 5)

	if hub.Subscribed("ghost", 5) {
		t.Fatal("unknown connection must not be subscribed")
	}
}

func TestHubLeaveNeverJoinedIsNoop(t *testing.T) {
	hub := NewHub()
	a := &stubConn{id: "a", userID: 1}
	hub.Add(a)

	hub.Leave("a", 5)

	hub.BroadcastAll(Message{Type: TypeChatListChanged})
	if got := len(a.received()); got != 1 {
		t.Fatalf("connection must stay live after spurious leave, got %d sends", got)
	}
}

func TestHubBroadcastRoomTargetsSubscribersOnly(t *testing.T) {
	hub := NewHub()
	a := &stubConn{id: "a", userID: 1}
	b := &stubConn{id: "b", userID: 2}
	c := &stubConn{id: "c", userID: 3}
	hub.Add(a)
	hub.Add(b)
	hub.Add(c)

	hub.Join("a", 5)
	hub.Join("b", 5)
	hub.Join("c", 6)

	hub.BroadcastRoom(5, Message{Type: TypeMessageReceived})

	if len(a.received()) != 1 || len(b.received()) != 1 {
		t.Fatal("both room subscribers must receive the message")
	}
	if len(c.received()) != 0 {
		t.Fatal("connection in another room must receive nothing")
	}
}

func TestHubBroadcastAllIgnoresSubscriptions(t *testing.T) {
	hub := NewHub()
	a := &stubConn{id: "a", userID: 1}
	b := &stubConn{id: "b", userID: 2}
	hub.Add(a)
	hub.Add(b)
	hub.Join("a", 5)

	hub.BroadcastAll(Message{Type: TypeChatListChanged})

	if len(a.received()) != 1 || len(b.received()) != 1 {
		t.Fatal("every live connection must receive the event")
	}
}

func TestHubRemoveCleansEveryRoom(t *testing.T) {
	hub := NewHub()
	a := &stubConn{id: "a", userID: 1}
	hub.Add(a)
	hub.Join("a", 5)
	hub.Join("a", 6)

	hub.Remove("a")
	hub.Remove("a") // second removal does no harm

	hub.BroadcastRoom(5, Message{Type: TypeMessageReceived})
	hub.BroadcastRoom(6, Message{Type: TypeMessageReceived})
	hub.BroadcastAll(Message{Type: TypeChatListChanged})

	if got := len(a.received()); got != 0 {
		t.Fatalf("removed connection must receive nothing, got %d", got)
	}
	if hub.Subscribed("a", 5) || hub.Subscribed("a", 6) {
		t.Fatal("removed connection must hold no subscriptions")
	}
}

func TestHubUserMayHoldSeveralConnections(t *testing.T) {
	hub := NewHub()
	phone := &stubConn{id: "phone", userID: 1}
	laptop := &stubConn{id: "laptop", userID: 1}
	hub.Add(phone)
	hub.Add(laptop)
	hub.Join("phone", 5)
	hub.Join("laptop", 5)

	hub.Remove("phone")

	hub.BroadcastRoom(5, Message{Type: TypeMessageReceived})
	if len(laptop.received()) != 1 {
		t.Fatal("surviving connection of the same user must still receive")
	}
	if len(phone.received()) != 0 {
		t.Fatal("removed connection must not receive")
	}
}
