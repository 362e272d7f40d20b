package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/loopchat/chat-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Fanout turns committed messages into live pushes: the full message to the
// chat's room, a light chat_list_changed to every connection. With Redis
// configured, events travel through a pub/sub channel so every service
// instance (this one included) delivers to its own hub; without it, delivery
// is local to the process.
type Fanout struct {
	hub     *Hub
	rdb     *redis.Client
	channel string
}

func NewFanout(hub *Hub, rdb *redis.Client, channel string) *Fanout {
	return &Fanout{hub: hub, rdb: rdb, channel: channel}
}

type chatEvent struct {
	ChatID  int64       `json:"chat_id"`
	Message MessageItem `json:"message"`
}

// MessageCreated implements service.Notifier. Callers invoke it only after
// the message's transaction committed.
func (f *Fanout) MessageCreated(ctx context.Context, m *domain.Message) {
	ev := chatEvent{ChatID: m.ChatID, Message: toMessageItem(m)}

	if f.rdb == nil {
		f.deliver(ev)
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("fanout marshal event", "chat", ev.ChatID, "err", err)
		return
	}
	if err := f.rdb.Publish(ctx, f.channel, data).Err(); err != nil {
		slog.Warn("fanout publish failed, delivering locally", "chat", ev.ChatID, "err", err)
		f.deliver(ev)
	}
}

// Run consumes the pub/sub channel and feeds the local hub. Blocks until ctx
// is done. No-op when Redis is not configured.
func (f *Fanout) Run(ctx context.Context) error {
	if f.rdb == nil {
		<-ctx.Done()
		return nil
	}

	sub := f.rdb.Subscribe(ctx, f.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev chatEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("fanout decode event", "err", err)
				continue
			}
			f.deliver(ev)
		}
	}
}

func (f *Fanout) deliver(ev chatEvent) {
	f.hub.BroadcastRoom(ev.ChatID, Message{Type: TypeMessageReceived, Payload: ev.Message})
	f.hub.BroadcastAll(Message{Type: TypeChatListChanged, Payload: ev})
}
