package ws

import (
	"github.com/loopchat/chat-service/internal/domain"
)

// Event types on the live channel.
const (
	TypeJoinChat  = "join_chat"  // client -> server: subscribe to a chat room
	TypeLeaveChat = "leave_chat" // client -> server: unsubscribe
	TypeJoinAck   = "join_ack"   // server -> client: join confirmed

	TypeMessageReceived = "message_received"  // to room subscribers
	TypeChatListChanged = "chat_list_changed" // to every live connection
	TypeError           = "error"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type RoomPayload struct {
	ChatID int64 `json:"chat_id"`
}

type MessageItem struct {
	ID            int64   `json:"id"`
	ChatID        int64   `json:"chat_id"`
	SenderID      int64   `json:"sender_id"`
	Content       string  `json:"content"`
	AttachmentURL *string `json:"attachment_url,omitempty"`
	CreatedAtUnix int64   `json:"created_at_unix"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func toMessageItem(m *domain.Message) MessageItem {
	return MessageItem{
		ID:            m.ID,
		ChatID:        m.ChatID,
		SenderID:      m.SenderID,
		Content:       m.Content,
		AttachmentURL: m.AttachmentURL,
		CreatedAtUnix: m.CreatedAt.UnixMilli(),
	}
}
