package http

import (
	"time"

	"github.com/loopchat/chat-service/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// --- requests ---

type CreateDirectChatRequest struct {
	UserID int64 `json:"user_id"`
}

type CreateGroupChatRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	AvatarURL      string  `json:"avatar_url"`
	ParticipantIDs []int64 `json:"participant_ids"`
}

type UpdateGroupChatRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
}

type SendMessageRequest struct {
	Content       string  `json:"content"`
	AttachmentURL *string `json:"attachment_url"`
}

// --- responses ---

type ChatItem struct {
	ID          int64     `json:"id"`
	IsGroup     bool      `json:"is_group"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toChatItem(c *domain.Chat) ChatItem {
	return ChatItem{
		ID:          c.ID,
		IsGroup:     c.IsGroup,
		Name:        c.Name,
		Description: c.Description,
		AvatarURL:   c.AvatarURL,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

type MessageItem struct {
	ID            int64     `json:"id"`
	ChatID        int64     `json:"chat_id"`
	SenderID      int64     `json:"sender_id"`
	Content       string    `json:"content"`
	AttachmentURL *string   `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toMessageItem(m *domain.Message) MessageItem {
	return MessageItem{
		ID:            m.ID,
		ChatID:        m.ChatID,
		SenderID:      m.SenderID,
		Content:       m.Content,
		AttachmentURL: m.AttachmentURL,
		CreatedAt:     m.CreatedAt.Truncate(time.Millisecond),
	}
}

type ChatSummaryItem struct {
	ChatID      int64        `json:"chat_id"`
	Name        string       `json:"name"`
	AvatarURL   *string      `json:"avatar_url,omitempty"`
	IsGroup     bool         `json:"is_group"`
	MemberCount int          `json:"member_count"`
	LastMessage *MessageItem `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func toChatSummaryItem(s *domain.ChatSummary) ChatSummaryItem {
	item := ChatSummaryItem{
		ChatID:      s.ChatID,
		Name:        s.Name,
		AvatarURL:   s.AvatarURL,
		IsGroup:     s.IsGroup,
		MemberCount: s.MemberCount,
		UnreadCount: s.UnreadCount,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.LastMessage != nil {
		lm := toMessageItem(s.LastMessage)
		item.LastMessage = &lm
	}
	return item
}

type ChatsListResponse struct {
	Items []ChatSummaryItem `json:"items"`
}

type MessagesResponse struct {
	Items      []MessageItem `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type UserItem struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func toUserItem(u *domain.User) UserItem {
	return UserItem{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

type UsersResponse struct {
	Items []UserItem `json:"items"`
}

type ParticipantItem struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	JoinedAt  time.Time `json:"joined_at"`
}

type ParticipantsResponse struct {
	Items []ParticipantItem `json:"items"`
}
