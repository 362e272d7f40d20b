package domain

import "time"

// ChatSummary is the user-relative projection of a chat: for direct chats
// the name and avatar are resolved to the other participant's current profile
// at read time, never denormalized onto the chat row.
type ChatSummary struct {
	ChatID      int64     `json:"chat_id"`
	Name        string    `json:"name"`
	AvatarURL   *string   `json:"avatar_url"`
	IsGroup     bool      `json:"is_group"`
	MemberCount int       `json:"member_count"`
	LastMessage *Message  `json:"last_message,omitempty"`
	UnreadCount int       `json:"unread_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}
