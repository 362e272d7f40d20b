package domain

import "time"

type Message struct {
	ID            int64     `db:"id"`
	ChatID        int64     `db:"chat_id"`
	SenderID      int64     `db:"sender_id"`
	Content       string    `db:"content"`
	AttachmentURL *string   `db:"attachment_url"`
	CreatedAt     time.Time `db:"created_at"`
}
