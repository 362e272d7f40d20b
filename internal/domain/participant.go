package domain

import "time"

type Participant struct {
	ChatID   int64     `db:"chat_id"`
	UserID   int64     `db:"user_id"`
	IsAdmin  bool      `db:"is_admin"`
	JoinedAt time.Time `db:"joined_at"`
}
