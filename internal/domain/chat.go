package domain

import "time"

type Chat struct {
	ID          int64     `db:"id"`
	IsGroup     bool      `db:"is_group"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	AvatarURL   string    `db:"avatar_url"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
