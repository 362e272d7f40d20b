package domain

import "time"

// User is owned by the identity collaborator; this service only reads it.
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	AvatarURL *string   `db:"avatar_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
