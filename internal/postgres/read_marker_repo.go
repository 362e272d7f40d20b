package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReadMarkerRepository struct {
	db *pgxpool.Pool
}

func NewReadMarkerRepository(db *pgxpool.Pool) *ReadMarkerRepository {
	return &ReadMarkerRepository{db: db}
}

// Upsert moves the marker forward. GREATEST keeps a stale writer from
// rewinding a marker that a concurrent call already advanced.
func (r *ReadMarkerRepository) Upsert(ctx context.Context, userID, chatID int64, at time.Time) error {
	sqlStr, args, err := qb.Insert("read_markers").
		Columns("user_id", "chat_id", "last_read_at").
		Values(userID, chatID, at).
		Suffix("ON CONFLICT (user_id, chat_id) DO UPDATE SET last_read_at = GREATEST(read_markers.last_read_at, EXCLUDED.last_read_at)").
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sqlStr, args...)
	return err
}

// Get returns the marker timestamp, or nil when the user has never read the chat.
func (r *ReadMarkerRepository) Get(ctx context.Context, userID, chatID int64) (*time.Time, error) {
	sqlStr, args, err := qb.Select("last_read_at").
		From("read_markers").
		Where(squirrel.Eq{"user_id": userID, "chat_id": chatID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var at time.Time
	if err := r.db.QueryRow(ctx, sqlStr, args...).Scan(&at); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &at, nil
}

// CountUnread counts messages from other senders that arrived after the
// user's marker; with no marker the chat's creation time is the baseline.
func (r *ReadMarkerRepository) CountUnread(ctx context.Context, userID, chatID int64) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM messages m
		JOIN chats c ON c.id = m.chat_id
		LEFT JOIN read_markers rm ON rm.chat_id = m.chat_id AND rm.user_id = $1
		WHERE m.chat_id = $2
		  AND m.sender_id <> $1
		  AND m.created_at > COALESCE(rm.last_read_at, c.created_at)
	`
	var count int
	err := r.db.QueryRow(ctx, q, userID, chatID).Scan(&count)
	return count, err
}
