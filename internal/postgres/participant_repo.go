package postgres

import (
	"context"
	"time"

	"github.com/loopchat/chat-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Exists(ctx context.Context, chatID, userID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`,
		chatID, userID).Scan(&exists)
	return exists, err
}

func (r *ParticipantRepository) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2 AND is_admin)`,
		chatID, userID).Scan(&isAdmin)
	return isAdmin, err
}

func (r *ParticipantRepository) ListByChat(ctx context.Context, chatID int64) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT chat_id, user_id, is_admin, joined_at FROM chat_participants WHERE chat_id=$1 ORDER BY joined_at ASC, user_id ASC`,
		chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ChatID, &p.UserID, &p.IsAdmin, &p.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

type ParticipantDetailedRow struct {
	UserID    int64
	Username  string
	AvatarURL *string
	IsAdmin   bool
	JoinedAt  time.Time
}

// ListDetailed joins each membership row to the current user profile.
func (r *ParticipantRepository) ListDetailed(ctx context.Context, chatID int64) ([]ParticipantDetailedRow, error) {
	const q = `
SELECT p.user_id,
       u.username,
       u.avatar_url,
       p.is_admin,
       p.joined_at
FROM chat_participants AS p
JOIN users AS u ON u.id = p.user_id
WHERE p.chat_id = $1
ORDER BY p.joined_at, p.user_id;
`
	rows, err := r.db.Query(ctx, q, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ParticipantDetailedRow, 0, 8)
	for rows.Next() {
		var row ParticipantDetailedRow
		if err := rows.Scan(&row.UserID, &row.Username, &row.AvatarURL, &row.IsAdmin, &row.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
