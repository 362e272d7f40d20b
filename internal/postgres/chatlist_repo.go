package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/loopchat/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatListRepository struct {
	db *pgxpool.Pool
}

func NewChatListRepository(db *pgxpool.Pool) *ChatListRepository {
	return &ChatListRepository{db: db}
}

// One statement, so every summary in the result is a consistent snapshot.
// Direct chat name/avatar come from the counterparty's *current* profile row;
// they are never stored on the chat itself.
const summarySelect = `
SELECT c.id,
       c.is_group,
       CASE WHEN c.is_group THEN c.name ELSE COALESCE(other.username, '') END            AS name,
       CASE WHEN c.is_group THEN NULLIF(c.avatar_url, '') ELSE other.avatar_url END      AS avatar_url,
       (SELECT COUNT(*) FROM chat_participants pc WHERE pc.chat_id = c.id)               AS member_count,
       lm.id, lm.sender_id, lm.content, lm.attachment_url, lm.created_at,
       (SELECT COUNT(*)
          FROM messages m
         WHERE m.chat_id = c.id
           AND m.sender_id <> $1
           AND m.created_at > COALESCE(rm.last_read_at, c.created_at))                   AS unread_count,
       c.updated_at
FROM chats c
JOIN chat_participants p ON p.chat_id = c.id AND p.user_id = $1
LEFT JOIN LATERAL (
    SELECT m.id, m.sender_id, m.content, m.attachment_url, m.created_at
    FROM messages m
    WHERE m.chat_id = c.id
    ORDER BY m.created_at DESC, m.id DESC
    LIMIT 1
) lm ON TRUE
LEFT JOIN read_markers rm ON rm.chat_id = c.id AND rm.user_id = $1
LEFT JOIN LATERAL (
    SELECT u.username, u.avatar_url
    FROM chat_participants op
    JOIN users u ON u.id = op.user_id
    WHERE op.chat_id = c.id AND op.user_id <> $1
    LIMIT 1
) other ON NOT c.is_group
`

// ListForUser returns summaries for every chat the user participates in,
// newest activity first, chat id as the deterministic tie-breaker.
func (r *ChatListRepository) ListForUser(ctx context.Context, userID int64) ([]domain.ChatSummary, error) {
	const q = summarySelect + `
ORDER BY GREATEST(COALESCE(lm.created_at, c.created_at), c.created_at) DESC, c.id ASC`

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChatSummary, 0, 16)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetForUser returns the summary of one chat, or ErrChatNotFound when the
// chat does not exist or the user is not a participant. The two cases are
// deliberately indistinguishable to the caller.
func (r *ChatListRepository) GetForUser(ctx context.Context, chatID, userID int64) (*domain.ChatSummary, error) {
	const q = summarySelect + `
WHERE c.id = $2`

	row := r.db.QueryRow(ctx, q, userID, chatID)
	s, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanSummary(row pgx.Row) (*domain.ChatSummary, error) {
	var (
		s         domain.ChatSummary
		lmID      *int64
		lmSender  *int64
		lmContent *string
		lmAttach  *string
		lmCreated *time.Time
	)
	if err := row.Scan(
		&s.ChatID, &s.IsGroup, &s.Name, &s.AvatarURL, &s.MemberCount,
		&lmID, &lmSender, &lmContent, &lmAttach, &lmCreated,
		&s.UnreadCount, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lmID != nil {
		s.LastMessage = &domain.Message{
			ID:            *lmID,
			ChatID:        s.ChatID,
			SenderID:      *lmSender,
			Content:       *lmContent,
			AttachmentURL: lmAttach,
			CreatedAt:     *lmCreated,
		}
	}
	return &s, nil
}
