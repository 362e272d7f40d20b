package postgres

import (
	"context"
	"errors"

	"github.com/loopchat/chat-service/internal/domain"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var qb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create persists the message and bumps the chat's updated_at in the same
// transaction, so a reader never sees one without the other.
func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	sqlStr, args, err := qb.Insert("messages").
		Columns("chat_id", "sender_id", "content", "attachment_url").
		Values(m.ChatID, m.SenderID, m.Content, m.AttachmentURL).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, sqlStr, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgFKViolation {
			return domain.ErrChatNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE chats SET updated_at = $2 WHERE id = $1`,
		m.ChatID, m.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListByChat pages messages newest-first with keyset pagination over
// (created_at, id). Callers that need chronological order reverse the page.
func (r *MessageRepository) ListByChat(ctx context.Context, chatID int64, after string, limit int) ([]domain.Message, string, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	cur, err := DecodeCursor(after)
	if err != nil {
		return nil, "", err
	}

	b := qb.Select("id", "chat_id", "sender_id", "content", "attachment_url", "created_at").
		From("messages").
		Where(squirrel.Eq{"chat_id": chatID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))
	if cur != nil {
		b = b.Where(squirrel.Or{
			squirrel.Lt{"created_at": cur.CreatedAt},
			squirrel.And{
				squirrel.Eq{"created_at": cur.CreatedAt},
				squirrel.Lt{"id": cur.ID},
			},
		})
	}

	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, "", err
	}

	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.AttachmentURL, &m.CreatedAt); err != nil {
			return nil, "", err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var next string
	if len(out) == limit {
		last := out[len(out)-1]
		if c, e := EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID}); e == nil {
			next = c
		}
	}
	return out, next, nil
}
