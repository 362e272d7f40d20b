package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/loopchat/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation = "23505"
	pgFKViolation     = "23503"
)

type ChatRepository struct {
	db *pgxpool.Pool
}

func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

// DirectKey normalizes an unordered user pair into the unique key stored on
// direct chat rows. The UNIQUE constraint on it is what makes concurrent
// direct-chat creation race-safe.
func DirectKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// CreateDirect inserts a direct chat plus both participant rows in one
// transaction. If another caller won the race on the pair key, the existing
// chat is returned and created=false.
func (r *ChatRepository) CreateDirect(ctx context.Context, userA, userB int64) (chat *domain.Chat, created bool, err error) {
	key := DirectKey(userA, userB)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	var c domain.Chat
	err = tx.QueryRow(ctx, `
		INSERT INTO chats (is_group, direct_key)
		VALUES (FALSE, $1)
		RETURNING id, is_group, name, description, avatar_url, created_at, updated_at
	`, key).Scan(&c.ID, &c.IsGroup, &c.Name, &c.Description, &c.AvatarURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			existing, lookupErr := r.GetDirectByKey(ctx, key)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO chat_participants (chat_id, user_id)
		VALUES ($1, $2), ($1, $3)
	`, c.ID, userA, userB); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgFKViolation {
			return nil, false, domain.ErrUserNotFound
		}
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return &c, true, nil
}

func (r *ChatRepository) GetDirectByKey(ctx context.Context, key string) (*domain.Chat, error) {
	var c domain.Chat
	err := r.db.QueryRow(ctx, `
		SELECT id, is_group, name, description, avatar_url, created_at, updated_at
		FROM chats WHERE direct_key = $1
	`, key).Scan(&c.ID, &c.IsGroup, &c.Name, &c.Description, &c.AvatarURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateGroup inserts the chat row, the creator as admin, and the remaining
// members in one transaction. memberIDs must already be deduplicated and must
// not contain creatorID.
func (r *ChatRepository) CreateGroup(ctx context.Context, chat *domain.Chat, creatorID int64, memberIDs []int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO chats (is_group, name, description, avatar_url)
		VALUES (TRUE, $1, $2, $3)
		RETURNING id, created_at, updated_at
	`, chat.Name, chat.Description, chat.AvatarURL).Scan(&chat.ID, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		return err
	}
	chat.IsGroup = true

	if _, err := tx.Exec(ctx, `
		INSERT INTO chat_participants (chat_id, user_id, is_admin)
		VALUES ($1, $2, TRUE)
	`, chat.ID, creatorID); err != nil {
		return memberInsertErr(err)
	}

	for _, id := range memberIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat_participants (chat_id, user_id)
			VALUES ($1, $2)
		`, chat.ID, id); err != nil {
			return memberInsertErr(err)
		}
	}

	return tx.Commit(ctx)
}

func memberInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgFKViolation {
		return domain.ErrUserNotFound
	}
	return err
}

func (r *ChatRepository) Get(ctx context.Context, id int64) (*domain.Chat, error) {
	var c domain.Chat
	err := r.db.QueryRow(ctx, `
		SELECT id, is_group, name, description, avatar_url, created_at, updated_at
		FROM chats WHERE id = $1
	`, id).Scan(&c.ID, &c.IsGroup, &c.Name, &c.Description, &c.AvatarURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}

// UpdateGroup rewrites the stored display fields of a group chat.
func (r *ChatRepository) UpdateGroup(ctx context.Context, id int64, name, description, avatarURL string) (*domain.Chat, error) {
	var c domain.Chat
	err := r.db.QueryRow(ctx, `
		UPDATE chats
		SET name = $2, description = $3, avatar_url = $4, updated_at = now()
		WHERE id = $1 AND is_group
		RETURNING id, is_group, name, description, avatar_url, created_at, updated_at
	`, id, name, description, avatarURL).Scan(&c.ID, &c.IsGroup, &c.Name, &c.Description, &c.AvatarURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChatNotFound
		}
		return nil, err
	}
	return &c, nil
}
