package postgres

import (
	"context"
	"errors"

	"github.com/loopchat/chat-service/internal/domain"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id, username, avatar_url, created_at, updated_at FROM users WHERE id = $1`,
		id).Scan(&u.ID, &u.Username, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	sqlStr, args, err := qb.Select("id", "username", "avatar_url", "created_at", "updated_at").
		From("users").
		OrderBy("username ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, sqlStr, args...)
}

// ListContacts returns the users who share a direct chat with userID.
func (r *UserRepository) ListContacts(ctx context.Context, userID int64) ([]domain.User, error) {
	sqlStr, args, err := qb.Select("u.id", "u.username", "u.avatar_url", "u.created_at", "u.updated_at").
		From("users u").
		Join("chat_participants other ON other.user_id = u.id").
		Join("chats c ON c.id = other.chat_id AND NOT c.is_group").
		Join("chat_participants own ON own.chat_id = c.id").
		Where(squirrel.Eq{"own.user_id": userID}).
		Where(squirrel.NotEq{"u.id": userID}).
		OrderBy("u.username ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, sqlStr, args...)
}

func (r *UserRepository) queryUsers(ctx context.Context, sqlStr string, args ...any) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
