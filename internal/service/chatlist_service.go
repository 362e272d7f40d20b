package service

import (
	"context"
	"fmt"

	"github.com/loopchat/chat-service/internal/domain"
)

type ChatListRepo interface {
	ListForUser(ctx context.Context, userID int64) ([]domain.ChatSummary, error)
	GetForUser(ctx context.Context, chatID, userID int64) (*domain.ChatSummary, error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListContacts(ctx context.Context, userID int64) ([]domain.User, error)
}

// ChatListService serves the read side: per-user chat summaries and contacts.
// It holds no state of its own; consistency comes from the repository running
// each aggregation as a single statement.
type ChatListService struct {
	lists ChatListRepo
	users UserRepo
}

func NewChatListService(lists ChatListRepo, users UserRepo) *ChatListService {
	return &ChatListService{lists: lists, users: users}
}

// GetUserChats returns the user's chats ordered by latest activity.
// A user with no chats gets an empty list, not an error.
func (s *ChatListService) GetUserChats(ctx context.Context, userID int64) ([]domain.ChatSummary, error) {
	summaries, err := s.lists.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("chatListRepo.ListForUser: %w", err)
	}
	return summaries, nil
}

// GetChat returns one summary, or domain.ErrChatNotFound when the chat is
// absent or the user is not a participant.
func (s *ChatListService) GetChat(ctx context.Context, chatID, userID int64) (*domain.ChatSummary, error) {
	summary, err := s.lists.GetForUser(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *ChatListService) ListContacts(ctx context.Context, userID int64) ([]domain.User, error) {
	contacts, err := s.users.ListContacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("userRepo.ListContacts: %w", err)
	}
	return contacts, nil
}

func (s *ChatListService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("userRepo.List: %w", err)
	}
	return users, nil
}

func (s *ChatListService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
