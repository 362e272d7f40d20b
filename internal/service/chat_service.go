package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/loopchat/chat-service/internal/domain"
	"github.com/loopchat/chat-service/internal/postgres"
)

const (
	maxChatNameLen = 50
	maxMessageLen  = 4000
)

type ChatRepo interface {
	CreateDirect(ctx context.Context, userA, userB int64) (chat *domain.Chat, created bool, err error)
	CreateGroup(ctx context.Context, chat *domain.Chat, creatorID int64, memberIDs []int64) error
	Get(ctx context.Context, id int64) (*domain.Chat, error)
	UpdateGroup(ctx context.Context, id int64, name, description, avatarURL string) (*domain.Chat, error)
}

type ParticipantRepo interface {
	Exists(ctx context.Context, chatID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
	ListDetailed(ctx context.Context, chatID int64) ([]postgres.ParticipantDetailedRow, error)
}

type MessageRepo interface {
	Create(ctx context.Context, m *domain.Message) error
	ListByChat(ctx context.Context, chatID int64, after string, limit int) ([]domain.Message, string, error)
}

// Notifier receives a message strictly after its transaction committed.
// Delivery downstream is best-effort.
type Notifier interface {
	MessageCreated(ctx context.Context, m *domain.Message)
}

// ChatService owns the write path: chat creation and message persistence.
type ChatService struct {
	chats        ChatRepo
	participants ParticipantRepo
	messages     MessageRepo
	notifier     Notifier
}

func NewChatService(chats ChatRepo, participants ParticipantRepo, messages MessageRepo, notifier Notifier) *ChatService {
	return &ChatService{
		chats:        chats,
		participants: participants,
		messages:     messages,
		notifier:     notifier,
	}
}

// CreateDirectChat returns the direct chat for the pair, creating it if
// needed. Two concurrent calls for the same pair both get the same chat;
// the loser of the insert race reads the winner's row.
func (s *ChatService) CreateDirectChat(ctx context.Context, userID, otherUserID int64) (*domain.Chat, error) {
	if userID == otherUserID {
		return nil, domain.ErrSelfChat
	}
	chat, _, err := s.chats.CreateDirect(ctx, userID, otherUserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("chatRepo.CreateDirect: %w", err)
	}
	return chat, nil
}

func (s *ChatService) CreateGroupChat(ctx context.Context, creatorID int64, name, description, avatarURL string, participantIDs []int64) (*domain.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxChatNameLen {
		return nil, domain.ErrInvalidChatName
	}

	seen := map[int64]struct{}{creatorID: {}}
	members := make([]int64, 0, len(participantIDs))
	for _, id := range participantIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}
	if len(members) == 0 {
		return nil, domain.ErrNoParticipants
	}

	chat := &domain.Chat{
		Name:        name,
		Description: strings.TrimSpace(description),
		AvatarURL:   avatarURL,
	}
	if err := s.chats.CreateGroup(ctx, chat, creatorID, members); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("chatRepo.CreateGroup: %w", err)
	}
	return chat, nil
}

// SendMessage persists the message and bumps the chat, then hands it to the
// notifier. The notifier only ever sees committed messages, so a live client
// can always re-fetch what it was pushed.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID int64, content string, attachmentURL *string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && (attachmentURL == nil || *attachmentURL == "") {
		return nil, domain.ErrEmptyMessage
	}
	if len(content) > maxMessageLen {
		return nil, domain.ErrEmptyMessage
	}

	if err := s.requireParticipant(ctx, chatID, senderID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ChatID:        chatID,
		SenderID:      senderID,
		Content:       content,
		AttachmentURL: attachmentURL,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		if errors.Is(err, domain.ErrChatNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("messageRepo.Create: %w", err)
	}

	if s.notifier != nil {
		s.notifier.MessageCreated(ctx, msg)
	}
	return msg, nil
}

// ListMessages returns a page in chronological order. The repository pages
// newest-first, so the page is reversed before returning.
func (s *ChatService) ListMessages(ctx context.Context, chatID, userID int64, after string, limit int) ([]domain.Message, string, error) {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, "", err
	}

	msgs, next, err := s.messages.ListByChat(ctx, chatID, after, limit)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("messageRepo.ListByChat: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, next, nil
}

// UpdateGroupChat rewrites a group chat's stored display fields. Admin-only.
func (s *ChatService) UpdateGroupChat(ctx context.Context, chatID, userID int64, name, description, avatarURL string) (*domain.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxChatNameLen {
		return nil, domain.ErrInvalidChatName
	}

	chat, err := s.chats.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, domain.ErrNotGroupChat
	}

	isAdmin, err := s.participants.IsAdmin(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("participantRepo.IsAdmin: %w", err)
	}
	if !isAdmin {
		return nil, domain.ErrNotAdmin
	}

	return s.chats.UpdateGroup(ctx, chatID, name, strings.TrimSpace(description), avatarURL)
}

func (s *ChatService) ListParticipants(ctx context.Context, chatID, userID int64) ([]postgres.ParticipantDetailedRow, error) {
	if err := s.requireParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.participants.ListDetailed(ctx, chatID)
}

// IsParticipant reports chat membership; the live layer uses it to gate joins.
func (s *ChatService) IsParticipant(ctx context.Context, chatID, userID int64) (bool, error) {
	return s.participants.Exists(ctx, chatID, userID)
}

// requireParticipant distinguishes a missing chat from a present chat the
// user has no access to.
func (s *ChatService) requireParticipant(ctx context.Context, chatID, userID int64) error {
	ok, err := s.participants.Exists(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("participantRepo.Exists: %w", err)
	}
	if ok {
		return nil
	}
	if _, err := s.chats.Get(ctx, chatID); err != nil {
		return err
	}
	return domain.ErrNotParticipant
}
