package service

import (
	"context"
	"fmt"
	"time"

	"github.com/loopchat/chat-service/internal/domain"
)

type ReadMarkerRepo interface {
	Upsert(ctx context.Context, userID, chatID int64, at time.Time) error
	CountUnread(ctx context.Context, userID, chatID int64) (int, error)
}

type ParticipantChecker interface {
	Exists(ctx context.Context, chatID, userID int64) (bool, error)
}

// ReadService owns unread accounting: a per-(user, chat) timestamp marker,
// messages after it from other senders count as unread. The marker write and
// a concurrent message insert are independent; a message stamped after the
// marker stays unread no matter how the two interleave.
type ReadService struct {
	markers      ReadMarkerRepo
	participants ParticipantChecker

	now func() time.Time
}

func NewReadService(markers ReadMarkerRepo, participants ParticipantChecker) *ReadService {
	return &ReadService{
		markers:      markers,
		participants: participants,
		now:          time.Now,
	}
}

func (s *ReadService) ComputeUnread(ctx context.Context, userID, chatID int64) (int, error) {
	count, err := s.markers.CountUnread(ctx, userID, chatID)
	if err != nil {
		return 0, fmt.Errorf("readMarkerRepo.CountUnread: %w", err)
	}
	return count, nil
}

// MarkAsRead advances the caller's marker to now. A caller outside the chat
// gets domain.ErrNotParticipant, which is an authorization signal, not a fault.
func (s *ReadService) MarkAsRead(ctx context.Context, userID, chatID int64) error {
	ok, err := s.participants.Exists(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("participantRepo.Exists: %w", err)
	}
	if !ok {
		return domain.ErrNotParticipant
	}
	if err := s.markers.Upsert(ctx, userID, chatID, s.now()); err != nil {
		return fmt.Errorf("readMarkerRepo.Upsert: %w", err)
	}
	return nil
}
