package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loopchat/chat-service/internal/domain"
)

type stubMarkerRepo struct {
	upsertErr  error
	lastUserID int64
	lastChatID int64
	lastAt     time.Time
	upserts    int

	unread    int
	unreadErr error
}

func (r *stubMarkerRepo) Upsert(_ context.Context, userID, chatID int64, at time.Time) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.lastUserID, r.lastChatID, r.lastAt = userID, chatID, at
	r.upserts++
	return nil
}

func (r *stubMarkerRepo) CountUnread(_ context.Context, _, _ int64) (int, error) {
	return r.unread, r.unreadErr
}

func TestMarkAsReadWritesMarkerAtNow(t *testing.T) {
	markers := &stubMarkerRepo{}
	svc := NewReadService(markers, &stubParticipantRepo{exists: true})

	fixed := time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if err := svc.MarkAsRead(context.Background(), 1, 5); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	if markers.lastUserID != 1 || markers.lastChatID != 5 {
		t.Fatalf("unexpected marker key: user=%d chat=%d", markers.lastUserID, markers.lastChatID)
	}
	if !markers.lastAt.Equal(fixed) {
		t.Fatalf("expected marker at %v, got %v", fixed, markers.lastAt)
	}
}

func TestMarkAsReadRejectsNonParticipant(t *testing.T) {
	markers := &stubMarkerRepo{}
	svc := NewReadService(markers, &stubParticipantRepo{exists: false})

	err := svc.MarkAsRead(context.Background(), 9, 5)
	if !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if markers.upserts != 0 {
		t.Fatal("rejected call must not touch the marker")
	}
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	markers := &stubMarkerRepo{}
	svc := NewReadService(markers, &stubParticipantRepo{exists: true})

	for i := 0; i < 3; i++ {
		if err := svc.MarkAsRead(context.Background(), 1, 5); err != nil {
			t.Fatalf("MarkAsRead #%d: %v", i, err)
		}
	}
	if markers.upserts != 3 {
		t.Fatalf("expected 3 upserts, got %d", markers.upserts)
	}
}

func TestComputeUnreadPassesThrough(t *testing.T) {
	svc := NewReadService(&stubMarkerRepo{unread: 7}, &stubParticipantRepo{exists: true})

	n, err := svc.ComputeUnread(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("ComputeUnread: %v", err)
	}
	if n != 7 {
		t.Fatalf("expected 7 unread, got %d", n)
	}
}
