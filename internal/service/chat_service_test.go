package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loopchat/chat-service/internal/domain"
	"github.com/loopchat/chat-service/internal/postgres"
)

type stubChatRepo struct {
	directChat    *domain.Chat
	directCreated bool
	directErr     error
	lastDirectA   int64
	lastDirectB   int64

	groupErr         error
	lastGroupChat    *domain.Chat
	lastGroupCreator int64
	lastGroupMembers []int64

	getResult *domain.Chat
	getErr    error

	updateResult *domain.Chat
	updateErr    error
}

func (r *stubChatRepo) CreateDirect(_ context.Context, a, b int64) (*domain.Chat, bool, error) {
	r.lastDirectA, r.lastDirectB = a, b
	return r.directChat, r.directCreated, r.directErr
}

func (r *stubChatRepo) CreateGroup(_ context.Context, chat *domain.Chat, creatorID int64, memberIDs []int64) error {
	r.lastGroupChat = chat
	r.lastGroupCreator = creatorID
	r.lastGroupMembers = memberIDs
	if r.groupErr != nil {
		return r.groupErr
	}
	chat.ID = 101
	chat.IsGroup = true
	return nil
}

func (r *stubChatRepo) Get(_ context.Context, _ int64) (*domain.Chat, error) {
	return r.getResult, r.getErr
}

func (r *stubChatRepo) UpdateGroup(_ context.Context, _ int64, _, _, _ string) (*domain.Chat, error) {
	return r.updateResult, r.updateErr
}

type stubParticipantRepo struct {
	exists    bool
	existsErr error
	isAdmin   bool
	detailed  []postgres.ParticipantDetailedRow
}

func (r *stubParticipantRepo) Exists(_ context.Context, _, _ int64) (bool, error) {
	return r.exists, r.existsErr
}

func (r *stubParticipantRepo) IsAdmin(_ context.Context, _, _ int64) (bool, error) {
	return r.isAdmin, nil
}

func (r *stubParticipantRepo) ListDetailed(_ context.Context, _ int64) ([]postgres.ParticipantDetailedRow, error) {
	return r.detailed, nil
}

type stubMessageRepo struct {
	createErr  error
	created    []*domain.Message
	listResult []domain.Message
	listNext   string
	listErr    error
}

func (r *stubMessageRepo) Create(_ context.Context, m *domain.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	m.ID = int64(len(r.created) + 1)
	m.CreatedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r.created = append(r.created, m)
	return nil
}

func (r *stubMessageRepo) ListByChat(_ context.Context, _ int64, _ string, _ int) ([]domain.Message, string, error) {
	return r.listResult, r.listNext, r.listErr
}

type stubNotifier struct {
	notified []*domain.Message
}

func (n *stubNotifier) MessageCreated(_ context.Context, m *domain.Message) {
	n.notified = append(n.notified, m)
}

func TestCreateDirectChatRejectsSelf(t *testing.T) {
	svc := NewChatService(&stubChatRepo{}, &stubParticipantRepo{}, &stubMessageRepo{}, nil)

	_, err := svc.CreateDirectChat(context.Background(), 7, 7)
	if !errors.Is(err, domain.ErrSelfChat) {
		t.Fatalf("expected ErrSelfChat, got %v", err)
	}
}

func TestCreateDirectChatReturnsExistingOnRace(t *testing.T) {
	existing := &domain.Chat{ID: 42}
	repo := &stubChatRepo{directChat: existing, directCreated: false}
	svc := NewChatService(repo, &stubParticipantRepo{}, &stubMessageRepo{}, nil)

	chat, err := svc.CreateDirectChat(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("CreateDirectChat: %v", err)
	}
	if chat.ID != 42 {
		t.Fatalf("expected existing chat 42, got %d", chat.ID)
	}
	if repo.lastDirectA != 2 || repo.lastDirectB != 1 {
		t.Fatalf("unexpected pair: %d %d", repo.lastDirectA, repo.lastDirectB)
	}
}

func TestCreateGroupChatValidatesName(t *testing.T) {
	svc := NewChatService(&stubChatRepo{}, &stubParticipantRepo{}, &stubMessageRepo{}, nil)

	for _, name := range []string{"", "   ", string(make([]byte, 51))} {
		if _, err := svc.CreateGroupChat(context.Background(), 1, name, "", "", []int64{2}); !errors.Is(err, domain.ErrInvalidChatName) {
			t.Fatalf("name %q: expected ErrInvalidChatName, got %v", name, err)
		}
	}
}

func TestCreateGroupChatDeduplicatesParticipants(t *testing.T) {
	repo := &stubChatRepo{}
	svc := NewChatService(repo, &stubParticipantRepo{}, &stubMessageRepo{}, nil)

	chat, err := svc.CreateGroupChat(context.Background(), 1, "Team", "", "", []int64{2, 3, 2, 1, 3})
	if err != nil {
		t.Fatalf("CreateGroupChat: %v", err)
	}
	if !chat.IsGroup || chat.Name != "Team" {
		t.Fatalf("unexpected chat: %+v", chat)
	}
	if repo.lastGroupCreator != 1 {
		t.Fatalf("expected creator 1, got %d", repo.lastGroupCreator)
	}
	if len(repo.lastGroupMembers) != 2 || repo.lastGroupMembers[0] != 2 || repo.lastGroupMembers[1] != 3 {
		t.Fatalf("expected members [2 3], got %v", repo.lastGroupMembers)
	}
}

func TestCreateGroupChatRequiresOtherParticipants(t *testing.T) {
	svc := NewChatService(&stubChatRepo{}, &stubParticipantRepo{}, &stubMessageRepo{}, nil)

	// only the creator itself listed
	if _, err := svc.CreateGroupChat(context.Background(), 1, "Team", "", "", []int64{1, 1}); !errors.Is(err, domain.ErrNoParticipants) {
		t.Fatalf("expected ErrNoParticipants, got %v", err)
	}
	if _, err := svc.CreateGroupChat(context.Background(), 1, "Team", "", "", nil); !errors.Is(err, domain.ErrNoParticipants) {
		t.Fatalf("expected ErrNoParticipants, got %v", err)
	}
}

func TestSendMessageRejectsEmptyBody(t *testing.T) {
	msgs := &stubMessageRepo{}
	notifier := &stubNotifier{}
	svc := NewChatService(&stubChatRepo{}, &stubParticipantRepo{exists: true}, msgs, notifier)

	empty := ""
	for _, attachment := range []*string{nil, &empty} {
		if _, err := svc.SendMessage(context.Background(), 5, 1, "   ", attachment); !errors.Is(err, domain.ErrEmptyMessage) {
			t.Fatalf("expected ErrEmptyMessage, got %v", err)
		}
	}
	if len(msgs.created) != 0 || len(notifier.notified) != 0 {
		t.Fatal("empty message must not persist or notify")
	}
}

func TestSendMessageNotParticipant(t *testing.T) {
	msgs := &stubMessageRepo{}
	notifier := &stubNotifier{}
	chats := &stubChatRepo{getResult: &domain.Chat{ID: 5}}
	svc := NewChatService(chats, &stubParticipantRepo{exists: false}, msgs, notifier)

	_, err := svc.SendMessage(context.Background(), 5, 9, "hi", nil)
	if !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}
	if len(msgs.created) != 0 || len(notifier.notified) != 0 {
		t.Fatal("rejected message must not persist or notify")
	}
}

func TestSendMessageMissingChat(t *testing.T) {
	chats := &stubChatRepo{getErr: domain.ErrChatNotFound}
	svc := NewChatService(chats, &stubParticipantRepo{exists: false}, &stubMessageRepo{}, nil)

	_, err := svc.SendMessage(context.Background(), 404, 9, "hi", nil)
	if !errors.Is(err, domain.ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestSendMessageNotifiesAfterPersist(t *testing.T) {
	msgs := &stubMessageRepo{}
	notifier := &stubNotifier{}
	svc := NewChatService(&stubChatRepo{}, &stubParticipantRepo{exists: true}, msgs, notifier)

	msg, err := svc.SendMessage(context.Background(), 5, 1, " hello ", nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.Content != "hello" || msg.ChatID != 5 || msg.SenderID != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.ID == 0 {
		t.Fatal("message must carry the persisted id")
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != msg {
		t.Fatalf("notifier must receive the persisted message exactly once, got %d", len(notifier.notified))
	}
}

func TestSendMessagePersistFailureSkipsNotify(t *testing.T) {
	msgs := &stubMessageRepo{createErr: errors.New("db down")}
	notifier := &stubNotifier{}
	svc := NewChatService(&stubChatRepo{}, &stubParticipantRepo{exists: true}, msgs, notifier)

	if _, err := svc.SendMessage(context.Background(), 5, 1, "hi", nil); err == nil {
		t.Fatal("expected error")
	}
	if len(notifier.notified) != 0 {
		t.Fatal("failed persist must not notify")
	}
}

func TestListMessagesReturnsChronologicalOrder(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	msgs := &stubMessageRepo{
		// repository pages newest-first
		listResult: []domain.Message{
			{ID: 3, CreatedAt: base.Add(2 * time.Minute)},
			{ID: 2, CreatedAt: base.Add(time.Minute)},
			{ID: 1, CreatedAt: base},
		},
		listNext: "cursor",
	}
	svc := NewChatService(&stubChatRepo{}, &stubParticipantRepo{exists: true}, msgs, nil)

	out, next, err := svc.ListMessages(context.Background(), 5, 1, "", 50)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if next != "cursor" {
		t.Fatalf("expected cursor passthrough, got %q", next)
	}
	for i, want := range []int64{1, 2, 3} {
		if out[i].ID != want {
			t.Fatalf("position %d: expected id %d, got %d", i, want, out[i].ID)
		}
	}
}

func TestUpdateGroupChatRequiresGroupAndAdmin(t *testing.T) {
	direct := &stubChatRepo{getResult: &domain.Chat{ID: 5, IsGroup: false}}
	svc := NewChatService(direct, &stubParticipantRepo{exists: true, isAdmin: true}, &stubMessageRepo{}, nil)
	if _, err := svc.UpdateGroupChat(context.Background(), 5, 1, "New", "", ""); !errors.Is(err, domain.ErrNotGroupChat) {
		t.Fatalf("expected ErrNotGroupChat, got %v", err)
	}

	group := &stubChatRepo{
		getResult:    &domain.Chat{ID: 5, IsGroup: true},
		updateResult: &domain.Chat{ID: 5, IsGroup: true, Name: "New"},
	}
	svc = NewChatService(group, &stubParticipantRepo{exists: true, isAdmin: false}, &stubMessageRepo{}, nil)
	if _, err := svc.UpdateGroupChat(context.Background(), 5, 1, "New", "", ""); !errors.Is(err, domain.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}

	svc = NewChatService(group, &stubParticipantRepo{exists: true, isAdmin: true}, &stubMessageRepo{}, nil)
	chat, err := svc.UpdateGroupChat(context.Background(), 5, 1, "New", "", "")
	if err != nil {
		t.Fatalf("UpdateGroupChat: %v", err)
	}
	if chat.Name != "New" {
		t.Fatalf("expected renamed chat, got %+v", chat)
	}
}
