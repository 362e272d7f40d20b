package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/loopchat/chat-service/internal/domain"
	"github.com/loopchat/chat-service/internal/postgres"
	httpmw "github.com/loopchat/chat-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type ChatListSvc interface {
	GetUserChats(ctx context.Context, userID int64) ([]domain.ChatSummary, error)
	GetChat(ctx context.Context, chatID, userID int64) (*domain.ChatSummary, error)
	ListContacts(ctx context.Context, userID int64) ([]domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type ChatSvc interface {
	CreateDirectChat(ctx context.Context, userID, otherUserID int64) (*domain.Chat, error)
	CreateGroupChat(ctx context.Context, creatorID int64, name, description, avatarURL string, participantIDs []int64) (*domain.Chat, error)
	UpdateGroupChat(ctx context.Context, chatID, userID int64, name, description, avatarURL string) (*domain.Chat, error)
	SendMessage(ctx context.Context, chatID, senderID int64, content string, attachmentURL *string) (*domain.Message, error)
	ListMessages(ctx context.Context, chatID, userID int64, after string, limit int) ([]domain.Message, string, error)
	ListParticipants(ctx context.Context, chatID, userID int64) ([]postgres.ParticipantDetailedRow, error)
}

type ReadSvc interface {
	MarkAsRead(ctx context.Context, userID, chatID int64) error
}

type Handler struct {
	listSvc ChatListSvc
	chatSvc ChatSvc
	readSvc ReadSvc
}

func NewHandler(listSvc ChatListSvc, chatSvc ChatSvc, readSvc ReadSvc) *Handler {
	return &Handler{
		listSvc: listSvc,
		chatSvc: chatSvc,
		readSvc: readSvc,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to statuses; anything unmapped is logged and
// surfaced as a bare 500 so storage details never leak to clients.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrChatNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "chat not found"})
	case errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
	case errors.Is(err, domain.ErrNotParticipant):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "not a participant"})
	case errors.Is(err, domain.ErrNotAdmin):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "not an admin"})
	case errors.Is(err, domain.ErrSelfChat),
		errors.Is(err, domain.ErrInvalidChatName),
		errors.Is(err, domain.ErrNoParticipants),
		errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrNotGroupChat):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, postgres.ErrInvalidCursor):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
	default:
		slog.Error("handler."+op, slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func chatIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// GET /chats
func (h *Handler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	summaries, err := h.listSvc.GetUserChats(r.Context(), userID)
	if err != nil {
		writeError(w, "ListChats", err)
		return
	}
	resp := ChatsListResponse{Items: make([]ChatSummaryItem, 0, len(summaries))}
	for i := range summaries {
		resp.Items = append(resp.Items, toChatSummaryItem(&summaries[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /chats/{id}
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	chatID, ok := chatIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
		return
	}

	summary, err := h.listSvc.GetChat(r.Context(), chatID, userID)
	if err != nil {
		writeError(w, "GetChat", err)
		return
	}
	writeJSON(w, http.StatusOK, toChatSummaryItem(summary))
}

// POST /chats/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	chatID, ok := chatIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
		return
	}

	if err := h.readSvc.MarkAsRead(r.Context(), userID, chatID); err != nil {
		// not-participant deliberately reads as not-found here: the caller
		// must not learn whether the chat exists
		if errors.Is(err, domain.ErrNotParticipant) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "chat not found"})
			return
		}
		writeError(w, "MarkRead", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "read"})
}

// GET /contacts
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	contacts, err := h.listSvc.ListContacts(r.Context(), userID)
	if err != nil {
		writeError(w, "ListContacts", err)
		return
	}
	resp := UsersResponse{Items: make([]UserItem, 0, len(contacts))}
	for i := range contacts {
		resp.Items = append(resp.Items, toUserItem(&contacts[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /chats/direct
func (h *Handler) CreateDirectChat(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	var req CreateDirectChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	chat, err := h.chatSvc.CreateDirectChat(r.Context(), userID, req.UserID)
	if err != nil {
		writeError(w, "CreateDirectChat", err)
		return
	}
	writeJSON(w, http.StatusCreated, toChatItem(chat))
}

// POST /chats/group
func (h *Handler) CreateGroupChat(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	var req CreateGroupChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	chat, err := h.chatSvc.CreateGroupChat(r.Context(), userID, req.Name, req.Description, req.AvatarURL, req.ParticipantIDs)
	if err != nil {
		writeError(w, "CreateGroupChat", err)
		return
	}
	writeJSON(w, http.StatusCreated, toChatItem(chat))
}

// PUT /chats/{id}
func (h *Handler) UpdateGroupChat(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	chatID, ok := chatIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
		return
	}

	var req UpdateGroupChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	chat, err := h.chatSvc.UpdateGroupChat(r.Context(), chatID, userID, req.Name, req.Description, req.AvatarURL)
	if err != nil {
		writeError(w, "UpdateGroupChat", err)
		return
	}
	writeJSON(w, http.StatusOK, toChatItem(chat))
}

// GET /chats/{id}/messages?after=&limit=
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	chatID, ok := chatIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
		return
	}
	after := r.URL.Query().Get("after")
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	msgs, next, err := h.chatSvc.ListMessages(r.Context(), chatID, userID, after, limit)
	if err != nil {
		writeError(w, "ListMessages", err)
		return
	}
	resp := MessagesResponse{Items: make([]MessageItem, 0, len(msgs)), NextCursor: next}
	for i := range msgs {
		resp.Items = append(resp.Items, toMessageItem(&msgs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /chats/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	chatID, ok := chatIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	msg, err := h.chatSvc.SendMessage(r.Context(), chatID, userID, req.Content, req.AttachmentURL)
	if err != nil {
		writeError(w, "SendMessage", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageItem(msg))
}

// GET /chats/{id}/participants
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	chatID, ok := chatIDParam(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
		return
	}

	items, err := h.chatSvc.ListParticipants(r.Context(), chatID, userID)
	if err != nil {
		writeError(w, "GetParticipants", err)
		return
	}
	resp := ParticipantsResponse{Items: make([]ParticipantItem, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, ParticipantItem{
			UserID:    it.UserID,
			Username:  it.Username,
			AvatarURL: it.AvatarURL,
			IsAdmin:   it.IsAdmin,
			JoinedAt:  it.JoinedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.listSvc.ListUsers(r.Context())
	if err != nil {
		writeError(w, "ListUsers", err)
		return
	}
	resp := UsersResponse{Items: make([]UserItem, 0, len(users))}
	for i := range users {
		resp.Items = append(resp.Items, toUserItem(&users[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	user, err := h.listSvc.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, "GetUser", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserItem(user))
}
