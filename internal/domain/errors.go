package domain

import "errors"

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotParticipant  = errors.New("user is not a participant of the chat")
	ErrSelfChat        = errors.New("cannot create a chat with yourself")
	ErrNotGroupChat    = errors.New("chat is not a group chat")
	ErrNotAdmin        = errors.New("user is not an admin of the chat")
	ErrEmptyMessage    = errors.New("message has no content and no attachment")
	ErrInvalidChatName = errors.New("invalid chat name")
	ErrNoParticipants  = errors.New("participant list is empty")
)
