package services

import (
	"chat-room/domain"
	"chat-room/errors"
	"chat-room/repositories"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

type IMessageService interface {
	Post(from, to, text string, kind domain.Kind) (domain.Message, error)
	Retrieve(viewer string, limit int) ([]domain.Message, error)
	Delete(id uuid.UUID, requester string) error
}

// MessageService owns message creation, per-viewer retrieval, and
// author-only deletion.
type MessageService struct {
	log      *slog.Logger
	messages repositories.IMessageRepository
	identity Identity
	now      func() time.Time
}

func NewMessageService(log *slog.Logger, messages repositories.IMessageRepository, identity Identity) *MessageService {
	return &MessageService{
		log:      log,
		messages: messages,
		identity: identity,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Post stores a new message with a server-assigned id and creation time.
// The sender must be a live participant; only the user-facing kinds are
// accepted, status notices belong to the presence tracker.
func (s *MessageService) Post(from, to, text string, kind domain.Kind) (domain.Message, error) {
	if _, err := s.identity.Resolve(from); err != nil {
		return domain.Message{}, errors.ErrUnknownSender
	}
	if to == "" || text == "" || !slices.Contains(domain.UserKinds, kind) {
		return domain.Message{}, errors.ErrInvalidMessage
	}

	message := domain.Message{
		ID:   uuid.New(),
		From: from,
		To:   to,
		Text: text,
		Kind: kind,
		At:   s.now(),
	}
	if err := s.messages.Store(message); err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Retrieve returns the messages visible to the viewer, oldest first.
// A positive limit truncates to the most recent messages.
func (s *MessageService) Retrieve(viewer string, limit int) ([]domain.Message, error) {
	return s.messages.VisibleTo(viewer, limit)
}

// Delete removes a message permanently. Only the original author may
// delete it; the message is left intact on an authorship mismatch.
func (s *MessageService) Delete(id uuid.UUID, requester string) error {
	message, err := s.messages.Get(id)
	if err != nil {
		return err
	}
	if message.From != requester {
		return errors.ErrNotMessageAuthor
	}
	return s.messages.Delete(id)
}
