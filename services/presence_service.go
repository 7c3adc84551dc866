package services

import (
	"chat-room/domain"
	"chat-room/errors"
	"chat-room/repositories"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	joinedText = "joined"
	leftText   = "left"
)

type IPresenceService interface {
	Register(name string) (domain.Participant, error)
	List() ([]domain.Participant, error)
	Heartbeat(name string) error
	EvictStale(cutoff time.Time) error
}

// PresenceService owns the participant lifecycle: registration,
// heartbeats, and the eviction of silent participants. Departures and
// arrivals are announced through status messages in the message store.
type PresenceService struct {
	log          *slog.Logger
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	now          func() time.Time
}

func NewPresenceService(
	log *slog.Logger,
	participants repositories.IParticipantRepository,
	messages repositories.IMessageRepository,
) *PresenceService {
	return &PresenceService{
		log:          log,
		participants: participants,
		messages:     messages,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Register adds a participant to the room and announces the arrival.
// The name uniqueness check happens inside the repository transaction,
// so concurrent registrations of the same name admit exactly one winner.
// The status announcement is best-effort: once the participant record
// exists, a failed announcement is logged but never turns the
// registration into a failure.
func (s *PresenceService) Register(name string) (domain.Participant, error) {
	if name == "" {
		return domain.Participant{}, errors.ErrEmptyName
	}

	at := s.now()
	if err := s.participants.Create(name, at); err != nil {
		return domain.Participant{}, err
	}

	if err := s.messages.Store(statusMessage(name, joinedText, at)); err != nil {
		s.log.Error("Failed to announce arrival", "participant", name, "err", err)
	}
	return domain.Participant{Name: name, LastStatus: at}, nil
}

func (s *PresenceService) List() ([]domain.Participant, error) {
	return s.participants.List()
}

// Heartbeat refreshes the liveness timestamp of a known participant.
func (s *PresenceService) Heartbeat(name string) error {
	return s.participants.Touch(name, s.now())
}

// EvictStale removes every participant whose last heartbeat predates the
// cutoff, announcing each departure before deleting the record. Each
// eviction is independent: a failure for one participant is logged and
// the rest are still evaluated.
func (s *PresenceService) EvictStale(cutoff time.Time) error {
	stale, err := s.participants.ListStale(cutoff)
	if err != nil {
		return fmt.Errorf("staleness scan failed: %w", err)
	}

	for _, participant := range stale {
		if err := s.messages.Store(statusMessage(participant.Name, leftText, s.now())); err != nil {
			s.log.Error("Failed to announce departure", "participant", participant.Name, "err", err)
			continue
		}
		if err := s.participants.Delete(participant.Name); err != nil {
			s.log.Error("Failed to evict participant", "participant", participant.Name, "err", err)
			continue
		}
		s.log.Info("Evicted silent participant", "participant", participant.Name)
	}
	return nil
}

func statusMessage(name, text string, at time.Time) domain.Message {
	return domain.Message{
		ID:   uuid.New(),
		From: name,
		To:   domain.BroadcastTarget,
		Text: text,
		Kind: domain.KindStatus,
		At:   at,
	}
}
