package services

import (
	"chat-room/domain"
	"chat-room/repositories"
)

// Identity maps a request's claimed username to a live participant.
// It carries no state of its own: the live set belongs to the presence
// tracker's repository.
type Identity struct {
	participants repositories.IParticipantRepository
}

func NewIdentity(participants repositories.IParticipantRepository) Identity {
	return Identity{participants: participants}
}

// Resolve returns the live participant for the claimed name, or
// ErrUnknownParticipant when nobody by that name is in the room.
func (i Identity) Resolve(claimedName string) (domain.Participant, error) {
	return i.participants.Get(claimedName)
}
