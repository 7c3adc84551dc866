// Package domain contains core concepts of the chat room.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Participant is a live member of the room. The name is the identity:
// unique among currently-live participants, case-sensitive.
type Participant struct {
	Name       string
	LastStatus time.Time // last registration or heartbeat
}

// StaleAt reports whether the participant has been silent since before
// the given cutoff and should be considered departed.
func (p Participant) StaleAt(cutoff time.Time) bool {
	return p.LastStatus.Before(cutoff)
}
