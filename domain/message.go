// Package domain contains core concepts of the chat room.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// BroadcastTarget is the reserved "to" value meaning the message is
// visible to every live participant.
const BroadcastTarget = "Todos"

// Kind discriminates user chat, whispers, and system notices.
type Kind string

const (
	KindMessage Kind = "message"
	KindPrivate Kind = "private_message"
	KindStatus  Kind = "status"
)

// UserKinds are the kinds a participant may post directly.
// KindStatus is reserved for system-generated join/leave notices.
var UserKinds = []Kind{KindMessage, KindPrivate}

// Message represents an immutable chat event.
type Message struct {
	ID   uuid.UUID // unique identifier
	From string
	To   string
	Text string
	Kind Kind
	At   time.Time
}

// VisibleTo implements the per-viewer visibility predicate: broadcasts
// are visible to everyone, anything else only to its sender and recipient.
func (m Message) VisibleTo(viewer string) bool {
	return m.To == BroadcastTarget || m.From == viewer || m.To == viewer
}
