//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-room/domain"
	"chat-room/errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	messagePrefix   = "msg:"
	messageIDPrefix = "msgid:"
)

type IMessageRepository interface {
	Store(message domain.Message) error
	Get(id uuid.UUID) (domain.Message, error)
	Delete(id uuid.UUID) error
	VisibleTo(viewer string, limit int) ([]domain.Message, error)
}

type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) IMessageRepository {
	return &MessageRepository{db: db}
}

// diskMessage is the stored shape of a message record.
type diskMessage struct {
	ID   string `cbor:"id"`
	From string `cbor:"from"`
	To   string `cbor:"to"`
	Text string `cbor:"text"`
	Kind string `cbor:"kind"`
	At   int64  `cbor:"at"` // unix nanos
}

// messageKey is formatted as "msg:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two
//     messages arrive at the same nanosecond.
func messageKey(at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, at.UnixNano(), id))
}

func messageIDKey(id uuid.UUID) []byte {
	return []byte(messageIDPrefix + id.String())
}

// Store persists a message plus a "msgid:{uuid}" index entry pointing at
// the primary key, so deletion by id needs no prefix scan. Both writes
// share one transaction.
func (r MessageRepository) Store(message domain.Message) error {
	data, err := cbor.Marshal(fromMessage(message))
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	key := messageKey(message.At, message.ID)
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(messageIDKey(message.ID), key)
	})
}

func (r MessageRepository) Get(id uuid.UUID) (domain.Message, error) {
	var disk diskMessage
	err := r.db.View(func(txn *badger.Txn) error {
		key, err := resolveMessageKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &disk)
		})
	})
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(disk)
}

// Delete removes a message and its index entry permanently.
func (r MessageRepository) Delete(id uuid.UUID) error {
	for {
		err := r.db.Update(func(txn *badger.Txn) error {
			key, err := resolveMessageKey(txn, id)
			if err != nil {
				return err
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			return txn.Delete(messageIDKey(id))
		})
		// A commit race between two deletions of the same message:
		// retrying lets the loser report ErrMessageNotFound.
		if err == badger.ErrConflict {
			continue
		}
		return err
	}
}

// VisibleTo retrieves the messages a viewer may see, oldest first.
// Thanks to the padded timestamp in the key, a forward prefix scan yields
// creation order. A positive limit keeps only the most recent messages
// (the tail of the visible sequence); anything else returns the full set.
func (r MessageRepository) VisibleTo(viewer string, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var disk diskMessage
				if err := cbor.Unmarshal(val, &disk); err != nil {
					return err
				}
				message, err := toMessage(disk)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	visible := lo.Filter(messages, func(m domain.Message, _ int) bool {
		return m.VisibleTo(viewer)
	})
	if limit > 0 && len(visible) > limit {
		visible = visible[len(visible)-limit:]
	}
	return visible, nil
}

// resolveMessageKey follows the id index to the primary key.
func resolveMessageKey(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get(messageIDKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, errors.ErrMessageNotFound
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:   message.ID.String(),
		From: message.From,
		To:   message.To,
		Text: message.Text,
		Kind: string(message.Kind),
		At:   message.At.UnixNano(),
	}
}

func toMessage(disk diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:   parsedID,
		From: disk.From,
		To:   disk.To,
		Text: disk.Text,
		Kind: domain.Kind(disk.Kind),
		At:   time.Unix(0, disk.At).UTC(),
	}, nil
}
