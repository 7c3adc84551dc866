//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	"chat-room/domain"
	"chat-room/errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/samber/lo"
)

const participantPrefix = "participant:"

type IParticipantRepository interface {
	Create(name string, at time.Time) error
	Get(name string) (domain.Participant, error)
	List() ([]domain.Participant, error)
	Touch(name string, at time.Time) error
	Delete(name string) error
	ListStale(cutoff time.Time) ([]domain.Participant, error)
}

type ParticipantRepository struct {
	db *badger.DB
}

func NewParticipantRepository(db *badger.DB) IParticipantRepository {
	return &ParticipantRepository{db: db}
}

// diskParticipant is the stored shape of a participant record.
type diskParticipant struct {
	Name       string `cbor:"name"`
	LastStatus int64  `cbor:"last_status"` // unix nanos
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

// Create inserts a new participant keyed by its name.
// The existence check and the insert run inside one Badger update
// transaction, so two concurrent registrations of the same name cannot
// both succeed: the loser gets ErrNameTaken.
func (r ParticipantRepository) Create(name string, at time.Time) error {
	data, err := cbor.Marshal(diskParticipant{Name: name, LastStatus: at.UnixNano()})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	for {
		err := r.db.Update(func(txn *badger.Txn) error {
			key := participantKey(name)
			switch _, err := txn.Get(key); err {
			case nil:
				return errors.ErrNameTaken
			case badger.ErrKeyNotFound:
				return txn.Set(key, data)
			default:
				return err
			}
		})
		// Concurrent registrations of the same name collide on commit.
		// Retrying makes the loser observe the winner's record and
		// report ErrNameTaken instead of a transient conflict.
		if err == badger.ErrConflict {
			continue
		}
		return err
	}
}

func (r ParticipantRepository) Get(name string) (domain.Participant, error) {
	var disk diskParticipant
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(participantKey(name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return cbor.Unmarshal(val, &disk)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Participant{}, errors.ErrUnknownParticipant
	}
	if err != nil {
		return domain.Participant{}, err
	}
	return toParticipant(disk), nil
}

// List returns every live participant, in key (name) order.
func (r ParticipantRepository) List() ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(participantPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var disk diskParticipant
				if err := cbor.Unmarshal(val, &disk); err != nil {
					return err
				}
				participants = append(participants, toParticipant(disk))
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
	return participants, nil
}

// Touch refreshes the heartbeat timestamp of an existing participant.
// The update is keyed by the unique name, so no conflict is possible.
func (r ParticipantRepository) Touch(name string, at time.Time) error {
	data, err := cbor.Marshal(diskParticipant{Name: name, LastStatus: at.UnixNano()})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	for {
		err = r.db.Update(func(txn *badger.Txn) error {
			key := participantKey(name)
			if _, err := txn.Get(key); err != nil {
				return err
			}
			return txn.Set(key, data)
		})
		switch err {
		case badger.ErrConflict:
			// Lost a commit race against the sweep or another
			// heartbeat; re-read and settle.
			continue
		case badger.ErrKeyNotFound:
			return errors.ErrUnknownParticipant
		default:
			return err
		}
	}
}

func (r ParticipantRepository) Delete(name string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(participantKey(name))
	})
}

// ListStale returns the participants whose last heartbeat predates the
// cutoff. The caller owns the cutoff so a whole sweep tick shares one
// staleness snapshot.
func (r ParticipantRepository) ListStale(cutoff time.Time) ([]domain.Participant, error) {
	participants, err := r.List()
	if err != nil {
		return nil, err
	}
	return lo.Filter(participants, func(p domain.Participant, _ int) bool {
		return p.StaleAt(cutoff)
	}), nil
}

func toParticipant(disk diskParticipant) domain.Participant {
	return domain.Participant{
		Name:       disk.Name,
		LastStatus: time.Unix(0, disk.LastStatus).UTC(),
	}
}
