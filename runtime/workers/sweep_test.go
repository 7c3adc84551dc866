package workers

import (
	"chat-room/repositories"
	"chat-room/services"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newSweepFixture(t *testing.T) (*services.PresenceService, repositories.IParticipantRepository, repositories.IMessageRepository) {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelError) // Reduce sweep logging in tests
	participants := repositories.NewParticipantRepository(db)
	messages := repositories.NewMessageRepository(db)
	return services.NewPresenceService(log, participants, messages), participants, messages
}

func TestSweepWorker_Evicts_Stale_Participants(t *testing.T) {
	req := require.New(t)
	presence, participants, messages := newSweepFixture(t)

	// Silent registered long ago, Active keeps heartbeating below
	req.NoError(participants.Create("Silent", time.Now().UTC().Add(-time.Hour)))
	_, err := presence.Register("Active")
	req.NoError(err)

	worker := NewSweepWorker(slog.Default(), presence, 50*time.Millisecond, 500*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	req.Eventually(func() bool {
		listed, err := presence.List()
		if err != nil || len(listed) != 1 {
			return false
		}
		return listed[0].Name == "Active"
	}, 2*time.Second, 20*time.Millisecond)

	visible, err := messages.VisibleTo("Active", 0)
	req.NoError(err)

	found := false
	for _, m := range visible {
		if m.From == "Silent" && m.Text == "left" {
			found = true
		}
	}
	req.True(found, "departure notice should be in the store")
}

func TestSweepWorker_Spares_Heartbeating_Participant(t *testing.T) {
	req := require.New(t)
	presence, _, _ := newSweepFixture(t)

	_, err := presence.Register("Alice")
	req.NoError(err)

	worker := NewSweepWorker(slog.Default(), presence, 30*time.Millisecond, 200*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()

	heartbeats := time.NewTicker(50 * time.Millisecond)
	defer heartbeats.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeats.C:
				_ = presence.Heartbeat("Alice")
			}
		}
	}()

	err = worker.Run(ctx)
	req.ErrorIs(err, context.DeadlineExceeded)

	listed, err := presence.List()
	req.NoError(err)
	req.Len(listed, 1, "a participant heartbeating every tick is never evicted")
}

func TestSweepWorker_Stops_On_Context_Cancel(t *testing.T) {
	req := require.New(t)
	presence, _, _ := newSweepFixture(t)

	worker := NewSweepWorker(slog.Default(), presence, 20*time.Millisecond, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		req.ErrorIs(err, context.Canceled)
	case <-time.After(500 * time.Millisecond):
		req.Fail("sweep worker should stop when canceled")
	}
}
