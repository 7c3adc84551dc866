package services

import (
	"chat-room/domain"
	"chat-room/errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newTestRoom(t *testing.T, names ...string) (*PresenceService, *MessageService) {
	t.Helper()
	participants, messages := newTestRepositories(t)
	log := slog.Default()
	presence := NewPresenceService(log, participants, messages)
	service := NewMessageService(log, messages, NewIdentity(participants))
	for _, name := range names {
		_, err := presence.Register(name)
		require.NoError(t, err)
	}
	return presence, service
}

func Test_Post_Broadcast_Visible_To_Everyone(t *testing.T) {
	req := require.New(t)
	_, service := newTestRoom(t, "Alice", "Bob", "Clara")

	_, err := service.Post("Alice", domain.BroadcastTarget, "hi", domain.KindMessage)
	req.NoError(err)

	for _, viewer := range []string{"Bob", "Clara"} {
		visible, err := service.Retrieve(viewer, 0)
		req.NoError(err)
		texts := lo.Map(visible, func(m domain.Message, _ int) string { return m.Text })
		req.Contains(texts, "hi")
	}
}

func Test_Post_Private_Message_Hidden_From_Third_Parties(t *testing.T) {
	req := require.New(t)
	_, service := newTestRoom(t, "Alice", "Bob", "Clara")

	_, err := service.Post("Alice", "Bob", "between us", domain.KindPrivate)
	req.NoError(err)

	hasWhisper := func(viewer string) bool {
		visible, err := service.Retrieve(viewer, 0)
		req.NoError(err)
		return lo.ContainsBy(visible, func(m domain.Message) bool {
			return m.Text == "between us"
		})
	}
	req.True(hasWhisper("Alice"))
	req.True(hasWhisper("Bob"))
	req.False(hasWhisper("Clara"))
}

func Test_Post_Unknown_Sender(t *testing.T) {
	req := require.New(t)
	_, service := newTestRoom(t, "Alice")

	_, err := service.Post("Ghost", domain.BroadcastTarget, "boo", domain.KindMessage)
	req.ErrorIs(err, errors.ErrUnknownSender)
}

func Test_Post_Rejects_Invalid_Payload(t *testing.T) {
	req := require.New(t)
	_, service := newTestRoom(t, "Alice")

	cases := []struct {
		to   string
		text string
		kind domain.Kind
	}{
		{"", "hi", domain.KindMessage},
		{domain.BroadcastTarget, "", domain.KindMessage},
		{domain.BroadcastTarget, "hi", domain.KindStatus},
		{domain.BroadcastTarget, "hi", domain.Kind("shout")},
	}
	for _, c := range cases {
		_, err := service.Post("Alice", c.to, c.text, c.kind)
		req.ErrorIs(err, errors.ErrInvalidMessage)
	}
}

func Test_Retrieve_Limit_Returns_Most_Recent(t *testing.T) {
	req := require.New(t)
	_, service := newTestRoom(t, "Alice")

	for _, text := range []string{"one", "two", "three", "four", "five"} {
		_, err := service.Post("Alice", domain.BroadcastTarget, text, domain.KindMessage)
		req.NoError(err)
	}

	visible, err := service.Retrieve("Alice", 2)
	req.NoError(err)
	req.Equal([]string{"four", "five"}, lo.Map(visible, func(m domain.Message, _ int) string {
		return m.Text
	}))
}

func Test_Delete_Only_By_Author(t *testing.T) {
	req := require.New(t)
	_, service := newTestRoom(t, "Alice", "Bob")

	message, err := service.Post("Alice", domain.BroadcastTarget, "mine", domain.KindMessage)
	req.NoError(err)

	err = service.Delete(message.ID, "Bob")
	req.ErrorIs(err, errors.ErrNotMessageAuthor)

	// The message survives the forbidden attempt
	visible, err := service.Retrieve("Bob", 0)
	req.NoError(err)
	req.True(lo.ContainsBy(visible, func(m domain.Message) bool { return m.ID == message.ID }))

	req.NoError(service.Delete(message.ID, "Alice"))

	visible, err = service.Retrieve("Bob", 0)
	req.NoError(err)
	req.False(lo.ContainsBy(visible, func(m domain.Message) bool { return m.ID == message.ID }))
}

func Test_Delete_Unknown_Message(t *testing.T) {
	req := require.New(t)
	_, service := newTestRoom(t, "Alice")

	err := service.Delete(uuid.New(), "Alice")
	req.ErrorIs(err, errors.ErrMessageNotFound)
}
