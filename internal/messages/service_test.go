package messages

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/marketly/marketly-backend/internal/users"
	"github.com/marketly/marketly-backend/pkg/db/dbtest"
	"github.com/marketly/marketly-backend/pkg/db/models"
	pkgerrors "github.com/marketly/marketly-backend/pkg/errors"
)

type fixture struct {
	svc   Service
	repo  *Repository
	users *users.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	client := dbtest.New(t)
	repo := NewRepository(client.DB())
	userRepo := users.NewRepository(client.DB())
	svc, err := NewService(repo, userRepo)
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, users: userRepo}
}

func (f fixture) seedUser(t *testing.T, name string) uuid.UUID {
	t.Helper()
	user, err := f.users.Create(context.Background(), users.CreateUserDTO{
		Name: name, Email: name + "@example.com", PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user.ID
}

func send(t *testing.T, svc Service, from, to uuid.UUID, content string) *MessageDTO {
	t.Helper()
	msg, created, err := svc.Send(context.Background(), from, SendInput{ReceiverID: to, Content: content})
	require.NoError(t, err)
	require.True(t, created)
	return msg
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil)
	require.Error(t, err)
}

func TestSendDeduplicatesByClientMessageID(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	clientID := "c-1"
	in := SendInput{ReceiverID: bob, Content: "hello", ClientMessageID: &clientID}
	first, created, err := f.svc.Send(ctx, alice, in)
	require.NoError(t, err)
	require.True(t, created)
	require.False(t, first.IsRead)

	in.Content = "hello again"
	second, created, err := f.svc.Send(ctx, alice, in)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "hello", second.Content)

	thread, err := f.svc.Thread(ctx, alice, bob)
	require.NoError(t, err)
	require.Len(t, thread, 1)

	// The same client id from another sender is a different message.
	_, created, err = f.svc.Send(ctx, bob, SendInput{ReceiverID: alice, Content: "hi", ClientMessageID: &clientID})
	require.NoError(t, err)
	require.True(t, created)
}

func TestRepositoryCreateReturnsExistingOnDuplicate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	clientID := "dup"
	first, created, err := f.svc.Send(ctx, alice, SendInput{ReceiverID: bob, Content: "one", ClientMessageID: &clientID})
	require.NoError(t, err)
	require.True(t, created)

	dupe := clientID
	row, created, err := f.repo.Create(ctx, &models.Message{
		SenderID: alice, ReceiverID: bob, Content: "two", ClientMessageID: &dupe,
	})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, row.ID)
}

func TestSendValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice")

	_, _, err := f.svc.Send(ctx, alice, SendInput{ReceiverID: alice, Content: "me"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, _, err = f.svc.Send(ctx, alice, SendInput{ReceiverID: uuid.New(), Content: "   "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, _, err = f.svc.Send(ctx, alice, SendInput{ReceiverID: uuid.New(), Content: "ghost"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestConversationsGroupByPartner(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")
	carol := f.seedUser(t, "carol")

	send(t, f.svc, bob, alice, "from bob 1")
	send(t, f.svc, bob, alice, "from bob 2")
	send(t, f.svc, alice, carol, "to carol")
	last := send(t, f.svc, carol, alice, "from carol")

	convos, err := f.svc.Conversations(ctx, alice)
	require.NoError(t, err)
	require.Len(t, convos, 2)

	require.Equal(t, carol, convos[0].Partner.ID)
	require.Equal(t, "carol", convos[0].Partner.Name)
	require.Equal(t, last.ID, convos[0].LastMessage.ID)
	require.EqualValues(t, 1, convos[0].UnreadCount)

	require.Equal(t, bob, convos[1].Partner.ID)
	require.Equal(t, "from bob 2", convos[1].LastMessage.Content)
	require.EqualValues(t, 2, convos[1].UnreadCount)

	unread, err := f.svc.UnreadCount(ctx, alice)
	require.NoError(t, err)
	require.EqualValues(t, 3, unread.Count)
}

func TestThreadMarksPartnerMessagesRead(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	send(t, f.svc, bob, alice, "first")
	send(t, f.svc, alice, bob, "second")
	send(t, f.svc, bob, alice, "third")

	thread, err := f.svc.Thread(ctx, alice, bob)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	require.Equal(t, "first", thread[0].Content)
	require.Equal(t, "third", thread[2].Content)
	for _, msg := range thread {
		if msg.SenderID == bob {
			require.True(t, msg.IsRead)
		} else {
			require.False(t, msg.IsRead)
		}
	}

	unread, err := f.svc.UnreadCount(ctx, bob)
	require.NoError(t, err)
	require.EqualValues(t, 1, unread.Count)
}

func TestMarkReadAndSummary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	alice := f.seedUser(t, "alice")
	bob := f.seedUser(t, "bob")

	send(t, f.svc, bob, alice, "one")
	msg := send(t, f.svc, bob, alice, "two")

	summary, err := f.svc.ConversationSummary(ctx, alice, bob)
	require.NoError(t, err)
	require.EqualValues(t, 2, summary.UnreadCount)
	require.Equal(t, msg.ID, summary.LastMessage.ID)

	read, err := f.svc.MarkMessageRead(ctx, msg.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	res, err := f.svc.MarkRead(ctx, alice, bob)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Updated)

	summary, err = f.svc.ConversationSummary(ctx, alice, bob)
	require.NoError(t, err)
	require.Zero(t, summary.UnreadCount)

	_, err = f.svc.ConversationSummary(ctx, alice, f.seedUser(t, "stranger"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
