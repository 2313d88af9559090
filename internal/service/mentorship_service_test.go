package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

func newMentorship(t *testing.T) (*env, *MentorshipService, *MessageService) {
	t.Helper()
	e := newEnv()
	ctx := context.Background()
	require.NoError(t, e.store.EnsureProfile(ctx, &model.Profile{ID: "mentor", Name: "Ada", Role: model.RoleMentor}))
	require.NoError(t, e.store.EnsureProfile(ctx, &model.Profile{ID: "learner", Name: "Bob", Role: model.RoleLearner}))
	return e, NewMentorshipService(e.store, e.store, e.feed, e.log), NewMessageService(e.store, e.feed, e.log)
}

func TestMentorshipRequestFlow(t *testing.T) {
	ctx := context.Background()
	_, ms, msg := newMentorship(t)

	mentors, err := ms.ListMentors(ctx)
	require.NoError(t, err)
	require.Len(t, mentors, 1)
	assert.Equal(t, "mentor", mentors[0].ID)

	_, err = ms.SendRequest(ctx, "learner", "learner", "hi")
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)
	_, err = ms.SendRequest(ctx, "mentor", "learner", "hi")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	req, err := ms.SendRequest(ctx, "learner", "mentor", " please ")
	require.NoError(t, err)
	assert.Equal(t, "please", req.Message)
	_, err = ms.SendRequest(ctx, "learner", "mentor", "again")
	assert.ErrorIs(t, err, pkg.ErrConflict)

	_, err = ms.Respond(ctx, "learner", req.ID, model.RequestAccepted)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = ms.Respond(ctx, "mentor", req.ID, model.RequestPending)
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)

	conv, err := ms.Respond(ctx, "mentor", req.ID, model.RequestAccepted)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.ElementsMatch(t, []string{"learner", "mentor"}, conv.Participants)

	_, err = ms.Respond(ctx, "mentor", req.ID, model.RequestRejected)
	assert.ErrorIs(t, err, pkg.ErrInvalidTransition)

	reqs, err := ms.ListRequests(ctx, "learner")
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, model.RequestAccepted, reqs[0].Status)
	assert.NotNil(t, reqs[0].RespondedAt)

	convs, err := msg.ListConversations(ctx, "mentor")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, conv.ID, convs[0].ID)
}

func TestAcceptReusesConversation(t *testing.T) {
	ctx := context.Background()
	_, ms, msg := newMentorship(t)

	first, err := ms.SendRequest(ctx, "learner", "mentor", "one")
	require.NoError(t, err)
	c1, err := ms.Respond(ctx, "mentor", first.ID, model.RequestAccepted)
	require.NoError(t, err)

	second, err := ms.SendRequest(ctx, "learner", "mentor", "two")
	require.NoError(t, err)
	c2, err := ms.Respond(ctx, "mentor", second.ID, model.RequestAccepted)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)

	convs, err := msg.ListConversations(ctx, "learner")
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestRejectCreatesNoConversation(t *testing.T) {
	ctx := context.Background()
	_, ms, msg := newMentorship(t)
	req, err := ms.SendRequest(ctx, "learner", "mentor", "hi")
	require.NoError(t, err)

	conv, err := ms.Respond(ctx, "mentor", req.ID, model.RequestRejected)
	require.NoError(t, err)
	assert.Nil(t, conv)

	convs, err := msg.ListConversations(ctx, "learner")
	require.NoError(t, err)
	assert.Empty(t, convs)
}

func TestMessaging(t *testing.T) {
	ctx := context.Background()
	e, ms, msg := newMentorship(t)
	req, err := ms.SendRequest(ctx, "learner", "mentor", "hi")
	require.NoError(t, err)
	conv, err := ms.Respond(ctx, "mentor", req.ID, model.RequestAccepted)
	require.NoError(t, err)

	_, err = msg.SendMessage(ctx, "stranger", conv.ID, "hey")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = msg.ListMessages(ctx, "stranger", conv.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = msg.SendMessage(ctx, "learner", conv.ID, "  ")
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)

	var seen []model.Change
	cancel, err := e.feed.Subscribe(ctx, model.TableMessages, func(c model.Change) { seen = append(seen, c) })
	require.NoError(t, err)
	defer cancel()

	_, err = msg.SendMessage(ctx, "learner", conv.ID, "hello")
	require.NoError(t, err)
	_, err = msg.SendMessage(ctx, "mentor", conv.ID, "welcome")
	require.NoError(t, err)

	list, err := msg.ListMessages(ctx, "mentor", conv.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hello", list[0].Content)
	assert.Equal(t, "mentor", list[1].SenderID)
	assert.Len(t, seen, 2)

	convs, err := msg.ListConversations(ctx, "learner")
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.NotNil(t, convs[0].LastMessageAt)
}
