package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

const learner = "learner-1"

var reviewer = Actor{ID: "mentor-1", Role: model.RoleMentor}

func newRoadmapFixture(t *testing.T, rewards ...float64) (*env, *RoadmapService, *LedgerService, *model.Roadmap) {
	t.Helper()
	e := newEnv()
	rs := NewRoadmapService(e.store, nil, e.feed, e.log)
	ls := NewLedgerService(e.store, e.feed, e.log, 0)
	r, err := rs.CreateFromRaw(context.Background(), learner, []byte(rawRoadmapJSON(rewards...)))
	require.NoError(t, err)
	return e, rs, ls, r
}

func statusOf(t *testing.T, rs *RoadmapService, id string) []model.MilestoneStatus {
	t.Helper()
	r, err := rs.Get(context.Background(), learner, id)
	require.NoError(t, err)
	out := make([]model.MilestoneStatus, 0, len(r.Milestones))
	for _, m := range r.Milestones {
		out = append(out, m.Status)
	}
	return out
}

func balanceOf(t *testing.T, ls *LedgerService, user string) int64 {
	t.Helper()
	b, err := ls.Balance(context.Background(), user)
	require.NoError(t, err)
	return b
}

func TestRoadmapRewardScenario(t *testing.T) {
	ctx := context.Background()
	_, rs, ls, r := newRoadmapFixture(t, 10, 20, 30)

	assert.Equal(t, []model.MilestoneStatus{model.MilestoneAvailable, model.MilestoneLocked, model.MilestoneLocked}, statusOf(t, rs, r.ID))
	assert.Equal(t, int64(0), balanceOf(t, ls, learner))

	require.NoError(t, rs.Submit(ctx, learner, r.ID, "m1", model.Submission{Description: "done"}))
	assert.Equal(t, model.MilestoneSubmitted, statusOf(t, rs, r.ID)[0])

	require.NoError(t, rs.Approve(ctx, reviewer, r.ID, "m1", "great"))
	assert.Equal(t, []model.MilestoneStatus{model.MilestoneCompleted, model.MilestoneAvailable, model.MilestoneLocked}, statusOf(t, rs, r.ID))
	assert.Equal(t, int64(1000), balanceOf(t, ls, learner))

	require.NoError(t, rs.Submit(ctx, learner, r.ID, "m2", model.Submission{}))
	require.NoError(t, rs.Approve(ctx, reviewer, r.ID, "m2", ""))
	assert.Equal(t, int64(3000), balanceOf(t, ls, learner))
	assert.Equal(t, model.MilestoneAvailable, statusOf(t, rs, r.ID)[2])

	_, err := ls.Debit(ctx, learner, 1500, "payout")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), balanceOf(t, ls, learner))

	_, err = ls.Debit(ctx, learner, 10000, "payout")
	assert.ErrorIs(t, err, pkg.ErrInsufficientFunds)
	assert.Equal(t, int64(1500), balanceOf(t, ls, learner))

	got, err := rs.Get(ctx, learner, r.ID)
	require.NoError(t, err)
	assert.InDelta(t, 66.66, rs.Progress(got), 0.01)
	assert.Equal(t, reviewer.ID, got.Milestone("m1").ApprovedBy)
}

func TestSubmitTwiceFails(t *testing.T) {
	ctx := context.Background()
	_, rs, _, r := newRoadmapFixture(t, 1, 2)

	require.NoError(t, rs.Submit(ctx, learner, r.ID, "m1", model.Submission{}))
	assert.ErrorIs(t, rs.Submit(ctx, learner, r.ID, "m1", model.Submission{}), pkg.ErrInvalidTransition)
	assert.ErrorIs(t, rs.Submit(ctx, learner, r.ID, "m2", model.Submission{}), pkg.ErrInvalidTransition)
}

func TestRejectReturnsToAvailable(t *testing.T) {
	ctx := context.Background()
	e, rs, ls, r := newRoadmapFixture(t, 5)

	require.NoError(t, rs.Submit(ctx, learner, r.ID, "m1", model.Submission{ProjectLink: "https://example.com"}))
	require.NoError(t, rs.Reject(ctx, reviewer, r.ID, "m1", "add a README"))

	got, err := rs.Get(ctx, learner, r.ID)
	require.NoError(t, err)
	m := got.Milestone("m1")
	assert.Equal(t, model.MilestoneAvailable, m.Status)
	assert.Nil(t, m.SubmittedAt)
	assert.Equal(t, "add a README", m.ReviewNote)
	assert.Equal(t, int64(0), balanceOf(t, ls, learner))
	assert.Empty(t, e.store.Outbox())

	assert.ErrorIs(t, rs.Approve(ctx, reviewer, r.ID, "m1", ""), pkg.ErrInvalidTransition)
}

func TestCompletedIsTerminal(t *testing.T) {
	ctx := context.Background()
	_, rs, _, r := newRoadmapFixture(t, 5)

	require.NoError(t, rs.Submit(ctx, learner, r.ID, "m1", model.Submission{}))
	require.NoError(t, rs.Approve(ctx, reviewer, r.ID, "m1", ""))
	assert.ErrorIs(t, rs.Approve(ctx, reviewer, r.ID, "m1", ""), pkg.ErrInvalidTransition)
	assert.ErrorIs(t, rs.Reject(ctx, reviewer, r.ID, "m1", ""), pkg.ErrInvalidTransition)
	assert.ErrorIs(t, rs.Submit(ctx, learner, r.ID, "m1", model.Submission{}), pkg.ErrInvalidTransition)
}

func TestConcurrentApprovalRewardsOnce(t *testing.T) {
	ctx := context.Background()
	e, rs, ls, r := newRoadmapFixture(t, 10, 20)
	require.NoError(t, rs.Submit(ctx, learner, r.ID, "m1", model.Submission{}))

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- rs.Approve(ctx, reviewer, r.ID, "m1", "")
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, pkg.ErrInvalidTransition)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, int64(1000), balanceOf(t, ls, learner))
	assert.Len(t, e.store.Outbox(), 1)
	assert.Equal(t, model.EventMilestoneReward, e.store.Outbox()[0].EventType)
}

func TestZeroRewardApprovalWritesNoTransaction(t *testing.T) {
	ctx := context.Background()
	_, rs, ls, r := newRoadmapFixture(t, 0, 1)
	require.NoError(t, rs.Submit(ctx, learner, r.ID, "m1", model.Submission{}))
	require.NoError(t, rs.Approve(ctx, reviewer, r.ID, "m1", ""))

	txs, err := ls.History(ctx, learner)
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, model.MilestoneAvailable, statusOf(t, rs, r.ID)[1])
}

func TestRoadmapOwnershipAndReviewers(t *testing.T) {
	ctx := context.Background()
	_, rs, _, r := newRoadmapFixture(t, 1)

	_, err := rs.Get(ctx, "someone-else", r.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.ErrorIs(t, rs.Submit(ctx, "someone-else", r.ID, "m1", model.Submission{}), pkg.ErrNotFound)
	assert.ErrorIs(t, rs.Submit(ctx, learner, r.ID, "m9", model.Submission{}), pkg.ErrNotFound)
	assert.ErrorIs(t, rs.Submit(ctx, "", r.ID, "m1", model.Submission{}), pkg.ErrNotAuthenticated)

	require.NoError(t, rs.Submit(ctx, learner, r.ID, "m1", model.Submission{}))
	assert.ErrorIs(t, rs.Approve(ctx, Actor{ID: "peer", Role: model.RoleLearner}, r.ID, "m1", ""), pkg.ErrForbidden)
	assert.ErrorIs(t, rs.Approve(ctx, Actor{ID: learner, Role: model.RoleAdmin}, r.ID, "m1", ""), pkg.ErrForbidden)
	assert.ErrorIs(t, rs.Approve(ctx, reviewer, "missing", "m1", ""), pkg.ErrNotFound)

	queue, err := rs.ListSubmitted(ctx, reviewer, 10)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, r.ID, queue[0].RoadmapID)

	own, err := rs.ListSubmitted(ctx, Actor{ID: learner, Role: model.RoleMentor}, 10)
	require.NoError(t, err)
	assert.Empty(t, own)

	_, err = rs.ListSubmitted(ctx, Actor{ID: "x", Role: model.RoleLearner}, 10)
	assert.ErrorIs(t, err, pkg.ErrForbidden)
}

func TestCreateRequiresOwner(t *testing.T) {
	e := newEnv()
	rs := NewRoadmapService(e.store, nil, e.feed, e.log)
	r, err := Normalize([]byte(rawRoadmapJSON(1)), 1)
	require.NoError(t, err)
	_, err = rs.Create(context.Background(), "", r)
	assert.ErrorIs(t, err, pkg.ErrNotAuthenticated)

	r.Milestones[0].Status = model.MilestoneCompleted
	_, err = rs.Create(context.Background(), learner, r)
	assert.ErrorIs(t, err, pkg.ErrMalformedRoadmap)
}

func TestGenerateRoadmap(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	ai := &fakeAI{configured: true, roadmap: rawRoadmapJSON(1, 2.5)}
	rs := NewRoadmapService(e.store, ai, e.feed, e.log)

	r, err := rs.Generate(ctx, learner, "Go", "Beginner")
	require.NoError(t, err)
	assert.Equal(t, "beginner", r.Level)
	assert.Equal(t, int64(250), r.Milestones[1].RewardCents)

	list, err := rs.List(ctx, learner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, float64(0), list[0].Progress)

	_, err = rs.Generate(ctx, learner, "Go", "expert")
	assert.ErrorIs(t, err, pkg.ErrInvalidArgument)

	ai.err = upstreamErr
	_, err = rs.Generate(ctx, learner, "Go", "advanced")
	assert.ErrorIs(t, err, pkg.ErrUpstreamFailure)

	ai.err, ai.roadmap = nil, `{"title":"X","milestones":[]}`
	_, err = rs.Generate(ctx, learner, "Go", "advanced")
	assert.ErrorIs(t, err, pkg.ErrMalformedRoadmap)
}

func TestRoadmapChangesArePublished(t *testing.T) {
	ctx := context.Background()
	e, rs, _, r := newRoadmapFixture(t, 3)

	var mu sync.Mutex
	var seen []model.Change
	cancel, err := e.feed.Subscribe(ctx, model.TableTransactions, func(c model.Change) {
		mu.Lock()
		seen = append(seen, c)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, rs.Submit(ctx, learner, r.ID, "m1", model.Submission{}))
	require.NoError(t, rs.Approve(ctx, reviewer, r.ID, "m1", ""))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Equal(t, learner, seen[0].UserID)
}
