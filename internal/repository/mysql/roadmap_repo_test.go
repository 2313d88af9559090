package mysql

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

func seedRoadmap(t *testing.T, repo *RoadmapRepository, owner string, rewards ...int64) *model.Roadmap {
	t.Helper()
	rm := &model.Roadmap{ID: uuid.NewString(), UserID: owner, Title: "Go backend", CreatedAt: time.Now()}
	for i, c := range rewards {
		st := model.MilestoneLocked
		if i == 0 {
			st = model.MilestoneAvailable
		}
		rm.Milestones = append(rm.Milestones, model.Milestone{
			RoadmapID:   rm.ID,
			ID:          "m" + string(rune('1'+i)),
			Ordinal:     i,
			Title:       "step",
			RewardCents: c,
			Resources:   []model.Resource{{Type: "doc", URL: "https://go.dev"}},
			Status:      st,
		})
	}
	require.NoError(t, repo.CreateRoadmap(context.Background(), rm))
	return rm
}

func approve(rm *model.Roadmap, mid string, cents int64) model.MilestoneTransition {
	return model.MilestoneTransition{
		RoadmapID: rm.ID, MilestoneID: mid,
		From: model.MilestoneSubmitted, To: model.MilestoneCompleted,
		At: time.Now(), ReviewerID: "mentor", UnlockNext: true,
		Reward: &model.Transaction{
			ID: uuid.NewString(), UserID: rm.UserID, AmountCents: cents,
			Type: model.TxCredit, Status: model.TxCompleted,
			RewardKey: model.RewardKey(rm.ID, mid), Timestamp: time.Now(),
		},
	}
}

func submit(rm *model.Roadmap, mid string) model.MilestoneTransition {
	return model.MilestoneTransition{
		RoadmapID: rm.ID, MilestoneID: mid,
		From: model.MilestoneAvailable, To: model.MilestoneSubmitted,
		At: time.Now(), Submission: model.Submission{Description: "done", ProjectLink: "https://github.com/x"},
	}
}

func TestRoadmapRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := &RoadmapRepository{DB: newTestDB(t)}
	rm := seedRoadmap(t, repo, "u1", 1000, 2000, 3000)

	got, err := repo.GetRoadmap(ctx, rm.ID)
	require.NoError(t, err)
	require.Len(t, got.Milestones, 3)
	assert.True(t, got.HasInitialState())
	assert.Equal(t, "https://go.dev", got.Milestones[0].Resources[0].URL)

	list, err := repo.ListRoadmaps(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetRoadmap(ctx, "missing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestTransitionMilestoneAtomic(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := &RoadmapRepository{DB: db}
	ledger := &LedgerRepository{DB: db}
	rm := seedRoadmap(t, repo, "u1", 1000, 2000)

	require.NoError(t, repo.TransitionMilestone(ctx, submit(rm, "m1")))
	assert.ErrorIs(t, repo.TransitionMilestone(ctx, submit(rm, "m1")), pkg.ErrInvalidTransition)

	queue, err := repo.ListSubmitted(ctx, 10)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "u1", queue[0].OwnerID)
	assert.Equal(t, "done", queue[0].Milestone.Submission.Data().Description)

	require.NoError(t, repo.TransitionMilestone(ctx, approve(rm, "m1", 1000)))

	got, err := repo.GetRoadmap(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneCompleted, got.Milestones[0].Status)
	assert.Equal(t, "mentor", got.Milestones[0].ApprovedBy)
	assert.NotNil(t, got.Milestones[0].CompletedAt)
	assert.Equal(t, model.MilestoneAvailable, got.Milestones[1].Status)

	txs, err := ledger.ListTransactions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(1000), model.Balance(txs))

	outbox, err := (&OutboxRepository{DB: db}).PendingOutbox(ctx, 10, 3)
	require.NoError(t, err)
	require.Len(t, outbox, 1)
	assert.Equal(t, model.EventMilestoneReward, outbox[0].EventType)
}

func TestRejectClearsSubmission(t *testing.T) {
	ctx := context.Background()
	repo := &RoadmapRepository{DB: newTestDB(t)}
	rm := seedRoadmap(t, repo, "u1", 500)

	require.NoError(t, repo.TransitionMilestone(ctx, submit(rm, "m1")))
	require.NoError(t, repo.TransitionMilestone(ctx, model.MilestoneTransition{
		RoadmapID: rm.ID, MilestoneID: "m1",
		From: model.MilestoneSubmitted, To: model.MilestoneAvailable,
		At: time.Now(), ReviewNote: "needs tests",
	}))
	got, err := repo.GetRoadmap(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneAvailable, got.Milestones[0].Status)
	assert.Nil(t, got.Milestones[0].SubmittedAt)
	assert.Equal(t, "needs tests", got.Milestones[0].ReviewNote)
}

func TestDuplicateRewardRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := &RoadmapRepository{DB: db}
	rm := seedRoadmap(t, repo, "u1", 1000, 2000)

	// 奖励键已被占用时，整个迁移回滚
	pre := approve(rm, "m1", 1000).Reward
	require.NoError(t, (&LedgerRepository{DB: db}).AppendCredit(ctx, pre))
	require.NoError(t, repo.TransitionMilestone(ctx, submit(rm, "m1")))

	err := repo.TransitionMilestone(ctx, approve(rm, "m1", 1000))
	assert.ErrorIs(t, err, pkg.ErrConflict)

	got, err := repo.GetRoadmap(ctx, rm.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneSubmitted, got.Milestones[0].Status)
	assert.Equal(t, model.MilestoneLocked, got.Milestones[1].Status)
}

func TestConcurrentApproveSingleReward(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := &RoadmapRepository{DB: db}
	rm := seedRoadmap(t, repo, "u1", 1000, 2000)
	require.NoError(t, repo.TransitionMilestone(ctx, submit(rm, "m1")))

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.TransitionMilestone(ctx, approve(rm, "m1", 1000))
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, pkg.ErrInvalidTransition)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)

	txs, err := (&LedgerRepository{DB: db}).ListTransactions(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}
