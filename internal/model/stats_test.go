package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roadmapWith(id string, done int, statuses ...MilestoneStatus) Roadmap {
	r := Roadmap{ID: id, Title: "course " + id}
	base := time.Date(2026, 1, done, 0, 0, 0, 0, time.UTC)
	for i, st := range statuses {
		m := Milestone{RoadmapID: id, ID: string(rune('a' + i)), Ordinal: i, Status: st}
		if st == MilestoneCompleted {
			at := base.Add(time.Duration(i) * time.Hour)
			m.CompletedAt = &at
		}
		r.Milestones = append(r.Milestones, m)
	}
	return r
}

func TestStatsOfEmpty(t *testing.T) {
	st := StatsOf(nil)
	assert.Zero(t, st.CompletedRoadmaps)
	assert.Zero(t, st.CompletedMilestones)
	assert.Nil(t, st.Certificate)
	require.Len(t, st.Achievements, 2)
	for _, a := range st.Achievements {
		assert.False(t, a.Earned, a.Title)
	}
}

func TestStatsOf(t *testing.T) {
	roadmaps := []Roadmap{
		roadmapWith("late", 20, MilestoneCompleted, MilestoneCompleted),
		roadmapWith("partial", 1, MilestoneCompleted, MilestoneSubmitted, MilestoneLocked),
		roadmapWith("early", 5, MilestoneCompleted, MilestoneCompleted),
		{ID: "empty", Title: "nothing yet"},
	}
	st := StatsOf(roadmaps)

	assert.Equal(t, 2, st.CompletedRoadmaps)
	assert.Equal(t, 5, st.CompletedMilestones)
	require.NotNil(t, st.Certificate)
	assert.Equal(t, "early", st.Certificate.RoadmapID)
	assert.Equal(t, "course early", st.Certificate.CourseName)
	assert.Equal(t, time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC), st.Certificate.CompletionDate)

	assert.Equal(t, AchievementFirstSteps, st.Achievements[0].Title)
	assert.True(t, st.Achievements[0].Earned)
	assert.Equal(t, AchievementMilestoneMaster, st.Achievements[1].Title)
	assert.True(t, st.Achievements[1].Earned)

	st = StatsOf(roadmaps[1:2])
	assert.True(t, st.Achievements[0].Earned)
	assert.False(t, st.Achievements[1].Earned)
	assert.Nil(t, st.Certificate)
}
