package model

import "time"

const (
	AchievementFirstSteps      = "First Steps"
	AchievementMilestoneMaster = "Milestone Master"

	milestoneMasterThreshold = 5
)

type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Earned      bool   `json:"earned"`
}

// Certificate 结业证书需要的数据，渲染交给前端
type Certificate struct {
	RoadmapID      string    `json:"roadmap_id"`
	StudentName    string    `json:"student_name"`
	CourseName     string    `json:"course_name"`
	CompletionDate time.Time `json:"completion_date"`
}

type ProfileStats struct {
	CompletedRoadmaps   int           `json:"completed_roadmaps"`
	CompletedMilestones int           `json:"completed_milestones"`
	Achievements        []Achievement `json:"achievements"`
	Certificate         *Certificate  `json:"certificate"`
}

// StatsOf 对用户全部路线图折叠出统计；证书取最早完成的那条路线图
func StatsOf(roadmaps []Roadmap) ProfileStats {
	var st ProfileStats
	for i := range roadmaps {
		r := &roadmaps[i]
		for _, m := range r.Milestones {
			if m.Status == MilestoneCompleted {
				st.CompletedMilestones++
			}
		}
		if len(r.Milestones) == 0 || r.Progress() != 100 {
			continue
		}
		st.CompletedRoadmaps++
		done := r.completedAt()
		if st.Certificate == nil || done.Before(st.Certificate.CompletionDate) {
			st.Certificate = &Certificate{RoadmapID: r.ID, CourseName: r.Title, CompletionDate: done}
		}
	}
	st.Achievements = []Achievement{
		{Title: AchievementFirstSteps, Description: "Completed your first milestone", Earned: st.CompletedMilestones >= 1},
		{Title: AchievementMilestoneMaster, Description: "Completed 5 milestones", Earned: st.CompletedMilestones >= milestoneMasterThreshold},
	}
	return st
}

// completedAt 最后一个里程碑的完成时间
func (r *Roadmap) completedAt() time.Time {
	var last time.Time
	for _, m := range r.Milestones {
		if m.CompletedAt != nil && m.CompletedAt.After(last) {
			last = *m.CompletedAt
		}
	}
	if last.IsZero() {
		return r.UpdatedAt
	}
	return last
}
