package model

import (
	"time"

	"gorm.io/datatypes"
)

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneLocked    MilestoneStatus = "locked"
	MilestoneAvailable MilestoneStatus = "available"
	MilestoneSubmitted MilestoneStatus = "submitted"
	MilestoneCompleted MilestoneStatus = "completed"
)

// MilestoneAction 触发状态迁移的动作
type MilestoneAction string

const (
	ActionUnlock  MilestoneAction = "unlock"
	ActionSubmit  MilestoneAction = "submit"
	ActionApprove MilestoneAction = "approve"
	ActionReject  MilestoneAction = "reject"
)

// milestoneTransitions 每个动作只允许一条 from -> to 边，completed 没有出边
var milestoneTransitions = map[MilestoneAction][2]MilestoneStatus{
	ActionUnlock:  {MilestoneLocked, MilestoneAvailable},
	ActionSubmit:  {MilestoneAvailable, MilestoneSubmitted},
	ActionApprove: {MilestoneSubmitted, MilestoneCompleted},
	ActionReject:  {MilestoneSubmitted, MilestoneAvailable},
}

// NextStatus 返回 action 作用于 from 后的状态；不允许时 ok=false
func NextStatus(from MilestoneStatus, action MilestoneAction) (MilestoneStatus, bool) {
	edge, ok := milestoneTransitions[action]
	if !ok || edge[0] != from {
		return "", false
	}
	return edge[1], true
}

type Resource struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Submission 学员提交的交付物
type Submission struct {
	Description string `json:"description"`
	ProjectLink string `json:"project_link"`
	Notes       string `json:"notes"`
}

type Roadmap struct {
	ID          string      `gorm:"primaryKey;size:36" json:"id"`
	UserID      string      `gorm:"size:36;not null;index:idx_user_created,priority:1" json:"user_id"`
	Goal        string      `gorm:"size:255" json:"goal"`
	Level       string      `gorm:"size:16" json:"level"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Domain      string      `gorm:"size:64" json:"domain"`
	Milestones  []Milestone `gorm:"foreignKey:RoadmapID;references:ID;constraint:OnDelete:CASCADE" json:"milestones"`
	CreatedAt   time.Time   `gorm:"index:idx_user_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type Milestone struct {
	RoadmapID    string                         `gorm:"primaryKey;size:36" json:"roadmap_id"`
	ID           string                         `gorm:"primaryKey;column:milestone_id;size:16" json:"id"`
	Ordinal      int                            `gorm:"not null;index" json:"ordinal"`
	Title        string                         `gorm:"size:200;not null" json:"title"`
	Description  string                         `gorm:"type:text" json:"description"`
	DurationDays int                            `gorm:"not null;default:0" json:"duration"`
	RewardCents  int64                          `gorm:"not null;default:0" json:"reward_cents"`
	Deliverable  string                         `gorm:"type:text" json:"deliverable"`
	Resources    datatypes.JSONSlice[Resource]  `json:"resources,omitempty"`
	Status       MilestoneStatus                `gorm:"size:16;not null;index" json:"status"`
	Submission   datatypes.JSONType[Submission] `json:"submission"`
	SubmittedAt  *time.Time                     `json:"submitted_at,omitempty"`
	ApprovedBy   string                         `gorm:"size:36" json:"approved_by,omitempty"`
	ReviewNote   string                         `gorm:"type:text" json:"review_note,omitempty"`
	CompletedAt  *time.Time                     `json:"completed_at,omitempty"`
}

func (Milestone) TableName() string {
	return "roadmap_milestones"
}

// Milestone 按 id 查找里程碑
func (r *Roadmap) Milestone(id string) *Milestone {
	for i := range r.Milestones {
		if r.Milestones[i].ID == id {
			return &r.Milestones[i]
		}
	}
	return nil
}

// Progress 完成百分比，只做推导不落库
func (r *Roadmap) Progress() float64 {
	total := len(r.Milestones)
	if total == 0 {
		return 0
	}
	done := 0
	for _, m := range r.Milestones {
		if m.Status == MilestoneCompleted {
			done++
		}
	}
	return float64(done) / float64(total) * 100
}

// HasInitialState 第一个里程碑 available，其余全部 locked
func (r *Roadmap) HasInitialState() bool {
	if len(r.Milestones) == 0 {
		return false
	}
	for i, m := range r.Milestones {
		want := MilestoneLocked
		if i == 0 {
			want = MilestoneAvailable
		}
		if m.Status != want || m.Ordinal != i {
			return false
		}
	}
	return true
}

// MilestoneTransition 一次原子状态迁移请求，存储层整体提交或整体失败
type MilestoneTransition struct {
	RoadmapID   string
	MilestoneID string
	From        MilestoneStatus
	To          MilestoneStatus
	At          time.Time
	Submission  Submission
	ReviewerID  string
	ReviewNote  string
	// UnlockNext 为真时同一事务内解锁下一个序号的里程碑
	UnlockNext bool
	// Reward 非空时同一事务内写入奖励流水
	Reward *Transaction
}

// Fields 迁移需要写入的列
func (t MilestoneTransition) Fields() map[string]any {
	f := map[string]any{"status": t.To}
	switch t.To {
	case MilestoneSubmitted:
		f["submitted_at"] = t.At
		f["submission"] = datatypes.NewJSONType(t.Submission)
	case MilestoneCompleted:
		f["approved_by"] = t.ReviewerID
		f["review_note"] = t.ReviewNote
		f["completed_at"] = t.At
	case MilestoneAvailable:
		if t.From == MilestoneSubmitted {
			f["submitted_at"] = nil
			f["review_note"] = t.ReviewNote
		}
	}
	return f
}

// Apply 把迁移写到内存对象上，与 Fields 保持一致
func (m *Milestone) Apply(t MilestoneTransition) {
	m.Status = t.To
	switch t.To {
	case MilestoneSubmitted:
		at := t.At
		m.SubmittedAt = &at
		m.Submission = datatypes.NewJSONType(t.Submission)
	case MilestoneCompleted:
		at := t.At
		m.ApprovedBy = t.ReviewerID
		m.ReviewNote = t.ReviewNote
		m.CompletedAt = &at
	case MilestoneAvailable:
		if t.From == MilestoneSubmitted {
			m.SubmittedAt = nil
			m.ReviewNote = t.ReviewNote
		}
	}
}

// ReviewItem 待审核的里程碑
type ReviewItem struct {
	RoadmapID    string     `json:"roadmap_id"`
	RoadmapTitle string     `json:"roadmap_title"`
	OwnerID      string     `json:"owner_id"`
	Milestone    Milestone  `json:"milestone"`
	SubmittedAt  *time.Time `json:"submitted_at"`
}

// RoadmapView 带派生进度的路线图
type RoadmapView struct {
	Roadmap
	Progress float64 `json:"progress"`
}

func (r Roadmap) View() RoadmapView {
	return RoadmapView{Roadmap: r, Progress: r.Progress()}
}
