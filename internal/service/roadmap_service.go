package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

var levels = map[string]struct{}{"beginner": {}, "intermediate": {}, "advanced": {}}

type RoadmapService struct {
	store RoadmapStore
	ai    AI
	feed  ChangeFeed
	log   *logger.Logger
	now   func() time.Time
}

func NewRoadmapService(store RoadmapStore, ai AI, feed ChangeFeed, log *logger.Logger) *RoadmapService {
	return &RoadmapService{
		store: store,
		ai:    ai,
		feed:  feed,
		log:   log.With("service", "RoadmapService"),
		now:   time.Now,
	}
}

// Generate 调用模型生成路线图，规范化后落库
func (s *RoadmapService) Generate(ctx context.Context, userID, goal, level string) (*model.Roadmap, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	goal, level = strings.TrimSpace(goal), strings.ToLower(strings.TrimSpace(level))
	if goal == "" {
		return nil, fmt.Errorf("goal is required: %w", pkg.ErrInvalidArgument)
	}
	if _, ok := levels[level]; !ok {
		return nil, fmt.Errorf("level must be beginner, intermediate or advanced: %w", pkg.ErrInvalidArgument)
	}
	if s.ai == nil {
		return nil, fmt.Errorf("roadmap generator not configured: %w", pkg.ErrUpstreamFailure)
	}

	raw, err := s.ai.GenerateRoadmap(ctx, goal, level)
	pkg.UpstreamCalls.WithLabelValues("roadmap", pkg.ResultLabel(err)).Inc()
	if err != nil {
		s.log.Warn("roadmap generation failed", "user_id", userID, "error", err)
		return nil, err
	}
	r, err := Normalize(raw, 1)
	if err != nil {
		s.log.Warn("generated roadmap rejected", "user_id", userID, "error", err)
		return nil, err
	}
	r.Goal, r.Level = goal, level
	return s.Create(ctx, userID, r)
}

// CreateFromRaw 客户端自带原始路线图
func (s *RoadmapService) CreateFromRaw(ctx context.Context, userID string, raw json.RawMessage) (*model.Roadmap, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	r, err := Normalize(raw, 1)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, userID, r)
}

// Create 保存规范化后的路线图，归属当前用户
func (s *RoadmapService) Create(ctx context.Context, userID string, r *model.Roadmap) (*model.Roadmap, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	if r == nil || !r.HasInitialState() {
		return nil, fmt.Errorf("roadmap must start with only the first milestone available: %w", pkg.ErrMalformedRoadmap)
	}
	r.ID = uuid.NewString()
	r.UserID = userID
	r.CreatedAt = s.now()
	for i := range r.Milestones {
		r.Milestones[i].RoadmapID = r.ID
	}
	if err := s.store.CreateRoadmap(ctx, r); err != nil {
		return nil, err
	}
	s.log.Info("roadmap created", "user_id", userID, "roadmap_id", r.ID, "milestones", len(r.Milestones))
	s.publish(ctx, model.OpInsert, userID, r.ID)
	return r, nil
}

// Get 只能读取自己的路线图，别人的视同不存在
func (s *RoadmapService) Get(ctx context.Context, userID, roadmapID string) (*model.Roadmap, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	r, err := s.store.GetRoadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	if r.UserID != userID {
		return nil, fmt.Errorf("roadmap %s: %w", roadmapID, pkg.ErrNotFound)
	}
	return r, nil
}

func (s *RoadmapService) List(ctx context.Context, userID string) ([]model.RoadmapView, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	list, err := s.store.ListRoadmaps(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.RoadmapView, 0, len(list))
	for _, r := range list {
		out = append(out, r.View())
	}
	return out, nil
}

// Progress 完成百分比
func (s *RoadmapService) Progress(r *model.Roadmap) float64 {
	return r.Progress()
}

// Submit available -> submitted
func (s *RoadmapService) Submit(ctx context.Context, userID, roadmapID, milestoneID string, sub model.Submission) error {
	r, err := s.Get(ctx, userID, roadmapID)
	if err != nil {
		return err
	}
	m := r.Milestone(milestoneID)
	if m == nil {
		return fmt.Errorf("milestone %s: %w", milestoneID, pkg.ErrNotFound)
	}
	sub.Description = strings.TrimSpace(sub.Description)
	sub.ProjectLink = strings.TrimSpace(sub.ProjectLink)
	return s.transition(ctx, r, m, model.ActionSubmit, model.MilestoneTransition{Submission: sub})
}

// Approve submitted -> completed，解锁下一个并发放一次奖励
func (s *RoadmapService) Approve(ctx context.Context, reviewer Actor, roadmapID, milestoneID, note string) error {
	r, m, err := s.reviewTarget(ctx, reviewer, roadmapID, milestoneID)
	if err != nil {
		return err
	}
	t := model.MilestoneTransition{ReviewerID: reviewer.ID, ReviewNote: strings.TrimSpace(note), UnlockNext: true}
	if m.RewardCents > 0 {
		t.Reward = &model.Transaction{
			ID:          uuid.NewString(),
			UserID:      r.UserID,
			AmountCents: m.RewardCents,
			Type:        model.TxCredit,
			Reason:      "Milestone completed: " + m.Title,
			Status:      model.TxCompleted,
			RewardKey:   model.RewardKey(r.ID, m.ID),
		}
	}
	return s.transition(ctx, r, m, model.ActionApprove, t)
}

// Reject submitted -> available，不产生流水
func (s *RoadmapService) Reject(ctx context.Context, reviewer Actor, roadmapID, milestoneID, note string) error {
	r, m, err := s.reviewTarget(ctx, reviewer, roadmapID, milestoneID)
	if err != nil {
		return err
	}
	return s.transition(ctx, r, m, model.ActionReject, model.MilestoneTransition{ReviewerID: reviewer.ID, ReviewNote: strings.TrimSpace(note)})
}

// ListSubmitted 待审核队列，最早提交的在前
func (s *RoadmapService) ListSubmitted(ctx context.Context, reviewer Actor, limit int) ([]model.ReviewItem, error) {
	if reviewer.ID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	if !reviewer.Role.CanReview() {
		return nil, fmt.Errorf("role %s cannot review: %w", reviewer.Role, pkg.ErrForbidden)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	items, err := s.store.ListSubmitted(ctx, limit+1)
	if err != nil {
		return nil, err
	}
	out := items[:0]
	for _, it := range items {
		if it.OwnerID != reviewer.ID {
			out = append(out, it)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *RoadmapService) reviewTarget(ctx context.Context, reviewer Actor, roadmapID, milestoneID string) (*model.Roadmap, *model.Milestone, error) {
	if reviewer.ID == "" {
		return nil, nil, pkg.ErrNotAuthenticated
	}
	if !reviewer.Role.CanReview() {
		return nil, nil, fmt.Errorf("role %s cannot review: %w", reviewer.Role, pkg.ErrForbidden)
	}
	r, err := s.store.GetRoadmap(ctx, roadmapID)
	if err != nil {
		return nil, nil, err
	}
	if r.UserID == reviewer.ID {
		return nil, nil, fmt.Errorf("cannot review own roadmap: %w", pkg.ErrForbidden)
	}
	m := r.Milestone(milestoneID)
	if m == nil {
		return nil, nil, fmt.Errorf("milestone %s: %w", milestoneID, pkg.ErrNotFound)
	}
	return r, m, nil
}

// transition 先用当前状态做前置校验，真正的判定在存储层的条件更新
func (s *RoadmapService) transition(ctx context.Context, r *model.Roadmap, m *model.Milestone, action model.MilestoneAction, t model.MilestoneTransition) error {
	to, ok := model.NextStatus(m.Status, action)
	if !ok {
		pkg.MilestoneTransitions.WithLabelValues(string(action), "rejected").Inc()
		return fmt.Errorf("cannot %s milestone in status %s: %w", action, m.Status, pkg.ErrInvalidTransition)
	}
	t.RoadmapID, t.MilestoneID = r.ID, m.ID
	t.From, t.To = m.Status, to
	t.At = s.now()
	if t.Reward != nil {
		t.Reward.Timestamp = t.At
	}

	if err := s.store.TransitionMilestone(ctx, t); err != nil {
		if errors.Is(err, pkg.ErrConflict) {
			err = fmt.Errorf("milestone already rewarded: %w", pkg.ErrInvalidTransition)
		}
		result := "error"
		if errors.Is(err, pkg.ErrInvalidTransition) {
			result = "rejected"
		}
		pkg.MilestoneTransitions.WithLabelValues(string(action), result).Inc()
		s.log.Warn("milestone transition failed", "roadmap_id", r.ID, "milestone_id", m.ID, "action", action, "error", err)
		return err
	}
	pkg.MilestoneTransitions.WithLabelValues(string(action), "ok").Inc()
	s.log.Info("milestone transition", "roadmap_id", r.ID, "milestone_id", m.ID, "from", t.From, "to", t.To, "reviewer", t.ReviewerID)

	s.publish(ctx, model.OpUpdate, r.UserID, r.ID)
	if t.Reward != nil {
		pkg.LedgerWrites.WithLabelValues(string(model.TxCredit), "ok").Inc()
		if s.feed != nil {
			_ = s.feed.Publish(ctx, model.Change{Table: model.TableTransactions, Op: model.OpInsert, UserID: r.UserID, RecordID: t.Reward.ID, At: t.At})
		}
	}
	return nil
}

func (s *RoadmapService) publish(ctx context.Context, op, userID, id string) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, model.Change{Table: model.TableRoadmaps, Op: op, UserID: userID, RecordID: id, At: s.now()}); err != nil {
		s.log.Warn("publish change failed", "table", model.TableRoadmaps, "error", err)
	}
}
