package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

const (
	CheckInFallback = "Thank you for sharing. Remember that every day is a new opportunity to feel better."
	TalkFallback    = "I appreciate you sharing with me. If you need professional support, please reach out to a counselor or mental health professional."
)

// WellnessService 心情打卡和陪伴对话；模型不可用时降级为固定回复
type WellnessService struct {
	store MoodStore
	ai    AI
	log   *logger.Logger
	now   func() time.Time
}

func NewWellnessService(store MoodStore, ai AI, log *logger.Logger) *WellnessService {
	return &WellnessService{store: store, ai: ai, log: log.With("service", "WellnessService"), now: time.Now}
}

// CheckIn 每人每天一条，同一天再次打卡覆盖
func (s *WellnessService) CheckIn(ctx context.Context, userID string, mood model.Mood) (string, error) {
	if userID == "" {
		return "", pkg.ErrNotAuthenticated
	}
	if !mood.Valid() {
		return "", fmt.Errorf("mood must be happy, neutral or sad: %w", pkg.ErrInvalidArgument)
	}
	now := s.now()
	if err := s.store.UpsertMood(ctx, &model.MoodEntry{UserID: userID, Day: model.DayOf(now), Mood: mood, UpdatedAt: now}); err != nil {
		return "", err
	}
	return s.support(ctx, userID, mood, "", CheckInFallback), nil
}

func (s *WellnessService) Talk(ctx context.Context, userID string, mood model.Mood, message string) (string, error) {
	if userID == "" {
		return "", pkg.ErrNotAuthenticated
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("message is empty: %w", pkg.ErrInvalidArgument)
	}
	if !mood.Valid() {
		mood = model.MoodNeutral
	}
	return s.support(ctx, userID, mood, message, TalkFallback), nil
}

// History 最近 days 天的打卡，按日期升序
func (s *WellnessService) History(ctx context.Context, userID string, days int) ([]model.MoodEntry, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	if days <= 0 || days > 365 {
		days = 30
	}
	since := model.DayOf(s.now().AddDate(0, 0, -(days - 1)))
	return s.store.ListMoods(ctx, userID, since)
}

func (s *WellnessService) support(ctx context.Context, userID string, mood model.Mood, message, fallback string) string {
	if s.ai == nil || !s.ai.Configured() {
		return fallback
	}
	out, err := s.ai.Support(ctx, mood, message)
	pkg.UpstreamCalls.WithLabelValues("wellness", pkg.ResultLabel(err)).Inc()
	if err != nil || strings.TrimSpace(out) == "" {
		s.log.Warn("wellness reply fell back", "user_id", userID, "error", err)
		return fallback
	}
	return strings.TrimSpace(out)
}
