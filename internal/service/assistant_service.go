package service

import (
	"context"
	"fmt"
	"strings"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

const (
	AssistantNotConfigured = "AI Assistant is not configured. The API key is missing."
	AssistantUnavailable   = "Sorry, I am having trouble connecting. Please try again later."

	assistantSystem   = "You are a helpful assistant. Always respond in English."
	maxAssistantTurns = 20
)

type AssistantService struct {
	ai  AI
	log *logger.Logger
}

func NewAssistantService(ai AI, log *logger.Logger) *AssistantService {
	return &AssistantService{ai: ai, log: log.With("service", "AssistantService")}
}

// Chat 多轮对话，最后一轮必须是用户发言；上游问题只返回固定提示
func (s *AssistantService) Chat(ctx context.Context, turns []model.ChatTurn) (string, error) {
	clean := make([]model.ChatTurn, 0, len(turns))
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		role := "user"
		if t.Role == "assistant" || t.Role == "ai" {
			role = "assistant"
		}
		clean = append(clean, model.ChatTurn{Role: role, Content: content})
	}
	if len(clean) == 0 || clean[len(clean)-1].Role != "user" {
		return "", fmt.Errorf("last message must come from the user: %w", pkg.ErrInvalidArgument)
	}
	if len(clean) > maxAssistantTurns {
		clean = clean[len(clean)-maxAssistantTurns:]
	}
	if s.ai == nil || !s.ai.Configured() {
		return AssistantNotConfigured, nil
	}
	out, err := s.ai.Complete(ctx, assistantSystem, clean, false)
	pkg.UpstreamCalls.WithLabelValues("assistant", pkg.ResultLabel(err)).Inc()
	if err != nil {
		s.log.Warn("assistant call failed", "error", err)
		return AssistantUnavailable, nil
	}
	return out, nil
}
