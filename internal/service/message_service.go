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

type MessageService struct {
	store MessageStore
	feed  ChangeFeed
	log   *logger.Logger
	now   func() time.Time
}

func NewMessageService(store MessageStore, feed ChangeFeed, log *logger.Logger) *MessageService {
	return &MessageService{store: store, feed: feed, log: log.With("service", "MessageService"), now: time.Now}
}

func (s *MessageService) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	return s.store.ListConversations(ctx, userID)
}

func (s *MessageService) SendMessage(ctx context.Context, userID, conversationID, content string) (*model.Message, error) {
	if err := s.mustParticipate(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message is empty: %w", pkg.ErrInvalidArgument)
	}
	m := &model.Message{ConversationID: conversationID, SenderID: userID, Content: content, CreatedAt: s.now()}
	if err := s.store.AppendMessage(ctx, m); err != nil {
		return nil, err
	}
	if s.feed != nil {
		if err := s.feed.Publish(ctx, model.Change{Table: model.TableMessages, Op: model.OpInsert, UserID: userID, RecordID: conversationID, At: m.CreatedAt}); err != nil {
			s.log.Warn("publish change failed", "table", model.TableMessages, "error", err)
		}
	}
	return m, nil
}

// ListMessages 最早的在前
func (s *MessageService) ListMessages(ctx context.Context, userID, conversationID string) ([]model.Message, error) {
	if err := s.mustParticipate(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID)
}

func (s *MessageService) mustParticipate(ctx context.Context, userID, conversationID string) error {
	if userID == "" {
		return pkg.ErrNotAuthenticated
	}
	ok, err := s.store.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("conversation %s: %w", conversationID, pkg.ErrNotFound)
	}
	return nil
}
