package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

type MentorshipService struct {
	profiles ProfileStore
	store    MentorshipStore
	feed     ChangeFeed
	log      *logger.Logger
	now      func() time.Time
}

func NewMentorshipService(profiles ProfileStore, store MentorshipStore, feed ChangeFeed, log *logger.Logger) *MentorshipService {
	return &MentorshipService{
		profiles: profiles,
		store:    store,
		feed:     feed,
		log:      log.With("service", "MentorshipService"),
		now:      time.Now,
	}
}

func (s *MentorshipService) ListMentors(ctx context.Context) ([]model.Profile, error) {
	return s.profiles.ListByRole(ctx, model.RoleMentor)
}

func (s *MentorshipService) SendRequest(ctx context.Context, learnerID, mentorID, message string) (*model.MentorshipRequest, error) {
	if learnerID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	if learnerID == mentorID {
		return nil, fmt.Errorf("cannot request yourself: %w", pkg.ErrInvalidArgument)
	}
	mentor, err := s.profiles.GetProfile(ctx, mentorID)
	if err != nil {
		return nil, err
	}
	if mentor.Role != model.RoleMentor {
		return nil, fmt.Errorf("%s is not a mentor: %w", mentorID, pkg.ErrNotFound)
	}
	r := &model.MentorshipRequest{
		ID:        uuid.NewString(),
		LearnerID: learnerID,
		MentorID:  mentorID,
		Message:   strings.TrimSpace(message),
		Status:    model.RequestPending,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateRequest(ctx, r); err != nil {
		return nil, err
	}
	s.publish(ctx, model.OpInsert, mentorID, r.ID)
	return r, nil
}

// Respond 只有被请求的导师能处理，且只能处理一次；接受时返回双方的会话
func (s *MentorshipService) Respond(ctx context.Context, mentorID, requestID string, to model.RequestStatus) (*model.Conversation, error) {
	if mentorID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	if to != model.RequestAccepted && to != model.RequestRejected {
		return nil, fmt.Errorf("status must be accepted or rejected: %w", pkg.ErrInvalidArgument)
	}
	now := s.now()
	var conv *model.Conversation
	if to == model.RequestAccepted {
		conv = &model.Conversation{ID: uuid.NewString(), RequestID: requestID, CreatedAt: now}
	}
	out, err := s.store.RespondRequest(ctx, requestID, mentorID, to, now, conv)
	if err != nil {
		return nil, err
	}
	s.log.Info("mentorship request answered", "request_id", requestID, "mentor_id", mentorID, "status", to)
	s.publish(ctx, model.OpUpdate, mentorID, requestID)
	return out, nil
}

// ListRequests 作为学员或导师参与的全部请求
func (s *MentorshipService) ListRequests(ctx context.Context, userID string) ([]model.MentorshipRequest, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	return s.store.ListRequests(ctx, userID)
}

func (s *MentorshipService) publish(ctx context.Context, op, userID, id string) {
	if s.feed == nil {
		return
	}
	_ = s.feed.Publish(ctx, model.Change{Table: model.TableRequests, Op: op, UserID: userID, RecordID: id, At: s.now()})
}
