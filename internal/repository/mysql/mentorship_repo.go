package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

type MentorshipRepository struct {
	DB *gorm.DB
}

// CreateRequest 锁导师资料行后检查是否已有 pending 请求
func (r *MentorshipRepository) CreateRequest(ctx context.Context, req *model.MentorshipRequest) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var mentor model.Profile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&mentor, "id = ?", req.MentorID).Error; err != nil {
			return translate(err, "mentor %s", req.MentorID)
		}
		var n int64
		if err := tx.Model(&model.MentorshipRequest{}).
			Where("learner_id = ? AND mentor_id = ? AND status = ?", req.LearnerID, req.MentorID, model.RequestPending).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("pending request to %s: %w", req.MentorID, pkg.ErrConflict)
		}
		return tx.Create(req).Error
	})
	return translate(err, "request %s", req.ID)
}

func (r *MentorshipRepository) GetRequest(ctx context.Context, id string) (*model.MentorshipRequest, error) {
	var req model.MentorshipRequest
	if err := r.DB.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, translate(err, "request %s", id)
	}
	return &req, nil
}

// RespondRequest pending -> to 只成功一次；接受时找到或创建双方的会话
func (r *MentorshipRepository) RespondRequest(ctx context.Context, id, mentorID string, to model.RequestStatus, at time.Time, conv *model.Conversation) (*model.Conversation, error) {
	var out *model.Conversation
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.MentorshipRequest
		if err := tx.First(&req, "id = ? AND mentor_id = ?", id, mentorID).Error; err != nil {
			return translate(err, "request %s", id)
		}
		res := tx.Model(&model.MentorshipRequest{}).
			Where("id = ? AND status = ?", id, model.RequestPending).
			Updates(map[string]any{"status": to, "responded_at": at})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("request %s already answered: %w", id, pkg.ErrInvalidTransition)
		}
		if to != model.RequestAccepted || conv == nil {
			return nil
		}

		var existing string
		if err := tx.Table("conversation_participants AS a").
			Select("a.conversation_id").
			Joins("JOIN conversation_participants AS b ON a.conversation_id = b.conversation_id").
			Where("a.user_id = ? AND b.user_id = ?", req.LearnerID, req.MentorID).
			Limit(1).
			Scan(&existing).Error; err != nil {
			return err
		}
		if existing != "" {
			var c model.Conversation
			if err := tx.First(&c, "id = ?", existing).Error; err != nil {
				return err
			}
			c.Participants = []string{req.LearnerID, req.MentorID}
			out = &c
			return nil
		}

		c := *conv
		if c.CreatedAt.IsZero() {
			c.CreatedAt = at
		}
		if err := tx.Create(&c).Error; err != nil {
			return err
		}
		parts := []model.ConversationParticipant{
			{ConversationID: c.ID, UserID: req.LearnerID},
			{ConversationID: c.ID, UserID: req.MentorID},
		}
		if err := tx.Create(&parts).Error; err != nil {
			return err
		}
		c.Participants = []string{req.LearnerID, req.MentorID}
		out = &c
		return nil
	})
	if err != nil {
		return nil, translate(err, "request %s", id)
	}
	return out, nil
}

// ListRequests 作为学员或导师参与的请求，最新的在前
func (r *MentorshipRepository) ListRequests(ctx context.Context, userID string) ([]model.MentorshipRequest, error) {
	var list []model.MentorshipRequest
	err := r.DB.WithContext(ctx).
		Where("learner_id = ? OR mentor_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, translate(err, "requests of %s", userID)
	}
	return list, nil
}
