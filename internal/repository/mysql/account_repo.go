package mysql

import (
	"context"

	"gorm.io/gorm"

	"Mentor_Community/internal/model"
)

// AccountRepository 注销账号，跨多个仓储的删除放在同一事务
type AccountRepository struct {
	DB *gorm.DB
}

func (r *AccountRepository) DeleteAccount(ctx context.Context, userID string) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := (&ProfileRepository{DB: tx}).DeleteProfile(ctx, userID); err != nil {
			return err
		}
		if err := (&MentorshipRepository{DB: tx}).DeleteRequestsOf(ctx, userID); err != nil {
			return err
		}
		if err := (&MessageRepository{DB: tx}).LeaveConversations(ctx, userID); err != nil {
			return err
		}
		return (&MoodRepository{DB: tx}).DeleteMoods(ctx, userID)
	})
	return translate(err, "account %s", userID)
}

// DeleteProfile 资料不存在时返回 ErrNotFound
func (r *ProfileRepository) DeleteProfile(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&model.Profile{})
	if res.Error != nil {
		return translate(res.Error, "profile %s", id)
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "profile %s", id)
	}
	return nil
}

// DeleteRequestsOf 删除作为学员或导师参与的全部请求
func (r *MentorshipRepository) DeleteRequestsOf(ctx context.Context, userID string) error {
	err := r.DB.WithContext(ctx).
		Where("learner_id = ? OR mentor_id = ?", userID, userID).
		Delete(&model.MentorshipRequest{}).Error
	return translate(err, "requests of %s", userID)
}

// LeaveConversations 只删成员关系，会话和历史消息留给对方
func (r *MessageRepository) LeaveConversations(ctx context.Context, userID string) error {
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.ConversationParticipant{}).Error
	return translate(err, "participants of %s", userID)
}

func (r *MoodRepository) DeleteMoods(ctx context.Context, userID string) error {
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.MoodEntry{}).Error
	return translate(err, "moods of %s", userID)
}
