package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Mentor_Community/internal/model"
)

type MessageRepository struct {
	DB *gorm.DB
}

// ListConversations 最近有消息的在前，从未发过消息的排最后
func (r *MessageRepository) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	var list []model.Conversation
	if err := r.DB.WithContext(ctx).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("conversations.last_message_at IS NULL, conversations.last_message_at DESC, conversations.created_at DESC").
		Find(&list).Error; err != nil {
		return nil, translate(err, "conversations of %s", userID)
	}
	if len(list) == 0 {
		return list, nil
	}
	ids := make([]string, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)
	}
	var parts []model.ConversationParticipant
	if err := r.DB.WithContext(ctx).Where("conversation_id IN ?", ids).Find(&parts).Error; err != nil {
		return nil, translate(err, "participants of %s", userID)
	}
	byConv := make(map[string][]string, len(list))
	for _, p := range parts {
		byConv[p.ConversationID] = append(byConv[p.ConversationID], p.UserID)
	}
	for i := range list {
		list[i].Participants = byConv[list[i].ID]
	}
	return list, nil
}

func (r *MessageRepository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&n).Error
	if err != nil {
		return false, translate(err, "conversation %s", conversationID)
	}
	return n > 0, nil
}

// AppendMessage 写消息并推进会话的 last_message_at
func (r *MessageRepository) AppendMessage(ctx context.Context, m *model.Message) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&c, "id = ?", m.ConversationID).Error; err != nil {
			return translate(err, "conversation %s", m.ConversationID)
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).Where("id = ?", m.ConversationID).
			UpdateColumn("last_message_at", m.CreatedAt).Error
	})
	return translate(err, "message in %s", m.ConversationID)
}

// ListMessages 最早的在前
func (r *MessageRepository) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var list []model.Message
	err := r.DB.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, translate(err, "messages of %s", conversationID)
	}
	return list, nil
}

type MoodRepository struct {
	DB *gorm.DB
}

// UpsertMood 同一天重复打卡覆盖
func (r *MoodRepository) UpsertMood(ctx context.Context, e *model.MoodEntry) error {
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"mood", "updated_at"}),
	}).Create(e).Error
	return translate(err, "mood %s/%s", e.UserID, e.Day)
}

func (r *MoodRepository) ListMoods(ctx context.Context, userID, sinceDay string) ([]model.MoodEntry, error) {
	var list []model.MoodEntry
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND day >= ?", userID, sinceDay).
		Order("day ASC").
		Find(&list).Error
	if err != nil {
		return nil, translate(err, "moods of %s", userID)
	}
	return list, nil
}
