package model

import "time"

// PostLike (post_id, user_id) 唯一，作为并发切换的约束
type PostLike struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	PostID    uint64    `gorm:"not null;uniqueIndex:uk_post_user,priority:1"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:uk_post_user,priority:2"`
	CreatedAt time.Time
}

func (PostLike) TableName() string {
	return "post_likes"
}
