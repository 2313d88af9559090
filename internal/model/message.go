package model

import "time"

type Conversation struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	RequestID     string     `gorm:"size:36;index" json:"request_id,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	// Participants 查询时填充
	Participants []string `gorm:"-" json:"participants"`
}

type ConversationParticipant struct {
	ConversationID string `gorm:"primaryKey;size:36"`
	UserID         string `gorm:"primaryKey;size:36;index"`
}

type Message struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	ConversationID string    `gorm:"size:36;not null;index:idx_conv_time,priority:1" json:"conversation_id"`
	SenderID       string    `gorm:"size:36;not null" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"index:idx_conv_time,priority:2" json:"created_at"`
}
