package model

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// MentorshipRequest 学员向导师发起的指导请求，只能从 pending 流转一次
type MentorshipRequest struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	LearnerID   string        `gorm:"size:36;not null;index:idx_pair,priority:1" json:"learner_id"`
	MentorID    string        `gorm:"size:36;not null;index:idx_pair,priority:2;index" json:"mentor_id"`
	Message     string        `gorm:"type:text" json:"message"`
	Status      RequestStatus `gorm:"size:16;not null;default:pending" json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
}
