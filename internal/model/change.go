package model

import "time"

// 可订阅的逻辑表
const (
	TableRoadmaps     = "roadmaps"
	TableTransactions = "transactions"
	TablePosts        = "posts"
	TableLikes        = "post_likes"
	TableComments     = "comments"
	TableRequests     = "mentorship_requests"
	TableMessages     = "messages"
)

const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Change 一条行变更通知，只携带定位信息，订阅方自行重新读取
type Change struct {
	Table    string    `json:"table"`
	Op       string    `json:"op"`
	UserID   string    `json:"user_id,omitempty"`
	RecordID string    `json:"record_id,omitempty"`
	At       time.Time `json:"at"`
}
