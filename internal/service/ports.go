package service

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"Mentor_Community/internal/model"
)

// RoadmapStore 路线图与里程碑存储
type RoadmapStore interface {
	CreateRoadmap(ctx context.Context, r *model.Roadmap) error
	GetRoadmap(ctx context.Context, id string) (*model.Roadmap, error)
	ListRoadmaps(ctx context.Context, userID string) ([]model.Roadmap, error)
	ListSubmitted(ctx context.Context, limit int) ([]model.ReviewItem, error)
	// TransitionMilestone 条件更新 status=From，解锁下一个、写奖励流水和 outbox 全部在同一事务内；
	// 前置状态不满足时返回 ErrInvalidTransition
	TransitionMilestone(ctx context.Context, t model.MilestoneTransition) error
}

// LedgerStore 只追加的流水
type LedgerStore interface {
	AppendCredit(ctx context.Context, tx *model.Transaction) error
	// AppendDebit 在用户行锁内重新折叠余额，不足时返回 ErrInsufficientFunds
	AppendDebit(ctx context.Context, tx *model.Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id uint64) (*model.Post, error)
	ListPosts(ctx context.Context, q model.PostQuery) ([]model.Post, error)
	// SoftDeletePost 只允许作者删除，重复删除返回 false
	SoftDeletePost(ctx context.Context, id uint64, authorID string) (bool, error)
}

// EngagementStore 点赞与评论，(post_id, user_id) 唯一约束保证切换的并发安全
type EngagementStore interface {
	ToggleLike(ctx context.Context, postID uint64, userID string) (model.LikeResult, error)
	IsLiked(ctx context.Context, postID uint64, userID string) (bool, error)
	LikeCount(ctx context.Context, postID uint64) (int64, error)
	AddComment(ctx context.Context, c *model.Comment) error
	ListComments(ctx context.Context, postID uint64) ([]model.Comment, error)
	CommentCount(ctx context.Context, postID uint64) (int64, error)
}

// CounterStore 计数对账
type CounterStore interface {
	ListCounts(ctx context.Context, afterID uint64, limit int) ([]model.PostCounts, error)
	RealCounts(ctx context.Context, postID uint64) (likes, comments int64, err error)
	FixCounts(ctx context.Context, postID uint64, likes, comments int64) error
}

type ProfileStore interface {
	// EnsureProfile 不存在时插入，已存在则不做修改
	EnsureProfile(ctx context.Context, p *model.Profile) error
	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, id string, patch model.ProfilePatch) (*model.Profile, error)
	SetAvatar(ctx context.Context, id, url string) error
	ListByRole(ctx context.Context, role model.Role) ([]model.Profile, error)
}

// AccountStore 注销账号：资料、导师请求、会话成员、情绪打卡在同一事务内删除；
// 资金流水只追加，保留
type AccountStore interface {
	DeleteAccount(ctx context.Context, userID string) error
}

type MentorshipStore interface {
	// CreateRequest 同一对 (learner, mentor) 已有 pending 请求时返回 ErrConflict
	CreateRequest(ctx context.Context, r *model.MentorshipRequest) error
	GetRequest(ctx context.Context, id string) (*model.MentorshipRequest, error)
	// RespondRequest 条件更新 pending -> to；接受时在同一事务内找到或创建双方的会话
	RespondRequest(ctx context.Context, id, mentorID string, to model.RequestStatus, at time.Time, conv *model.Conversation) (*model.Conversation, error)
	ListRequests(ctx context.Context, userID string) ([]model.MentorshipRequest, error)
}

type MessageStore interface {
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	// AppendMessage 同一事务内更新会话的 last_message_at
	AppendMessage(ctx context.Context, m *model.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
}

type MoodStore interface {
	UpsertMood(ctx context.Context, e *model.MoodEntry) error
	ListMoods(ctx context.Context, userID, sinceDay string) ([]model.MoodEntry, error)
}

type OutboxStore interface {
	PendingOutbox(ctx context.Context, batchSize, maxRetry int) ([]model.LedgerOutbox, error)
	MarkSent(ctx context.Context, id uint64) error
	MarkFailed(ctx context.Context, id uint64) error
}

// ChangeFeed 行变更通知：subscribe(table, onChange)
type ChangeFeed interface {
	Publish(ctx context.Context, c model.Change) error
	Subscribe(ctx context.Context, table string, onChange func(model.Change)) (cancel func(), err error)
}

// LikeCache 点赞计数缓存，命中与否通过 ok 返回
type LikeCache interface {
	GetCount(ctx context.Context, postID uint64) (int64, bool, error)
	SetCount(ctx context.Context, postID uint64, n int64) error
	Invalidate(ctx context.Context, postID uint64) error
}

// AI 外部大模型
type AI interface {
	Configured() bool
	GenerateRoadmap(ctx context.Context, goal, level string) (json.RawMessage, error)
	Complete(ctx context.Context, system string, turns []model.ChatTurn, jsonMode bool) (string, error)
	Support(ctx context.Context, mood model.Mood, message string) (string, error)
}

type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

type Mailer interface {
	Send(to, replyTo, subject, htmlBody string) error
}

// Actor 当前请求的身份
type Actor struct {
	ID   string
	Role model.Role
}
