package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Post struct {
	ID           uint64                      `gorm:"primaryKey" json:"id"`
	AuthorID     string                      `gorm:"size:36;not null;index:idx_author_time" json:"author_id"`
	Content      string                      `gorm:"type:text;not null" json:"content"`
	Tags         datatypes.JSONSlice[string] `json:"tags"`
	Status       int                         `gorm:"not null;default:0" json:"-"` // 0=normal 1=deleted
	LikeCount    int64                       `gorm:"not null;default:0" json:"like_count"`
	CommentCount int64                       `gorm:"not null;default:0" json:"comment_count"`
	CreatedAt    time.Time                   `gorm:"index:idx_author_time" json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

func (Post) TableName() string {
	return "community_posts"
}

// HasTag 标签匹配不区分大小写
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// NormalizeTags 去空白、去空、去重，保留首次出现的顺序
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		k := strings.ToLower(t)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

type Comment struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	PostID    uint64    `gorm:"not null;index:idx_post_time,priority:1" json:"post_id"`
	AuthorID  string    `gorm:"size:36;not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_post_time,priority:2" json:"created_at"`
}

// PostDetail 详情页：帖子 + 全部评论 + 当前用户是否点赞
type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
	Liked    bool      `json:"liked"`
}

// LikeResult 点赞切换后的状态
type LikeResult struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

// PostCounts 对账用的计数快照
type PostCounts struct {
	ID           uint64
	LikeCount    int64
	CommentCount int64
}

// PostQuery 列表查询条件，BeforeID 为 0 表示第一页
type PostQuery struct {
	Tag      string
	Search   string
	AuthorID string
	BeforeID uint64
	Size     int
}
