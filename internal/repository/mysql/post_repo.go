package mysql

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/gorm"

	"Mentor_Community/internal/model"
)

type PostRepository struct {
	DB *gorm.DB
}

func (r *PostRepository) CreatePost(ctx context.Context, p *model.Post) error {
	return translate(r.DB.WithContext(ctx).Create(p).Error, "post by %s", p.AuthorID)
}

func (r *PostRepository) GetPost(ctx context.Context, id uint64) (*model.Post, error) {
	var p model.Post
	if err := r.DB.WithContext(ctx).First(&p, "id = ? AND status = 0", id).Error; err != nil {
		return nil, translate(err, "post %d", id)
	}
	return &p, nil
}

// ListPosts id 倒序游标分页，BeforeID=0 表示第一页
func (r *PostRepository) ListPosts(ctx context.Context, q model.PostQuery) ([]model.Post, error) {
	db := r.DB.WithContext(ctx).Where("status = 0")
	if q.BeforeID > 0 {
		db = db.Where("id < ?", q.BeforeID)
	}
	if q.AuthorID != "" {
		db = db.Where("author_id = ?", q.AuthorID)
	}
	if q.Search != "" {
		db = db.Where("LOWER(content) LIKE ? ESCAPE '!'", "%"+likeEscape(strings.ToLower(q.Search))+"%")
	}
	if q.Tag != "" {
		// tags 以 JSON 数组存储，匹配带引号的元素
		enc, _ := json.Marshal(strings.ToLower(q.Tag))
		db = db.Where("LOWER(tags) LIKE ? ESCAPE '!'", "%"+likeEscape(string(enc))+"%")
	}
	if q.Size > 0 {
		db = db.Limit(q.Size)
	}
	var list []model.Post
	if err := db.Order("id DESC").Find(&list).Error; err != nil {
		return nil, translate(err, "posts")
	}
	return list, nil
}

// SoftDeletePost 作者一步删除；幂等（已删除返回 changed=false）
func (r *PostRepository) SoftDeletePost(ctx context.Context, id uint64, authorID string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND author_id = ? AND status = 0", id, authorID).
		Update("status", 1)
	if res.Error != nil {
		return false, translate(res.Error, "post %d", id)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Count(&n).Error; err != nil {
		return false, translate(err, "post %d", id)
	}
	if n == 0 {
		return false, translate(gorm.ErrRecordNotFound, "post %d", id)
	}
	return false, nil
}

func likeEscape(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
