package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Mentor_Community/internal/model"
)

// PostLikeRepository 点赞与评论，关系表和帖子计数在同一事务更新
type PostLikeRepository struct {
	DB *gorm.DB
}

// ToggleLike 先删；没有删到说明未点赞，再幂等插入
func (r *PostLikeRepository) ToggleLike(ctx context.Context, postID uint64, userID string) (model.LikeResult, error) {
	var res model.LikeResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁帖子行，同一帖子的切换串行执行
		var p model.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&p, "id = ? AND status = 0", postID).Error; err != nil {
			return translate(err, "post %d", postID)
		}

		var delta int64
		del := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&model.PostLike{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected > 0 {
			delta = -1
		} else {
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.PostLike{PostID: postID, UserID: userID})
			if ins.Error != nil {
				return ins.Error
			}
			// 唯一约束挡住了并发插入，计数已由对方更新
			if ins.RowsAffected > 0 {
				delta = 1
			}
			res.Liked = true
		}

		if delta != 0 {
			if err := tx.Model(&model.Post{}).
				Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("CASE WHEN like_count + ? < 0 THEN 0 ELSE like_count + ? END", delta, delta)).
				Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Post{}).Select("like_count").Where("id = ?", postID).Scan(&res.Count).Error
	})
	if err != nil {
		return model.LikeResult{}, translate(err, "like post %d", postID)
	}
	return res, nil
}

func (r *PostLikeRepository) IsLiked(ctx context.Context, postID uint64, userID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "like post %d", postID)
	}
	return count > 0, nil
}

func (r *PostLikeRepository) LikeCount(ctx context.Context, postID uint64) (int64, error) {
	var p model.Post
	err := r.DB.WithContext(ctx).Select("id", "like_count").First(&p, "id = ? AND status = 0", postID).Error
	if err != nil {
		return 0, translate(err, "post %d", postID)
	}
	return p.LikeCount, nil
}

func (r *PostLikeRepository) AddComment(ctx context.Context, c *model.Comment) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&p, "id = ? AND status = 0", c.PostID).Error; err != nil {
			return translate(err, "post %d", c.PostID)
		}
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Model(&model.Post{}).
			Where("id = ?", c.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	return translate(err, "comment on post %d", c.PostID)
}

// ListComments 最早的在前
func (r *PostLikeRepository) ListComments(ctx context.Context, postID uint64) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	if err != nil {
		return nil, translate(err, "comments of post %d", postID)
	}
	return list, nil
}

func (r *PostLikeRepository) CommentCount(ctx context.Context, postID uint64) (int64, error) {
	var p model.Post
	err := r.DB.WithContext(ctx).Select("id", "comment_count").First(&p, "id = ? AND status = 0", postID).Error
	if err != nil {
		return 0, translate(err, "post %d", postID)
	}
	return p.CommentCount, nil
}

// CountReconcilerRepo 帖子计数对账
type CountReconcilerRepo struct {
	DB *gorm.DB
}

// ListCounts 按 id 升序批量读取计数快照
func (r *CountReconcilerRepo) ListCounts(ctx context.Context, afterID uint64, limit int) ([]model.PostCounts, error) {
	var list []model.PostCounts
	if err := r.DB.WithContext(ctx).Model(&model.Post{}).
		Select("id", "like_count", "comment_count").
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, translate(err, "post counts after %d", afterID)
	}
	return list, nil
}

// RealCounts 以关系表为准的真实计数
func (r *CountReconcilerRepo) RealCounts(ctx context.Context, postID uint64) (int64, int64, error) {
	var likes, comments int64
	if err := r.DB.WithContext(ctx).Model(&model.PostLike{}).
		Where("post_id = ?", postID).
		Count(&likes).Error; err != nil {
		return 0, 0, translate(err, "likes of post %d", postID)
	}
	if err := r.DB.WithContext(ctx).Model(&model.Comment{}).
		Where("post_id = ?", postID).
		Count(&comments).Error; err != nil {
		return 0, 0, translate(err, "comments of post %d", postID)
	}
	return likes, comments, nil
}

func (r *CountReconcilerRepo) FixCounts(ctx context.Context, postID uint64, likes, comments int64) error {
	err := r.DB.WithContext(ctx).Model(&model.Post{}).Where("id = ?", postID).
		UpdateColumns(map[string]any{"like_count": likes, "comment_count": comments}).Error
	return translate(err, "fix counts of post %d", postID)
}
