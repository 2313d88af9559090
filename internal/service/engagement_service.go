package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

// EngagementService 点赞切换与评论；计数以库为准，缓存只做读加速
type EngagementService struct {
	store EngagementStore
	cache LikeCache
	feed  ChangeFeed
	log   *logger.Logger
	group singleflight.Group
	now   func() time.Time
}

func NewEngagementService(store EngagementStore, cache LikeCache, feed ChangeFeed, log *logger.Logger) *EngagementService {
	return &EngagementService{
		store: store,
		cache: cache,
		feed:  feed,
		log:   log.With("service", "EngagementService"),
		now:   time.Now,
	}
}

// ToggleLike 已点赞则取消，否则点赞
func (s *EngagementService) ToggleLike(ctx context.Context, postID uint64, userID string) (model.LikeResult, error) {
	if userID == "" {
		return model.LikeResult{}, pkg.ErrNotAuthenticated
	}
	if postID == 0 {
		return model.LikeResult{}, fmt.Errorf("invalid post id: %w", pkg.ErrInvalidArgument)
	}
	res, err := s.store.ToggleLike(ctx, postID, userID)
	if err != nil {
		return model.LikeResult{}, err
	}
	// 写库成功后删缓存，读侧回源重建
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, postID); err != nil {
			s.log.Warn("invalidate like cache failed", "post_id", postID, "error", err)
		}
	}
	op := model.OpInsert
	if !res.Liked {
		op = model.OpDelete
	}
	s.publish(ctx, model.TableLikes, op, userID, postID)
	return res, nil
}

func (s *EngagementService) IsLiked(ctx context.Context, postID uint64, userID string) (bool, error) {
	if userID == "" {
		return false, pkg.ErrNotAuthenticated
	}
	return s.store.IsLiked(ctx, postID, userID)
}

// LikeCount 缓存优先，未命中时同一帖子只回源一次
func (s *EngagementService) LikeCount(ctx context.Context, postID uint64) (int64, error) {
	if s.cache != nil {
		if v, ok, err := s.cache.GetCount(ctx, postID); err == nil && ok {
			return v, nil
		}
	}
	v, err, _ := s.group.Do(strconv.FormatUint(postID, 10), func() (any, error) {
		n, err := s.store.LikeCount(ctx, postID)
		if err != nil {
			return int64(0), err
		}
		if s.cache != nil {
			_ = s.cache.SetCount(ctx, postID, n)
		}
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// AddComment 内容去掉首尾空白后不能为空
func (s *EngagementService) AddComment(ctx context.Context, postID uint64, userID, content string) (*model.Comment, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment is empty: %w", pkg.ErrInvalidArgument)
	}
	c := &model.Comment{PostID: postID, AuthorID: userID, Content: content, CreatedAt: s.now()}
	if err := s.store.AddComment(ctx, c); err != nil {
		return nil, err
	}
	s.publish(ctx, model.TableComments, model.OpInsert, userID, postID)
	return c, nil
}

func (s *EngagementService) CommentCount(ctx context.Context, postID uint64) (int64, error) {
	return s.store.CommentCount(ctx, postID)
}

func (s *EngagementService) Comments(ctx context.Context, postID uint64) ([]model.Comment, error) {
	return s.store.ListComments(ctx, postID)
}

func (s *EngagementService) publish(ctx context.Context, table, op, userID string, postID uint64) {
	if s.feed == nil {
		return
	}
	c := model.Change{Table: table, Op: op, UserID: userID, RecordID: strconv.FormatUint(postID, 10), At: s.now()}
	if err := s.feed.Publish(ctx, c); err != nil {
		s.log.Warn("publish change failed", "table", table, "error", err)
	}
}
