package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/pkg/logger"
)

const maxPostLength = 5000

type PostService struct {
	posts      PostStore
	engagement *EngagementService
	feed       ChangeFeed
	log        *logger.Logger
	now        func() time.Time
}

func NewPostService(posts PostStore, engagement *EngagementService, feed ChangeFeed, log *logger.Logger) *PostService {
	return &PostService{
		posts:      posts,
		engagement: engagement,
		feed:       feed,
		log:        log.With("service", "PostService"),
		now:        time.Now,
	}
}

func (s *PostService) CreatePost(ctx context.Context, userID, content string, tags []string) (*model.Post, error) {
	if userID == "" {
		return nil, pkg.ErrNotAuthenticated
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("content required: %w", pkg.ErrInvalidArgument)
	}
	if len([]rune(content)) > maxPostLength {
		return nil, fmt.Errorf("content longer than %d characters: %w", maxPostLength, pkg.ErrInvalidArgument)
	}
	p := &model.Post{
		AuthorID:  userID,
		Content:   content,
		Tags:      model.NormalizeTags(tags),
		CreatedAt: s.now(),
	}
	if err := s.posts.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	if s.feed != nil {
		_ = s.feed.Publish(ctx, model.Change{Table: model.TablePosts, Op: model.OpInsert, UserID: userID, RecordID: strconv.FormatUint(p.ID, 10), At: p.CreatedAt})
	}
	return p, nil
}

// List 按 id 倒序游标分页，next 为 0 表示没有更多
func (s *PostService) List(ctx context.Context, q model.PostQuery) ([]model.Post, uint64, error) {
	if q.Size <= 0 || q.Size > 50 {
		q.Size = 20
	}
	q.Tag, q.Search = strings.TrimSpace(q.Tag), strings.TrimSpace(q.Search)
	size := q.Size
	q.Size = size + 1
	list, err := s.posts.ListPosts(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	var next uint64
	if len(list) > size {
		list = list[:size]
		next = list[size-1].ID
	}
	return list, next, nil
}

// Detail 帖子、全部评论和当前用户的点赞状态
func (s *PostService) Detail(ctx context.Context, userID string, postID uint64) (*model.PostDetail, error) {
	p, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.engagement.Comments(ctx, postID)
	if err != nil {
		return nil, err
	}
	d := &model.PostDetail{Post: *p, Comments: comments}
	if userID != "" {
		if d.Liked, err = s.engagement.IsLiked(ctx, postID, userID); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// DeletePost 作者软删除，重复删除不报错
func (s *PostService) DeletePost(ctx context.Context, userID string, postID uint64) error {
	if userID == "" {
		return pkg.ErrNotAuthenticated
	}
	changed, err := s.posts.SoftDeletePost(ctx, postID, userID)
	if err != nil {
		return err
	}
	if changed {
		s.log.Info("post deleted", "post_id", postID, "author_id", userID)
		if s.feed != nil {
			_ = s.feed.Publish(ctx, model.Change{Table: model.TablePosts, Op: model.OpDelete, UserID: userID, RecordID: strconv.FormatUint(postID, 10), At: s.now()})
		}
	}
	return nil
}
