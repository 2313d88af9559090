package mysql

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
)

func TestPostListFilters(t *testing.T) {
	ctx := context.Background()
	repo := &PostRepository{DB: newTestDB(t)}
	posts := []model.Post{
		{AuthorID: "a", Content: "Learning Go channels", Tags: []string{"Go", "concurrency"}},
		{AuthorID: "b", Content: "100% done with SQL", Tags: []string{"sql"}},
		{AuthorID: "a", Content: "golang tips", Tags: []string{"golang"}},
	}
	for i := range posts {
		require.NoError(t, repo.CreatePost(ctx, &posts[i]))
	}

	got, err := repo.ListPosts(ctx, model.PostQuery{Tag: "go"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, posts[0].ID, got[0].ID)

	got, err = repo.ListPosts(ctx, model.PostQuery{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].AuthorID)

	got, err = repo.ListPosts(ctx, model.PostQuery{AuthorID: "a", Size: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, posts[2].ID, got[0].ID)

	got, err = repo.ListPosts(ctx, model.PostQuery{BeforeID: posts[2].ID})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSoftDeletePost(t *testing.T) {
	ctx := context.Background()
	repo := &PostRepository{DB: newTestDB(t)}
	p := &model.Post{AuthorID: "a", Content: "x"}
	require.NoError(t, repo.CreatePost(ctx, p))

	_, err := repo.SoftDeletePost(ctx, p.ID, "b")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	changed, err := repo.SoftDeletePost(ctx, p.ID, "a")
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = repo.SoftDeletePost(ctx, p.ID, "a")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = repo.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestToggleLikeSQL(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	posts := &PostRepository{DB: db}
	likes := &PostLikeRepository{DB: db}
	p := &model.Post{AuthorID: "a", Content: "x"}
	require.NoError(t, posts.CreatePost(ctx, p))

	res, err := likes.ToggleLike(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{Liked: true, Count: 1}, res)
	res, err = likes.ToggleLike(ctx, p.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Count)
	res, err = likes.ToggleLike(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, model.LikeResult{Liked: false, Count: 1}, res)

	liked, err := likes.IsLiked(ctx, p.ID, "u2")
	require.NoError(t, err)
	assert.True(t, liked)

	_, err = likes.ToggleLike(ctx, 999, "u1")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestConcurrentToggleKeepsCounterConsistent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	posts := &PostRepository{DB: db}
	likes := &PostLikeRepository{DB: db}
	p := &model.Post{AuthorID: "a", Content: "x"}
	require.NoError(t, posts.CreatePost(ctx, p))

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := likes.ToggleLike(ctx, p.ID, "u1")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := likes.LikeCount(ctx, p.ID)
	require.NoError(t, err)
	actual, _, err := (&CountReconcilerRepo{DB: db}).RealCounts(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, actual, n)
}

func TestCommentsAndReconcile(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	posts := &PostRepository{DB: db}
	eng := &PostLikeRepository{DB: db}
	rec := &CountReconcilerRepo{DB: db}
	p := &model.Post{AuthorID: "a", Content: "x"}
	require.NoError(t, posts.CreatePost(ctx, p))

	require.NoError(t, eng.AddComment(ctx, &model.Comment{PostID: p.ID, AuthorID: "u1", Content: "first"}))
	require.NoError(t, eng.AddComment(ctx, &model.Comment{PostID: p.ID, AuthorID: "u2", Content: "second"}))
	assert.ErrorIs(t, eng.AddComment(ctx, &model.Comment{PostID: 999, AuthorID: "u1", Content: "x"}), pkg.ErrNotFound)

	list, err := eng.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)

	require.NoError(t, rec.FixCounts(ctx, p.ID, 5, 0))
	counts, err := rec.ListCounts(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, int64(5), counts[0].LikeCount)

	likes, comments, err := rec.RealCounts(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), likes)
	assert.Equal(t, int64(2), comments)
}
