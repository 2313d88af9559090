package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/service"
)

type PostHandler struct {
	svc *service.PostService
}

type CreatePostReq struct {
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

// CreatePost 创建帖子接口
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}

	post, err := h.svc.CreatePost(c.Request.Context(), userID(c), req.Content, req.Tags)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 0, "post": post})
}

// List 游标分页：before_id 为空取第一页，返回 next_before_id=0 表示没有更多
func (h *PostHandler) List(c *gin.Context) {
	q := model.PostQuery{
		Tag:      c.Query("tag"),
		Search:   c.Query("search"),
		AuthorID: c.Query("author_id"),
	}
	if v := c.Query("before_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			badRequest(c, "invalid before_id")
			return
		}
		q.BeforeID = id
	}
	size, err := queryInt(c, "size", 20)
	if err != nil {
		fail(c, err)
		return
	}
	q.Size = size

	list, next, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list, "next_before_id": next})
}

// Detail 帖子详情：全部评论 + 是否已点赞
func (h *PostHandler) Detail(c *gin.Context) {
	id, err := postID(c)
	if err != nil {
		fail(c, err)
		return
	}
	d, err := h.svc.Detail(c.Request.Context(), userID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "detail": d})
}

// DeletePost 删除帖子接口
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, err := postID(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), userID(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "deleted"})
}
