package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Mentor_Community/internal/service"
)

type PostLikeHandler struct {
	svc *service.EngagementService
}

type CommentReq struct {
	Content string `json:"content"`
}

func NewPostLikeHandler(svc *service.EngagementService) *PostLikeHandler {
	return &PostLikeHandler{svc: svc}
}

// Toggle 点赞/取消点赞
func (h *PostLikeHandler) Toggle(c *gin.Context) {
	pid, err := postID(c)
	if err != nil {
		fail(c, err)
		return
	}
	res, err := h.svc.ToggleLike(c.Request.Context(), pid, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "liked": res.Liked, "count": res.Count})
}

func (h *PostLikeHandler) IsLiked(c *gin.Context) {
	pid, err := postID(c)
	if err != nil {
		fail(c, err)
		return
	}
	liked, err := h.svc.IsLiked(c.Request.Context(), pid, userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "liked": liked})
}

func (h *PostLikeHandler) Count(c *gin.Context) {
	pid, err := postID(c)
	if err != nil {
		fail(c, err)
		return
	}
	cnt, err := h.svc.LikeCount(c.Request.Context(), pid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "count": cnt})
}

func (h *PostLikeHandler) AddComment(c *gin.Context) {
	pid, err := postID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	cm, err := h.svc.AddComment(c.Request.Context(), pid, userID(c), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "comment": cm})
}

func (h *PostLikeHandler) Comments(c *gin.Context) {
	pid, err := postID(c)
	if err != nil {
		fail(c, err)
		return
	}
	list, err := h.svc.Comments(c.Request.Context(), pid)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}
