package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/service"
)

type RoadmapHandler struct {
	svc *service.RoadmapService
}

type GenerateRoadmapReq struct {
	Goal  string `json:"goal" binding:"required"`
	Level string `json:"level" binding:"required"`
}

type ReviewReq struct {
	Note string `json:"note"`
}

func NewRoadmapHandler(svc *service.RoadmapService) *RoadmapHandler {
	return &RoadmapHandler{svc: svc}
}

// Generate 调用模型生成路线图并保存
func (h *RoadmapHandler) Generate(c *gin.Context) {
	var req GenerateRoadmapReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	r, err := h.svc.Generate(c.Request.Context(), userID(c), req.Goal, req.Level)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "roadmap": r.View()})
}

// Create 请求体为原始路线图数据，规范化后保存
func (h *RoadmapHandler) Create(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || !json.Valid(raw) {
		badRequest(c, "invalid params")
		return
	}
	r, err := h.svc.CreateFromRaw(c.Request.Context(), userID(c), json.RawMessage(raw))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "roadmap": r.View()})
}

func (h *RoadmapHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *RoadmapHandler) Get(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "roadmap": r.View()})
}

// Submit 学员提交里程碑交付物
func (h *RoadmapHandler) Submit(c *gin.Context) {
	var sub model.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		badRequest(c, "invalid params")
		return
	}
	if err := h.svc.Submit(c.Request.Context(), userID(c), c.Param("id"), c.Param("mid"), sub); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "status": model.MilestoneSubmitted})
}

// PendingReviews 待审核列表，只有导师和管理员可见
func (h *RoadmapHandler) PendingReviews(c *gin.Context) {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		fail(c, err)
		return
	}
	list, err := h.svc.ListSubmitted(c.Request.Context(), actor(c), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *RoadmapHandler) Approve(c *gin.Context) {
	var req ReviewReq
	_ = c.ShouldBindJSON(&req)
	if err := h.svc.Approve(c.Request.Context(), actor(c), c.Param("id"), c.Param("mid"), req.Note); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "status": model.MilestoneCompleted})
}

func (h *RoadmapHandler) Reject(c *gin.Context) {
	var req ReviewReq
	_ = c.ShouldBindJSON(&req)
	if err := h.svc.Reject(c.Request.Context(), actor(c), c.Param("id"), c.Param("mid"), req.Note); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "status": model.MilestoneAvailable})
}
