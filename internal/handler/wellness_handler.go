package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/service"
)

type WellnessHandler struct {
	svc       *service.WellnessService
	assistant *service.AssistantService
}

type CheckInReq struct {
	Mood model.Mood `json:"mood" binding:"required"`
}

type TalkReq struct {
	Mood    model.Mood `json:"mood"`
	Message string     `json:"message"`
}

type ChatReq struct {
	Messages []model.ChatTurn `json:"messages"`
}

func NewWellnessHandler(svc *service.WellnessService, assistant *service.AssistantService) *WellnessHandler {
	return &WellnessHandler{svc: svc, assistant: assistant}
}

func (h *WellnessHandler) CheckIn(c *gin.Context) {
	var req CheckInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	reply, err := h.svc.CheckIn(c.Request.Context(), userID(c), req.Mood)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "reply": reply})
}

func (h *WellnessHandler) Talk(c *gin.Context) {
	var req TalkReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	reply, err := h.svc.Talk(c.Request.Context(), userID(c), req.Mood, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "reply": reply})
}

// History 最近 days 天的打卡，默认 7 天
func (h *WellnessHandler) History(c *gin.Context) {
	days, err := queryInt(c, "days", 7)
	if err != nil {
		fail(c, err)
		return
	}
	list, err := h.svc.History(c.Request.Context(), userID(c), days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

// Chat 助手多轮对话
func (h *WellnessHandler) Chat(c *gin.Context) {
	var req ChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	reply, err := h.assistant.Chat(c.Request.Context(), req.Messages)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "reply": reply})
}
