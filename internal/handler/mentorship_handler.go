package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Mentor_Community/internal/model"
	"Mentor_Community/internal/service"
)

type MentorshipHandler struct {
	svc      *service.MentorshipService
	messages *service.MessageService
}

type MentorshipReq struct {
	MentorID string `json:"mentor_id" binding:"required"`
	Message  string `json:"message"`
}

type RespondReq struct {
	Status model.RequestStatus `json:"status" binding:"required"`
}

type SendMessageReq struct {
	Content string `json:"content"`
}

func NewMentorshipHandler(svc *service.MentorshipService, messages *service.MessageService) *MentorshipHandler {
	return &MentorshipHandler{svc: svc, messages: messages}
}

func (h *MentorshipHandler) ListMentors(c *gin.Context) {
	list, err := h.svc.ListMentors(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *MentorshipHandler) SendRequest(c *gin.Context) {
	var req MentorshipReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	r, err := h.svc.SendRequest(c.Request.Context(), userID(c), req.MentorID, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "request": r})
}

// Respond 导师接受或拒绝；接受时返回会话
func (h *MentorshipHandler) Respond(c *gin.Context) {
	var req RespondReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	conv, err := h.svc.Respond(c.Request.Context(), userID(c), c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "status": req.Status, "conversation": conv})
}

func (h *MentorshipHandler) ListRequests(c *gin.Context) {
	list, err := h.svc.ListRequests(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *MentorshipHandler) ListConversations(c *gin.Context) {
	list, err := h.messages.ListConversations(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *MentorshipHandler) ListMessages(c *gin.Context) {
	list, err := h.messages.ListMessages(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "list": list})
}

func (h *MentorshipHandler) SendMessage(c *gin.Context) {
	var req SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid params")
		return
	}
	m, err := h.messages.SendMessage(c.Request.Context(), userID(c), c.Param("id"), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": m})
}
