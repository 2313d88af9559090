package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Mentor_Community/internal/middleware"
	"Mentor_Community/internal/model"
	"Mentor_Community/internal/service"
)

type ProfileHandler struct {
	svc       *service.ProfileService
	contact   *service.ContactService
	dashboard *service.DashboardService
}

func NewProfileHandler(svc *service.ProfileService, contact *service.ContactService, dashboard *service.DashboardService) *ProfileHandler {
	return &ProfileHandler{svc: svc, contact: contact, dashboard: dashboard}
}

// Me 当前用户资料，第一次访问时建档
func (h *ProfileHandler) Me(c *gin.Context) {
	p, err := h.svc.Me(c.Request.Context(), actor(c), c.GetString(middleware.ContextEmailKey))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "profile": p})
}

func (h *ProfileHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "profile": p})
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var patch model.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid params")
		return
	}
	p, err := h.svc.Update(c.Request.Context(), userID(c), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "profile": p})
}

// Stats 完成数、成就和证书数据
func (h *ProfileHandler) Stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "stats": st})
}

// DeleteAccount 注销当前账号，不可恢复
func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	if err := h.svc.DeleteAccount(c.Request.Context(), userID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "account deleted"})
}

// UploadAvatar multipart 字段名 avatar
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		badRequest(c, "avatar file required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "avatar file unreadable")
		return
	}
	defer f.Close()

	url, err := h.svc.UploadAvatar(c.Request.Context(), userID(c), fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "avatar_url": url})
}

// Contact 联系表单，不要求登录
func (h *ProfileHandler) Contact(c *gin.Context) {
	var form service.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid params")
		return
	}
	if err := h.contact.Submit(c.Request.Context(), form); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "sent"})
}

func (h *ProfileHandler) Dashboard(c *gin.Context) {
	d, err := h.dashboard.Load(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "dashboard": d})
}
