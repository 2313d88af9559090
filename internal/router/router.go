package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Mentor_Community/internal/handler"
	"Mentor_Community/internal/middleware"
	"Mentor_Community/internal/model"
	"Mentor_Community/internal/pkg"
	"Mentor_Community/internal/service"
)

// Services 路由依赖的全部业务服务
type Services struct {
	Roadmaps   *service.RoadmapService
	Ledger     *service.LedgerService
	Posts      *service.PostService
	Engagement *service.EngagementService
	Mentorship *service.MentorshipService
	Messages   *service.MessageService
	Wellness   *service.WellnessService
	Assistant  *service.AssistantService
	Profiles   *service.ProfileService
	Contact    *service.ContactService
	Dashboard  *service.DashboardService
}

func InitRouter(tokens *pkg.TokenParser, s Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.Metrics())

	roadmap := handler.NewRoadmapHandler(s.Roadmaps)
	wallet := handler.NewWalletHandler(s.Ledger)
	post := handler.NewPostHandler(s.Posts)
	like := handler.NewPostLikeHandler(s.Engagement)
	mentorship := handler.NewMentorshipHandler(s.Mentorship, s.Messages)
	wellness := handler.NewWellnessHandler(s.Wellness, s.Assistant)
	profile := handler.NewProfileHandler(s.Profiles, s.Contact, s.Dashboard)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"code": 0, "msg": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 联系表单不需要登录
	r.POST("/api/contact", profile.Contact)

	auth := middleware.AuthMiddleware(tokens)

	// 路线图相关接口
	roadmapGroup := r.Group("/api/roadmaps")
	roadmapGroup.Use(auth)
	{
		roadmapGroup.POST("/generate", roadmap.Generate)
		roadmapGroup.POST("", roadmap.Create)
		roadmapGroup.GET("", roadmap.List)
		roadmapGroup.GET("/:id", roadmap.Get)
		roadmapGroup.POST("/:id/milestones/:mid/submit", roadmap.Submit)
	}

	// 审核接口，只对导师和管理员开放
	reviewGroup := r.Group("/api/reviews")
	reviewGroup.Use(auth, middleware.RequireRole(model.RoleMentor, model.RoleAdmin))
	{
		reviewGroup.GET("", roadmap.PendingReviews)
		reviewGroup.POST("/:id/milestones/:mid/approve", roadmap.Approve)
		reviewGroup.POST("/:id/milestones/:mid/reject", roadmap.Reject)
	}

	// 钱包相关接口
	walletGroup := r.Group("/api/wallet")
	walletGroup.Use(auth)
	{
		walletGroup.GET("/balance", wallet.Balance)
		walletGroup.GET("/transactions", wallet.History)
		walletGroup.GET("/summary", wallet.Summary)
		walletGroup.POST("/withdraw", wallet.Withdraw)
		walletGroup.GET("/watch", wallet.Watch)
	}

	// 帖子相关接口
	postGroup := r.Group("/api/posts")
	postGroup.Use(auth)
	{
		postGroup.POST("", post.CreatePost)
		postGroup.GET("", post.List)
		postGroup.GET("/:id", post.Detail)
		postGroup.DELETE("/:id", post.DeletePost)
		postGroup.POST("/:id/like", like.Toggle)
		postGroup.GET("/:id/liked", like.IsLiked)
		postGroup.GET("/:id/likes", like.Count)
		postGroup.POST("/:id/comments", like.AddComment)
		postGroup.GET("/:id/comments", like.Comments)
	}

	// 导师匹配相关接口
	mentorGroup := r.Group("/api/mentorship")
	mentorGroup.Use(auth)
	{
		mentorGroup.GET("/mentors", mentorship.ListMentors)
		mentorGroup.POST("/requests", mentorship.SendRequest)
		mentorGroup.GET("/requests", mentorship.ListRequests)
		mentorGroup.POST("/requests/:id/respond", mentorship.Respond)
	}

	// 私信相关接口
	convGroup := r.Group("/api/conversations")
	convGroup.Use(auth)
	{
		convGroup.GET("", mentorship.ListConversations)
		convGroup.GET("/:id/messages", mentorship.ListMessages)
		convGroup.POST("/:id/messages", mentorship.SendMessage)
	}

	// 心情打卡和助手
	wellnessGroup := r.Group("/api/wellness")
	wellnessGroup.Use(auth)
	{
		wellnessGroup.POST("/checkin", wellness.CheckIn)
		wellnessGroup.POST("/talk", wellness.Talk)
		wellnessGroup.GET("/history", wellness.History)
	}
	r.POST("/api/assistant/chat", auth, wellness.Chat)

	// 个人资料
	profileGroup := r.Group("/api/profile")
	profileGroup.Use(auth)
	{
		profileGroup.GET("/me", profile.Me)
		profileGroup.PUT("/me", profile.Update)
		profileGroup.DELETE("/me", profile.DeleteAccount)
		profileGroup.GET("/me/stats", profile.Stats)
		profileGroup.POST("/me/avatar", profile.UploadAvatar)
		profileGroup.GET("/:id", profile.Get)
	}
	r.GET("/api/dashboard", auth, profile.Dashboard)

	return r
}
