package handler

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置路由
func SetupRouter(h *Handler) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.Logout)
			auth.GET("/me", AuthMiddleware(h.sessionService), h.Me)
		}

		// 以下接口需要登录
		private := api.Group("", AuthMiddleware(h.sessionService))
		{
			private.GET("/accounts", h.ListAccounts)
			private.POST("/transfers", h.Transfer)

			cards := private.Group("/cards")
			{
				cards.GET("", h.ListCards)
				cards.POST("", h.IssueCard)
				cards.POST("/:number/block", h.BlockCard)
			}

			statements := private.Group("/statements")
			{
				statements.GET("", h.ListStatements)
				statements.GET("/export", h.ExportStatements)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
