package handler

import (
	"log"
	"time"

	"bankpro/internal/model"
	"bankpro/internal/service"
	"bankpro/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	ctxKeyRequestID = "request_id"
	ctxKeyUser      = "current_user"
)

// RequestIDMiddleware 透传或生成请求 ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKeyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		log.Printf("[HTTP] %s | %d | %13v | %15s | %-7s %s",
			c.GetString(ctxKeyRequestID),
			status,
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
		)
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %s %v", c.GetString(ctxKeyRequestID), err)
				c.AbortWithStatusJSON(500, gin.H{
					"code":    500,
					"message": "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// AuthMiddleware 要求已登录，当前用户放入上下文
func AuthMiddleware(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := sessions.CurrentUser(c.Request.Context())
		if err != nil {
			response.ServerError(c, err.Error())
			c.Abort()
			return
		}
		if user == nil {
			response.Unauthorized(c, service.ErrNotLoggedIn.Error())
			c.Abort()
			return
		}
		c.Set(ctxKeyUser, *user)
		c.Next()
	}
}

// mustUser 只能在 AuthMiddleware 之后调用
func mustUser(c *gin.Context) model.User {
	return c.MustGet(ctxKeyUser).(model.User)
}
