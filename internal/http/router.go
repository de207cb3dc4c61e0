package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	allowedOrigins string,
	authH *AuthHandler,
	notifyH *NotifyHandler,
	webhookH *WebhookHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(allowedOrigins))

	auth := r.Group("/auth")
	auth.POST("/callback", authH.Callback)
	auth.POST("/refresh", authH.Refresh)
	auth.POST("/logout", authH.Logout)

	notify := r.Group("/notify")
	notify.POST("/send", notifyH.Send)
	notify.POST("/send-photo", notifyH.SendPhoto)
	notify.POST("/test", notifyH.Test)

	r.POST("/webhook", webhookH.Receive)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// corsMiddleware agrega los headers CORS y corta el preflight OPTIONS.
func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowedOrigins)
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Telegram-Bot-Api-Secret-Token")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
