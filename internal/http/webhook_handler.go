package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tg-auth/internal/service"
	"tg-auth/internal/telegram"
)

// secretTokenHeader es el header de autenticidad que Telegram repite en cada
// entrega del webhook.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler recibe updates del bot. Con secret configurado exige
// igualdad exacta del header; sin secret la verificación se omite (downgrade
// documentado, se advierte en el arranque).
type WebhookHandler struct {
	logger   *zap.Logger
	webhooks *service.WebhookService
	secret   string
}

func NewWebhookHandler(logger *zap.Logger, webhooks *service.WebhookService, secret string) *WebhookHandler {
	return &WebhookHandler{
		logger:   logger,
		webhooks: webhooks,
		secret:   secret,
	}
}

// Receive maneja POST /webhook. Fuera del chequeo de secret siempre responde
// ok: Telegram reintenta entregas no reconocidas.
func (h *WebhookHandler) Receive(c *gin.Context) {
	if h.secret != "" && c.GetHeader(secretTokenHeader) != h.secret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		h.logger.Warn("malformed webhook body", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	h.webhooks.ProcessUpdate(c.Request.Context(), update)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
