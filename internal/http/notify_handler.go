package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tg-auth/internal/telegram"
)

// NotifyHandler expone la fachada de notificaciones sobre el gateway de
// mensajería.
type NotifyHandler struct {
	logger        *zap.Logger
	gateway       telegram.Gateway
	defaultChatID string
}

func NewNotifyHandler(logger *zap.Logger, gateway telegram.Gateway, defaultChatID string) *NotifyHandler {
	return &NotifyHandler{
		logger:        logger,
		gateway:       gateway,
		defaultChatID: defaultChatID,
	}
}

// Send maneja POST /notify/send.
func (h *NotifyHandler) Send(c *gin.Context) {
	var req struct {
		Text      string `json:"text"`
		ChatID    string `json:"chat_id"`
		ParseMode string `json:"parse_mode"`
		Silent    bool   `json:"silent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	chatID := h.chatID(req.ChatID)
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat_id is required"})
		return
	}

	messageID, err := h.gateway.SendMessage(c.Request.Context(), telegram.SendMessage{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             parseMode(req.ParseMode),
		Silent:                req.Silent,
		DisableWebPagePreview: true,
	})
	if err != nil {
		h.gatewayError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message_id": messageID})
}

// SendPhoto maneja POST /notify/send-photo.
func (h *NotifyHandler) SendPhoto(c *gin.Context) {
	var req struct {
		PhotoURL  string `json:"photo_url"`
		Caption   string `json:"caption"`
		ChatID    string `json:"chat_id"`
		ParseMode string `json:"parse_mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	photoURL := strings.TrimSpace(req.PhotoURL)
	if photoURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo_url is required"})
		return
	}
	chatID := h.chatID(req.ChatID)
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat_id is required"})
		return
	}

	messageID, err := h.gateway.SendPhoto(c.Request.Context(), telegram.SendPhoto{
		ChatID:    chatID,
		PhotoURL:  photoURL,
		Caption:   strings.TrimSpace(req.Caption),
		ParseMode: parseMode(req.ParseMode),
	})
	if err != nil {
		h.gatewayError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message_id": messageID})
}

// Test maneja POST /notify/test: verifica la configuración del bot enviando
// un mensaje de prueba.
func (h *NotifyHandler) Test(c *gin.Context) {
	var req struct {
		ChatID string `json:"chat_id"`
	}
	_ = c.ShouldBindJSON(&req)

	chatID := h.chatID(req.ChatID)
	if chatID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat_id is required"})
		return
	}

	text := "<b>Test message</b>\n\nIf you can see this message, the Telegram bot is configured correctly!\n\n<i>Time: " +
		time.Now().Format("2006-01-02 15:04:05") + "</i>"

	messageID, err := h.gateway.SendMessage(c.Request.Context(), telegram.SendMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		h.gatewayError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Test message sent",
		"message_id": messageID,
	})
}

func (h *NotifyHandler) chatID(requested string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	return h.defaultChatID
}

func parseMode(requested string) string {
	if requested == "" {
		return "HTML"
	}
	return requested
}

// gatewayError mapea fallos del gateway: rechazos de la API con su código y
// descripción, el resto como error interno genérico.
func (h *NotifyHandler) gatewayError(c *gin.Context, err error) {
	if errors.Is(err, telegram.ErrMessageTooLong) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message too long (max 4096 characters)"})
		return
	}
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": apiErr.Description, "error_code": apiErr.Code})
		return
	}
	h.logger.Error("gateway call failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
