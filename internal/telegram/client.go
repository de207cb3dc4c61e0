package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// MaxMessageLength es el límite de Telegram para el texto de un mensaje.
// Se valida localmente antes de llamar a la API.
const MaxMessageLength = 4096

// ErrMessageTooLong indica un texto por encima de MaxMessageLength.
var ErrMessageTooLong = errors.New("message too long")

// APIError es un rechazo de la Bot API (respuesta no-ok) con su código y
// descripción originales.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error: code=%d description=%s", e.Code, e.Description)
}

// Gateway define la capacidad de mensajería que consumen los servicios.
type Gateway interface {
	SendMessage(ctx context.Context, msg SendMessage) (int64, error)
	SendPhoto(ctx context.Context, msg SendPhoto) (int64, error)
	DeliverLoginLink(ctx context.Context, chatID, url string) (int64, error)
}

// Client implementa Gateway contra api.telegram.org.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient construye un cliente apuntando a la Bot API.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

func (c *Client) SendMessage(ctx context.Context, msg SendMessage) (int64, error) {
	if utf8.RuneCountInString(msg.Text) > MaxMessageLength {
		return 0, ErrMessageTooLong
	}

	payload := map[string]any{
		"chat_id":                  msg.ChatID,
		"text":                     msg.Text,
		"disable_notification":     msg.Silent,
		"disable_web_page_preview": msg.DisableWebPagePreview,
	}
	if msg.ParseMode != "" {
		payload["parse_mode"] = msg.ParseMode
	}
	if msg.ReplyMarkup != nil {
		payload["reply_markup"] = msg.ReplyMarkup
	}
	return c.call(ctx, "sendMessage", payload)
}

func (c *Client) SendPhoto(ctx context.Context, msg SendPhoto) (int64, error) {
	payload := map[string]any{
		"chat_id": msg.ChatID,
		"photo":   msg.PhotoURL,
	}
	if msg.Caption != "" {
		payload["caption"] = msg.Caption
	}
	if msg.ParseMode != "" {
		payload["parse_mode"] = msg.ParseMode
	}
	return c.call(ctx, "sendPhoto", payload)
}

// DeliverLoginLink envía el link de login de un solo uso con un botón inline.
// Es el único camino por el que el token en texto plano llega al usuario.
func (c *Client) DeliverLoginLink(ctx context.Context, chatID, url string) (int64, error) {
	return c.SendMessage(ctx, SendMessage{
		ChatID:    chatID,
		Text:      "Authorization ready!\n\nTap the button below to sign in 👇\n\nThe link is valid for 5 minutes.",
		ParseMode: "HTML",
		ReplyMarkup: &InlineKeyboardMarkup{
			InlineKeyboard: [][]InlineKeyboardButton{
				{{Text: "Sign in", URL: url}},
			},
		},
	})
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

type messageResult struct {
	MessageID int64 `json:"message_id"`
}

func (c *Client) call(ctx context.Context, method string, payload any) (int64, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	var ar apiResponse
	if err := json.Unmarshal(respBody, &ar); err != nil {
		return 0, fmt.Errorf("unmarshal response: status=%d: %w", resp.StatusCode, err)
	}
	if !ar.OK {
		c.logger.Warn("telegram api rejected call",
			zap.String("method", method),
			zap.Int("code", ar.ErrorCode),
			zap.String("description", ar.Description),
		)
		return 0, &APIError{Code: ar.ErrorCode, Description: ar.Description}
	}

	var mr messageResult
	if err := json.Unmarshal(ar.Result, &mr); err != nil {
		return 0, fmt.Errorf("unmarshal result: %w", err)
	}
	return mr.MessageID, nil
}
