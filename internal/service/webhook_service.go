package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tg-auth/internal/domain"
	"tg-auth/internal/telegram"
)

// loginIntentParam es el parámetro de /start que dispara el flujo de login.
const loginIntentParam = "web_auth"

// WebhookService procesa updates del bot. Todo lo que no sea /start se
// reconoce y se ignora; los errores de envío se loguean y nunca impiden el
// ack del webhook.
type WebhookService struct {
	logger  *zap.Logger
	tokens  *AuthTokenService
	gateway telegram.Gateway
	siteURL string
	deduper UpdateDeduper
}

// NewWebhookService arma el servicio. deduper puede ser nil: sin dedup de
// updates reentregados, el comportamiento original.
func NewWebhookService(logger *zap.Logger, tokens *AuthTokenService, gateway telegram.Gateway, siteURL string, deduper UpdateDeduper) *WebhookService {
	return &WebhookService{
		logger:  logger,
		tokens:  tokens,
		gateway: gateway,
		siteURL: strings.TrimRight(siteURL, "/"),
		deduper: deduper,
	}
}

// ProcessUpdate maneja un update entrante del webhook.
func (s *WebhookService) ProcessUpdate(ctx context.Context, update telegram.Update) {
	if s.deduper != nil {
		seen, err := s.deduper.Seen(update.UpdateID)
		if err != nil {
			s.logger.Warn("update dedup check failed", zap.Error(err))
		} else if seen {
			return
		}
	}

	msg := update.Message
	if msg == nil || msg.Chat.ID == 0 {
		return
	}
	if !strings.HasPrefix(msg.Text, "/start") {
		return
	}

	parts := strings.SplitN(msg.Text, " ", 2)
	if len(parts) > 1 && strings.TrimSpace(parts[1]) == loginIntentParam && msg.From != nil {
		s.handleWebAuth(ctx, msg.Chat.ID, *msg.From)
		return
	}
	s.handleStart(ctx, msg.Chat.ID)
}

// handleWebAuth crea el token ya vinculado al perfil del remitente y entrega
// el link de login por mensaje privado.
func (s *WebhookService) handleWebAuth(ctx context.Context, chatID int64, from telegram.User) {
	profile := domain.NewTelegramProfile(
		strconv.FormatInt(from.ID, 10),
		from.Username,
		from.FirstName,
		from.LastName,
		"",
	)

	plaintext, err := s.tokens.Create(ctx, &profile)
	if err != nil {
		s.logger.Error("create auth token failed", zap.Error(err))
		return
	}

	authURL := s.siteURL + "/auth/telegram/callback?token=" + plaintext
	chat := strconv.FormatInt(chatID, 10)
	if _, err := s.gateway.DeliverLoginLink(ctx, chat, authURL); err != nil {
		s.logger.Error("deliver login link failed", zap.Error(err))
	}
}

func (s *WebhookService) handleStart(ctx context.Context, chatID int64) {
	chat := strconv.FormatInt(chatID, 10)
	_, err := s.gateway.SendMessage(ctx, telegram.SendMessage{
		ChatID: chat,
		Text:   "Hi! Use the \"Login via Telegram\" button on the site.",
	})
	if err != nil {
		s.logger.Warn("greeting send failed", zap.Error(err))
	}
}
