package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tg-auth/internal/service"
)

// AuthHandler mantiene dependencias para los endpoints de autenticación.
type AuthHandler struct {
	logger   *zap.Logger
	tokens   *service.AuthTokenService
	sessions *service.SessionService
}

func NewAuthHandler(logger *zap.Logger, tokens *service.AuthTokenService, sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		tokens:   tokens,
		sessions: sessions,
	}
}

// Callback maneja POST /auth/callback: el frontend canjea el token de un solo
// uso por el par de sesión.
func (h *AuthHandler) Callback(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	ctx := c.Request.Context()

	// Limpieza oportunista en cada ciclo: barato e idempotente.
	h.tokens.Cleanup(ctx)
	h.sessions.Cleanup(ctx)

	user, err := h.tokens.Redeem(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTokenNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
		case errors.Is(err, service.ErrTokenExpired):
			c.JSON(http.StatusGone, gin.H{"error": "Token expired"})
		case errors.Is(err, service.ErrTokenUsed):
			c.JSON(http.StatusGone, gin.H{"error": "Token already used"})
		case errors.Is(err, service.ErrTokenNotBound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Token not authenticated"})
		default:
			h.logger.Error("redeem failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	pair, err := h.sessions.Issue(ctx, user)
	if err != nil {
		if errors.Is(err, service.ErrSecretTooShort) {
			h.logger.Error("jwt secret misconfigured", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
			return
		}
		h.logger.Error("issue session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"expires_in":    pair.ExpiresIn,
		"user":          user,
	})
}

// Refresh maneja POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing refresh_token"})
		return
	}

	ctx := c.Request.Context()
	h.sessions.Cleanup(ctx)

	access, user, err := h.sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}
		h.logger.Error("refresh failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"expires_in":   h.sessions.ExpiresIn(),
		"user":         user,
	})
}

// Logout maneja POST /auth/logout. Siempre responde éxito: revocar un token
// ya inexistente es un logout igual de válido.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	// Cuerpo ausente o malformado se trata como logout sin token.
	_ = c.ShouldBindJSON(&req)

	if strings.TrimSpace(req.RefreshToken) != "" {
		if err := h.sessions.Revoke(c.Request.Context(), req.RefreshToken); err != nil {
			h.logger.Warn("revoke failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
