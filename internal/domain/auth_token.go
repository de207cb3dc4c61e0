package domain

import (
	"strings"
	"time"
)

// AuthToken es un token de un solo uso para login vía bot. Solo se persiste
// el fingerprint SHA-256 del texto plano, nunca el token en sí.
type AuthToken struct {
	Fingerprint string
	TelegramID  string
	Username    *string
	FirstName   *string
	LastName    *string
	PhotoURL    *string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Used        bool
}

// Bound indica si el token ya tiene una identidad de Telegram asociada.
func (t AuthToken) Bound() bool {
	return t.TelegramID != ""
}

// ExpiredAt evalúa la expiración normalizando ambos instantes a UTC.
func (t AuthToken) ExpiredAt(now time.Time) bool {
	return now.UTC().After(t.ExpiresAt.UTC())
}

// Profile reconstruye el perfil de Telegram guardado en el token.
func (t AuthToken) Profile() TelegramProfile {
	return TelegramProfile{
		TelegramID: t.TelegramID,
		Username:   t.Username,
		FirstName:  t.FirstName,
		LastName:   t.LastName,
		PhotoURL:   t.PhotoURL,
	}
}

// TelegramProfile son los campos de perfil que llegan con el webhook.
type TelegramProfile struct {
	TelegramID string
	Username   *string
	FirstName  *string
	LastName   *string
	PhotoURL   *string
}

// NewTelegramProfile normaliza strings vacíos a nil.
func NewTelegramProfile(telegramID, username, firstName, lastName, photoURL string) TelegramProfile {
	return TelegramProfile{
		TelegramID: telegramID,
		Username:   optString(username),
		FirstName:  optString(firstName),
		LastName:   optString(lastName),
		PhotoURL:   optString(photoURL),
	}
}

// DisplayName deriva el nombre visible: nombre y apellido, si no username,
// si no un fallback con el ID.
func (p TelegramProfile) DisplayName() string {
	var parts []string
	if p.FirstName != nil && *p.FirstName != "" {
		parts = append(parts, *p.FirstName)
	}
	if p.LastName != nil && *p.LastName != "" {
		parts = append(parts, *p.LastName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if p.Username != nil && *p.Username != "" {
		return *p.Username
	}
	return "User " + p.TelegramID
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
