package domain

// User es la cuenta de aplicación creada o actualizada en cada canje de un
// token de autorización. Email y AvatarURL son nulos para cuentas creadas
// únicamente vía Telegram.
type User struct {
	ID         string  `json:"id"`
	Email      *string `json:"email"`
	Name       string  `json:"name"`
	AvatarURL  *string `json:"avatar_url"`
	TelegramID string  `json:"telegram_id"`
}
